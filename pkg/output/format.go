// Package output provides utilities for formatting and displaying allocation previews.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/iwvelando/budget-allocation/internal/allocation"
	"github.com/iwvelando/budget-allocation/pkg/constants"
	"github.com/iwvelando/budget-allocation/pkg/format"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Report is a preview together with the totals a reviewer needs to judge it.
type Report struct {
	ProfileID         string                       `json:"profileId"`
	ProfileLabel      string                       `json:"profileLabel,omitempty"`
	TotalBudgetCents  int64                        `json:"totalBudgetCents"`
	Lines             []allocation.PreviewLine     `json:"lines"`
	SectionTotals     []allocation.SectionTotal    `json:"sectionTotals"`
	SectionVariance   []allocation.SectionVariance `json:"sectionVariance,omitempty"`
	GrandTotalPercent float64                      `json:"grandTotalPercent"`
	GrandTotalCents   int64                        `json:"grandTotalCents"`
}

// NewReport computes section totals, variance and grand totals for lines.
// profile may be nil, in which case variance is omitted.
func NewReport(profile *allocation.Profile, totalBudgetCents int64, lines []allocation.PreviewLine) Report {
	report := Report{
		TotalBudgetCents:  totalBudgetCents,
		Lines:             lines,
		SectionTotals:     allocation.GetSectionTotals(lines),
		SectionVariance:   allocation.GetSectionVariance(profile, lines),
		GrandTotalPercent: allocation.GetGrandTotalPercent(lines),
	}
	if report.Lines == nil {
		report.Lines = []allocation.PreviewLine{}
	}
	if profile != nil {
		report.ProfileID = profile.ID
		report.ProfileLabel = profile.Label
	}
	for _, line := range lines {
		report.GrandTotalCents += line.AmountCents
	}
	return report
}

// Write renders report in the named output format.
func Write(w io.Writer, outputFormat string, report Report) error {
	switch outputFormat {
	case constants.OutputFormatPretty, "":
		return PrettyFormat(w, report)
	case constants.OutputFormatCSV:
		return CsvFormat(w, report)
	case constants.OutputFormatJSON:
		return JSONFormat(w, report)
	}
	return fmt.Errorf("unsupported output format: %s", outputFormat)
}

// PrettyFormat outputs a human-readable rather than machine-readable table.
func PrettyFormat(w io.Writer, report Report) error {
	p := message.NewPrinter(language.English)
	var b strings.Builder

	title := report.ProfileID
	if report.ProfileLabel != "" {
		title = fmt.Sprintf("%s (%s)", report.ProfileID, report.ProfileLabel)
	}
	fmt.Fprintf(&b, "--- Allocation for profile %s ---\n", title)
	fmt.Fprintf(&b, "Total budget: %s\n\n", format.Currency(report.TotalBudgetCents))

	fmt.Fprintf(&b, "%-12s | %-36s | %8s | %18s | %-11s | Notes\n", "Section", "Activity", "Percent", "Amount", "Status")
	fmt.Fprintf(&b, "%s | %s | %s | %s | %s | _____\n",
		strings.Repeat("_", 12), strings.Repeat("_", 36), strings.Repeat("_", 8), strings.Repeat("_", 18), strings.Repeat("_", 11))
	for _, line := range report.Lines {
		_, _ = p.Fprintf(&b, "%-12s | %-36s | %8s | %18s | %-11s | %s\n",
			line.Section, line.Activity, format.Percent(line.Percent, 2), format.Currency(line.AmountCents), line.Status, strings.Join(lineNotes(line), ", "))
	}

	b.WriteString("\nSection totals\n")
	for _, total := range report.SectionTotals {
		fmt.Fprintf(&b, "%-12s | %8s | %18s\n", total.Section, format.Percent(total.Percent, constants.TotalsPrecision), format.Currency(total.AmountCents))
	}
	for _, variance := range report.SectionVariance {
		if variance.Balanced() {
			continue
		}
		fmt.Fprintf(&b, "  %s is %+.1f%% against a template of %s\n", variance.Section, variance.Difference, format.Percent(variance.TemplatePercent, constants.TotalsPrecision))
	}
	fmt.Fprintf(&b, "%-12s | %8s | %18s\n", "TOTAL", format.Percent(report.GrandTotalPercent, constants.TotalsPrecision), format.Currency(report.GrandTotalCents))

	_, err := io.WriteString(w, b.String())
	return err
}

func lineNotes(line allocation.PreviewLine) []string {
	var notes []string
	if line.Locked {
		notes = append(notes, "locked")
	}
	if line.HasCostLine() && line.ExistingBudgetCents != 0 {
		notes = append(notes, "existing "+format.Currency(line.ExistingBudgetCents))
	}
	if line.StakeholderID != "" {
		notes = append(notes, "stakeholder "+line.StakeholderID)
	}
	return notes
}

// CsvFormat outputs one row per preview line in comma-separated value format.
func CsvFormat(w io.Writer, report Report) error {
	cw := csv.NewWriter(w)
	header := []string{"section", "activity", "percent", "amount", "status", "locked", "costLineId", "existingBudget", "stakeholderId"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, line := range report.Lines {
		record := []string{
			line.Section,
			line.Activity,
			strconv.FormatFloat(line.Percent, 'f', -1, 64),
			format.PlainCurrency(line.AmountCents),
			line.Status,
			strconv.FormatBool(line.Locked),
			line.CostLineID,
			format.PlainCurrency(line.ExistingBudgetCents),
			line.StakeholderID,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// JSONFormat outputs the full report as indented JSON.
func JSONFormat(w io.Writer, report Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
