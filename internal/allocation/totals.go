package allocation

import (
	"github.com/iwvelando/budget-allocation/pkg/constants"
	"github.com/iwvelando/budget-allocation/pkg/mathutil"
)

// SectionTotal is the summed percent and amount of one section.
type SectionTotal struct {
	Section     string  `json:"section"`
	Percent     float64 `json:"percent"`
	AmountCents int64   `json:"amountCents"`
}

// SectionVariance compares a section's template percent with what the
// preview currently allocates to it.
type SectionVariance struct {
	Section          string  `json:"section"`
	TemplatePercent  float64 `json:"templatePercent"`
	AllocatedPercent float64 `json:"allocatedPercent"`
	Difference       float64 `json:"difference"`
}

// Balanced reports whether the allocation matches the template within tolerance.
func (v SectionVariance) Balanced() bool {
	return mathutil.WithinTolerance(v.AllocatedPercent, v.TemplatePercent, constants.PercentTolerance)
}

// GetSectionTotals sums percent and amount for each of the fixed sections,
// in canonical order. Percents are rounded to one decimal.
func GetSectionTotals(lines []PreviewLine) []SectionTotal {
	totals := make([]SectionTotal, len(constants.Sections))
	position := make(map[string]int, len(constants.Sections))
	for i, kind := range constants.Sections {
		totals[i].Section = kind
		position[kind] = i
	}

	for _, line := range lines {
		i, ok := position[line.Section]
		if !ok {
			continue
		}
		totals[i].Percent += line.Percent
		totals[i].AmountCents += line.AmountCents
	}
	for i := range totals {
		totals[i].Percent = mathutil.RoundTo(totals[i].Percent, constants.TotalsPrecision)
	}
	return totals
}

// GetGrandTotalPercent sums every line's percent, rounded to one decimal.
func GetGrandTotalPercent(lines []PreviewLine) float64 {
	var total float64
	for _, line := range lines {
		total += line.Percent
	}
	return mathutil.RoundTo(total, constants.TotalsPrecision)
}

// GetSectionVariance reports, for every section in the profile, how far the
// preview's allocation has drifted from the template.
func GetSectionVariance(profile *Profile, lines []PreviewLine) []SectionVariance {
	if profile == nil {
		return nil
	}
	allocated := make(map[string]float64)
	for _, total := range GetSectionTotals(lines) {
		allocated[total.Section] = total.Percent
	}

	kinds := sectionKinds(profile)
	variances := make([]SectionVariance, 0, len(kinds))
	for _, kind := range kinds {
		template := mathutil.RoundTo(profile.TemplatePercent(kind), constants.TotalsPrecision)
		variances = append(variances, SectionVariance{
			Section:          kind,
			TemplatePercent:  template,
			AllocatedPercent: allocated[kind],
			Difference:       mathutil.RoundTo(allocated[kind]-template, constants.TotalsPrecision),
		})
	}
	return variances
}
