package allocation

import (
	"math"
	"testing"

	"github.com/iwvelando/budget-allocation/pkg/constants"
)

func TestGetSectionTotals(t *testing.T) {
	lines := []PreviewLine{
		{Section: constants.SectionFees, Percent: 0.25, AmountCents: 2_500},
		{Section: constants.SectionFees, Percent: 0.35, AmountCents: 3_000},
		{Section: constants.SectionConstruction, Percent: 80, AmountCents: 800_000},
		{Section: constants.SectionContingency, Percent: 33.33, AmountCents: 333_300},
		{Section: constants.SectionContingency, Percent: 33.33, AmountCents: 333_300},
		{Section: "UNKNOWN", Percent: 5, AmountCents: 50_000},
	}

	totals := GetSectionTotals(lines)

	expected := []SectionTotal{
		{Section: constants.SectionFees, Percent: 0.6, AmountCents: 5_500},
		{Section: constants.SectionConsultants, Percent: 0, AmountCents: 0},
		{Section: constants.SectionConstruction, Percent: 80, AmountCents: 800_000},
		{Section: constants.SectionContingency, Percent: 66.7, AmountCents: 666_600},
	}
	if len(totals) != len(expected) {
		t.Fatalf("GetSectionTotals() returned %d sections, expected %d", len(totals), len(expected))
	}
	for i := range expected {
		if totals[i].Section != expected[i].Section ||
			math.Abs(totals[i].Percent-expected[i].Percent) > 1e-9 ||
			totals[i].AmountCents != expected[i].AmountCents {
			t.Errorf("section %d = %+v, expected %+v", i, totals[i], expected[i])
		}
	}
}

func TestGetGrandTotalPercent(t *testing.T) {
	tests := []struct {
		name     string
		lines    []PreviewLine
		expected float64
	}{
		{"Empty", nil, 0},
		{"Whole", sectionLines(constants.SectionFees, 60, 24, 16), 100},
		{"Rounded", sectionLines(constants.SectionFees, 33.33, 33.33, 33.33), 100},
		{"Across sections", append(sectionLines(constants.SectionFees, 1.04), sectionLines(constants.SectionContingency, 10)...), 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetGrandTotalPercent(tt.lines); math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("GetGrandTotalPercent() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestGetSectionVariance(t *testing.T) {
	profile := sampleProfile()
	preview := newTestEngine().BuildPreview(profile, sampleCostLines(), 1_000_000_000, sampleStakeholders())

	variances := GetSectionVariance(profile, preview)
	if len(variances) != 4 {
		t.Fatalf("GetSectionVariance() returned %d sections, expected 4", len(variances))
	}

	expected := map[string]struct {
		template  float64
		allocated float64
		balanced  bool
	}{
		constants.SectionFees:         {1.5, 0.5, false},
		constants.SectionConsultants:  {7.0, 7.0, true},
		constants.SectionConstruction: {80, 80, true},
		constants.SectionContingency:  {11.5, 11.5, true},
	}
	for _, v := range variances {
		want := expected[v.Section]
		if math.Abs(v.TemplatePercent-want.template) > 1e-9 || math.Abs(v.AllocatedPercent-want.allocated) > 1e-9 {
			t.Errorf("variance %s = %+v, expected template %v allocated %v", v.Section, v, want.template, want.allocated)
		}
		if v.Balanced() != want.balanced {
			t.Errorf("variance %s balanced = %v, expected %v", v.Section, v.Balanced(), want.balanced)
		}
	}

	if GetSectionVariance(nil, preview) != nil {
		t.Error("expected nil variance for nil profile")
	}
}
