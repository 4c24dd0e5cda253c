package allocation

import (
	"github.com/iwvelando/budget-allocation/pkg/constants"
	"github.com/iwvelando/budget-allocation/pkg/mathutil"
	"go.uber.org/zap"
)

// BuildPreview distributes totalBudgetCents over profile and reconciles the
// template with the project's existing cost lines and stakeholders.
//
// Each template item becomes a matched line when an unclaimed cost line
// services it, otherwise a suggested line when a stakeholder does, otherwise
// nothing. Active cost lines left unclaimed are appended as unallocated lines,
// and any template percent a section did not assign is spread evenly over the
// unallocated lines of that section.
func (e *Engine) BuildPreview(profile *Profile, lines []CostLine, totalBudgetCents int64, stakeholders []Stakeholder) []PreviewLine {
	preview := make([]PreviewLine, 0, len(lines))
	if profile == nil {
		return preview
	}

	claimed := make(map[string]struct{})
	for _, section := range profile.Sections {
		for _, item := range section.Items {
			amount := mathutil.AmountFor(totalBudgetCents, item.Percent)

			costLine, tier := e.MatchCostLine(item.Activity, section.Kind, lines)
			if costLine != nil {
				if _, taken := claimed[costLine.ID]; !taken {
					claimed[costLine.ID] = struct{}{}
					e.logger.Debug("template item matched cost line",
						zap.String("op", "allocation.BuildPreview"),
						zap.String("activity", item.Activity),
						zap.String("costLine", costLine.ID),
						zap.Stringer("tier", tier),
					)
					preview = append(preview, PreviewLine{
						CostLineID:          costLine.ID,
						Section:             section.Kind,
						Activity:            costLine.Activity,
						Percent:             item.Percent,
						AmountCents:         amount,
						Status:              constants.StatusMatched,
						ExistingBudgetCents: costLine.BudgetCents,
					})
					continue
				}
			}

			stakeholder, tier := e.MatchStakeholder(item.Activity, section.Kind, stakeholders)
			if stakeholder != nil {
				e.logger.Debug("template item suggested for stakeholder",
					zap.String("op", "allocation.BuildPreview"),
					zap.String("activity", item.Activity),
					zap.String("stakeholder", stakeholder.ID),
					zap.Stringer("tier", tier),
				)
				preview = append(preview, PreviewLine{
					Section:       section.Kind,
					Activity:      item.Activity,
					Percent:       item.Percent,
					AmountCents:   amount,
					Status:        constants.StatusSuggested,
					StakeholderID: stakeholder.ID,
				})
				continue
			}

			e.logger.Debug("template item has no cost line or stakeholder",
				zap.String("op", "allocation.BuildPreview"),
				zap.String("activity", item.Activity),
				zap.String("section", section.Kind),
			)
		}
	}

	for _, line := range lines {
		if !line.Active() {
			continue
		}
		if _, taken := claimed[line.ID]; taken {
			continue
		}
		preview = append(preview, PreviewLine{
			CostLineID:          line.ID,
			Section:             line.Section,
			Activity:            line.Activity,
			Status:              constants.StatusUnallocated,
			ExistingBudgetCents: line.BudgetCents,
		})
	}

	spreadLeftover(profile, preview, totalBudgetCents)
	return preview
}

// spreadLeftover gives each section's unassigned template percent to its
// unallocated lines in equal shares.
func spreadLeftover(profile *Profile, preview []PreviewLine, totalBudgetCents int64) {
	for _, kind := range sectionKinds(profile) {
		var assigned float64
		var unallocated []int
		for i, line := range preview {
			if line.Section != kind {
				continue
			}
			switch line.Status {
			case constants.StatusMatched, constants.StatusSuggested:
				assigned += line.Percent
			case constants.StatusUnallocated:
				unallocated = append(unallocated, i)
			}
		}

		leftover := mathutil.RoundTo(profile.TemplatePercent(kind)-assigned, constants.LeftoverPrecision)
		if leftover <= 0 || len(unallocated) == 0 {
			continue
		}

		share := mathutil.RoundTo(leftover/float64(len(unallocated)), constants.LeftoverPrecision)
		for _, i := range unallocated {
			preview[i].Percent = share
			preview[i].AmountCents = mathutil.AmountFor(totalBudgetCents, share)
		}
	}
}

// sectionKinds lists the distinct section kinds of a profile in order.
func sectionKinds(profile *Profile) []string {
	var kinds []string
	seen := make(map[string]struct{})
	for _, section := range profile.Sections {
		if _, ok := seen[section.Kind]; ok {
			continue
		}
		seen[section.Kind] = struct{}{}
		kinds = append(kinds, section.Kind)
	}
	return kinds
}
