package allocation

import (
	"github.com/iwvelando/budget-allocation/pkg/constants"
	"github.com/iwvelando/budget-allocation/pkg/mathutil"
)

// RecalculateAmounts recomputes every amount from its percent against a new
// total budget. Percents are left untouched.
func RecalculateAmounts(lines []PreviewLine, totalBudgetCents int64) []PreviewLine {
	out := clonePreview(lines)
	for i := range out {
		out[i].AmountCents = mathutil.AmountFor(totalBudgetCents, out[i].Percent)
	}
	return out
}

// AdjustLinePercent sets the percent of lines[index] and offsets the change
// across the other unlocked, non-zero lines of the same section in
// proportion to their current percents. Offsets clamp at zero and are
// rounded to one decimal; a shortfall left by clamping is not carried
// further. An out-of-range index returns an unchanged copy.
func AdjustLinePercent(lines []PreviewLine, index int, newPercent float64, totalBudgetCents int64) []PreviewLine {
	out := clonePreview(lines)
	if CheckIndex(out, index) != nil {
		return out
	}

	target := &out[index]
	delta := newPercent - target.Percent
	target.Percent = newPercent
	target.AmountCents = mathutil.AmountFor(totalBudgetCents, newPercent)

	var others []int
	var unlockedTotal float64
	for i, line := range out {
		if i == index || line.Section != target.Section || line.Locked || line.Percent <= 0 {
			continue
		}
		others = append(others, i)
		unlockedTotal += line.Percent
	}
	if len(others) == 0 || delta == 0 {
		return out
	}

	for _, i := range others {
		ratio := mathutil.Ratio(out[i].Percent, unlockedTotal)
		adjusted := mathutil.Max(0, out[i].Percent-delta*ratio)
		out[i].Percent = mathutil.RoundTo(adjusted, constants.AdjustPrecision)
		out[i].AmountCents = mathutil.AmountFor(totalBudgetCents, out[i].Percent)
	}
	return out
}

// RemoveLineAndRedistribute zeroes lines[removeIndex] and hands its former
// percent to the unlocked, non-zero lines of the same section that are not in
// alreadyRemoved, in proportion to their current percents. The line stays in
// the slice; dropping it is up to the caller. With nowhere to go the freed
// percent is discarded. An out-of-range index returns an unchanged copy.
func RemoveLineAndRedistribute(lines []PreviewLine, removeIndex int, alreadyRemoved []int, totalBudgetCents int64) []PreviewLine {
	out := clonePreview(lines)
	if CheckIndex(out, removeIndex) != nil {
		return out
	}

	target := &out[removeIndex]
	freed := target.Percent
	target.Percent = 0
	target.AmountCents = 0
	if freed <= 0 {
		return out
	}

	removed := make(map[int]struct{}, len(alreadyRemoved))
	for _, i := range alreadyRemoved {
		removed[i] = struct{}{}
	}

	var eligible []int
	var eligibleTotal float64
	for i, line := range out {
		if i == removeIndex || line.Section != target.Section || line.Locked || line.Percent <= 0 {
			continue
		}
		if _, gone := removed[i]; gone {
			continue
		}
		eligible = append(eligible, i)
		eligibleTotal += line.Percent
	}
	if len(eligible) == 0 {
		return out
	}

	for _, i := range eligible {
		ratio := mathutil.Ratio(out[i].Percent, eligibleTotal)
		out[i].Percent = mathutil.RoundTo(out[i].Percent+freed*ratio, constants.AdjustPrecision)
		out[i].AmountCents = mathutil.AmountFor(totalBudgetCents, out[i].Percent)
	}
	return out
}

// SetLineLocked returns a copy of lines with the locked flag of lines[index]
// set. An out-of-range index returns an unchanged copy.
func SetLineLocked(lines []PreviewLine, index int, locked bool) []PreviewLine {
	out := clonePreview(lines)
	if CheckIndex(out, index) != nil {
		return out
	}
	out[index].Locked = locked
	return out
}
