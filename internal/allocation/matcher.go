package allocation

import (
	"github.com/iwvelando/budget-allocation/pkg/constants"
	"github.com/iwvelando/budget-allocation/pkg/textmatch"
	"go.uber.org/zap"
)

// MatchTier identifies which comparison produced a match.
type MatchTier int

const (
	TierNone MatchTier = iota
	TierExact
	TierContainment
	TierWordOverlap
	TierAlias
)

func (t MatchTier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierContainment:
		return "containment"
	case TierWordOverlap:
		return "word-overlap"
	case TierAlias:
		return "alias"
	}
	return "none"
}

// Engine matches template activities against cost lines and stakeholders and
// builds allocation previews. It holds only immutable reference data and is
// safe for concurrent use.
type Engine struct {
	logger  *zap.Logger
	aliases *textmatch.AliasTable
}

// NewEngine returns an Engine using the given alias table. A nil logger
// discards output and a nil table disables the alias tier.
func NewEngine(logger *zap.Logger, aliases *textmatch.AliasTable) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger, aliases: aliases}
}

type normalizedLine struct {
	index int
	name  string
}

// MatchCostLine finds the existing cost line that services activity within
// section. Tiers are tried in order (exact, containment, word overlap, alias)
// and the first candidate in input order within the first tier with any hit
// wins, so callers must pass lines in a stable order. The returned pointer
// addresses the element of lines; nil means no match.
func (e *Engine) MatchCostLine(activity, section string, lines []CostLine) (*CostLine, MatchTier) {
	target := textmatch.Normalize(activity)
	if target == "" {
		return nil, TierNone
	}

	candidates := make([]normalizedLine, 0, len(lines))
	for i := range lines {
		if !lines[i].Active() || lines[i].Section != section {
			continue
		}
		candidates = append(candidates, normalizedLine{index: i, name: textmatch.Normalize(lines[i].Activity)})
	}
	if len(candidates) == 0 {
		return nil, TierNone
	}

	tiers := []struct {
		tier  MatchTier
		match func(name string) bool
	}{
		{TierExact, func(name string) bool { return name == target }},
		{TierContainment, func(name string) bool { return textmatch.Contains(name, target) }},
		{TierWordOverlap, func(name string) bool {
			return textmatch.WordOverlap(target, name) >= constants.WordOverlapThreshold
		}},
		{TierAlias, func(name string) bool { return e.aliases.IsAlias(target, name) }},
	}

	for _, t := range tiers {
		for _, c := range candidates {
			if c.name != "" && t.match(c.name) {
				return &lines[c.index], t.tier
			}
		}
	}
	return nil, TierNone
}

// requiredGroup maps a section to the stakeholder group able to service it.
func requiredGroup(section string) (string, bool) {
	switch section {
	case constants.SectionConsultants:
		return constants.GroupConsultant, true
	case constants.SectionConstruction:
		return constants.GroupContractor, true
	}
	return "", false
}

// MatchStakeholder finds an enabled stakeholder able to service activity.
// Only CONSULTANTS (consultant group) and CONSTRUCTION (contractor group)
// take part. Matching is exact then containment against the name or the
// discipline/trade label; there is no alias or word-overlap tier so that a
// firm is never assigned on a loose guess.
func (e *Engine) MatchStakeholder(activity, section string, stakeholders []Stakeholder) (*Stakeholder, MatchTier) {
	group, ok := requiredGroup(section)
	if !ok {
		return nil, TierNone
	}
	target := textmatch.Normalize(activity)
	if target == "" {
		return nil, TierNone
	}

	type candidate struct {
		index      int
		name       string
		discipline string
	}
	var candidates []candidate
	for i := range stakeholders {
		if stakeholders[i].Group != group || !stakeholders[i].IsEnabled {
			continue
		}
		candidates = append(candidates, candidate{
			index:      i,
			name:       textmatch.Normalize(stakeholders[i].Name),
			discipline: textmatch.Normalize(stakeholders[i].DisciplineOrTrade),
		})
	}

	for _, c := range candidates {
		if (c.name != "" && c.name == target) || (c.discipline != "" && c.discipline == target) {
			return &stakeholders[c.index], TierExact
		}
	}
	for _, c := range candidates {
		if textmatch.Contains(c.name, target) || textmatch.Contains(c.discipline, target) {
			return &stakeholders[c.index], TierContainment
		}
	}
	return nil, TierNone
}
