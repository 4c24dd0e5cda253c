// Package config defines conversion utilities for configuration objects.
package config

import (
	"fmt"
	"strings"

	"github.com/iwvelando/budget-allocation/internal/allocation"
	"github.com/iwvelando/budget-allocation/pkg/datetime"
)

// ToCostLine converts a plan cost line into the engine's record.
func (c PlanCostLine) ToCostLine() (allocation.CostLine, error) {
	deletedAt, err := datetime.ParseOptionalTimestamp(c.DeletedAt)
	if err != nil {
		return allocation.CostLine{}, fmt.Errorf("cost line %s: deletedAt: %w", c.ID, err)
	}
	return allocation.CostLine{
		ID:          strings.TrimSpace(c.ID),
		Section:     strings.ToUpper(strings.TrimSpace(c.Section)),
		Activity:    c.Activity,
		BudgetCents: c.BudgetCents,
		DeletedAt:   deletedAt,
	}, nil
}

// ToCostLines converts every plan cost line, preserving order.
func (p *Plan) ToCostLines() ([]allocation.CostLine, error) {
	lines := make([]allocation.CostLine, 0, len(p.CostLines))
	for _, c := range p.CostLines {
		line, err := c.ToCostLine()
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// ToStakeholder converts a plan stakeholder into the engine's record.
func (s PlanStakeholder) ToStakeholder() allocation.Stakeholder {
	enabled := true
	if s.IsEnabled != nil {
		enabled = *s.IsEnabled
	}
	return allocation.Stakeholder{
		ID:                strings.TrimSpace(s.ID),
		Name:              s.Name,
		DisciplineOrTrade: s.DisciplineOrTrade,
		Group:             strings.ToLower(strings.TrimSpace(s.Group)),
		IsEnabled:         enabled,
	}
}

// ToStakeholders converts every plan stakeholder, preserving order.
func (p *Plan) ToStakeholders() []allocation.Stakeholder {
	out := make([]allocation.Stakeholder, 0, len(p.Stakeholders))
	for _, s := range p.Stakeholders {
		out = append(out, s.ToStakeholder())
	}
	return out
}
