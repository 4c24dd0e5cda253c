package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/iwvelando/budget-allocation/pkg/validation"
	"github.com/spf13/viper"
)

// Plan is the input to a preview run: which profile to use, the total
// budget in minor currency units, and the project's current cost lines and
// stakeholders as exported by the cost-plan and stakeholder registries.
// The HTTP API accepts the same shape as JSON.
type Plan struct {
	Classification string            `yaml:"classification,omitempty" mapstructure:"classification" json:"classification,omitempty"`
	ProfileID      string            `yaml:"profileId,omitempty" mapstructure:"profileId" json:"profileId,omitempty"`
	TotalBudget    int64             `yaml:"totalBudget" mapstructure:"totalBudget" json:"totalBudget"`
	CostLines      []PlanCostLine    `yaml:"costLines,omitempty" mapstructure:"costLines" json:"costLines,omitempty"`
	Stakeholders   []PlanStakeholder `yaml:"stakeholders,omitempty" mapstructure:"stakeholders" json:"stakeholders,omitempty"`
}

// PlanCostLine is a cost line as written in a plan file.
type PlanCostLine struct {
	ID          string `yaml:"id" mapstructure:"id" json:"id"`
	Section     string `yaml:"section" mapstructure:"section" json:"section"`
	Activity    string `yaml:"activity" mapstructure:"activity" json:"activity"`
	BudgetCents int64  `yaml:"budgetCents" mapstructure:"budgetCents" json:"budgetCents"`
	DeletedAt   string `yaml:"deletedAt,omitempty" mapstructure:"deletedAt" json:"deletedAt,omitempty"` // RFC 3339 or YYYY-MM-DD
}

// PlanStakeholder is a stakeholder as written in a plan file. An omitted
// isEnabled counts as enabled.
type PlanStakeholder struct {
	ID                string `yaml:"id" mapstructure:"id" json:"id"`
	Name              string `yaml:"name" mapstructure:"name" json:"name"`
	DisciplineOrTrade string `yaml:"disciplineOrTrade,omitempty" mapstructure:"disciplineOrTrade" json:"disciplineOrTrade,omitempty"`
	Group             string `yaml:"stakeholderGroup" mapstructure:"stakeholderGroup" json:"stakeholderGroup"`
	IsEnabled         *bool  `yaml:"isEnabled,omitempty" mapstructure:"isEnabled" json:"isEnabled,omitempty"`
}

// LoadPlan reads a YAML plan file.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading plan file, %s", err)
	}
	return LoadPlanFromReader(bytes.NewReader(data))
}

// newPlanViper returns a bare viper instance for plan data. Plans carry no
// defaults and ignore the environment, so only the file decides the budget.
func newPlanViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	return v
}

// LoadPlanFromReader reads a YAML plan from any reader.
func LoadPlanFromReader(r io.Reader) (*Plan, error) {
	v := newPlanViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading plan data, %s", err)
	}

	var plan Plan
	if err := v.Unmarshal(&plan); err != nil {
		return nil, fmt.Errorf("unable to decode plan into struct, %s", err)
	}
	return &plan, nil
}

// Validate checks the plan at the boundary. Errors reject the plan; warnings
// flag inputs the engine tolerates but that are probably mistakes.
func (p *Plan) Validate() ([]string, error) {
	if strings.TrimSpace(p.Classification) == "" && strings.TrimSpace(p.ProfileID) == "" {
		return nil, fmt.Errorf("plan: classification or profileId is required")
	}
	if err := validation.ValidateBudget(p.TotalBudget); err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}

	lines, err := p.ToCostLines()
	if err != nil {
		return nil, err
	}
	lineIDs := make([]string, 0, len(lines))
	for _, line := range lines {
		if err := line.Validate(); err != nil {
			return nil, fmt.Errorf("plan: %w", err)
		}
		lineIDs = append(lineIDs, line.ID)
	}

	stakeholders := p.ToStakeholders()
	stakeholderIDs := make([]string, 0, len(stakeholders))
	for _, s := range stakeholders {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("plan: %w", err)
		}
		stakeholderIDs = append(stakeholderIDs, s.ID)
	}

	warnings := validation.ValidateUniqueIDs("cost line", lineIDs)
	warnings = append(warnings, validation.ValidateUniqueIDs("stakeholder", stakeholderIDs)...)
	if p.TotalBudget == 0 {
		warnings = append(warnings, "total budget is zero, every amount will be zero")
	}
	return warnings, nil
}
