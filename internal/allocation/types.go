// Package allocation distributes a lump-sum project budget across cost-plan
// sections using a percentage template, matching template activities against
// the cost lines and stakeholders a project already has, and keeps section
// percentages consistent while a user edits the resulting preview.
//
// Every exported function is a pure transform: inputs are never mutated and
// each edit returns a fresh slice, so earlier previews stay valid for undo or
// comparison.
package allocation

import (
	"errors"
	"fmt"
	"time"

	"github.com/iwvelando/budget-allocation/pkg/validation"
)

// ErrIndexOutOfRange is returned by CheckIndex for indices outside a preview.
var ErrIndexOutOfRange = errors.New("preview line index out of range")

// TemplateItem is one activity of a profile section with its share of the total budget.
type TemplateItem struct {
	Activity string  `yaml:"activity" json:"activity"`
	Percent  float64 `yaml:"percent" json:"percent"`
}

// Section groups the template items of one section kind.
type Section struct {
	Kind  string         `yaml:"kind" json:"kind"`
	Items []TemplateItem `yaml:"items" json:"items"`
}

// TemplatePercent sums the percents of every item in the section.
func (s Section) TemplatePercent() float64 {
	var total float64
	for _, item := range s.Items {
		total += item.Percent
	}
	return total
}

// Profile is a percentage distribution template for one kind of project.
type Profile struct {
	ID             string    `yaml:"id" json:"id"`
	ProjectType    string    `yaml:"projectType" json:"projectType"`
	Classification string    `yaml:"classification" json:"classification"`
	Label          string    `yaml:"label" json:"label"`
	Sections       []Section `yaml:"sections" json:"sections"`
}

// Validate checks the required fields of a profile and each of its items.
func (p *Profile) Validate() error {
	if err := validation.RequireField("profile", "id", p.ID); err != nil {
		return err
	}
	for _, section := range p.Sections {
		if err := validation.ValidateSection(section.Kind); err != nil {
			return fmt.Errorf("profile %s: %w", p.ID, err)
		}
		for _, item := range section.Items {
			if err := validation.RequireField("profile "+p.ID+" item", "activity", item.Activity); err != nil {
				return err
			}
			if err := validation.ValidatePercent(item.Percent); err != nil {
				return fmt.Errorf("profile %s item %q: %w", p.ID, item.Activity, err)
			}
		}
	}
	return nil
}

// TemplatePercent returns the summed template percent of a section kind.
func (p *Profile) TemplatePercent(kind string) float64 {
	var total float64
	for _, section := range p.Sections {
		if section.Kind == kind {
			total += section.TemplatePercent()
		}
	}
	return total
}

// CostLine is an existing budget line owned by the cost plan.
type CostLine struct {
	ID          string     `json:"id"`
	Section     string     `json:"section"`
	Activity    string     `json:"activity"`
	BudgetCents int64      `json:"budgetCents"`
	DeletedAt   *time.Time `json:"deletedAt,omitempty"`
}

// Active reports whether the line has not been soft-deleted.
func (c CostLine) Active() bool {
	return c.DeletedAt == nil
}

// Validate checks the required fields of a cost line.
func (c CostLine) Validate() error {
	if err := validation.RequireField("cost line", "id", c.ID); err != nil {
		return err
	}
	if err := validation.ValidateSection(c.Section); err != nil {
		return fmt.Errorf("cost line %s: %w", c.ID, err)
	}
	return nil
}

// Stakeholder is a firm or party registered against the project.
type Stakeholder struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	DisciplineOrTrade string `json:"disciplineOrTrade,omitempty"`
	Group             string `json:"stakeholderGroup"`
	IsEnabled         bool   `json:"isEnabled"`
}

// Validate checks the required fields of a stakeholder.
func (s Stakeholder) Validate() error {
	if err := validation.RequireField("stakeholder", "id", s.ID); err != nil {
		return err
	}
	if err := validation.RequireField("stakeholder "+s.ID, "name", s.Name); err != nil {
		return err
	}
	if err := validation.ValidateStakeholderGroup(s.Group); err != nil {
		return fmt.Errorf("stakeholder %s: %w", s.ID, err)
	}
	return nil
}

// PreviewLine is one row of an allocation preview.
type PreviewLine struct {
	CostLineID          string  `json:"costLineId,omitempty"`
	Section             string  `json:"section"`
	Activity            string  `json:"activity"`
	Percent             float64 `json:"percent"`
	AmountCents         int64   `json:"amountCents"`
	Status              string  `json:"status"`
	Locked              bool    `json:"locked"`
	ExistingBudgetCents int64   `json:"existingBudgetCents"`
	StakeholderID       string  `json:"stakeholderId,omitempty"`
}

// HasCostLine reports whether the line is backed by an existing cost line.
func (l PreviewLine) HasCostLine() bool {
	return l.CostLineID != ""
}

// CheckIndex returns ErrIndexOutOfRange when index does not address a line.
func CheckIndex(lines []PreviewLine, index int) error {
	if index < 0 || index >= len(lines) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, len(lines))
	}
	return nil
}

func clonePreview(lines []PreviewLine) []PreviewLine {
	out := make([]PreviewLine, len(lines))
	copy(out, lines)
	return out
}
