package validation

import (
	"fmt"
	"math"
	"strings"

	"github.com/iwvelando/budget-allocation/pkg/constants"
)

// RequireField returns an error when value is blank.
func RequireField(record, field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s: %s is required", record, field)
	}
	return nil
}

// ValidateSection checks that kind is one of the four fixed section kinds.
func ValidateSection(kind string) error {
	for _, section := range constants.Sections {
		if kind == section {
			return nil
		}
	}
	return fmt.Errorf("unknown section %q, expected one of %s", kind, strings.Join(constants.Sections, ", "))
}

// ValidatePercent checks that a percent lies within [0, 100].
func ValidatePercent(percent float64) error {
	if math.IsNaN(percent) || percent < 0 || percent > constants.PercentageMultiplier {
		return fmt.Errorf("percent %v outside [0, 100]", percent)
	}
	return nil
}

// ValidateBudget checks that a budget in minor units is not negative.
func ValidateBudget(cents int64) error {
	if cents < 0 {
		return fmt.Errorf("budget %d must not be negative", cents)
	}
	return nil
}

// ValidateStakeholderGroup checks the stakeholder group against the known set.
func ValidateStakeholderGroup(group string) error {
	switch group {
	case constants.GroupConsultant, constants.GroupContractor, constants.GroupClient, constants.GroupAuthority:
		return nil
	}
	return fmt.Errorf("unknown stakeholder group %q", group)
}

// ValidateUniqueIDs returns a warning for every identity seen more than once.
func ValidateUniqueIDs(record string, ids []string) []string {
	var warnings []string
	seen := make(map[string]int, len(ids))
	for _, id := range ids {
		seen[id]++
		if seen[id] == 2 {
			warnings = append(warnings, fmt.Sprintf("%s id '%s' appears more than once", record, id))
		}
	}
	return warnings
}
