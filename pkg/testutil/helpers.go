// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/budget-allocation/internal/allocation"
)

// FindLine finds the first preview line with the given activity label.
// Returns a pointer into lines if found, nil otherwise.
func FindLine(lines []allocation.PreviewLine, activity string) *allocation.PreviewLine {
	for i := range lines {
		if lines[i].Activity == activity {
			return &lines[i]
		}
	}
	return nil
}

// FindCostLine finds the preview line backed by the given cost line id.
func FindCostLine(lines []allocation.PreviewLine, costLineID string) *allocation.PreviewLine {
	for i := range lines {
		if lines[i].CostLineID == costLineID {
			return &lines[i]
		}
	}
	return nil
}

// CountStatus counts the preview lines with the given status.
func CountStatus(lines []allocation.PreviewLine, status string) int {
	n := 0
	for _, line := range lines {
		if line.Status == status {
			n++
		}
	}
	return n
}

// SectionPercent sums the percents of one section without rounding.
func SectionPercent(lines []allocation.PreviewLine, section string) float64 {
	var total float64
	for _, line := range lines {
		if line.Section == section {
			total += line.Percent
		}
	}
	return total
}
