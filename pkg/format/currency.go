// Package format renders money and percentages for reports.
package format

import (
	"strconv"
	"strings"
)

// Currency renders an amount held in cents with a dollar sign and thousands
// separators (e.g., 123456 -> "$1,234.56", -5 -> "-$0.05").
func Currency(cents int64) string {
	if cents < 0 {
		return "-$" + formatPositiveCents(abs(cents))
	}
	return "$" + formatPositiveCents(cents)
}

// PlainCurrency renders cents as a bare decimal suitable for CSV (e.g., "1234.56").
func PlainCurrency(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = abs(cents)
	}
	return sign + strconv.FormatInt(cents/100, 10) + "." + twoDigits(cents%100)
}

// Percent renders a percentage with the given number of decimals and a
// trailing percent sign (e.g., 12.5, 1 -> "12.5%").
func Percent(value float64, decimals int) string {
	return strconv.FormatFloat(value, 'f', decimals, 64) + "%"
}

func formatPositiveCents(cents int64) string {
	intPart := strconv.FormatInt(cents/100, 10)
	decPart := twoDigits(cents % 100)

	if len(intPart) > 3 {
		var builder strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				builder.WriteByte(',')
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String()
	}

	return intPart + "." + decPart
}

func twoDigits(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
