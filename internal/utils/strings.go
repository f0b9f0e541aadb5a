package utils

import (
	"strings"
)

// NormalizeSpace collapses repeated whitespace into a single space.
func NormalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizePhone strips the separators people type in phone numbers so
// "+237 6 00-00.00.01" and "+237600000001" share one refund balance.
func NormalizePhone(s string) string {
	var out strings.Builder
	for i, r := range strings.TrimSpace(s) {
		switch {
		case r >= '0' && r <= '9':
			out.WriteRune(r)
		case r == '+' && i == 0:
			out.WriteRune(r)
		}
	}
	return out.String()
}
