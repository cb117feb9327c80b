package common

import "strings"

// ToLowerWithTrim normalizes enum-like configuration values.
func ToLowerWithTrim(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
