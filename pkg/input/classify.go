package input

import (
	"strings"

	"github.com/aretw0/ivrflow/pkg/domain"
)

// Classify reports whether raw is a single keypad signal (0-9, * or #) or free text.
// It is purely syntactic and total.
func Classify(raw string) domain.InputClass {
	if len(raw) == 1 && IsControlCode(raw[0]) {
		return domain.ControlCode
	}
	return domain.FreeText
}

// IsControlCode reports whether b is a telephone keypad key.
func IsControlCode(b byte) bool {
	return (b >= '0' && b <= '9') || b == '*' || b == '#'
}

// Normalize trims, lower-cases and collapses inner whitespace.
func Normalize(raw string) string {
	return strings.Join(strings.Fields(strings.ToLower(raw)), " ")
}
