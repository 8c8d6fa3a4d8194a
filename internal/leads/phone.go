package leads

import (
	"strings"
	"unicode"

	apperrors "dealership-workers/internal/common/errors"
)

// NormalizePhone returns Chilean mobiles as +569XXXXXXXX. Other numbers keep
// their digits behind a leading +.
func NormalizePhone(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch {
	case len(digits) == 11 && strings.HasPrefix(digits, "569"):
		return "+" + digits, nil
	case len(digits) == 9 && strings.HasPrefix(digits, "9"):
		return "+56" + digits, nil
	case len(digits) == 8 && !strings.HasPrefix(strings.TrimSpace(raw), "+"):
		// pre-2012 mobile numbering without the leading 9
		return "+569" + digits, nil
	case len(digits) >= 8 && len(digits) <= 15:
		return "+" + digits, nil
	}
	return "", apperrors.NewValidationError("phone " + raw + " is not a valid number")
}
