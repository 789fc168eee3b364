package phone

import "strings"

// Normalize reduces a client-supplied phone number to its bare 10-digit form.
// Separators and a leading "+" are stripped; a 12-digit number loses its
// 2-digit country code and an 11-digit number loses a leading trunk zero.
// Returns "" when the input cannot be reduced to 10 digits or is all zeros.
func Normalize(raw string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' || r == ' ' || r == '-' || r == '(' || r == ')':
			// separator, skip
		default:
			return ""
		}
	}
	digits := b.String()
	switch len(digits) {
	case 12:
		digits = digits[2:]
	case 11:
		if digits[0] != '0' {
			return ""
		}
		digits = digits[1:]
	case 10:
	default:
		return ""
	}
	if digits == "0000000000" {
		return ""
	}
	return digits
}

// IsDigits reports whether s is non-empty and contains only ASCII digits.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
