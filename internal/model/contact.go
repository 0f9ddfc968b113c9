package model

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail checks local@domain.tld with an ASCII local part.
func ValidateEmail(s string) bool {
	return emailPattern.MatchString(strings.TrimSpace(s))
}

// ValidatePhone passes when exactly ten digits remain after stripping
// everything else (US numbering plan, no country code).
func ValidatePhone(s string) bool {
	return len(NormalizePhone(s)) == 10
}

func NormalizePhone(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// E164 formats a ten digit US number as +1XXXXXXXXXX. Anything else is
// returned as its digits.
func E164(phone string) string {
	digits := NormalizePhone(phone)
	if len(digits) == 10 {
		return "+1" + digits
	}
	return digits
}
