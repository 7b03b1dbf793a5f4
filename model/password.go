package model

import (
	"strings"
	"unicode"
)

type StrengthLevel string

const (
	Weak       StrengthLevel = "weak"
	Medium     StrengthLevel = "medium"
	Strong     StrengthLevel = "strong"
	VeryStrong StrengthLevel = "very-strong"
)

type PasswordChecks struct {
	Length    bool
	Lowercase bool
	Uppercase bool
	Numbers   bool
	Special   bool
}

type PasswordStrength struct {
	Score  int
	Checks PasswordChecks
	Level  StrengthLevel
}

const specialChars = `!@#$%^&*(),.?":{}|<>`

var strengthLevels = [...]StrengthLevel{Weak, Weak, Medium, Medium, Strong, VeryStrong}

// MeasurePassword scores a password from 0 to 5, one point per check passed.
func MeasurePassword(password string) PasswordStrength {
	var c PasswordChecks
	c.Length = len([]rune(password)) >= 8
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			c.Lowercase = true
		case r >= 'A' && r <= 'Z':
			c.Uppercase = true
		case unicode.IsDigit(r):
			c.Numbers = true
		case strings.ContainsRune(specialChars, r):
			c.Special = true
		}
	}

	score := 0
	for _, ok := range []bool{c.Length, c.Lowercase, c.Uppercase, c.Numbers, c.Special} {
		if ok {
			score++
		}
	}
	return PasswordStrength{Score: score, Checks: c, Level: strengthLevels[score]}
}
