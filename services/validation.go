package services

import (
	"regexp"
	"strings"
)

// Password policy for new accounts.
const (
	passwordMinLength = 8
	passwordMaxLength = 128
	specialCharacters = "!@#$%^&*()_+-=[]{}|;:,.<>?"
)

var (
	emailPattern      = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	upperPattern      = regexp.MustCompile(`[A-Z]`)
	lowerPattern      = regexp.MustCompile(`[a-z]`)
	digitPattern      = regexp.MustCompile(`[0-9]`)
	sequentialPattern = regexp.MustCompile(`(012|123|234|345|456|567|678|789|890|abc|bcd|cde)`)

	commonPasswords = map[string]bool{
		"password": true, "123456": true, "123456789": true, "qwerty": true,
		"abc123": true, "password123": true, "admin": true, "letmein": true,
		"welcome": true, "monkey": true,
	}
)

// PasswordValidation reports whether a password meets the policy and why.
type PasswordValidation struct {
	Valid           bool     `json:"valid"`
	Errors          []string `json:"errors"`
	RequirementsMet []string `json:"requirements_met"`
}

// PasswordStrength is advisory feedback shown in the registration form.
type PasswordStrength struct {
	Score    int      `json:"score"`
	Level    string   `json:"level"`
	Feedback []string `json:"feedback"`
}

// ValidateEmail checks the address shape without resolving the domain.
func ValidateEmail(email string) bool {
	if email == "" || len(email) > 254 {
		return false
	}
	if strings.Contains(email, "..") {
		return false
	}
	if strings.HasPrefix(email, ".") || strings.HasSuffix(email, ".") {
		return false
	}
	return emailPattern.MatchString(email)
}

// ValidatePassword checks a password against the registration policy.
func ValidatePassword(password string) PasswordValidation {
	v := PasswordValidation{RequirementsMet: []string{}, Errors: []string{}}
	if password == "" {
		v.Errors = append(v.Errors, "Password is required")
		return v
	}

	if len(password) >= passwordMinLength {
		v.RequirementsMet = append(v.RequirementsMet, "minimum_length")
	} else {
		v.Errors = append(v.Errors, "Password must be at least 8 characters long")
	}
	if len(password) <= passwordMaxLength {
		v.RequirementsMet = append(v.RequirementsMet, "maximum_length")
	} else {
		v.Errors = append(v.Errors, "Password must be no more than 128 characters long")
	}
	if upperPattern.MatchString(password) {
		v.RequirementsMet = append(v.RequirementsMet, "uppercase")
	} else {
		v.Errors = append(v.Errors, "Password must contain at least one uppercase letter")
	}
	if lowerPattern.MatchString(password) {
		v.RequirementsMet = append(v.RequirementsMet, "lowercase")
	} else {
		v.Errors = append(v.Errors, "Password must contain at least one lowercase letter")
	}
	if digitPattern.MatchString(password) {
		v.RequirementsMet = append(v.RequirementsMet, "digit")
	} else {
		v.Errors = append(v.Errors, "Password must contain at least one digit")
	}
	if strings.ContainsAny(password, specialCharacters) {
		v.RequirementsMet = append(v.RequirementsMet, "special_character")
	} else {
		v.Errors = append(v.Errors, "Password must contain at least one special character")
	}
	if commonPasswords[strings.ToLower(password)] {
		v.Errors = append(v.Errors, "Password is too common. Please choose a more secure password")
	}

	v.Valid = len(v.Errors) == 0
	return v
}

// ScorePassword rates a password 0-100 with human-readable feedback.
func ScorePassword(password string) PasswordStrength {
	if password == "" {
		return PasswordStrength{Score: 0, Level: "Very Weak", Feedback: []string{}}
	}

	score := 0
	feedback := []string{}

	switch {
	case len(password) >= 8:
		score += 25
	case len(password) >= 6:
		score += 15
		feedback = append(feedback, "Consider using a longer password")
	default:
		feedback = append(feedback, "Password is too short")
	}

	charTypes := 0
	for _, p := range []*regexp.Regexp{lowerPattern, upperPattern, digitPattern} {
		if p.MatchString(password) {
			charTypes++
		}
	}
	if strings.ContainsAny(password, specialCharacters) {
		charTypes++
	}
	score += charTypes * 15

	if len(password) >= 12 {
		score += 10
		feedback = append(feedback, "Great length!")
	}
	if charTypes >= 3 {
		feedback = append(feedback, "Good character variety!")
	}
	if hasRepeatedRun(password) {
		score -= 10
		feedback = append(feedback, "Avoid repeating characters")
	}
	if sequentialPattern.MatchString(strings.ToLower(password)) {
		score -= 15
		feedback = append(feedback, "Avoid sequential characters")
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	var level string
	switch {
	case score >= 80:
		level = "Very Strong"
	case score >= 60:
		level = "Strong"
	case score >= 40:
		level = "Moderate"
	case score >= 20:
		level = "Weak"
	default:
		level = "Very Weak"
	}

	return PasswordStrength{Score: score, Level: level, Feedback: feedback}
}

// hasRepeatedRun reports whether the password contains three or more
// identical consecutive characters. RE2 has no backreferences, so this is
// a plain scan.
func hasRepeatedRun(password string) bool {
	var prev rune
	run := 0
	for _, r := range password {
		if r == prev {
			run++
			if run >= 3 {
				return true
			}
		} else {
			prev = r
			run = 1
		}
	}
	return false
}

// NormalizeEmail lowercases and trims an address before storage or lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
