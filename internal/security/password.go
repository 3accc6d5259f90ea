package security

import (
	"unicode"
	"unicode/utf8"
)

// maxPasswordBytes is the bcrypt input limit. Anything longer makes
// GenerateFromPassword fail, so the policy rejects it up front.
const maxPasswordBytes = 72

// Password policy messages. Each corresponds to one rule; ValidatePassword
// reports every violated rule, not just the first, so callers can show all
// problems at once.
const (
	passwordRuleLength    = "Password must be at least 8 characters long"
	passwordRuleMaxLength = "Password must be at most 72 bytes long"
	passwordRuleUpper     = "Password must contain at least one uppercase letter"
	passwordRuleLower     = "Password must contain at least one lowercase letter"
	passwordRuleDigit     = "Password must contain at least one number"
)

// ValidatePassword checks the candidate password against the policy:
// 8 to 72 characters, at least one uppercase letter, one lowercase letter,
// and one digit. The minimum counts characters; the maximum counts bytes,
// because that is the limit bcrypt enforces on its input. It returns the
// list of violated rules; an empty list means the password is acceptable.
// Must be called on every path that sets or changes a password.
func ValidatePassword(password string) []string {
	var violations []string

	if utf8.RuneCountInString(password) < 8 {
		violations = append(violations, passwordRuleLength)
	}
	if len(password) > maxPasswordBytes {
		violations = append(violations, passwordRuleMaxLength)
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper {
		violations = append(violations, passwordRuleUpper)
	}
	if !hasLower {
		violations = append(violations, passwordRuleLower)
	}
	if !hasDigit {
		violations = append(violations, passwordRuleDigit)
	}
	return violations
}
