package domain

import (
	"fmt"
	"strings"
)

// PasswordSpecials are the symbols accepted by the password policy.
const PasswordSpecials = "@$!%*?&"

// PasswordProblems lists every policy rule the password breaks.
func PasswordProblems(password string) []string {
	var problems []string
	if len(password) < MinPasswordLength {
		problems = append(problems, "password must be at least 8 characters long")
	}
	// bcrypt only accepts the first 72 bytes.
	if len(password) > MaxPasswordBytes {
		problems = append(problems, fmt.Sprintf("password cannot exceed %d bytes", MaxPasswordBytes))
	}

	var lower, upper, digit, special bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(PasswordSpecials, r):
			special = true
		}
	}
	if !lower {
		problems = append(problems, "password must contain a lowercase letter")
	}
	if !upper {
		problems = append(problems, "password must contain an uppercase letter")
	}
	if !digit {
		problems = append(problems, "password must contain a number")
	}
	if !special {
		problems = append(problems, "password must contain one of "+PasswordSpecials)
	}
	return problems
}

// ValidatePassword returns a ValidationError when the password breaks the policy.
func ValidatePassword(password string) error {
	if problems := PasswordProblems(password); len(problems) > 0 {
		return NewValidationError(problems...)
	}
	return nil
}
