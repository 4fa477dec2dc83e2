package domain

import (
	"errors"
	"strings"
)

var (
	ErrValidation              = errors.New("validation failed")
	ErrInvalidCredentials      = errors.New("invalid email or password")
	ErrAccountLocked           = errors.New("account is temporarily locked due to too many failed login attempts")
	ErrAccountInactive         = errors.New("account is deactivated")
	ErrInvalidToken            = errors.New("invalid or expired token")
	ErrInsufficientPermissions = errors.New("insufficient permissions")
	ErrUserNotFound            = errors.New("user not found")
	ErrDuplicateEmail          = errors.New("user with this email already exists")
	ErrSelfDeactivation        = errors.New("you cannot deactivate your own account")
	ErrSelfRoleChange          = errors.New("you cannot change your own role")
	ErrSelfDeletion            = errors.New("you cannot delete your own account")
	ErrIncorrectPassword       = errors.New("current password is incorrect")
)

// ValidationError carries per-field messages. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Fields []string
}

func NewValidationError(fields ...string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	return ErrValidation.Error() + ": " + strings.Join(e.Fields, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
