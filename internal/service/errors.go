package service

import (
	"errors"
	"strings"

	"github.com/mini-drive/backend/internal/model"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")

	// Token verification failure classes. All map to 401 but are kept
	// distinct so callers and logs can tell them apart.
	ErrTokenMalformed        = errors.New("token malformed")
	ErrTokenSignatureInvalid = errors.New("token signature invalid")
	ErrTokenExpired          = errors.New("token expired")

	ErrMisconfigured = errors.New("auth config invalid")
)

// ValidationError carries every field violation found, not just the first.
type ValidationError struct {
	Violations []model.FieldViolation
}

func (e *ValidationError) Error() string {
	reasons := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		reasons = append(reasons, v.Field+": "+v.Reason)
	}
	return "validation failed: " + strings.Join(reasons, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

func violation(field, reason string) model.FieldViolation {
	return model.FieldViolation{Field: field, Reason: reason}
}
