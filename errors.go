package cs4teachers

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = sql.ErrNoRows

	// ErrDuplicate is returned when a write violates a uniqueness rule that
	// is not resolved by slug disambiguation (e.g. sponsor names).
	ErrDuplicate = errors.New("duplicate value")

	// ErrInUse is returned when a delete is blocked by records that belong
	// to the target, such as uploaded images.
	ErrInUse = errors.New("record is still in use")
)

// ValidationError reports one or more invalid fields. Keys are form field
// names (e.g. "start_date").
type ValidationError struct {
	Fields map[string]string
}

func (e ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// fieldError builds a single-field ValidationError.
func fieldError(field, msg string) ValidationError {
	return ValidationError{Fields: map[string]string{field: msg}}
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) (ValidationError, bool) {
	var ve ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}
