package booking

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrValidation         = errors.New("validation error")
	ErrNotFound           = errors.New("booking not found")
	ErrDuplicateID        = errors.New("booking id already exists")
	ErrEmptySeries        = errors.New("recurring series has no occurrences")
	ErrSlotUnavailable    = errors.New("time slot is not available")
	ErrStorageUnavailable = errors.New("booking storage unavailable")
)

// ValidationError carries per-field messages keyed by the form's JSON field
// names. It matches ErrValidation under errors.Is.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return ErrValidation.Error() + ": " + strings.Join(keys, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
