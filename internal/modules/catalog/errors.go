package catalog

import "errors"

var (
	ErrPractitionerNotFound = errors.New("practitioner not found")
	ErrInvalidDate          = errors.New("invalid date")
)
