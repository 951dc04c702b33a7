package repository

import "errors"

var (
	ErrNotFound    = errors.New("record not found")
	ErrDuplicateID = errors.New("duplicate booking id")
	ErrConflict    = errors.New("concurrent write conflict")
)
