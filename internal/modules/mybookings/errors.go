package mybookings

import "errors"

var (
	ErrNothingToUndo   = errors.New("nothing to undo")
	ErrNoCancelPrompt  = errors.New("no cancellation awaiting confirmation")
	ErrSlotUnavailable = errors.New("time slot is not available")
	ErrForbidden       = errors.New("booking belongs to another client")
)
