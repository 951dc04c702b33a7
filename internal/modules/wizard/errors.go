package wizard

import "errors"

var (
	ErrInvalidTransition = errors.New("transition not allowed from current step")
	ErrSlotNotSelected   = errors.New("no time slot selected")
	ErrSlotUnavailable   = errors.New("time slot is not available")
	ErrInvalidRule       = errors.New("invalid recurrence rule")
	ErrSubmitInProgress  = errors.New("submission already in progress")
	ErrSessionNotFound   = errors.New("wizard session not found")
)
