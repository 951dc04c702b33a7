package mybookings

import (
	"time"

	"therapyspace/internal/domain"
)

// PendingUndo is the single cancellation a viewer can still take back.
type PendingUndo struct {
	BookingID string    `json:"bookingId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type NotificationType string

const (
	NotifyUndo    NotificationType = "undo"
	NotifySuccess NotificationType = "success"
)

const (
	MsgCancelled   = "Booking cancelled successfully"
	MsgRestored    = "Booking restored"
	MsgRescheduled = "Booking rescheduled successfully"
)

// Notification is the dismissible toast shown after an action.
type Notification struct {
	Type          NotificationType `json:"type"`
	Message       string           `json:"message"`
	DismissAfter  int64            `json:"dismissAfterMs"`
	UndoExpiresAt *time.Time       `json:"undoExpiresAt,omitempty"`
	Booking       domain.Booking   `json:"booking"`
}

type RescheduleRequest struct {
	Date string `json:"date" binding:"required"`
	Time string `json:"time" binding:"required"`
}

func newNotification(t NotificationType, msg string, dismiss time.Duration, b domain.Booking) *Notification {
	return &Notification{
		Type:         t,
		Message:      msg,
		DismissAfter: dismiss.Milliseconds(),
		Booking:      b,
	}
}
