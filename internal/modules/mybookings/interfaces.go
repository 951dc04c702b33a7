package mybookings

import (
	"context"
	"time"

	"therapyspace/internal/domain"
)

// BookingStore is the subset of the booking store the manager drives.
type BookingStore interface {
	Get(ctx context.Context, id string) (*domain.Booking, error)
	QueryAll(ctx context.Context) ([]domain.Booking, error)
	Cancel(ctx context.Context, id string) (*domain.Booking, error)
	Restore(ctx context.Context, id string) (*domain.Booking, error)
	Reschedule(ctx context.Context, id, date, time string) (*domain.Booking, error)
}

type Catalog interface {
	Get(id string) (*domain.Practitioner, error)
}

// UndoStore keeps at most one pending undo per viewer. The store's own clock
// decides expiry.
type UndoStore interface {
	// Put replaces the viewer's pending undo with bookingID for ttl.
	Put(ctx context.Context, viewerKey, bookingID string, ttl time.Duration) (*PendingUndo, error)
	// Peek returns the pending undo without consuming it, or
	// ErrNothingToUndo once it is gone or expired.
	Peek(ctx context.Context, viewerKey string) (*PendingUndo, error)
	// Clear drops p unless a newer cancellation already replaced it.
	Clear(ctx context.Context, viewerKey string, p PendingUndo) error
}
