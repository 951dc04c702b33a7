package wizard

import (
	"context"

	"therapyspace/internal/domain"
)

// Catalog resolves practitioners and their slot lists.
type Catalog interface {
	Get(id string) (*domain.Practitioner, error)
}

// BookingWriter commits confirmed bookings.
type BookingWriter interface {
	Create(ctx context.Context, b domain.Booking) (*domain.Booking, error)
	CreateRecurringGroup(ctx context.Context, base domain.Booking, occurrences []domain.Occurrence, rule domain.RecurrenceRule) (string, []domain.Booking, error)
}
