package booking

import (
	"context"

	"therapyspace/internal/domain"
)

// Repository is the persistence boundary of the store. Implementations live
// in internal/repository.
type Repository interface {
	Get(ctx context.Context, id string) (*domain.Booking, error)
	List(ctx context.Context) ([]domain.Booking, error)
	Put(ctx context.Context, b *domain.Booking) error
	PutMany(ctx context.Context, bookings []domain.Booking) error
	Delete(ctx context.Context, id string) error
}

// ChangeNotifier is told about every committed lifecycle change.
type ChangeNotifier interface {
	BookingChanged(event Event, b domain.Booking)
}

// PractitionerLookup resolves practitioners for direct bookings.
type PractitionerLookup interface {
	Get(id string) (*domain.Practitioner, error)
}

type Event string

const (
	EventCreated     Event = "booking_created"
	EventCancelled   Event = "booking_cancelled"
	EventRestored    Event = "booking_restored"
	EventRescheduled Event = "booking_rescheduled"
)
