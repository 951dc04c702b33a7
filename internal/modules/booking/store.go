package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"therapyspace/internal/domain"
	"therapyspace/internal/pkg/metrics"
	"therapyspace/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store owns the persisted booking collection. Every other component reads
// and mutates bookings through it.
type Store struct {
	repo     Repository
	log      *zap.Logger
	metrics  *metrics.BookingMetrics
	notifier ChangeNotifier

	now   func() time.Time
	newID func() string
}

func NewStore(repo Repository, log *zap.Logger, m *metrics.BookingMetrics) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		repo:    repo,
		log:     log,
		metrics: m,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// SetNotifier attaches the change feed. Call before serving traffic.
func (s *Store) SetNotifier(n ChangeNotifier) {
	s.notifier = n
}

// Create appends b. Missing id, status and creation time are filled in.
func (s *Store) Create(ctx context.Context, b domain.Booking) (*domain.Booking, error) {
	if b.ID == "" {
		b.ID = s.newID()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = s.now().UTC()
	}
	b.Normalize()

	err := s.repo.Put(ctx, &b)
	s.metrics.ObserveWrite("create", err)
	if err != nil {
		return nil, s.storageErr("create", b.ID, err)
	}

	s.log.Info("booking created",
		zap.String("booking_id", b.ID),
		zap.String("practitioner_id", b.PractitionerID),
		zap.String("date", b.Date),
		zap.String("time", b.Time),
	)
	s.emit(EventCreated, b)
	return &b, nil
}

// CreateRecurringGroup writes one booking per occurrence under a fresh
// group id. Only the first booking carries the rule.
func (s *Store) CreateRecurringGroup(
	ctx context.Context,
	base domain.Booking,
	occurrences []domain.Occurrence,
	rule domain.RecurrenceRule,
) (string, []domain.Booking, error) {
	if len(occurrences) == 0 {
		return "", nil, ErrEmptySeries
	}

	groupID := "recurring-" + s.newID()
	createdAt := s.now().UTC()
	if base.Status == "" {
		base.Status = domain.BookingConfirmed
	}

	series := make([]domain.Booking, 0, len(occurrences))
	for i, occ := range occurrences {
		b := base
		b.ID = fmt.Sprintf("%s-%d", groupID, i)
		b.Date = occ.Date
		b.Time = occ.Time
		b.CreatedAt = createdAt
		b.RecurrenceGroupID = groupID
		b.IsRecurring = true
		b.RecurrenceRule = nil
		if i == 0 {
			r := rule
			b.RecurrenceRule = &r
		}
		series = append(series, b)
	}

	err := s.repo.PutMany(ctx, series)
	s.metrics.ObserveWrite("create_group", err)
	if err != nil {
		return "", nil, s.storageErr("create_group", groupID, err)
	}

	s.log.Info("recurring bookings created",
		zap.String("group_id", groupID),
		zap.Int("count", len(series)),
		zap.String("type", string(rule.Type)),
	)
	for _, b := range series {
		s.emit(EventCreated, b)
	}
	return groupID, series, nil
}

// Update merges patch into the booking with the given id.
func (s *Store) Update(ctx context.Context, id string, patch domain.BookingPatch) (*domain.Booking, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return b, nil
	}

	patch.Apply(b)
	err = s.repo.Put(ctx, b)
	s.metrics.ObserveWrite("update", err)
	if err != nil {
		return nil, s.storageErr("update", id, err)
	}
	return b, nil
}

// Cancel is idempotent: cancelling a cancelled booking changes nothing.
func (s *Store) Cancel(ctx context.Context, id string) (*domain.Booking, error) {
	return s.setStatus(ctx, id, domain.BookingCancelled, EventCancelled)
}

func (s *Store) Restore(ctx context.Context, id string) (*domain.Booking, error) {
	return s.setStatus(ctx, id, domain.BookingConfirmed, EventRestored)
}

func (s *Store) setStatus(ctx context.Context, id string, status domain.BookingStatus, event Event) (*domain.Booking, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == status {
		return current, nil
	}

	b, err := s.Update(ctx, id, domain.BookingPatch{Status: &status})
	if err != nil {
		return nil, err
	}
	s.log.Info("booking status changed",
		zap.String("booking_id", id),
		zap.String("status", string(status)),
	)
	s.emit(event, *b)
	return b, nil
}

// Reschedule rewrites date and time only. Slot availability is the caller's
// concern; other bookings of the same series are left alone.
func (s *Store) Reschedule(ctx context.Context, id, date, t string) (*domain.Booking, error) {
	fields := map[string]string{}
	if _, err := time.Parse(domain.DateLayout, date); err != nil {
		fields["date"] = "Date must be YYYY-MM-DD"
	}
	if _, err := time.Parse(domain.TimeLayout, t); err != nil {
		fields["time"] = "Time must be hh:mm AM/PM"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	b, err := s.Update(ctx, id, domain.BookingPatch{Date: &date, Time: &t})
	if err != nil {
		return nil, err
	}
	s.log.Info("booking rescheduled",
		zap.String("booking_id", id),
		zap.String("date", date),
		zap.String("time", t),
	)
	s.emit(EventRescheduled, *b)
	return b, nil
}

func (s *Store) Get(ctx context.Context, id string) (*domain.Booking, error) {
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, s.storageErr("get", id, err)
	}
	return b, nil
}

// QueryByClient returns the non-cancelled bookings of one email in storage
// order. Emails compare case-insensitively.
func (s *Store) QueryByClient(ctx context.Context, email string) ([]domain.Booking, error) {
	email = strings.TrimSpace(email)
	return s.filter(ctx, func(b domain.Booking) bool {
		return !b.IsCancelled() && strings.EqualFold(b.ClientEmail, email)
	})
}

// QueryAll returns every non-cancelled booking in storage order.
func (s *Store) QueryAll(ctx context.Context) ([]domain.Booking, error) {
	return s.filter(ctx, func(b domain.Booking) bool {
		return !b.IsCancelled()
	})
}

// Delete physically removes a booking.
func (s *Store) Delete(ctx context.Context, id string) error {
	err := s.repo.Delete(ctx, id)
	s.metrics.ObserveWrite("delete", err)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return s.storageErr("delete", id, err)
	}
	return nil
}

// PurgeCancelled deletes cancelled bookings whose session date lies before
// the given day and returns how many were removed.
func (s *Store) PurgeCancelled(ctx context.Context, before time.Time) (int, error) {
	cutoff := before.Format(domain.DateLayout)
	stale, err := s.filter(ctx, func(b domain.Booking) bool {
		return b.IsCancelled() && b.Date < cutoff
	})
	if err != nil {
		return 0, err
	}

	purged := 0
	for _, b := range stale {
		if err := s.Delete(ctx, b.ID); err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return purged, err
		}
		purged++
	}
	return purged, nil
}

func (s *Store) filter(ctx context.Context, keep func(domain.Booking) bool) ([]domain.Booking, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, s.storageErr("list", "", err)
	}

	out := make([]domain.Booking, 0, len(all))
	for _, b := range all {
		if keep(b) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *Store) storageErr(op, id string, err error) error {
	if errors.Is(err, repository.ErrDuplicateID) {
		return ErrDuplicateID
	}
	s.log.Error("booking store failure",
		zap.String("op", op),
		zap.String("id", id),
		zap.Error(err),
	)
	return fmt.Errorf("%w: %s: %w", ErrStorageUnavailable, op, err)
}

func (s *Store) emit(event Event, b domain.Booking) {
	s.metrics.ObserveEvent(string(event))
	if s.notifier != nil {
		s.notifier.BookingChanged(event, b)
	}
}
