// Package mybookings lists a client's bookings and handles cancel (with a
// confirmation step and a single undo) and reschedule.
package mybookings

import (
	"context"
	"sort"
	"sync"
	"time"

	"therapyspace/internal/domain"
	"therapyspace/internal/modules/booking"

	"go.uber.org/zap"
)

const successDismiss = 3 * time.Second

type Manager struct {
	store   BookingStore
	catalog Catalog
	undo    UndoStore
	undoTTL time.Duration
	log     *zap.Logger

	mu      sync.Mutex
	prompts map[string]string
}

func NewManager(store BookingStore, catalog Catalog, undo UndoStore, undoTTL time.Duration, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		store:   store,
		catalog: catalog,
		undo:    undo,
		undoTTL: undoTTL,
		log:     log,
		prompts: make(map[string]string),
	}
}

// Load returns the non-cancelled bookings the viewer owns, latest session
// first.
func (m *Manager) Load(ctx context.Context, v domain.Viewer) ([]domain.Booking, error) {
	all, err := m.store.QueryAll(ctx)
	if err != nil {
		return nil, err
	}

	list := all[:0]
	for i := range all {
		if v.Owns(&all[i]) {
			list = append(list, all[i])
		}
	}
	SortNewestFirst(list)
	return list, nil
}

// SortNewestFirst orders by date descending, then by clock time descending.
func SortNewestFirst(list []domain.Booking) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Date != list[j].Date {
			return list[i].Date > list[j].Date
		}
		return clockAfter(list[i].Time, list[j].Time)
	})
}

func clockAfter(a, b string) bool {
	ta, errA := time.Parse(domain.TimeLayout, a)
	tb, errB := time.Parse(domain.TimeLayout, b)
	if errA != nil || errB != nil {
		return a > b
	}
	return ta.After(tb)
}

// OpenCancelPrompt asks the viewer to confirm cancelling id. A newer prompt
// replaces an older one.
func (m *Manager) OpenCancelPrompt(ctx context.Context, v domain.Viewer, id string) (*domain.Booking, error) {
	b, err := m.visible(ctx, v, id)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.prompts[v.Key()] = b.ID
	m.mu.Unlock()
	return b, nil
}

func (m *Manager) DismissCancelPrompt(v domain.Viewer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.prompts[v.Key()]; !ok {
		return ErrNoCancelPrompt
	}
	delete(m.prompts, v.Key())
	return nil
}

// ConfirmCancel commits the prompted cancellation and keeps it undoable
// until the undo TTL runs out or the next cancellation replaces it.
func (m *Manager) ConfirmCancel(ctx context.Context, v domain.Viewer) (*Notification, error) {
	m.mu.Lock()
	id, ok := m.prompts[v.Key()]
	delete(m.prompts, v.Key())
	m.mu.Unlock()
	if !ok {
		return nil, ErrNoCancelPrompt
	}

	if _, err := m.visible(ctx, v, id); err != nil {
		return nil, err
	}
	b, err := m.store.Cancel(ctx, id)
	if err != nil {
		return nil, err
	}

	pending, err := m.undo.Put(ctx, v.Key(), b.ID, m.undoTTL)
	if err != nil {
		// the cancellation itself stands
		m.log.Warn("undo token not stored", zap.String("booking_id", b.ID), zap.Error(err))
		return newNotification(NotifySuccess, MsgCancelled, successDismiss, *b), nil
	}

	n := newNotification(NotifyUndo, MsgCancelled, m.undoTTL, *b)
	n.UndoExpiresAt = &pending.ExpiresAt
	return n, nil
}

// Undo restores the viewer's most recent cancellation while it is pending.
// The token survives a failed restore so the client can retry.
func (m *Manager) Undo(ctx context.Context, v domain.Viewer) (*Notification, error) {
	pending, err := m.undo.Peek(ctx, v.Key())
	if err != nil {
		return nil, err
	}

	b, err := m.store.Restore(ctx, pending.BookingID)
	if err != nil {
		return nil, err
	}
	if err := m.undo.Clear(ctx, v.Key(), *pending); err != nil {
		m.log.Warn("undo token not cleared", zap.String("booking_id", b.ID), zap.Error(err))
	}
	return newNotification(NotifySuccess, MsgRestored, successDismiss, *b), nil
}

// Reschedule moves one booking to an open slot of the same practitioner.
// Other bookings of its series stay where they are.
func (m *Manager) Reschedule(ctx context.Context, v domain.Viewer, id, date, t string) (*Notification, error) {
	current, err := m.visible(ctx, v, id)
	if err != nil {
		return nil, err
	}

	p, err := m.catalog.Get(current.PractitionerID)
	if err != nil {
		return nil, err
	}
	if !p.SlotAvailable(date, t) {
		return nil, ErrSlotUnavailable
	}

	b, err := m.store.Reschedule(ctx, id, date, t)
	if err != nil {
		return nil, err
	}
	return newNotification(NotifySuccess, MsgRescheduled, successDismiss, *b), nil
}

// visible loads a non-cancelled booking the viewer may act on.
func (m *Manager) visible(ctx context.Context, v domain.Viewer, id string) (*domain.Booking, error) {
	b, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.IsCancelled() {
		return nil, booking.ErrNotFound
	}
	if !v.Owns(b) {
		return nil, ErrForbidden
	}
	return b, nil
}
