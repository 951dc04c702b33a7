package mybookings

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"therapyspace/internal/database"
	"therapyspace/internal/domain"
	"therapyspace/internal/modules/booking"
	"therapyspace/internal/modules/catalog"
	"therapyspace/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog map[string]*domain.Practitioner

func (f fakeCatalog) Get(id string) (*domain.Practitioner, error) {
	p, ok := f[id]
	if !ok {
		return nil, catalog.ErrPractitionerNotFound
	}
	return p, nil
}

func testCatalog() fakeCatalog {
	p := domain.NewPractitioner(domain.PractitionerProfile{ID: "dr-sarah-chen", Name: "Dr. Sarah Chen"}, []domain.TimeSlot{
		{ID: "2026-01-07-4", Date: "2026-01-07", Time: "02:00 PM", Available: true},
		{ID: "2026-01-07-5", Date: "2026-01-07", Time: "03:00 PM", Available: false},
	})
	return fakeCatalog{p.ID: p}
}

func setupTestManager(t *testing.T) (*Manager, *booking.Store, *MemoryUndoStore) {
	t.Helper()
	dsn := fmt.Sprintf("file:mybookings_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := database.Connect(dsn, nil)
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(db))

	store := booking.NewStore(repository.NewBookingRepository(db), nil, nil)
	undo := NewMemoryUndoStore()
	return NewManager(store, testCatalog(), undo, 5*time.Second, nil), store, undo
}

func create(t *testing.T, s *booking.Store, email, date, tm string) *domain.Booking {
	t.Helper()
	b, err := s.Create(context.Background(), domain.Booking{
		PractitionerID:   "dr-sarah-chen",
		PractitionerName: "Dr. Sarah Chen",
		Date:             date,
		Time:             tm,
		ClientName:       "Client",
		ClientEmail:      email,
		ClientPhone:      "1",
		ServiceType:      "individual",
	})
	require.NoError(t, err)
	return b
}

func TestSortNewestFirst_Chronological(t *testing.T) {
	list := []domain.Booking{
		{ID: "a", Date: "2026-01-05", Time: "09:00 AM"},
		{ID: "b", Date: "2026-01-05", Time: "01:00 PM"},
		{ID: "c", Date: "2026-01-07", Time: "09:00 AM"},
		{ID: "d", Date: "2026-01-05", Time: "11:00 AM"},
		{ID: "e", Date: "2025-12-30", Time: "05:00 PM"},
	}
	SortNewestFirst(list)

	ids := make([]string, 0, len(list))
	for _, b := range list {
		ids = append(ids, b.ID)
	}
	assert.Equal(t, []string{"c", "b", "d", "a", "e"}, ids)
}

func passFor(ids ...string) domain.Viewer {
	return domain.Viewer{ID: "viewer-1", Email: "jane@example.com", BookingIDs: ids}
}

func TestLoad_ScopesToViewer(t *testing.T) {
	m, s, _ := setupTestManager(t)
	ctx := context.Background()

	mine := create(t, s, "jane@example.com", "2026-01-05", "09:00 AM")
	create(t, s, "bob@example.com", "2026-01-06", "09:00 AM")
	// typed with Jane's email from another browser; her pass does not cover it
	create(t, s, "jane@example.com", "2026-01-07", "09:00 AM")

	list, err := m.Load(ctx, passFor(mine.ID))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].ID)

	all, err := m.Load(ctx, domain.Viewer{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "2026-01-07", all[0].Date)
}

func TestLoad_IncludesWholeSeriesFromGroupGrant(t *testing.T) {
	m, s, _ := setupTestManager(t)
	ctx := context.Background()

	groupID, series, err := s.CreateRecurringGroup(ctx, domain.Booking{
		PractitionerID: "dr-sarah-chen",
		ClientName:     "Client",
		ClientEmail:    "jane@example.com",
		ClientPhone:    "1",
		ServiceType:    "individual",
	}, []domain.Occurrence{
		{Date: "2026-01-05", Time: "09:00 AM", Available: true},
		{Date: "2026-01-12", Time: "09:00 AM", Available: true},
	}, domain.RecurrenceRule{Type: domain.RecurrenceWeekly, Interval: 1, EndType: domain.EndByOccurrences, Occurrences: 2})
	require.NoError(t, err)
	require.Len(t, series, 2)

	list, err := m.Load(ctx, domain.Viewer{ID: "viewer-1", GroupIDs: []string{groupID}})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestCancelThenUndo(t *testing.T) {
	ctx := context.Background()
	m, s, undo := setupTestManager(t)
	v := domain.Viewer{}
	fixed := time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)
	undo.now = func() time.Time { return fixed }

	x := create(t, s, "jane@example.com", "2026-01-05", "09:00 AM")

	_, err := m.ConfirmCancel(ctx, v)
	assert.ErrorIs(t, err, ErrNoCancelPrompt)

	prompted, err := m.OpenCancelPrompt(ctx, v, x.ID)
	require.NoError(t, err)
	assert.Equal(t, x.ID, prompted.ID)

	n, err := m.ConfirmCancel(ctx, v)
	require.NoError(t, err)
	assert.Equal(t, NotifyUndo, n.Type)
	assert.Equal(t, MsgCancelled, n.Message)
	assert.Equal(t, int64(5000), n.DismissAfter)
	require.NotNil(t, n.UndoExpiresAt)
	assert.Equal(t, fixed.Add(5*time.Second), *n.UndoExpiresAt)

	list, err := m.Load(ctx, v)
	require.NoError(t, err)
	assert.Empty(t, list)

	n, err = m.Undo(ctx, v)
	require.NoError(t, err)
	assert.Equal(t, MsgRestored, n.Message)
	assert.Equal(t, domain.BookingConfirmed, n.Booking.Status)

	list, err = m.Load(ctx, v)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, x.ID, list[0].ID)

	_, err = m.Undo(ctx, v)
	assert.ErrorIs(t, err, ErrNothingToUndo)
}

func TestUndo_OnlyLatestCancellation(t *testing.T) {
	m, s, _ := setupTestManager(t)
	ctx := context.Background()
	v := domain.Viewer{}

	first := create(t, s, "jane@example.com", "2026-01-05", "09:00 AM")
	second := create(t, s, "jane@example.com", "2026-01-06", "09:00 AM")

	for _, id := range []string{first.ID, second.ID} {
		_, err := m.OpenCancelPrompt(ctx, v, id)
		require.NoError(t, err)
		_, err = m.ConfirmCancel(ctx, v)
		require.NoError(t, err)
	}

	n, err := m.Undo(ctx, v)
	require.NoError(t, err)
	assert.Equal(t, second.ID, n.Booking.ID)

	got, err := s.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCancelled, got.Status)
}

func TestUndo_Expires(t *testing.T) {
	m, s, undo := setupTestManager(t)
	ctx := context.Background()
	v := domain.Viewer{}
	now := time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)
	undo.now = func() time.Time { return now }

	x := create(t, s, "jane@example.com", "2026-01-05", "09:00 AM")
	_, err := m.OpenCancelPrompt(ctx, v, x.ID)
	require.NoError(t, err)
	_, err = m.ConfirmCancel(ctx, v)
	require.NoError(t, err)

	now = now.Add(6 * time.Second)
	_, err = m.Undo(ctx, v)
	assert.ErrorIs(t, err, ErrNothingToUndo)
}

func TestDismissCancelPrompt(t *testing.T) {
	m, s, _ := setupTestManager(t)
	ctx := context.Background()
	v := domain.Viewer{}

	x := create(t, s, "jane@example.com", "2026-01-05", "09:00 AM")
	_, err := m.OpenCancelPrompt(ctx, v, x.ID)
	require.NoError(t, err)

	require.NoError(t, m.DismissCancelPrompt(v))
	assert.ErrorIs(t, m.DismissCancelPrompt(v), ErrNoCancelPrompt)

	_, err = m.ConfirmCancel(ctx, v)
	assert.ErrorIs(t, err, ErrNoCancelPrompt)

	got, err := s.Get(ctx, x.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, got.Status)
}

func TestOtherClientsBookingsAreOffLimits(t *testing.T) {
	m, s, _ := setupTestManager(t)
	ctx := context.Background()

	jane := create(t, s, "jane@example.com", "2026-01-05", "09:00 AM")
	victim := create(t, s, "jane@example.com", "2026-01-06", "09:00 AM")
	v := passFor(jane.ID)

	_, err := m.OpenCancelPrompt(ctx, v, victim.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = m.Reschedule(ctx, v, victim.ID, "2026-01-07", "02:00 PM")
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := s.Get(ctx, victim.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, got.Status)
}

func TestReschedule(t *testing.T) {
	m, s, _ := setupTestManager(t)
	ctx := context.Background()
	x := create(t, s, "jane@example.com", "2026-01-05", "09:00 AM")
	v := passFor(x.ID)

	_, err := m.Reschedule(ctx, v, x.ID, "2026-01-07", "03:00 PM")
	assert.ErrorIs(t, err, ErrSlotUnavailable)
	_, err = m.Reschedule(ctx, v, x.ID, "2026-01-10", "02:00 PM")
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	n, err := m.Reschedule(ctx, v, x.ID, "2026-01-07", "02:00 PM")
	require.NoError(t, err)
	assert.Equal(t, MsgRescheduled, n.Message)
	assert.Equal(t, "2026-01-07", n.Booking.Date)
	assert.Equal(t, "02:00 PM", n.Booking.Time)

	_, err = m.Reschedule(ctx, v, "missing", "2026-01-07", "02:00 PM")
	assert.ErrorIs(t, err, booking.ErrNotFound)
}

// failingRestore rejects restores while fail is set.
type failingRestore struct {
	*booking.Store
	fail bool
}

func (f *failingRestore) Restore(ctx context.Context, id string) (*domain.Booking, error) {
	if f.fail {
		return nil, booking.ErrStorageUnavailable
	}
	return f.Store.Restore(ctx, id)
}

func TestUndo_SurvivesFailedRestore(t *testing.T) {
	_, s, undo := setupTestManager(t)
	store := &failingRestore{Store: s}
	m := NewManager(store, testCatalog(), undo, 5*time.Second, nil)
	ctx := context.Background()
	now := time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)
	undo.now = func() time.Time { return now }
	v := domain.Viewer{}

	x := create(t, s, "jane@example.com", "2026-01-05", "09:00 AM")
	_, err := m.OpenCancelPrompt(ctx, v, x.ID)
	require.NoError(t, err)
	_, err = m.ConfirmCancel(ctx, v)
	require.NoError(t, err)

	store.fail = true
	_, err = m.Undo(ctx, v)
	assert.ErrorIs(t, err, booking.ErrStorageUnavailable)

	store.fail = false
	n, err := m.Undo(ctx, v)
	require.NoError(t, err)
	assert.Equal(t, x.ID, n.Booking.ID)
	assert.Equal(t, domain.BookingConfirmed, n.Booking.Status)

	_, err = m.Undo(ctx, v)
	assert.ErrorIs(t, err, ErrNothingToUndo)
}
