// Package wizard implements the booking flow: pick a practitioner, pick a
// slot (optionally recurring), fill the contact form, confirm.
package wizard

import (
	"context"
	"errors"
	"sync"
	"time"

	"therapyspace/internal/domain"
	"therapyspace/internal/modules/booking"
	"therapyspace/internal/modules/recurrence"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Step string

const (
	StepChoosingPractitioner Step = "choosing_practitioner"
	StepChoosingSlot         Step = "choosing_slot"
	StepFillingForm          Step = "filling_form"
	StepSuccess              Step = "success"
)

// Wizard holds the state of one booking flow. It is safe for concurrent
// use; transitions are refused while a submission is pending.
type Wizard struct {
	catalog Catalog
	store   BookingWriter
	delay   time.Duration
	log     *zap.Logger

	mu           sync.Mutex
	step         Step
	practitioner *domain.Practitioner
	slot         *domain.TimeSlot
	rule         domain.RecurrenceRule
	preview      []domain.Occurrence
	form         booking.BookingForm
	fieldErrors  map[string]string
	confirmed    *domain.Booking
	series       []domain.Booking
	submitting   bool
}

func New(catalog Catalog, store BookingWriter, delay time.Duration, log *zap.Logger) *Wizard {
	if log == nil {
		log = zap.NewNop()
	}
	w := &Wizard{catalog: catalog, store: store, delay: delay, log: log}
	w.reset()
	return w
}

func (w *Wizard) reset() {
	w.step = StepChoosingPractitioner
	w.practitioner = nil
	w.slot = nil
	w.rule = domain.DefaultRecurrenceRule()
	w.preview = nil
	w.form = booking.NewBookingForm()
	w.fieldErrors = nil
	w.confirmed = nil
	w.series = nil
}

func (w *Wizard) guard(steps ...Step) error {
	if w.submitting {
		return ErrSubmitInProgress
	}
	for _, s := range steps {
		if w.step == s {
			return nil
		}
	}
	return ErrInvalidTransition
}

// SelectPractitioner records the practitioner and moves on to slot choice.
// Any earlier slot selection is dropped.
func (w *Wizard) SelectPractitioner(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.guard(StepChoosingPractitioner); err != nil {
		return err
	}
	p, err := w.catalog.Get(id)
	if err != nil {
		return err
	}

	w.practitioner = p
	w.slot = nil
	w.preview = nil
	w.step = StepChoosingSlot
	return nil
}

// SelectSlot records an open slot of the chosen practitioner and refreshes
// the occurrence preview when a recurring rule is active.
func (w *Wizard) SelectSlot(date, t string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.guard(StepChoosingSlot); err != nil {
		return err
	}
	slot, ok := w.practitioner.Slot(date, t)
	if !ok || !slot.Available {
		return ErrSlotUnavailable
	}

	w.slot = &slot
	return w.refreshPreview()
}

// ChangeRecurrenceRule replaces the active rule. The rule is clamped into
// its legal ranges; a "none" rule gets interval 1.
func (w *Wizard) ChangeRecurrenceRule(rule domain.RecurrenceRule) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.guard(StepChoosingSlot); err != nil {
		return err
	}
	if rule.Type != "" && !rule.IsValidType() {
		return ErrInvalidRule
	}
	if rule.EndType != "" && rule.EndType != domain.EndByOccurrences && rule.EndType != domain.EndByDate {
		return ErrInvalidRule
	}

	w.rule = rule.Normalize()
	return w.refreshPreview()
}

func (w *Wizard) refreshPreview() error {
	if w.slot == nil || !w.rule.IsRecurring() {
		w.preview = nil
		return nil
	}
	occ, err := recurrence.Expand(w.slot.Date, w.slot.Time, w.rule, w.practitioner)
	if err != nil {
		return err
	}
	w.preview = occ
	return nil
}

// Continue moves to the contact form once a slot is selected.
func (w *Wizard) Continue() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.guard(StepChoosingSlot); err != nil {
		return err
	}
	if w.slot == nil {
		return ErrSlotNotSelected
	}
	w.step = StepFillingForm
	return nil
}

// Back leaves the slot step (dropping practitioner and slot) or the form
// step (dropping the slot).
func (w *Wizard) Back() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.guard(StepChoosingSlot, StepFillingForm); err != nil {
		return err
	}
	w.back()
	return nil
}

// CancelForm abandons the form and returns to slot choice.
func (w *Wizard) CancelForm() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.guard(StepFillingForm); err != nil {
		return err
	}
	w.back()
	return nil
}

func (w *Wizard) back() {
	if w.step == StepChoosingSlot {
		w.step = StepChoosingPractitioner
		w.practitioner = nil
	} else {
		w.step = StepChoosingSlot
	}
	w.slot = nil
	w.preview = nil
	w.fieldErrors = nil
}

// Submit validates form and, after the confirmation delay, commits either
// the open occurrences of the recurring series or a single booking. On a
// validation failure the wizard stays on the form with field errors set.
// Cancelling ctx during the delay aborts without writing anything.
func (w *Wizard) Submit(ctx context.Context, form booking.BookingForm) (*Result, error) {
	w.mu.Lock()
	if err := w.guard(StepFillingForm); err != nil {
		w.mu.Unlock()
		return nil, err
	}

	if err := form.Validate(); err != nil {
		var verr *booking.ValidationError
		if errors.As(err, &verr) {
			w.fieldErrors = verr.Fields
		}
		w.form = form
		w.mu.Unlock()
		return nil, err
	}

	w.form = form
	w.fieldErrors = nil
	w.submitting = true
	p, slot, rule := w.practitioner, *w.slot, w.rule
	open := recurrence.Available(w.preview)
	w.mu.Unlock()

	res, err := w.commit(ctx, p, slot, rule, open, form)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.submitting = false
	if err != nil {
		return nil, err
	}
	w.confirmed = &res.Booking
	w.series = res.Series
	w.step = StepSuccess
	return res, nil
}

// Result is what a successful submission produced.
type Result struct {
	Booking domain.Booking   `json:"booking"`
	GroupID string           `json:"groupId,omitempty"`
	Series  []domain.Booking `json:"series,omitempty"`
}

func (w *Wizard) commit(
	ctx context.Context,
	p *domain.Practitioner,
	slot domain.TimeSlot,
	rule domain.RecurrenceRule,
	open []domain.Occurrence,
	form booking.BookingForm,
) (*Result, error) {
	if err := w.wait(ctx); err != nil {
		return nil, err
	}

	base := domain.Booking{
		PractitionerID:   p.ID,
		PractitionerName: p.Name,
		Date:             slot.Date,
		Time:             slot.Time,
		ClientName:       form.ClientName,
		ClientEmail:      form.ClientEmail,
		ClientPhone:      form.ClientPhone,
		ServiceType:      form.ServiceType,
		Notes:            form.Notes,
		Status:           domain.BookingConfirmed,
	}

	if rule.IsRecurring() && len(open) > 0 {
		groupID, series, err := w.store.CreateRecurringGroup(ctx, base, open, rule)
		if err != nil {
			return nil, err
		}
		w.log.Info("wizard submitted recurring series",
			zap.String("group_id", groupID),
			zap.Int("booked", len(series)),
		)
		return &Result{Booking: series[0], GroupID: groupID, Series: series}, nil
	}

	base.ID = "booking-" + uuid.NewString()
	b, err := w.store.Create(ctx, base)
	if err != nil {
		return nil, err
	}
	return &Result{Booking: *b}, nil
}

func (w *Wizard) wait(ctx context.Context) error {
	if w.delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(w.delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// StartNew resets the flow from the success screen.
func (w *Wizard) StartNew() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.submitting {
		return ErrSubmitInProgress
	}
	w.reset()
	return nil
}

// View is a read-only snapshot of the wizard for rendering.
type View struct {
	Step         Step                        `json:"step"`
	Practitioner *domain.PractitionerProfile `json:"practitioner,omitempty"`
	Slot         *domain.TimeSlot            `json:"slot,omitempty"`
	Rule         domain.RecurrenceRule       `json:"recurrenceRule"`
	Preview      []domain.Occurrence         `json:"occurrences"`
	Summary      recurrence.Summary          `json:"occurrenceSummary"`
	Form         booking.BookingForm         `json:"form"`
	FieldErrors  map[string]string           `json:"fieldErrors,omitempty"`
	Submitting   bool                        `json:"submitting"`
	Confirmed    *domain.Booking             `json:"confirmedBooking,omitempty"`
	SeriesCount  int                         `json:"seriesCount,omitempty"`
}

func (w *Wizard) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()

	v := View{
		Step:       w.step,
		Rule:       w.rule,
		Preview:    append([]domain.Occurrence{}, w.preview...),
		Summary:    recurrence.Summarize(w.preview),
		Form:       w.form,
		Submitting: w.submitting,
	}
	if w.practitioner != nil {
		profile := w.practitioner.PractitionerProfile
		v.Practitioner = &profile
	}
	if w.slot != nil {
		s := *w.slot
		v.Slot = &s
	}
	if len(w.fieldErrors) > 0 {
		v.FieldErrors = make(map[string]string, len(w.fieldErrors))
		for k, msg := range w.fieldErrors {
			v.FieldErrors[k] = msg
		}
	}
	if w.confirmed != nil {
		b := *w.confirmed
		v.Confirmed = &b
		v.SeriesCount = len(w.series)
	}
	return v
}

func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

func (w *Wizard) Submitting() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.submitting
}
