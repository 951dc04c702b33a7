package wizard

import (
	"context"
	"errors"
	"net/http"
	"time"

	"therapyspace/internal/domain"
	"therapyspace/internal/middleware"
	"therapyspace/internal/modules/booking"
	"therapyspace/internal/modules/catalog"
	"therapyspace/internal/pkg/metrics"
	"therapyspace/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TokenIssuer hands out client passes after a successful booking. A pass
// only grants the bookings or series it names; prev is the caller's current
// pass, if any, so repeat bookings accumulate under one identity.
type TokenIssuer interface {
	Extend(prev, email string, bookingIDs, groupIDs []string) (string, error)
}

type Handler struct {
	sessions *Sessions
	tokens   TokenIssuer
	metrics  *metrics.BookingMetrics
	log      *zap.Logger
	submitMW []gin.HandlerFunc
}

// NewHandler wires the wizard routes. submitMW runs in front of the submit
// route only (rate limiting).
func NewHandler(sessions *Sessions, tokens TokenIssuer, m *metrics.BookingMetrics, log *zap.Logger, submitMW ...gin.HandlerFunc) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{sessions: sessions, tokens: tokens, metrics: m, log: log, submitMW: submitMW}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/wizard/sessions")
	{
		g.POST("", h.CreateSession)
		g.GET("/:id", h.GetSession)
		g.DELETE("/:id", h.DeleteSession)
		g.POST("/:id/practitioner", h.SelectPractitioner)
		g.POST("/:id/slot", h.SelectSlot)
		g.PUT("/:id/recurrence", h.ChangeRecurrence)
		g.POST("/:id/continue", h.Continue)
		g.POST("/:id/back", h.Back)
		g.POST("/:id/cancel", h.Cancel)
		g.POST("/:id/reset", h.Reset)

		submit := append(append([]gin.HandlerFunc{}, h.submitMW...), h.Submit)
		g.POST("/:id/submit", submit...)
	}
}

// CreateSession godoc
// @Summary Start a booking wizard
// @Tags Wizard
// @Produce json
// @Success 201 {object} SessionResponse
// @Router /wizard/sessions [post]
func (h *Handler) CreateSession(c *gin.Context) {
	id, w := h.sessions.Create()
	response.Success(c, http.StatusCreated, SessionResponse{SessionID: id, View: w.View()})
}

// GetSession godoc
// @Summary Get wizard state
// @Tags Wizard
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /wizard/sessions/{id} [get]
func (h *Handler) GetSession(c *gin.Context) {
	w, ok := h.wizard(c)
	if !ok {
		return
	}
	h.respond(c, w)
}

// DeleteSession godoc
// @Summary Discard a wizard
// @Tags Wizard
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /wizard/sessions/{id} [delete]
func (h *Handler) DeleteSession(c *gin.Context) {
	if !h.sessions.Delete(c.Param("id")) {
		handleError(c, ErrSessionNotFound)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// SelectPractitioner godoc
// @Summary Choose a practitioner
// @Tags Wizard
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body SelectPractitionerRequest true "Practitioner"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /wizard/sessions/{id}/practitioner [post]
func (h *Handler) SelectPractitioner(c *gin.Context) {
	var req SelectPractitionerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "practitionerId is required")
		return
	}
	h.transition(c, func(w *Wizard) error { return w.SelectPractitioner(req.PractitionerID) })
}

// SelectSlot godoc
// @Summary Choose a time slot
// @Tags Wizard
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body SelectSlotRequest true "Slot"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /wizard/sessions/{id}/slot [post]
func (h *Handler) SelectSlot(c *gin.Context) {
	var req SelectSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "date and time are required")
		return
	}
	h.transition(c, func(w *Wizard) error { return w.SelectSlot(req.Date, req.Time) })
}

// ChangeRecurrence godoc
// @Summary Change the recurrence rule
// @Description Recomputes the occurrence preview.
// @Tags Wizard
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body domain.RecurrenceRule true "Rule"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /wizard/sessions/{id}/recurrence [put]
func (h *Handler) ChangeRecurrence(c *gin.Context) {
	var rule domain.RecurrenceRule
	if err := c.ShouldBindJSON(&rule); err != nil {
		response.BadRequest(c, "Invalid recurrence rule")
		return
	}
	h.transition(c, func(w *Wizard) error { return w.ChangeRecurrenceRule(rule) })
}

// Continue godoc
// @Summary Move on to the details form
// @Tags Wizard
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /wizard/sessions/{id}/continue [post]
func (h *Handler) Continue(c *gin.Context) {
	h.transition(c, (*Wizard).Continue)
}

// Back godoc
// @Summary Go back to slot selection
// @Tags Wizard
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /wizard/sessions/{id}/back [post]
func (h *Handler) Back(c *gin.Context) {
	h.transition(c, (*Wizard).Back)
}

// Cancel godoc
// @Summary Leave the details form
// @Tags Wizard
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /wizard/sessions/{id}/cancel [post]
func (h *Handler) Cancel(c *gin.Context) {
	h.transition(c, (*Wizard).CancelForm)
}

// Reset godoc
// @Summary Book another session
// @Tags Wizard
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /wizard/sessions/{id}/reset [post]
func (h *Handler) Reset(c *gin.Context) {
	h.transition(c, (*Wizard).StartNew)
}

// Submit godoc
// @Summary Submit the booking
// @Description Writes the booking or series and returns a client pass. Send an existing pass as a bearer token to extend it.
// @Tags Wizard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param request body booking.BookingForm true "Client details"
// @Success 201 {object} SubmitResponse
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 429 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /wizard/sessions/{id}/submit [post]
func (h *Handler) Submit(c *gin.Context) {
	w, ok := h.wizard(c)
	if !ok {
		return
	}

	var form booking.BookingForm
	if err := c.ShouldBindJSON(&form); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	start := time.Now()
	res, err := w.Submit(c.Request.Context(), form)
	if err != nil {
		var verr *booking.ValidationError
		if errors.As(err, &verr) {
			response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Please correct the highlighted fields", verr.Fields)
			return
		}
		handleError(c, err)
		return
	}
	h.metrics.ObserveSubmit(time.Since(start).Seconds())

	out := SubmitResponse{
		View:    w.View(),
		Booking: res.Booking,
		GroupID: res.GroupID,
		Series:  res.Series,
	}
	if h.tokens != nil {
		var bookingIDs, groupIDs []string
		if res.GroupID != "" {
			groupIDs = []string{res.GroupID}
		} else {
			bookingIDs = []string{res.Booking.ID}
		}
		token, err := h.tokens.Extend(middleware.BearerToken(c), res.Booking.ClientEmail, bookingIDs, groupIDs)
		if err != nil {
			h.log.Warn("client token not issued", zap.Error(err))
		} else {
			out.ClientToken = token
		}
	}
	response.Success(c, http.StatusCreated, out)
}

func (h *Handler) wizard(c *gin.Context) (*Wizard, bool) {
	w, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		handleError(c, err)
		return nil, false
	}
	return w, true
}

func (h *Handler) transition(c *gin.Context, fn func(*Wizard) error) {
	w, ok := h.wizard(c)
	if !ok {
		return
	}
	if err := fn(w); err != nil {
		handleError(c, err)
		return
	}
	h.respond(c, w)
}

func (h *Handler) respond(c *gin.Context, w *Wizard) {
	response.Success(c, http.StatusOK, gin.H{"wizard": w.View()})
}

func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Wizard session not found")
	case errors.Is(err, catalog.ErrPractitionerNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Practitioner not found")
	case errors.Is(err, ErrInvalidTransition):
		response.Error(c, http.StatusConflict, "INVALID_TRANSITION", "This action is not available at the current step")
	case errors.Is(err, ErrSlotNotSelected):
		response.Error(c, http.StatusConflict, "SLOT_REQUIRED", "Please select a time slot first")
	case errors.Is(err, ErrSlotUnavailable):
		response.Error(c, http.StatusConflict, "SLOT_UNAVAILABLE", "This time slot is not available")
	case errors.Is(err, ErrSubmitInProgress):
		response.Error(c, http.StatusConflict, "SUBMIT_IN_PROGRESS", "Your booking is being confirmed")
	case errors.Is(err, ErrInvalidRule):
		response.BadRequest(c, "Invalid recurrence rule")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		response.Error(c, http.StatusRequestTimeout, "REQUEST_CANCELLED", "Submission was cancelled")
	default:
		booking.HandleError(c, err)
	}
}
