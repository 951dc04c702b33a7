package booking

import (
	"errors"
	"net/http"

	"therapyspace/internal/domain"
	"therapyspace/internal/middleware"
	"therapyspace/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	store         *Store
	practitioners PractitionerLookup
}

func NewHandler(store *Store, practitioners PractitionerLookup) *Handler {
	return &Handler{store: store, practitioners: practitioners}
}

// RegisterRoutes expects middleware.ClientIdentity in front of rg.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/bookings", h.CreateBooking)
	rg.GET("/bookings", h.ListBookings)
	rg.GET("/bookings/:id", h.GetBooking)
}

func viewer(c *gin.Context) (domain.Viewer, bool) {
	v, ok := middleware.CurrentViewer(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
	}
	return v, ok
}

// CreateBooking godoc
// @Summary Create a booking
// @Description Books one available slot directly, bypassing the wizard. Operator access only.
// @Tags Bookings
// @Accept json
// @Produce json
// @Param request body CreateBookingRequest true "Booking"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /bookings [post]
func (h *Handler) CreateBooking(c *gin.Context) {
	v, ok := viewer(c)
	if !ok {
		return
	}
	if !v.Global() {
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Use the booking wizard to book a session")
		return
	}

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	if err := req.BookingForm.Validate(); err != nil {
		HandleError(c, err)
		return
	}

	p, err := h.practitioners.Get(req.PractitionerID)
	if err != nil {
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Practitioner not found")
		return
	}
	if !p.SlotAvailable(req.Date, req.Time) {
		HandleError(c, ErrSlotUnavailable)
		return
	}

	b, err := h.store.Create(c.Request.Context(), domain.Booking{
		PractitionerID:   p.ID,
		PractitionerName: p.Name,
		Date:             req.Date,
		Time:             req.Time,
		ClientName:       req.ClientName,
		ClientEmail:      req.ClientEmail,
		ClientPhone:      req.ClientPhone,
		ServiceType:      req.ServiceType,
		Notes:            req.Notes,
		Status:           domain.BookingConfirmed,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"booking": b})
}

// ListBookings godoc
// @Summary List bookings
// @Description Operators see every booking, optionally narrowed by email. A client pass only lists the bookings it was issued for.
// @Tags Bookings
// @Produce json
// @Security BearerAuth
// @Param email query string false "Client email"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /bookings [get]
func (h *Handler) ListBookings(c *gin.Context) {
	v, ok := viewer(c)
	if !ok {
		return
	}

	var (
		all []domain.Booking
		err error
	)
	if email := c.Query("email"); email != "" {
		all, err = h.store.QueryByClient(c.Request.Context(), email)
	} else {
		all, err = h.store.QueryAll(c.Request.Context())
	}
	if err != nil {
		HandleError(c, err)
		return
	}

	list := make([]domain.Booking, 0, len(all))
	for i := range all {
		if v.Owns(&all[i]) {
			list = append(list, all[i])
		}
	}
	response.Success(c, http.StatusOK, gin.H{"bookings": list})
}

// GetBooking godoc
// @Summary Get a booking
// @Tags Bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /bookings/{id} [get]
func (h *Handler) GetBooking(c *gin.Context) {
	v, ok := viewer(c)
	if !ok {
		return
	}

	b, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	// someone else's booking looks the same as a missing one
	if !v.Owns(b) {
		HandleError(c, ErrNotFound)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

// HandleError maps store errors onto the response envelope. Other modules
// reuse it for errors that bubble up from the store.
func HandleError(c *gin.Context, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Please correct the highlighted fields", verr.Fields)
	case errors.Is(err, ErrValidation):
		response.BadRequest(c, err.Error())
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking not found")
	case errors.Is(err, ErrSlotUnavailable):
		response.Error(c, http.StatusConflict, "SLOT_UNAVAILABLE", "This time slot is not available")
	case errors.Is(err, ErrDuplicateID):
		response.Error(c, http.StatusConflict, "BOOKING_CONFLICT", "Booking already exists")
	case errors.Is(err, ErrEmptySeries):
		response.Error(c, http.StatusConflict, "NO_AVAILABLE_OCCURRENCES", "None of the requested sessions are available")
	case errors.Is(err, ErrStorageUnavailable):
		response.Error(c, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "Bookings cannot be saved right now")
	default:
		response.Internal(c, "Failed to process booking")
	}
}
