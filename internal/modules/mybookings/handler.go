package mybookings

import (
	"errors"
	"net/http"

	"therapyspace/internal/domain"
	"therapyspace/internal/middleware"
	"therapyspace/internal/modules/booking"
	"therapyspace/internal/modules/catalog"
	"therapyspace/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	manager *Manager
}

func NewHandler(manager *Manager) *Handler {
	return &Handler{manager: manager}
}

// RegisterRoutes expects rg to already carry the client identity middleware.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/my-bookings")
	{
		g.GET("", h.List)
		g.POST("/undo", h.Undo)
		g.DELETE("/cancel-prompt", h.DismissCancel)
		g.POST("/cancel-prompt/confirm", h.ConfirmCancel)
		g.POST("/:id/cancel-prompt", h.OpenCancel)
		g.PATCH("/:id/reschedule", h.Reschedule)
	}
}

// viewer writes a 401 when the identity middleware did not run.
func viewer(c *gin.Context) (domain.Viewer, bool) {
	v, ok := middleware.CurrentViewer(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
	}
	return v, ok
}

// List godoc
// @Summary List my bookings
// @Description Newest first. Only bookings the pass was issued for.
// @Tags My Bookings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /my-bookings [get]
func (h *Handler) List(c *gin.Context) {
	v, ok := viewer(c)
	if !ok {
		return
	}
	list, err := h.manager.Load(c.Request.Context(), v)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bookings": list})
}

// OpenCancel godoc
// @Summary Ask to cancel a booking
// @Tags My Bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /my-bookings/{id}/cancel-prompt [post]
func (h *Handler) OpenCancel(c *gin.Context) {
	v, ok := viewer(c)
	if !ok {
		return
	}
	b, err := h.manager.OpenCancelPrompt(c.Request.Context(), v, c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"pendingCancel": b})
}

// DismissCancel godoc
// @Summary Keep the booking
// @Tags My Bookings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /my-bookings/cancel-prompt [delete]
func (h *Handler) DismissCancel(c *gin.Context) {
	v, ok := viewer(c)
	if !ok {
		return
	}
	if err := h.manager.DismissCancelPrompt(v); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"dismissed": true})
}

// ConfirmCancel godoc
// @Summary Confirm the cancellation
// @Description Cancels the prompted booking and opens a short undo window.
// @Tags My Bookings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /my-bookings/cancel-prompt/confirm [post]
func (h *Handler) ConfirmCancel(c *gin.Context) {
	v, ok := viewer(c)
	if !ok {
		return
	}
	n, err := h.manager.ConfirmCancel(c.Request.Context(), v)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"notification": n})
}

// Undo godoc
// @Summary Undo the last cancellation
// @Tags My Bookings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /my-bookings/undo [post]
func (h *Handler) Undo(c *gin.Context) {
	v, ok := viewer(c)
	if !ok {
		return
	}
	n, err := h.manager.Undo(c.Request.Context(), v)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"notification": n})
}

// Reschedule godoc
// @Summary Move a booking
// @Tags My Bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param request body RescheduleRequest true "New slot"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /my-bookings/{id}/reschedule [patch]
func (h *Handler) Reschedule(c *gin.Context) {
	v, ok := viewer(c)
	if !ok {
		return
	}
	var req RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "date and time are required")
		return
	}

	n, err := h.manager.Reschedule(c.Request.Context(), v, c.Param("id"), req.Date, req.Time)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"notification": n})
}

func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNothingToUndo):
		response.Error(c, http.StatusConflict, "NOTHING_TO_UNDO", "There is no cancellation to undo")
	case errors.Is(err, ErrNoCancelPrompt):
		response.Error(c, http.StatusConflict, "NO_PENDING_CANCEL", "No cancellation is awaiting confirmation")
	case errors.Is(err, ErrSlotUnavailable):
		response.Error(c, http.StatusConflict, "SLOT_UNAVAILABLE", "This time slot is not available")
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "You can only manage your own bookings")
	case errors.Is(err, catalog.ErrPractitionerNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Practitioner not found")
	default:
		booking.HandleError(c, err)
	}
}
