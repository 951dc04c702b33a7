package catalog

import (
	"errors"
	"net/http"
	"strconv"

	"therapyspace/internal/domain"
	"therapyspace/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	directory *Directory
}

func NewHandler(directory *Directory) *Handler {
	return &Handler{directory: directory}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/practitioners", h.ListPractitioners)
	rg.GET("/practitioners/:id", h.GetPractitioner)
	rg.GET("/practitioners/:id/slots", h.GetSlots)
	rg.GET("/practitioners/:id/slot-dates", h.GetSlotDates)
	rg.GET("/service-types", h.ListServiceTypes)
}

// ListPractitioners godoc
// @Summary List practitioners
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Response
// @Router /practitioners [get]
func (h *Handler) ListPractitioners(c *gin.Context) {
	list := h.directory.List()
	out := make([]PractitionerResponse, 0, len(list))
	for _, p := range list {
		out = append(out, toPractitionerResponse(p))
	}
	response.Success(c, http.StatusOK, gin.H{"practitioners": out})
}

// GetPractitioner godoc
// @Summary Get a practitioner
// @Tags Catalog
// @Produce json
// @Param id path string true "Practitioner ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /practitioners/{id} [get]
func (h *Handler) GetPractitioner(c *gin.Context) {
	p, err := h.directory.Get(c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"practitioner": toPractitionerResponse(p)})
}

// GetSlots godoc
// @Summary List time slots
// @Description Slots of one practitioner, optionally for one date or only the open ones.
// @Tags Catalog
// @Produce json
// @Param id path string true "Practitioner ID"
// @Param date query string false "YYYY-MM-DD"
// @Param available query bool false "Only open slots"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /practitioners/{id}/slots [get]
func (h *Handler) GetSlots(c *gin.Context) {
	f := SlotFilter{Date: c.Query("date")}
	if v := c.Query("available"); v != "" {
		only, err := strconv.ParseBool(v)
		if err != nil {
			response.BadRequest(c, "available must be a boolean")
			return
		}
		f.AvailableOnly = only
	}

	slots, err := h.directory.Slots(c.Param("id"), f)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"slots": slots})
}

// GetSlotDates godoc
// @Summary List dates with slots
// @Tags Catalog
// @Produce json
// @Param id path string true "Practitioner ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /practitioners/{id}/slot-dates [get]
func (h *Handler) GetSlotDates(c *gin.Context) {
	dates, err := h.directory.SlotDates(c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"dates": dates})
}

// ListServiceTypes godoc
// @Summary List service types
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Response
// @Router /service-types [get]
func (h *Handler) ListServiceTypes(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"serviceTypes": domain.ServiceTypes})
}

func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrPractitionerNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Practitioner not found")
	case errors.Is(err, ErrInvalidDate):
		response.BadRequest(c, "date must be YYYY-MM-DD")
	default:
		response.Internal(c, "Failed to load catalog")
	}
}
