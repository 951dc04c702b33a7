package booking

import (
	"strings"

	"therapyspace/internal/pkg/validator"
)

// DefaultServiceType is preselected on a fresh form.
const DefaultServiceType = "individual"

// BookingForm is the contact form filled in the last wizard step.
type BookingForm struct {
	ClientName  string `json:"clientName" validate:"notblank"`
	ClientEmail string `json:"clientEmail" validate:"notblank,looseemail"`
	ClientPhone string `json:"clientPhone" validate:"notblank"`
	ServiceType string `json:"serviceType" validate:"servicetype"`
	Notes       string `json:"notes"`
}

func NewBookingForm() BookingForm {
	return BookingForm{ServiceType: DefaultServiceType}
}

// Validate normalizes the form in place and reports every failing field.
func (f *BookingForm) Validate() error {
	f.ClientName = strings.TrimSpace(f.ClientName)
	f.ClientEmail = strings.TrimSpace(f.ClientEmail)
	f.ClientPhone = strings.TrimSpace(f.ClientPhone)
	f.Notes = strings.TrimSpace(f.Notes)
	if f.ServiceType == "" {
		f.ServiceType = DefaultServiceType
	}

	if fields := validator.Validate(f); len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// CreateBookingRequest books one slot directly, outside the wizard.
type CreateBookingRequest struct {
	PractitionerID string `json:"practitionerId" binding:"required"`
	Date           string `json:"date" binding:"required"`
	Time           string `json:"time" binding:"required"`
	BookingForm
}
