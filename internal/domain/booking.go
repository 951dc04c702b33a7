package domain

import "time"

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingPending   BookingStatus = "pending"
	BookingCancelled BookingStatus = "cancelled"
)

// Booking is one reserved session. JSON field names match the persisted
// "therapyBookings" document layout so existing exports decode unchanged.
type Booking struct {
	ID               string        `json:"id"`
	PractitionerID   string        `json:"practitionerId"`
	PractitionerName string        `json:"practitionerName"`
	Date             string        `json:"date"`
	Time             string        `json:"time"`
	ClientName       string        `json:"clientName"`
	ClientEmail      string        `json:"clientEmail"`
	ClientPhone      string        `json:"clientPhone"`
	ServiceType      string        `json:"serviceType"`
	Notes            string        `json:"notes,omitempty"`
	Status           BookingStatus `json:"status"`
	CreatedAt        time.Time     `json:"createdAt"`

	// Set only on the first booking of a recurring series.
	RecurrenceRule    *RecurrenceRule `json:"recurrenceRule,omitempty"`
	RecurrenceGroupID string          `json:"recurrenceGroupId,omitempty"`
	IsRecurring       bool            `json:"isRecurring,omitempty"`
}

func (b *Booking) IsCancelled() bool {
	return b.Status == BookingCancelled
}

// Normalize fills fields that older documents may lack.
func (b *Booking) Normalize() {
	if b.Status == "" {
		b.Status = BookingConfirmed
	}
	if b.RecurrenceGroupID != "" {
		b.IsRecurring = true
	}
}

// BookingPatch carries the fields an update may rewrite. Nil fields are left
// untouched.
type BookingPatch struct {
	Status *BookingStatus
	Date   *string
	Time   *string
	Notes  *string
}

func (p BookingPatch) Apply(b *Booking) {
	if p.Status != nil {
		b.Status = *p.Status
	}
	if p.Date != nil {
		b.Date = *p.Date
	}
	if p.Time != nil {
		b.Time = *p.Time
	}
	if p.Notes != nil {
		b.Notes = *p.Notes
	}
}

func (p BookingPatch) IsEmpty() bool {
	return p.Status == nil && p.Date == nil && p.Time == nil && p.Notes == nil
}

type ServiceType struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

var ServiceTypes = []ServiceType{
	{Value: "individual", Label: "Individual Therapy (50 min) - $150"},
	{Value: "couples", Label: "Couples Counseling (75 min) - $200"},
	{Value: "family", Label: "Family Therapy (90 min) - $250"},
	{Value: "group", Label: "Group Therapy (60 min) - $75"},
	{Value: "consultation", Label: "Initial Consultation (30 min) - Free"},
}

func IsKnownServiceType(v string) bool {
	for _, st := range ServiceTypes {
		if st.Value == v {
			return true
		}
	}
	return false
}
