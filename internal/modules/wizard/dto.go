package wizard

import "therapyspace/internal/domain"

type SelectPractitionerRequest struct {
	PractitionerID string `json:"practitionerId" binding:"required"`
}

type SelectSlotRequest struct {
	Date string `json:"date" binding:"required"`
	Time string `json:"time" binding:"required"`
}

type SessionResponse struct {
	SessionID string `json:"sessionId"`
	View      View   `json:"wizard"`
}

type SubmitResponse struct {
	View        View             `json:"wizard"`
	Booking     domain.Booking   `json:"booking"`
	GroupID     string           `json:"groupId,omitempty"`
	Series      []domain.Booking `json:"series,omitempty"`
	ClientToken string           `json:"clientToken,omitempty"`
}
