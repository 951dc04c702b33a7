package catalog

import "therapyspace/internal/domain"

type PractitionerResponse struct {
	domain.PractitionerProfile
	OpenSlots int `json:"openSlots"`
}

func toPractitionerResponse(p *domain.Practitioner) PractitionerResponse {
	open := 0
	for _, s := range p.Slots {
		if s.Available {
			open++
		}
	}
	return PractitionerResponse{PractitionerProfile: p.PractitionerProfile, OpenSlots: open}
}
