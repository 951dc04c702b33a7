package domain

import "time"

const (
	DateLayout = "2006-01-02"
	TimeLayout = "03:04 PM"
)

// PractitionerProfile is the static seed record for one practitioner.
type PractitionerProfile struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Title       string   `json:"title"`
	Specialties []string `json:"specialties"`
	Image       string   `json:"image"`
	Bio         string   `json:"bio"`
	Experience  string   `json:"experience"`
}

type TimeSlot struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

type slotKey struct {
	date string
	time string
}

// Practitioner owns its generated slot list. It is immutable once built.
type Practitioner struct {
	PractitionerProfile
	Slots []TimeSlot `json:"availability"`

	index map[slotKey]int
}

func NewPractitioner(profile PractitionerProfile, slots []TimeSlot) *Practitioner {
	p := &Practitioner{
		PractitionerProfile: profile,
		Slots:               slots,
		index:               make(map[slotKey]int, len(slots)),
	}
	for i, s := range slots {
		p.index[slotKey{date: s.Date, time: s.Time}] = i
	}
	return p
}

// Slot returns the slot at exactly (date, time).
func (p *Practitioner) Slot(date, t string) (TimeSlot, bool) {
	i, ok := p.index[slotKey{date: date, time: t}]
	if !ok {
		return TimeSlot{}, false
	}
	return p.Slots[i], true
}

// SlotAvailable reports false both for unknown and for taken slots.
func (p *Practitioner) SlotAvailable(date, t string) bool {
	s, ok := p.Slot(date, t)
	return ok && s.Available
}

func IsWeekend(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
