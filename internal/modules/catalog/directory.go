package catalog

import (
	"sort"
	"time"

	"therapyspace/internal/domain"
)

type Config struct {
	StartDate time.Time
	DaysAhead int
	Seed      int64
}

// Directory is the read-only practitioner catalog built once at startup and
// handed to every component that needs practitioner data.
type Directory struct {
	practitioners []*domain.Practitioner
	byID          map[string]*domain.Practitioner
	cfg           Config
}

func NewDirectory(profiles []domain.PractitionerProfile, cfg Config) *Directory {
	d := &Directory{
		practitioners: make([]*domain.Practitioner, 0, len(profiles)),
		byID:          make(map[string]*domain.Practitioner, len(profiles)),
		cfg:           cfg,
	}
	for _, profile := range profiles {
		slots := GenerateSlots(cfg.StartDate, cfg.DaysAhead, SeededAvailability(cfg.Seed, profile.ID))
		p := domain.NewPractitioner(profile, slots)
		d.practitioners = append(d.practitioners, p)
		d.byID[p.ID] = p
	}
	return d
}

func (d *Directory) Config() Config {
	return d.cfg
}

func (d *Directory) List() []*domain.Practitioner {
	out := make([]*domain.Practitioner, len(d.practitioners))
	copy(out, d.practitioners)
	return out
}

func (d *Directory) Get(id string) (*domain.Practitioner, error) {
	p, ok := d.byID[id]
	if !ok {
		return nil, ErrPractitionerNotFound
	}
	return p, nil
}

type SlotFilter struct {
	Date          string
	AvailableOnly bool
}

func (d *Directory) Slots(practitionerID string, f SlotFilter) ([]domain.TimeSlot, error) {
	p, err := d.Get(practitionerID)
	if err != nil {
		return nil, err
	}
	if f.Date != "" {
		if _, err := time.Parse(domain.DateLayout, f.Date); err != nil {
			return nil, ErrInvalidDate
		}
	}

	out := make([]domain.TimeSlot, 0, len(p.Slots))
	for _, s := range p.Slots {
		if f.Date != "" && s.Date != f.Date {
			continue
		}
		if f.AvailableOnly && !s.Available {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

type SlotDate struct {
	Date         string `json:"date"`
	HasAvailable bool   `json:"hasAvailable"`
}

// SlotDates lists the distinct dates of a practitioner's slots in ascending
// order, marking those with at least one open slot.
func (d *Directory) SlotDates(practitionerID string) ([]SlotDate, error) {
	p, err := d.Get(practitionerID)
	if err != nil {
		return nil, err
	}

	open := make(map[string]bool)
	for _, s := range p.Slots {
		open[s.Date] = open[s.Date] || s.Available
	}

	out := make([]SlotDate, 0, len(open))
	for date, has := range open {
		out = append(out, SlotDate{Date: date, HasAvailable: has})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// DefaultProfiles is the practice's seed roster.
func DefaultProfiles() []domain.PractitionerProfile {
	return []domain.PractitionerProfile{
		{
			ID:          "dr-sarah-chen",
			Name:        "Dr. Sarah Chen",
			Title:       "Licensed Clinical Psychologist",
			Specialties: []string{"Anxiety", "Depression", "Trauma Recovery"},
			Image:       "https://images.unsplash.com/photo-1594824476967-48c8b964273f?w=400&q=80",
			Bio:         "Dr. Chen specializes in evidence-based therapy with 15 years of experience helping clients overcome anxiety and trauma.",
			Experience:  "15 years",
		},
		{
			ID:          "dr-michael-rodriguez",
			Name:        "Dr. Michael Rodriguez",
			Title:       "Marriage & Family Therapist",
			Specialties: []string{"Couples Counseling", "Family Therapy", "Relationship Issues"},
			Image:       "https://images.unsplash.com/photo-1622253692010-333f2da6031d?w=400&q=80",
			Bio:         "Dr. Rodriguez helps couples and families build stronger relationships through compassionate, solution-focused therapy.",
			Experience:  "12 years",
		},
		{
			ID:          "dr-emily-watson",
			Name:        "Dr. Emily Watson",
			Title:       "Certified Life Coach & Therapist",
			Specialties: []string{"Life Coaching", "Career Transitions", "Personal Growth"},
			Image:       "https://images.unsplash.com/photo-1573496359142-b8d87734a5a2?w=400&q=80",
			Bio:         "Dr. Watson combines therapy with life coaching to help clients achieve their full potential and navigate major life changes.",
			Experience:  "10 years",
		},
		{
			ID:          "dr-james-thompson",
			Name:        "Dr. James Thompson",
			Title:       "Child & Adolescent Specialist",
			Specialties: []string{"Child Therapy", "Adolescent Counseling", "ADHD"},
			Image:       "https://images.unsplash.com/photo-1612349317150-e413f6a5b16d?w=400&q=80",
			Bio:         "Dr. Thompson works with children and teens, helping them develop healthy coping strategies and emotional resilience.",
			Experience:  "18 years",
		},
		{
			ID:          "dr-maria-garcia",
			Name:        "Dr. Maria Garcia",
			Title:       "Mindfulness & Wellness Expert",
			Specialties: []string{"Mindfulness", "Stress Management", "Burnout Prevention"},
			Image:       "https://images.unsplash.com/photo-1551836022-d5d88e9218df?w=400&q=80",
			Bio:         "Dr. Garcia integrates mindfulness practices with traditional therapy to help clients find balance and inner peace.",
			Experience:  "8 years",
		},
		{
			ID:          "dr-david-kim",
			Name:        "Dr. David Kim",
			Title:       "Trauma & PTSD Specialist",
			Specialties: []string{"PTSD", "Trauma Recovery", "EMDR Therapy"},
			Image:       "https://images.unsplash.com/photo-1537368910025-700350fe46c7?w=400&q=80",
			Bio:         "Dr. Kim uses evidence-based approaches like EMDR to help clients heal from traumatic experiences and reclaim their lives.",
			Experience:  "14 years",
		},
	}
}
