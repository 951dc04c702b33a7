package domain

type RecurrenceType string

const (
	RecurrenceNone    RecurrenceType = "none"
	RecurrenceDaily   RecurrenceType = "daily"
	RecurrenceWeekly  RecurrenceType = "weekly"
	RecurrenceMonthly RecurrenceType = "monthly"
)

type RecurrenceEnd string

const (
	EndByOccurrences RecurrenceEnd = "occurrences"
	EndByDate        RecurrenceEnd = "date"
)

const (
	MinOccurrences = 1
	MaxOccurrences = 52
)

type RecurrenceRule struct {
	Type        RecurrenceType `json:"type"`
	Interval    int            `json:"interval"`
	EndType     RecurrenceEnd  `json:"endType"`
	Occurrences int            `json:"occurrences,omitempty"`
	EndDate     string         `json:"endDate,omitempty"`
}

// DefaultRecurrenceRule is the rule a fresh booking flow starts with.
func DefaultRecurrenceRule() RecurrenceRule {
	return RecurrenceRule{
		Type:        RecurrenceNone,
		Interval:    1,
		EndType:     EndByOccurrences,
		Occurrences: 4,
	}
}

func (r RecurrenceRule) IsRecurring() bool {
	return r.Type != "" && r.Type != RecurrenceNone
}

func (r RecurrenceRule) IsValidType() bool {
	switch r.Type {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
		return true
	}
	return false
}

// Normalize clamps the rule into its legal ranges.
func (r RecurrenceRule) Normalize() RecurrenceRule {
	if r.Type == "" {
		r.Type = RecurrenceNone
	}
	if r.Type == RecurrenceNone || r.Interval < 1 {
		r.Interval = 1
	}
	if r.EndType != EndByDate {
		r.EndType = EndByOccurrences
	}
	if r.Occurrences < MinOccurrences {
		r.Occurrences = MinOccurrences
	}
	if r.Occurrences > MaxOccurrences {
		r.Occurrences = MaxOccurrences
	}
	return r
}

// Occurrence is one expanded (date, time) candidate of a recurring series.
type Occurrence struct {
	Date      string `json:"date"`
	Time      string `json:"time"`
	Available bool   `json:"available"`
}
