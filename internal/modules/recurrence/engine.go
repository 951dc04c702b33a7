// Package recurrence expands a chosen slot and a recurrence rule into the
// ordered list of candidate sessions for a series.
package recurrence

import (
	"errors"
	"time"

	"therapyspace/internal/domain"
)

// MaxIterations bounds every expansion, including end-by-date rules with a
// missing or unparseable end date.
const MaxIterations = 100

var ErrInvalidStartDate = errors.New("invalid start date")

// SlotLookup answers availability for an exact (date, time) pair.
type SlotLookup interface {
	SlotAvailable(date, time string) bool
}

// Expand walks the date cursor from startDate according to rule. Weekend
// candidates are dropped but still consume the iteration budget. Every
// surviving candidate is reported with its availability so callers can
// preview the series before persisting the open subset.
func Expand(startDate, startTime string, rule domain.RecurrenceRule, slots SlotLookup) ([]domain.Occurrence, error) {
	start, err := time.Parse(domain.DateLayout, startDate)
	if err != nil {
		return nil, ErrInvalidStartDate
	}
	rule = rule.Normalize()

	budget := MaxIterations
	var end time.Time
	hasEnd := false
	switch {
	case !rule.IsRecurring():
		budget = 1
	case rule.EndType == domain.EndByOccurrences:
		budget = rule.Occurrences
	default:
		if e, err := time.Parse(domain.DateLayout, rule.EndDate); err == nil {
			end, hasEnd = e, true
		}
	}

	out := make([]domain.Occurrence, 0, min(budget, domain.MaxOccurrences))
	cursor := start
	for i := 0; i < budget; i++ {
		if hasEnd && cursor.After(end) {
			break
		}

		if !domain.IsWeekend(cursor) {
			date := cursor.Format(domain.DateLayout)
			out = append(out, domain.Occurrence{
				Date:      date,
				Time:      startTime,
				Available: slots != nil && slots.SlotAvailable(date, startTime),
			})
		}

		cursor = next(cursor, rule)
	}
	return out, nil
}

func next(cursor time.Time, rule domain.RecurrenceRule) time.Time {
	switch rule.Type {
	case domain.RecurrenceDaily:
		return cursor.AddDate(0, 0, rule.Interval)
	case domain.RecurrenceWeekly:
		return cursor.AddDate(0, 0, 7*rule.Interval)
	case domain.RecurrenceMonthly:
		// month-length overflow rolls into the following month
		return cursor.AddDate(0, rule.Interval, 0)
	}
	return cursor
}

// Available returns the open occurrences in order.
func Available(occurrences []domain.Occurrence) []domain.Occurrence {
	out := make([]domain.Occurrence, 0, len(occurrences))
	for _, o := range occurrences {
		if o.Available {
			out = append(out, o)
		}
	}
	return out
}

// Summary counts a preview for display.
type Summary struct {
	Total       int `json:"total"`
	Available   int `json:"available"`
	Unavailable int `json:"unavailable"`
}

func Summarize(occurrences []domain.Occurrence) Summary {
	s := Summary{Total: len(occurrences)}
	for _, o := range occurrences {
		if o.Available {
			s.Available++
		}
	}
	s.Unavailable = s.Total - s.Available
	return s
}
