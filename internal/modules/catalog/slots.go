package catalog

import (
	"fmt"
	"hash/fnv"
	"time"

	"therapyspace/internal/domain"
)

// DailyTimes are the session start labels offered on every working day.
var DailyTimes = []string{
	"09:00 AM",
	"10:00 AM",
	"11:00 AM",
	"01:00 PM",
	"02:00 PM",
	"03:00 PM",
	"04:00 PM",
	"05:00 PM",
}

// availabilityPercent is the share of slots drawn as open.
const availabilityPercent = 70

// AvailabilityFunc decides whether the slot at (date, time) is open.
type AvailabilityFunc func(date, time string) bool

// SeededAvailability draws availability as a pure function of seed,
// practitioner, date and time, so the same catalog is produced on every load.
func SeededAvailability(seed int64, practitionerID string) AvailabilityFunc {
	return func(date, t string) bool {
		h := fnv.New64a()
		fmt.Fprintf(h, "%d|%s|%s|%s", seed, practitionerID, date, t)
		return h.Sum64()%100 < availabilityPercent
	}
}

// GenerateSlots emits one slot per daily time label for every weekday in
// [start, start+daysAhead).
func GenerateSlots(start time.Time, daysAhead int, available AvailabilityFunc) []domain.TimeSlot {
	if daysAhead <= 0 {
		return []domain.TimeSlot{}
	}
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)

	slots := make([]domain.TimeSlot, 0, daysAhead*len(DailyTimes))
	for day := 0; day < daysAhead; day++ {
		current := start.AddDate(0, 0, day)
		if domain.IsWeekend(current) {
			continue
		}

		date := current.Format(domain.DateLayout)
		for i, t := range DailyTimes {
			slots = append(slots, domain.TimeSlot{
				ID:        fmt.Sprintf("%s-%d", date, i),
				Date:      date,
				Time:      t,
				Available: available(date, t),
			})
		}
	}
	return slots
}
