package domain

import "slices"

const globalViewerKey = "global"

// Viewer is whoever is looking at bookings. The zero Viewer is the
// single-user viewer that sees everything. A pass holder sees only the
// bookings and recurring series its pass was issued for.
type Viewer struct {
	ID         string
	Email      string
	BookingIDs []string
	GroupIDs   []string
}

func (v Viewer) Global() bool { return v.ID == "" }

// Key identifies the viewer across requests. It stays stable while a pass
// is extended with new bookings.
func (v Viewer) Key() string {
	if v.Global() {
		return globalViewerKey
	}
	return v.ID
}

func (v Viewer) Owns(b *Booking) bool {
	if v.Global() {
		return true
	}
	if slices.Contains(v.BookingIDs, b.ID) {
		return true
	}
	return b.RecurrenceGroupID != "" && slices.Contains(v.GroupIDs, b.RecurrenceGroupID)
}
