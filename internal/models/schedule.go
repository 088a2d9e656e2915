package models

import "time"

// DayEntry is a single arrival or departure shown on a calendar day.
type DayEntry struct {
	Record    AttendanceRecord `json:"record"`
	Name      string           `json:"name"`
	Time      string           `json:"time"`
	Transport Transport        `json:"transport"`
}

// DayBucket groups arrivals and departures for one calendar day. Derived,
// never persisted; the range always includes one buffer day on each side of
// the event span.
type DayBucket struct {
	Date       time.Time  `json:"date"`
	Arriving   []DayEntry `json:"arriving"`
	Departing  []DayEntry `json:"departing"`
	IsEventDay bool       `json:"is_event_day"`
}

// DateKey returns the bucket day formatted as yyyy-mm-dd.
func (b DayBucket) DateKey() string {
	return b.Date.Format("2006-01-02")
}
