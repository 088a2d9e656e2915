package models

import "time"

// Transport enumerates how a participant arrives or departs.
type Transport string

const (
	TransportCar   Transport = "car"
	TransportPlane Transport = "plane"
	TransportTrain Transport = "train"
	TransportBus   Transport = "bus"
	TransportOther Transport = "other"
)

// Valid returns true when the transport is a supported value.
func (t Transport) Valid() bool {
	switch t {
	case TransportCar, TransportPlane, TransportTrain, TransportBus, TransportOther:
		return true
	default:
		return false
	}
}

// AttendanceRecord is one participant's arrival/departure schedule for an
// event. At most one record exists per (event, user) pair.
type AttendanceRecord struct {
	ID                 string    `db:"id" json:"id"`
	EventID            string    `db:"event_id" json:"event_id"`
	UserID             string    `db:"user_id" json:"user_id"`
	ArrivalAt          time.Time `db:"arrival_at" json:"arrival_at"`
	DepartureAt        time.Time `db:"departure_at" json:"departure_at"`
	ArrivalTransport   Transport `db:"arrival_transport" json:"arrival_transport"`
	DepartureTransport Transport `db:"departure_transport" json:"departure_transport"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// AttendanceEntry pairs a record with the attendee's resolved display name.
type AttendanceEntry struct {
	AttendanceRecord
	Name string `json:"name"`
}
