package model

import "time"

// InstructorStatus is the presence state of an instructor.
type InstructorStatus string

const (
	StatusOffline   InstructorStatus = "offline"
	StatusAvailable InstructorStatus = "available"
	StatusBusy      InstructorStatus = "busy"
)

// InstructorPresence is the per-instructor availability record. It is owned
// by the availability tracker; the ingestor and the booking coordinator are
// the only writers.
type InstructorPresence struct {
	InstructorID string           `json:"instructor_id"`
	Latitude     float64          `json:"latitude"`
	Longitude    float64          `json:"longitude"`
	LastSeenAt   time.Time        `json:"last_seen_at"`
	Status       InstructorStatus `json:"status"`
}

// LocationReport is a single position report from an instructor client.
type LocationReport struct {
	InstructorID string    `json:"instructor_id" validate:"required"`
	Latitude     float64   `json:"latitude" validate:"min=-90,max=90"`
	Longitude    float64   `json:"longitude" validate:"min=-180,max=180"`
	Timestamp    time.Time `json:"timestamp" validate:"required"`
}

// IngestResult reports how a location report was handled.
type IngestResult string

const (
	IngestAccepted  IngestResult = "accepted"
	IngestCoalesced IngestResult = "coalesced" // accepted but debounced, not applied
	IngestRejected  IngestResult = "rejected"
)

// AvailabilityEvent is emitted whenever an instructor's status flips.
type AvailabilityEvent struct {
	InstructorID string           `json:"instructor_id"`
	Previous     InstructorStatus `json:"previous"`
	Current      InstructorStatus `json:"current"`
	OccurredAt   time.Time        `json:"occurred_at"`
}
