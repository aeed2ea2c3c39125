package model

import "time"

// SlotHold is a short-lived reservation on an (instructor, slot) pair,
// preventing concurrent double-booking before confirmation. At most one
// hold may exist per instructor and overlapping slot at a time.
type SlotHold struct {
	HoldID       string    `json:"hold_id" bson:"_id"`
	InstructorID string    `json:"instructor_id" bson:"instructor_id"`
	StudentID    string    `json:"student_id" bson:"student_id"`
	Slot         Slot      `json:"slot" bson:"slot"`
	RequestID    string    `json:"request_id" bson:"request_id"`
	ExpiresAt    time.Time `json:"expires_at" bson:"expires_at"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

// Expired reports whether the hold has lapsed at the given instant.
// Expiry is inclusive: a hold whose ExpiresAt equals now is expired.
func (h *SlotHold) Expired(now time.Time) bool {
	return !now.Before(h.ExpiresAt)
}
