package model

import "time"

// LessonState is the lifecycle state of a lesson.
type LessonState string

const (
	LessonRequested  LessonState = "requested"
	LessonHolding    LessonState = "holding"
	LessonConfirmed  LessonState = "confirmed"
	LessonInProgress LessonState = "in_progress"
	LessonCompleted  LessonState = "completed"
	LessonCancelled  LessonState = "cancelled"
	LessonExpired    LessonState = "expired"
	LessonNoShow     LessonState = "no_show"
)

// Terminal reports whether no further transitions are allowed from s.
func (s LessonState) Terminal() bool {
	switch s {
	case LessonCompleted, LessonCancelled, LessonExpired, LessonNoShow:
		return true
	}
	return false
}

// Slot is a lesson time window.
type Slot struct {
	Start    time.Time     `json:"start" bson:"start" validate:"required"`
	Duration time.Duration `json:"duration" bson:"duration" validate:"required,gt=0"`
}

// End returns the exclusive end of the slot.
func (s Slot) End() time.Time {
	return s.Start.Add(s.Duration)
}

// Overlaps reports whether two slots intersect.
func (s Slot) Overlaps(other Slot) bool {
	return s.Start.Before(other.End()) && s.End().After(other.Start)
}

// BookingRequest is created when a student selects a candidate instructor.
// Immutable once created; consumed by the booking coordinator exactly once.
type BookingRequest struct {
	RequestID    string    `json:"request_id"`
	StudentID    string    `json:"student_id" validate:"required"`
	InstructorID string    `json:"instructor_id" validate:"required"`
	Slot         Slot      `json:"slot" validate:"required"`
	CreatedAt    time.Time `json:"created_at"`
}

// Lesson is the durable booking record. The store is the source of truth
// across restarts; the coordinator's in-memory state is an arbiter on top.
// Version is a monotonic counter for optimistic concurrency.
type Lesson struct {
	ID           string      `json:"id" bson:"_id"`
	StudentID    string      `json:"student_id" bson:"student_id"`
	InstructorID string      `json:"instructor_id" bson:"instructor_id"`
	Slot         Slot        `json:"slot" bson:"slot"`
	State        LessonState `json:"state" bson:"state"`
	Version      int64       `json:"version" bson:"version"`
	CreatedAt    time.Time   `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" bson:"updated_at"`
}

// LessonEvent is published on lifecycle transitions.
type LessonEvent struct {
	LessonID     string      `json:"lesson_id"`
	StudentID    string      `json:"student_id"`
	InstructorID string      `json:"instructor_id"`
	State        LessonState `json:"state"`
	Version      int64       `json:"version"`
	OccurredAt   time.Time   `json:"occurred_at"`
}
