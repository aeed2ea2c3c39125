// Package ports declares the collaborator contracts the booking core
// consumes. Implementations live with the surrounding application; the core
// only depends on these interfaces.
package ports

import (
	"context"

	"drivero/pkg/model"
)

// PersistencePort is the durable lesson store. It is the source of truth
// across process restarts; UpdateLessonState must apply the version check
// atomically (a conditional write, not read-then-write).
type PersistencePort interface {
	SaveLesson(ctx context.Context, lesson *model.Lesson) error
	LoadLesson(ctx context.Context, lessonID string) (*model.Lesson, error)
	UpdateLessonState(ctx context.Context, lessonID string, expectedVersion int64, newState model.LessonState) (*model.Lesson, error)
}

// NotificationPort delivers user-facing notifications. Fire-and-forget from
// the core's perspective: delivery failures are the collaborator's concern.
type NotificationPort interface {
	Notify(ctx context.Context, userID string, eventKind string, payload map[string]any) error
}

// ChatPort opens the real-time channel between the parties of a lesson.
// Invoked once, when a hold is confirmed.
type ChatPort interface {
	OpenChannel(ctx context.Context, studentID, instructorID, lessonID string) error
}

// DirectoryPort exposes instructor profile data owned by the surrounding
// application: the secondary ranking score and lesson-type coverage.
type DirectoryPort interface {
	Rating(ctx context.Context, instructorID string) (float64, error)
	Serves(ctx context.Context, instructorID string, lessonType string) (bool, error)
}
