package kafkanotify

import (
	"context"
	"time"

	"drivero/pkg/kafka"
	"drivero/pkg/logger"
	"drivero/pkg/model"
)

// EventPublisher pushes availability and lesson lifecycle events onto their
// topics. Publishing is best-effort: a broker outage must never block a
// location report or a booking transition, so failures are logged and
// dropped.
type EventPublisher struct {
	availability *kafka.Producer
	lessons      *kafka.Producer
	log          *logger.Logger
	timeout      time.Duration
}

func NewEventPublisher(availability, lessons *kafka.Producer, log *logger.Logger) *EventPublisher {
	return &EventPublisher{
		availability: availability,
		lessons:      lessons,
		log:          log,
		timeout:      5 * time.Second,
	}
}

// PublishAvailability satisfies the tracker's ChangeFunc.
func (p *EventPublisher) PublishAvailability(event model.AvailabilityEvent) {
	msg := kafka.NewMessage().
		WithKey(event.InstructorID).
		WithValue(event).
		WithEventType("availability.changed").
		WithSource(sourceService).
		Build()

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if err := p.availability.Publish(ctx, msg); err != nil {
		p.log.Warn("Availability event publish failed",
			"instructor_id", event.InstructorID,
			"error", err,
		)
	}
}

// PublishLesson satisfies the coordinator's EventFunc.
func (p *EventPublisher) PublishLesson(event model.LessonEvent) {
	msg := kafka.NewMessage().
		WithKey(event.LessonID).
		WithValue(event).
		WithEventType("lesson."+string(event.State)).
		WithSource(sourceService).
		Build()

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if err := p.lessons.Publish(ctx, msg); err != nil {
		p.log.Warn("Lesson event publish failed",
			"lesson_id", event.LessonID,
			"error", err,
		)
	}
}
