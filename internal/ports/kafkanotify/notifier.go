package kafkanotify

import (
	"context"
	"time"

	"drivero/internal/ports"
	apperrors "drivero/pkg/errors"
	"drivero/pkg/kafka"
)

const sourceService = "drivero-core"

type notification struct {
	UserID     string         `json:"user_id"`
	EventKind  string         `json:"event_kind"`
	Payload    map[string]any `json:"payload,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

type notifier struct {
	producer *kafka.Producer
}

// NewNotifier returns a NotificationPort that hands notifications to the
// delivery pipeline over Kafka. Keyed by user so one user's notifications
// stay ordered.
func NewNotifier(producer *kafka.Producer) ports.NotificationPort {
	return &notifier{producer: producer}
}

func (n *notifier) Notify(ctx context.Context, userID string, eventKind string, payload map[string]any) error {
	msg := kafka.NewMessage().
		WithKey(userID).
		WithValue(notification{
			UserID:     userID,
			EventKind:  eventKind,
			Payload:    payload,
			OccurredAt: time.Now(),
		}).
		WithEventType(eventKind).
		WithSource(sourceService).
		Build()

	if err := n.producer.Publish(ctx, msg); err != nil {
		return apperrors.DownstreamUnavailable("notification broker", err)
	}
	return nil
}
