package kafka

import (
	"testing"
	"time"
)

func TestMessageBuilderFillsMetadata(t *testing.T) {
	msg := NewMessage().
		WithKey("inst-1").
		WithValue(map[string]string{"status": "available"}).
		WithEventType("availability.changed").
		WithSource("core").
		Build()

	if msg.Key != "inst-1" {
		t.Errorf("Key = %s", msg.Key)
	}
	if msg.GetEventType() != "availability.changed" {
		t.Errorf("event type = %s", msg.GetEventType())
	}
	if msg.Headers[HeaderSource] != "core" {
		t.Errorf("source = %s", msg.Headers[HeaderSource])
	}
	if msg.Headers[HeaderEventID] == "" {
		t.Error("Build should assign an event ID")
	}
	if _, err := time.Parse(time.RFC3339, msg.Headers[HeaderTimestamp]); err != nil {
		t.Errorf("timestamp header not RFC3339: %v", err)
	}
}

func TestMessageBuilderPreservesExplicitEventID(t *testing.T) {
	msg := NewMessage().
		WithKey("k").
		WithValue("v").
		WithHeader(HeaderEventID, "fixed-id").
		Build()

	if msg.Headers[HeaderEventID] != "fixed-id" {
		t.Errorf("explicit event ID overwritten: %s", msg.Headers[HeaderEventID])
	}
}

func TestDecodeValueRoundTrip(t *testing.T) {
	type payload struct {
		InstructorID string `json:"instructor_id"`
		Status       string `json:"status"`
	}

	msg := NewMessage().
		WithKey("inst-1").
		WithValue(payload{InstructorID: "inst-1", Status: "busy"}).
		Build()

	var decoded payload
	if err := msg.DecodeValue(&decoded); err != nil {
		t.Fatalf("DecodeValue() error = %v", err)
	}
	if decoded.InstructorID != "inst-1" || decoded.Status != "busy" {
		t.Errorf("unexpected decode result: %+v", decoded)
	}
}
