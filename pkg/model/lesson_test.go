package model

import (
	"testing"
	"time"
)

func TestSlotOverlaps(t *testing.T) {
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	slot := Slot{Start: base, Duration: time.Hour}

	tests := []struct {
		name  string
		other Slot
		want  bool
	}{
		{"identical", Slot{Start: base, Duration: time.Hour}, true},
		{"starts inside", Slot{Start: base.Add(30 * time.Minute), Duration: time.Hour}, true},
		{"ends inside", Slot{Start: base.Add(-30 * time.Minute), Duration: time.Hour}, true},
		{"contains", Slot{Start: base.Add(-time.Hour), Duration: 3 * time.Hour}, true},
		{"contained", Slot{Start: base.Add(15 * time.Minute), Duration: 15 * time.Minute}, true},
		{"back to back after", Slot{Start: base.Add(time.Hour), Duration: time.Hour}, false},
		{"back to back before", Slot{Start: base.Add(-time.Hour), Duration: time.Hour}, false},
		{"disjoint", Slot{Start: base.Add(5 * time.Hour), Duration: time.Hour}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := slot.Overlaps(tt.other); got != tt.want {
				t.Errorf("Overlaps() = %v, want %v", got, tt.want)
			}
			// Overlap is symmetric.
			if got := tt.other.Overlaps(slot); got != tt.want {
				t.Errorf("reverse Overlaps() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSlotEnd(t *testing.T) {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	slot := Slot{Start: start, Duration: 90 * time.Minute}
	if want := start.Add(90 * time.Minute); !slot.End().Equal(want) {
		t.Errorf("End() = %v, want %v", slot.End(), want)
	}
}

func TestLessonStateTerminal(t *testing.T) {
	terminal := []LessonState{LessonCompleted, LessonCancelled, LessonExpired, LessonNoShow}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}

	live := []LessonState{LessonRequested, LessonHolding, LessonConfirmed, LessonInProgress}
	for _, s := range live {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestSlotHoldExpiryBoundary(t *testing.T) {
	expiresAt := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	hold := &SlotHold{HoldID: "h-1", ExpiresAt: expiresAt}

	if hold.Expired(expiresAt.Add(-time.Nanosecond)) {
		t.Error("hold should be live just before ExpiresAt")
	}
	// Inclusive boundary.
	if !hold.Expired(expiresAt) {
		t.Error("hold should be expired exactly at ExpiresAt")
	}
	if !hold.Expired(expiresAt.Add(time.Second)) {
		t.Error("hold should be expired after ExpiresAt")
	}
}
