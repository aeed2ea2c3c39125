package booking

import (
	"fmt"
	"sync"
	"testing"
	"time"

	apperrors "drivero/pkg/errors"
	"drivero/pkg/model"
)

func makeHold(holdID, instructorID string, start time.Time, duration, ttl time.Duration, now time.Time) *model.SlotHold {
	return &model.SlotHold{
		HoldID:       holdID,
		InstructorID: instructorID,
		StudentID:    "student-1",
		Slot:         model.Slot{Start: start, Duration: duration},
		ExpiresAt:    now.Add(ttl),
		CreatedAt:    now,
	}
}

func TestAcquireThenTake(t *testing.T) {
	table := NewHoldTable()
	now := time.Now()
	slotStart := now.Add(time.Hour)

	hold := makeHold("h1", "inst-1", slotStart, time.Hour, 2*time.Minute, now)
	if err := table.Acquire(hold, now); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	taken, err := table.Take("h1", now.Add(time.Minute))
	if err != nil {
		t.Fatalf("Take() error = %v", err)
	}
	if taken.HoldID != "h1" {
		t.Errorf("wrong hold returned: %s", taken.HoldID)
	}

	// Taken means gone.
	if _, err := table.Take("h1", now); !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Errorf("second take should be NOT_FOUND, got %v", err)
	}
}

func TestAcquireConflictOnOverlap(t *testing.T) {
	table := NewHoldTable()
	now := time.Now()
	slotStart := now.Add(time.Hour)

	if err := table.Acquire(makeHold("h1", "inst-1", slotStart, time.Hour, 2*time.Minute, now), now); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	tests := []struct {
		name  string
		start time.Time
	}{
		{"identical slot", slotStart},
		{"starts mid-slot", slotStart.Add(30 * time.Minute)},
		{"ends mid-slot", slotStart.Add(-30 * time.Minute)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := table.Acquire(makeHold("h2", "inst-1", tt.start, time.Hour, 2*time.Minute, now), now)
			if !apperrors.IsCode(err, apperrors.CodeSlotConflict) {
				t.Errorf("expected SLOT_CONFLICT, got %v", err)
			}
		})
	}
}

func TestAcquireAllowsDisjointSlots(t *testing.T) {
	table := NewHoldTable()
	now := time.Now()
	slotStart := now.Add(time.Hour)

	if err := table.Acquire(makeHold("h1", "inst-1", slotStart, time.Hour, 2*time.Minute, now), now); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	// Back-to-back is not an overlap: the end is exclusive.
	if err := table.Acquire(makeHold("h2", "inst-1", slotStart.Add(time.Hour), time.Hour, 2*time.Minute, now), now); err != nil {
		t.Errorf("adjacent slot should not conflict: %v", err)
	}
	// A different instructor never conflicts.
	if err := table.Acquire(makeHold("h3", "inst-2", slotStart, time.Hour, 2*time.Minute, now), now); err != nil {
		t.Errorf("other instructor should not conflict: %v", err)
	}
}

func TestConcurrentAcquireSingleWinner(t *testing.T) {
	table := NewHoldTable()
	now := time.Now()
	slotStart := now.Add(time.Hour)

	const attempts = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	conflicts := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			hold := makeHold(fmt.Sprintf("h-%d", n), "inst-1", slotStart, time.Hour, 2*time.Minute, now)
			err := table.Acquire(hold, now)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners++
			case apperrors.IsCode(err, apperrors.CodeSlotConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if winners != 1 {
		t.Errorf("exactly one acquire should win, got %d", winners)
	}
	if conflicts != attempts-1 {
		t.Errorf("expected %d conflicts, got %d", attempts-1, conflicts)
	}
}

func TestTakeExpiredHold(t *testing.T) {
	table := NewHoldTable()
	now := time.Now()
	hold := makeHold("h1", "inst-1", now.Add(time.Hour), time.Hour, 2*time.Minute, now)
	if err := table.Acquire(hold, now); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	// The boundary is inclusive: confirming exactly at ExpiresAt fails.
	taken, err := table.Take("h1", hold.ExpiresAt)
	if !apperrors.IsCode(err, apperrors.CodeHoldExpired) {
		t.Fatalf("expected HOLD_EXPIRED, got %v", err)
	}
	if taken == nil || taken.HoldID != "h1" {
		t.Error("expired take should still return the hold for cleanup")
	}
}

func TestTakeJustBeforeExpiry(t *testing.T) {
	table := NewHoldTable()
	now := time.Now()
	hold := makeHold("h1", "inst-1", now.Add(time.Hour), time.Hour, 2*time.Minute, now)
	if err := table.Acquire(hold, now); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	if _, err := table.Take("h1", hold.ExpiresAt.Add(-time.Nanosecond)); err != nil {
		t.Errorf("take just before expiry should succeed: %v", err)
	}
}

func TestExpiredHoldFreesSlot(t *testing.T) {
	table := NewHoldTable()
	now := time.Now()
	slotStart := now.Add(time.Hour)

	if err := table.Acquire(makeHold("h1", "inst-1", slotStart, time.Hour, 2*time.Minute, now), now); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	// After h1 lapses, a new request for the same slot must win without any
	// sweep having run.
	later := now.Add(3 * time.Minute)
	if err := table.Acquire(makeHold("h2", "inst-1", slotStart, time.Hour, 2*time.Minute, later), later); err != nil {
		t.Errorf("slot should be free after the prior hold expired: %v", err)
	}
}

func TestRestore(t *testing.T) {
	table := NewHoldTable()
	now := time.Now()
	hold := makeHold("h1", "inst-1", now.Add(time.Hour), time.Hour, 2*time.Minute, now)
	if err := table.Acquire(hold, now); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	taken, err := table.Take("h1", now)
	if err != nil {
		t.Fatalf("Take() error = %v", err)
	}
	table.Restore(taken)

	if _, err := table.Take("h1", now); err != nil {
		t.Errorf("restored hold should be takeable: %v", err)
	}
}

func TestSweepExpired(t *testing.T) {
	table := NewHoldTable()
	now := time.Now()
	slotStart := now.Add(time.Hour)

	if err := table.Acquire(makeHold("h1", "inst-1", slotStart, time.Hour, time.Minute, now), now); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if err := table.Acquire(makeHold("h2", "inst-2", slotStart, time.Hour, 10*time.Minute, now), now); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	expired := table.SweepExpired(now.Add(5 * time.Minute))
	if len(expired) != 1 || expired[0].HoldID != "h1" {
		t.Fatalf("expected only h1 swept, got %v", expired)
	}

	if _, err := table.Take("h1", now); !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Errorf("swept hold should be gone, got %v", err)
	}
	if _, err := table.Take("h2", now.Add(5*time.Minute)); err != nil {
		t.Errorf("live hold should survive the sweep: %v", err)
	}
}

func TestUnknownHoldNotFound(t *testing.T) {
	table := NewHoldTable()
	if _, err := table.Take("missing", time.Now()); !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}
