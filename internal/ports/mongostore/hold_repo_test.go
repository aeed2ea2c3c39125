package mongostore

import (
	"testing"
	"time"

	"drivero/pkg/model"
)

func shareLockID(a, b []string) bool {
	seen := make(map[string]struct{}, len(a))
	for _, id := range a {
		seen[id] = struct{}{}
	}
	for _, id := range b {
		if _, ok := seen[id]; ok {
			return true
		}
	}
	return false
}

func TestSlotLockIDsOverlapDetection(t *testing.T) {
	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		a, b      model.Slot
		wantClash bool
	}{
		{
			"identical slots",
			model.Slot{Start: base, Duration: time.Hour},
			model.Slot{Start: base, Duration: time.Hour},
			true,
		},
		{
			"offset start inside the first slot",
			model.Slot{Start: base, Duration: time.Hour},
			model.Slot{Start: base.Add(30 * time.Minute), Duration: time.Hour},
			true,
		},
		{
			"second slot fully inside the first",
			model.Slot{Start: base, Duration: 2 * time.Hour},
			model.Slot{Start: base.Add(45 * time.Minute), Duration: 30 * time.Minute},
			true,
		},
		{
			"back to back slots do not clash",
			model.Slot{Start: base, Duration: time.Hour},
			model.Slot{Start: base.Add(time.Hour), Duration: time.Hour},
			false,
		},
		{
			"disjoint slots do not clash",
			model.Slot{Start: base, Duration: time.Hour},
			model.Slot{Start: base.Add(3 * time.Hour), Duration: time.Hour},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := slotLockIDs("inst-1", tt.a)
			b := slotLockIDs("inst-1", tt.b)
			if got := shareLockID(a, b); got != tt.wantClash {
				t.Errorf("shared lock ID = %v, want %v (a=%v b=%v)", got, tt.wantClash, a, b)
			}
		})
	}
}

func TestSlotLockIDsCoverWholeSlot(t *testing.T) {
	// 10:05 for 50 minutes spans the 10:00, 10:15, 10:30 and 10:45 buckets.
	slot := model.Slot{
		Start:    time.Date(2026, 3, 14, 10, 5, 0, 0, time.UTC),
		Duration: 50 * time.Minute,
	}
	ids := slotLockIDs("inst-1", slot)
	if len(ids) != 4 {
		t.Fatalf("expected 4 bucket IDs, got %d: %v", len(ids), ids)
	}
}

func TestSlotLockIDsScopedToInstructor(t *testing.T) {
	slot := model.Slot{
		Start:    time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
		Duration: time.Hour,
	}
	if shareLockID(slotLockIDs("inst-1", slot), slotLockIDs("inst-2", slot)) {
		t.Error("different instructors must never contend for the same lock")
	}
}
