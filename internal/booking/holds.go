package booking

import (
	"sync"
	"time"

	apperrors "drivero/pkg/errors"
	"drivero/pkg/model"
)

const holdShards = 32

type holdShard struct {
	mu           sync.Mutex
	byInstructor map[string][]*model.SlotHold
}

// HoldTable is the in-memory serialization point for booking attempts.
// Acquire is an atomic check-and-set per (instructor, overlapping slot):
// of two concurrent requests for the same instructor and slot, exactly one
// wins and the loser gets SlotConflict. Sharded by instructor so unrelated
// instructors never contend.
type HoldTable struct {
	shards [holdShards]holdShard

	// holdID -> instructorID, so Take and Release can find the shard.
	index sync.Map
}

func NewHoldTable() *HoldTable {
	t := &HoldTable{}
	for i := range t.shards {
		t.shards[i].byInstructor = make(map[string][]*model.SlotHold)
	}
	return t
}

func (t *HoldTable) shardFor(instructorID string) *holdShard {
	h := uint32(2166136261)
	for i := 0; i < len(instructorID); i++ {
		h ^= uint32(instructorID[i])
		h *= 16777619
	}
	return &t.shards[h%holdShards]
}

// Acquire inserts the hold unless a live hold overlaps the same instructor
// slot. Expired holds encountered during the scan are dropped lazily.
func (t *HoldTable) Acquire(hold *model.SlotHold, now time.Time) error {
	s := t.shardFor(hold.InstructorID)

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.byInstructor[hold.InstructorID]
	kept := existing[:0]
	var conflict *model.SlotHold
	for _, h := range existing {
		if h.Expired(now) {
			t.index.Delete(h.HoldID)
			continue
		}
		kept = append(kept, h)
		if conflict == nil && h.Slot.Overlaps(hold.Slot) {
			conflict = h
		}
	}
	s.byInstructor[hold.InstructorID] = kept

	if conflict != nil {
		return apperrors.SlotConflict("this instructor slot is currently held by another request")
	}

	s.byInstructor[hold.InstructorID] = append(kept, hold)
	t.index.Store(hold.HoldID, hold.InstructorID)
	return nil
}

// Take removes and returns the hold. Expiry is computed against now at read
// time, so a confirmation after expiry fails even if the sweeper has not
// run; the boundary is inclusive.
func (t *HoldTable) Take(holdID string, now time.Time) (*model.SlotHold, error) {
	instructorID, ok := t.index.Load(holdID)
	if !ok {
		return nil, apperrors.NotFoundWithID("Hold", holdID)
	}

	s := t.shardFor(instructorID.(string))
	s.mu.Lock()
	defer s.mu.Unlock()

	holds := s.byInstructor[instructorID.(string)]
	for i, h := range holds {
		if h.HoldID != holdID {
			continue
		}
		s.byInstructor[instructorID.(string)] = append(holds[:i], holds[i+1:]...)
		t.index.Delete(holdID)
		if h.Expired(now) {
			return h, apperrors.HoldExpired(holdID)
		}
		return h, nil
	}

	return nil, apperrors.NotFoundWithID("Hold", holdID)
}

// Restore puts a hold back after a failed downstream write, without the
// overlap check: the slot was still ours.
func (t *HoldTable) Restore(hold *model.SlotHold) {
	s := t.shardFor(hold.InstructorID)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.byInstructor[hold.InstructorID] = append(s.byInstructor[hold.InstructorID], hold)
	t.index.Store(hold.HoldID, hold.InstructorID)
}

// SweepExpired removes every lapsed hold and returns them so the caller can
// notify the requesters.
func (t *HoldTable) SweepExpired(now time.Time) []*model.SlotHold {
	var expired []*model.SlotHold

	for i := range t.shards {
		s := &t.shards[i]

		s.mu.Lock()
		for instructorID, holds := range s.byInstructor {
			kept := holds[:0]
			for _, h := range holds {
				if h.Expired(now) {
					t.index.Delete(h.HoldID)
					expired = append(expired, h)
					continue
				}
				kept = append(kept, h)
			}
			if len(kept) == 0 {
				delete(s.byInstructor, instructorID)
			} else {
				s.byInstructor[instructorID] = kept
			}
		}
		s.mu.Unlock()
	}

	return expired
}
