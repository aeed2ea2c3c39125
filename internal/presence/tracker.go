package presence

import (
	"sort"
	"sync"
	"time"

	"drivero/pkg/model"
)

const trackerShards = 32

// GeoHider is the slice of the geo index the tracker needs: transitions into
// Offline hide the instructor from queries without dropping the entry.
type GeoHider interface {
	Hide(instructorID string)
	Show(instructorID string)
}

// ChangeFunc receives availability-changed events synchronously. Must not
// block; wire a Kafka publisher behind a goroutine if delivery is slow.
type ChangeFunc func(event model.AvailabilityEvent)

type shard struct {
	mu        sync.RWMutex
	presences map[string]*model.InstructorPresence
}

// Tracker owns per-instructor presence. Staleness is enforced twice: lazily
// on every read, and by SweepStale for instructors nobody is reading.
type Tracker struct {
	staleness time.Duration
	geo       GeoHider
	onChange  ChangeFunc
	shards    [trackerShards]shard
}

func NewTracker(staleness time.Duration, geo GeoHider, onChange ChangeFunc) *Tracker {
	t := &Tracker{
		staleness: staleness,
		geo:       geo,
		onChange:  onChange,
	}
	for i := range t.shards {
		t.shards[i].presences = make(map[string]*model.InstructorPresence)
	}
	return t
}

func (t *Tracker) shardFor(instructorID string) *shard {
	h := uint32(2166136261)
	for i := 0; i < len(instructorID); i++ {
		h ^= uint32(instructorID[i])
		h *= 16777619
	}
	return &t.shards[h%trackerShards]
}

// ReportSeen records a valid location report. A first report, or a report
// for a stale instructor, transitions Offline -> Available.
func (t *Tracker) ReportSeen(instructorID string, lat, lon float64, timestamp time.Time) {
	s := t.shardFor(instructorID)

	s.mu.Lock()
	p, ok := s.presences[instructorID]
	if !ok {
		p = &model.InstructorPresence{
			InstructorID: instructorID,
			Status:       model.StatusOffline,
		}
		s.presences[instructorID] = p
	}
	previous := t.effectiveStatus(p, timestamp)
	p.Latitude = lat
	p.Longitude = lon
	p.LastSeenAt = timestamp
	if previous == model.StatusOffline {
		p.Status = model.StatusAvailable
	}
	current := p.Status
	s.mu.Unlock()

	if previous == model.StatusOffline && current == model.StatusAvailable {
		t.geo.Show(instructorID)
		t.emit(instructorID, previous, current, timestamp)
	}
}

// MarkBusy flips an instructor to Busy when a booking is confirmed.
func (t *Tracker) MarkBusy(instructorID string) {
	t.setStatus(instructorID, model.StatusBusy)
}

// MarkAvailable flips an instructor back when a lesson ends or is cancelled.
func (t *Tracker) MarkAvailable(instructorID string) {
	t.setStatus(instructorID, model.StatusAvailable)
}

// SignOff explicitly transitions an instructor Offline and hides the entry.
func (t *Tracker) SignOff(instructorID string) {
	t.setStatus(instructorID, model.StatusOffline)
}

func (t *Tracker) setStatus(instructorID string, status model.InstructorStatus) {
	s := t.shardFor(instructorID)

	s.mu.Lock()
	p, ok := s.presences[instructorID]
	if !ok {
		s.mu.Unlock()
		return
	}
	previous := p.Status
	p.Status = status
	s.mu.Unlock()

	if previous == status {
		return
	}
	if status == model.StatusOffline {
		t.geo.Hide(instructorID)
	}
	t.emit(instructorID, previous, status, time.Now())
}

// IsAvailable applies the staleness threshold at read time: an instructor
// with no fresh report is offline even if the sweeper has not run yet.
func (t *Tracker) IsAvailable(instructorID string, now time.Time) bool {
	s := t.shardFor(instructorID)
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.presences[instructorID]
	if !ok {
		return false
	}
	return t.effectiveStatus(p, now) == model.StatusAvailable
}

// Presence returns a copy of the instructor's presence with the lazily
// computed status, or false when the instructor was never seen.
func (t *Tracker) Presence(instructorID string, now time.Time) (model.InstructorPresence, bool) {
	s := t.shardFor(instructorID)
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.presences[instructorID]
	if !ok {
		return model.InstructorPresence{}, false
	}
	out := *p
	out.Status = t.effectiveStatus(p, now)
	return out, true
}

// LastSeen returns the timestamp of the last accepted report.
func (t *Tracker) LastSeen(instructorID string) (time.Time, bool) {
	s := t.shardFor(instructorID)
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.presences[instructorID]
	if !ok {
		return time.Time{}, false
	}
	return p.LastSeenAt, true
}

// SweepStale transitions every stale instructor to Offline and returns their
// IDs, sorted for deterministic logging.
func (t *Tracker) SweepStale(now time.Time) []string {
	var swept []string

	for i := range t.shards {
		s := &t.shards[i]

		s.mu.Lock()
		var stale []string
		for id, p := range t.shards[i].presences {
			// Busy instructors are spared: an in-progress lesson is not
			// interrupted by a quiet location stream.
			if p.Status == model.StatusAvailable && t.isStale(p, now) {
				p.Status = model.StatusOffline
				stale = append(stale, id)
			}
		}
		s.mu.Unlock()

		for _, id := range stale {
			t.geo.Hide(id)
			t.emit(id, model.StatusAvailable, model.StatusOffline, now)
		}
		swept = append(swept, stale...)
	}

	sort.Strings(swept)
	return swept
}

func (t *Tracker) isStale(p *model.InstructorPresence, now time.Time) bool {
	return now.Sub(p.LastSeenAt) > t.staleness
}

// effectiveStatus folds staleness into the stored status. Busy instructors
// are not marked stale by reads: an in-progress lesson keeps them Busy even
// if their client stops reporting.
func (t *Tracker) effectiveStatus(p *model.InstructorPresence, now time.Time) model.InstructorStatus {
	if p.Status == model.StatusAvailable && t.isStale(p, now) {
		return model.StatusOffline
	}
	return p.Status
}

func (t *Tracker) emit(instructorID string, previous, current model.InstructorStatus, at time.Time) {
	if t.onChange == nil {
		return
	}
	t.onChange(model.AvailabilityEvent{
		InstructorID: instructorID,
		Previous:     previous,
		Current:      current,
		OccurredAt:   at,
	})
}
