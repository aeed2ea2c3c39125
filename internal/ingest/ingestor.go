package ingest

import (
	"sync"
	"time"

	"drivero/internal/geo"
	"drivero/internal/presence"
	apperrors "drivero/pkg/errors"
	"drivero/pkg/logger"
	"drivero/pkg/model"
)

const ingestorShards = 32

type instructorState struct {
	mu            sync.Mutex
	lastReportTS  time.Time             // newest accepted report timestamp
	lastAppliedAt time.Time             // wall clock of the last index write
	pending       *model.LocationReport // newest coalesced report, flushed by timer
	flushTimer    *time.Timer
}

type ingestorShard struct {
	mu     sync.Mutex
	states map[string]*instructorState
}

// Ingestor validates and debounces instructor position reports, and applies
// accepted ones to the geo index and availability tracker. Ordering is by
// report timestamp: an out-of-order report is dropped, not applied.
type Ingestor struct {
	geoIndex  *geo.Index
	tracker   *presence.Tracker
	validator *ReportValidator
	debounce  time.Duration
	log       *logger.Logger
	now       func() time.Time

	shards [ingestorShards]ingestorShard

	stopMu  sync.Mutex
	stopped bool
}

func NewIngestor(geoIndex *geo.Index, tracker *presence.Tracker, validator *ReportValidator, debounce time.Duration, log *logger.Logger) *Ingestor {
	ing := &Ingestor{
		geoIndex:  geoIndex,
		tracker:   tracker,
		validator: validator,
		debounce:  debounce,
		log:       log,
		now:       time.Now,
	}
	for i := range ing.shards {
		ing.shards[i].states = make(map[string]*instructorState)
	}
	return ing
}

func (ing *Ingestor) stateFor(instructorID string) *instructorState {
	h := uint32(2166136261)
	for i := 0; i < len(instructorID); i++ {
		h ^= uint32(instructorID[i])
		h *= 16777619
	}
	s := &ing.shards[h%ingestorShards]

	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[instructorID]
	if !ok {
		st = &instructorState{}
		s.states[instructorID] = st
	}
	return st
}

// Ingest handles one position report. The first report after a quiet period
// applies immediately; reports arriving inside the debounce window are
// accepted but coalesced, and only the newest is flushed when the window
// closes.
func (ing *Ingestor) Ingest(report model.LocationReport) (model.IngestResult, error) {
	if err := ing.validator.Validate(&report); err != nil {
		ing.log.Warn("Location report rejected",
			"instructor_id", report.InstructorID,
			"error", err,
		)
		return model.IngestRejected, apperrors.InvalidInput(err.Error())
	}

	st := ing.stateFor(report.InstructorID)

	st.mu.Lock()
	defer st.mu.Unlock()

	// Last-write-wins by report timestamp, not arrival order.
	if !st.lastReportTS.IsZero() && !report.Timestamp.After(st.lastReportTS) {
		return model.IngestRejected, apperrors.InvalidInput("report timestamp is not newer than the last accepted report")
	}
	st.lastReportTS = report.Timestamp

	now := ing.now()
	if now.Sub(st.lastAppliedAt) >= ing.debounce {
		ing.apply(&report)
		st.lastAppliedAt = now
		st.pending = nil
		return model.IngestAccepted, nil
	}

	// Inside the window: stash and make sure a flush is scheduled.
	st.pending = &report
	if st.flushTimer == nil {
		delay := ing.debounce - now.Sub(st.lastAppliedAt)
		st.flushTimer = time.AfterFunc(delay, func() {
			ing.flush(st)
		})
	}
	return model.IngestCoalesced, nil
}

func (ing *Ingestor) flush(st *instructorState) {
	ing.stopMu.Lock()
	if ing.stopped {
		ing.stopMu.Unlock()
		return
	}
	ing.stopMu.Unlock()

	st.mu.Lock()
	defer st.mu.Unlock()

	st.flushTimer = nil
	if st.pending == nil {
		return
	}
	ing.apply(st.pending)
	st.lastAppliedAt = ing.now()
	st.pending = nil
}

// apply updates the geo entry and presence together, under the per-
// instructor lock, so a query never sees one without the other.
func (ing *Ingestor) apply(report *model.LocationReport) {
	ing.geoIndex.Upsert(report.InstructorID, report.Latitude, report.Longitude)
	ing.tracker.ReportSeen(report.InstructorID, report.Latitude, report.Longitude, report.Timestamp)
}

// Stop cancels pending flush timers; called during graceful shutdown.
func (ing *Ingestor) Stop() {
	ing.stopMu.Lock()
	ing.stopped = true
	ing.stopMu.Unlock()

	for i := range ing.shards {
		s := &ing.shards[i]
		s.mu.Lock()
		for _, st := range s.states {
			st.mu.Lock()
			if st.flushTimer != nil {
				st.flushTimer.Stop()
				st.flushTimer = nil
			}
			st.mu.Unlock()
		}
		s.mu.Unlock()
	}
}
