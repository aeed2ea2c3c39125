package presence

import (
	"sync"
	"testing"
	"time"

	"drivero/pkg/model"
)

const staleness = 30 * time.Second

type fakeGeo struct {
	mu     sync.Mutex
	hidden map[string]bool
}

func newFakeGeo() *fakeGeo {
	return &fakeGeo{hidden: make(map[string]bool)}
}

func (g *fakeGeo) Hide(id string) {
	g.mu.Lock()
	g.hidden[id] = true
	g.mu.Unlock()
}

func (g *fakeGeo) Show(id string) {
	g.mu.Lock()
	g.hidden[id] = false
	g.mu.Unlock()
}

func (g *fakeGeo) isHidden(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.hidden[id]
}

type eventRecorder struct {
	mu     sync.Mutex
	events []model.AvailabilityEvent
}

func (r *eventRecorder) record(e model.AvailabilityEvent) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *eventRecorder) all() []model.AvailabilityEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.AvailabilityEvent(nil), r.events...)
}

func TestReportSeenMakesInstructorAvailable(t *testing.T) {
	geo := newFakeGeo()
	rec := &eventRecorder{}
	tracker := NewTracker(staleness, geo, rec.record)

	now := time.Now()
	tracker.ReportSeen("inst-1", 10.0, 10.0, now)

	if !tracker.IsAvailable("inst-1", now) {
		t.Error("instructor should be available after a report")
	}

	events := rec.all()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Previous != model.StatusOffline || events[0].Current != model.StatusAvailable {
		t.Errorf("unexpected transition %s -> %s", events[0].Previous, events[0].Current)
	}
}

func TestStaleInstructorReadsAsOffline(t *testing.T) {
	geo := newFakeGeo()
	tracker := NewTracker(staleness, geo, nil)

	reportedAt := time.Now()
	tracker.ReportSeen("inst-1", 10.0, 10.0, reportedAt)

	justBefore := reportedAt.Add(staleness - time.Second)
	if !tracker.IsAvailable("inst-1", justBefore) {
		t.Error("instructor should still be available inside the staleness window")
	}

	after := reportedAt.Add(staleness + time.Second)
	if tracker.IsAvailable("inst-1", after) {
		t.Error("instructor should read as offline once the last report is stale")
	}

	p, ok := tracker.Presence("inst-1", after)
	if !ok {
		t.Fatal("presence record should still exist")
	}
	if p.Status != model.StatusOffline {
		t.Errorf("expected offline, got %s", p.Status)
	}
}

func TestBusyIsSparedFromStaleness(t *testing.T) {
	geo := newFakeGeo()
	tracker := NewTracker(staleness, geo, nil)

	reportedAt := time.Now()
	tracker.ReportSeen("inst-1", 10.0, 10.0, reportedAt)
	tracker.MarkBusy("inst-1")

	// An instructor mid-lesson does not report; that must not flip them
	// offline.
	after := reportedAt.Add(10 * staleness)
	p, ok := tracker.Presence("inst-1", after)
	if !ok {
		t.Fatal("presence record should exist")
	}
	if p.Status != model.StatusBusy {
		t.Errorf("busy instructor went %s during a lesson", p.Status)
	}
	if tracker.IsAvailable("inst-1", after) {
		t.Error("busy instructor must not be available")
	}
}

func TestMarkAvailableAfterBusy(t *testing.T) {
	geo := newFakeGeo()
	tracker := NewTracker(staleness, geo, nil)

	now := time.Now()
	tracker.ReportSeen("inst-1", 10.0, 10.0, now)
	tracker.MarkBusy("inst-1")
	tracker.MarkAvailable("inst-1")

	if !tracker.IsAvailable("inst-1", now) {
		t.Error("instructor should be available after the lesson ends")
	}
}

func TestSignOffHidesFromGeo(t *testing.T) {
	geo := newFakeGeo()
	rec := &eventRecorder{}
	tracker := NewTracker(staleness, geo, rec.record)

	now := time.Now()
	tracker.ReportSeen("inst-1", 10.0, 10.0, now)
	tracker.SignOff("inst-1")

	if tracker.IsAvailable("inst-1", now) {
		t.Error("signed-off instructor must not be available")
	}
	if !geo.isHidden("inst-1") {
		t.Error("sign-off should hide the geo entry")
	}

	// The next report brings the instructor straight back.
	tracker.ReportSeen("inst-1", 10.0, 10.0, now.Add(time.Second))
	if !tracker.IsAvailable("inst-1", now.Add(time.Second)) {
		t.Error("instructor should be available again after a fresh report")
	}
	if geo.isHidden("inst-1") {
		t.Error("fresh report should unhide the geo entry")
	}
}

func TestSweepStaleFlipsOnlyStaleAvailable(t *testing.T) {
	geo := newFakeGeo()
	tracker := NewTracker(staleness, geo, nil)

	reportedAt := time.Now()
	tracker.ReportSeen("stale", 10.0, 10.0, reportedAt)
	tracker.ReportSeen("busy", 10.0, 10.0, reportedAt)
	tracker.MarkBusy("busy")
	tracker.ReportSeen("fresh", 10.0, 10.0, reportedAt.Add(staleness))

	swept := tracker.SweepStale(reportedAt.Add(staleness + time.Second))
	if len(swept) != 1 || swept[0] != "stale" {
		t.Fatalf("expected only the stale available instructor, got %v", swept)
	}
	if !geo.isHidden("stale") {
		t.Error("swept instructor should be hidden from geo queries")
	}
	if geo.isHidden("busy") || geo.isHidden("fresh") {
		t.Error("busy and fresh instructors must not be swept")
	}
}

func TestLastSeen(t *testing.T) {
	geo := newFakeGeo()
	tracker := NewTracker(staleness, geo, nil)

	if _, ok := tracker.LastSeen("unknown"); ok {
		t.Error("unknown instructor should have no last-seen")
	}

	reportedAt := time.Now()
	tracker.ReportSeen("inst-1", 10.0, 10.0, reportedAt)
	seen, ok := tracker.LastSeen("inst-1")
	if !ok || !seen.Equal(reportedAt) {
		t.Errorf("LastSeen() = %v, %v; want %v, true", seen, ok, reportedAt)
	}
}

func TestConcurrentReportsSingleInstructor(t *testing.T) {
	geo := newFakeGeo()
	tracker := NewTracker(staleness, geo, nil)

	base := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			tracker.ReportSeen("inst-1", 10.0, 10.0, base.Add(time.Duration(n)*time.Millisecond))
		}(i)
	}
	wg.Wait()

	if !tracker.IsAvailable("inst-1", base.Add(20*time.Millisecond)) {
		t.Error("instructor should be available after concurrent reports")
	}
}
