package matching

import (
	"context"
	"errors"
	"testing"
	"time"

	"drivero/internal/geo"
	"drivero/internal/presence"
	apperrors "drivero/pkg/errors"
	"drivero/pkg/logger"
	"drivero/pkg/model"
)

type mockDirectory struct {
	ratingFunc func(ctx context.Context, instructorID string) (float64, error)
	servesFunc func(ctx context.Context, instructorID string, lessonType string) (bool, error)
}

func (m *mockDirectory) Rating(ctx context.Context, instructorID string) (float64, error) {
	if m.ratingFunc != nil {
		return m.ratingFunc(ctx, instructorID)
	}
	return 0, nil
}

func (m *mockDirectory) Serves(ctx context.Context, instructorID string, lessonType string) (bool, error) {
	if m.servesFunc != nil {
		return m.servesFunc(ctx, instructorID, lessonType)
	}
	return true, nil
}

func newTestEngine(t *testing.T, directory *mockDirectory, limit int) (*Engine, *geo.Index, *presence.Tracker) {
	t.Helper()
	log := logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	geoIndex := geo.NewIndex(50_000)
	tracker := presence.NewTracker(time.Hour, geoIndex, nil)
	return NewEngine(geoIndex, tracker, directory, limit, log), geoIndex, tracker
}

func seed(geoIndex *geo.Index, tracker *presence.Tracker, id string, lat, lon float64) {
	geoIndex.Upsert(id, lat, lon)
	tracker.ReportSeen(id, lat, lon, time.Now())
}

func TestFindCandidatesFiltersUnavailable(t *testing.T) {
	engine, geoIndex, tracker := newTestEngine(t, &mockDirectory{}, 20)

	seed(geoIndex, tracker, "available", 10.0, 10.0)
	seed(geoIndex, tracker, "busy", 10.001, 10.0)
	tracker.MarkBusy("busy")
	// Positioned but never reported to the tracker.
	geoIndex.Upsert("unknown", 10.002, 10.0)

	candidates, err := engine.FindCandidates(context.Background(), 10.0, 10.0, 5000, model.MatchFilters{})
	if err != nil {
		t.Fatalf("FindCandidates() error = %v", err)
	}
	if len(candidates) != 1 || candidates[0].InstructorID != "available" {
		t.Errorf("expected only the available instructor, got %v", candidates)
	}
}

func TestFindCandidatesRanking(t *testing.T) {
	directory := &mockDirectory{
		ratingFunc: func(_ context.Context, id string) (float64, error) {
			switch id {
			case "near-low":
				return 3.0, nil
			case "near-high":
				return 4.9, nil
			default:
				return 5.0, nil
			}
		},
	}
	engine, geoIndex, tracker := newTestEngine(t, directory, 20)

	// near-low and near-high share a position; far is further out but top
	// rated. Distance dominates, rating breaks the tie.
	seed(geoIndex, tracker, "near-low", 10.0, 10.0)
	seed(geoIndex, tracker, "near-high", 10.0, 10.0)
	seed(geoIndex, tracker, "far", 10.01, 10.0)

	candidates, err := engine.FindCandidates(context.Background(), 10.0, 10.0, 5000, model.MatchFilters{})
	if err != nil {
		t.Fatalf("FindCandidates() error = %v", err)
	}
	want := []string{"near-high", "near-low", "far"}
	if len(candidates) != len(want) {
		t.Fatalf("expected %d candidates, got %d", len(want), len(candidates))
	}
	for i, id := range want {
		if candidates[i].InstructorID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, candidates[i].InstructorID)
		}
	}
}

func TestFindCandidatesLessonTypeFilter(t *testing.T) {
	directory := &mockDirectory{
		servesFunc: func(_ context.Context, id string, lessonType string) (bool, error) {
			return id == "manual-instructor", nil
		},
	}
	engine, geoIndex, tracker := newTestEngine(t, directory, 20)

	seed(geoIndex, tracker, "manual-instructor", 10.0, 10.0)
	seed(geoIndex, tracker, "automatic-only", 10.0, 10.0)

	candidates, err := engine.FindCandidates(context.Background(), 10.0, 10.0, 5000, model.MatchFilters{LessonType: "manual"})
	if err != nil {
		t.Fatalf("FindCandidates() error = %v", err)
	}
	if len(candidates) != 1 || candidates[0].InstructorID != "manual-instructor" {
		t.Errorf("expected only the serving instructor, got %v", candidates)
	}
}

func TestFindCandidatesMinRating(t *testing.T) {
	directory := &mockDirectory{
		ratingFunc: func(_ context.Context, id string) (float64, error) {
			if id == "top" {
				return 4.8, nil
			}
			return 3.2, nil
		},
	}
	engine, geoIndex, tracker := newTestEngine(t, directory, 20)

	seed(geoIndex, tracker, "top", 10.0, 10.0)
	seed(geoIndex, tracker, "low", 10.0, 10.0)

	candidates, err := engine.FindCandidates(context.Background(), 10.0, 10.0, 5000, model.MatchFilters{MinRating: 4.0})
	if err != nil {
		t.Fatalf("FindCandidates() error = %v", err)
	}
	if len(candidates) != 1 || candidates[0].InstructorID != "top" {
		t.Errorf("expected only the top-rated instructor, got %v", candidates)
	}
}

func TestFindCandidatesSkipsOnDirectoryError(t *testing.T) {
	directory := &mockDirectory{
		servesFunc: func(_ context.Context, id string, _ string) (bool, error) {
			if id == "broken" {
				return false, errors.New("directory timeout")
			}
			return true, nil
		},
	}
	engine, geoIndex, tracker := newTestEngine(t, directory, 20)

	seed(geoIndex, tracker, "broken", 10.0, 10.0)
	seed(geoIndex, tracker, "healthy", 10.0, 10.0)

	candidates, err := engine.FindCandidates(context.Background(), 10.0, 10.0, 5000, model.MatchFilters{LessonType: "manual"})
	if err != nil {
		t.Fatalf("lookup failure must not fail the query: %v", err)
	}
	if len(candidates) != 1 || candidates[0].InstructorID != "healthy" {
		t.Errorf("expected the healthy instructor only, got %v", candidates)
	}
}

func TestFindCandidatesRespectsLimit(t *testing.T) {
	engine, geoIndex, tracker := newTestEngine(t, &mockDirectory{}, 2)

	for i := 0; i < 5; i++ {
		id := string(rune('a' + i))
		seed(geoIndex, tracker, id, 10.0+float64(i)*0.001, 10.0)
	}

	candidates, err := engine.FindCandidates(context.Background(), 10.0, 10.0, 5000, model.MatchFilters{})
	if err != nil {
		t.Fatalf("FindCandidates() error = %v", err)
	}
	if len(candidates) != 2 {
		t.Errorf("expected 2 candidates, got %d", len(candidates))
	}
	if candidates[0].InstructorID != "a" || candidates[1].InstructorID != "b" {
		t.Errorf("limit should keep the nearest candidates, got %v", candidates)
	}
}

func TestFindCandidatesInvalidRadius(t *testing.T) {
	engine, _, _ := newTestEngine(t, &mockDirectory{}, 20)

	_, err := engine.FindCandidates(context.Background(), 10.0, 10.0, -1, model.MatchFilters{})
	if !apperrors.IsCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestFindCandidatesEmptyArea(t *testing.T) {
	engine, _, _ := newTestEngine(t, &mockDirectory{}, 20)

	candidates, err := engine.FindCandidates(context.Background(), 10.0, 10.0, 5000, model.MatchFilters{})
	if err != nil {
		t.Fatalf("FindCandidates() error = %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("expected no candidates, got %v", candidates)
	}
}
