package matching

import (
	"context"
	"sort"
	"time"

	"drivero/internal/geo"
	"drivero/internal/ports"
	"drivero/internal/presence"
	"drivero/pkg/logger"
	"drivero/pkg/model"
)

// Engine answers "who can teach near this student right now". Results are a
// best-effort snapshot: the candidate set may change before the student
// books, and the booking coordinator is what enforces correctness then.
type Engine struct {
	geoIndex  *geo.Index
	tracker   *presence.Tracker
	directory ports.DirectoryPort
	limit     int
	log       *logger.Logger
	now       func() time.Time
}

func NewEngine(geoIndex *geo.Index, tracker *presence.Tracker, directory ports.DirectoryPort, limit int, log *logger.Logger) *Engine {
	return &Engine{
		geoIndex:  geoIndex,
		tracker:   tracker,
		directory: directory,
		limit:     limit,
		log:       log,
		now:       time.Now,
	}
}

// FindCandidates queries the geo index, keeps instructors who are Available
// and serve the requested lesson type, and ranks by distance with rating as
// the tie-break.
func (e *Engine) FindCandidates(ctx context.Context, studentLat, studentLon, radiusMeters float64, filters model.MatchFilters) ([]model.CandidateInstructor, error) {
	// Over-fetch so availability and profile filtering can thin the list
	// without starving the final page.
	neighbors, err := e.geoIndex.QueryNear(studentLat, studentLon, radiusMeters, e.limit*4)
	if err != nil {
		return nil, err
	}

	now := e.now()
	candidates := make([]model.CandidateInstructor, 0, len(neighbors))

	for _, n := range neighbors {
		if !e.tracker.IsAvailable(n.InstructorID, now) {
			continue
		}

		if filters.LessonType != "" {
			serves, err := e.directory.Serves(ctx, n.InstructorID, filters.LessonType)
			if err != nil {
				e.log.Warn("Directory lookup failed, skipping candidate",
					"instructor_id", n.InstructorID,
					"error", err,
				)
				continue
			}
			if !serves {
				continue
			}
		}

		rating, err := e.directory.Rating(ctx, n.InstructorID)
		if err != nil {
			e.log.Warn("Rating lookup failed, ranking candidate without score",
				"instructor_id", n.InstructorID,
				"error", err,
			)
			rating = 0
		}
		if filters.MinRating > 0 && rating < filters.MinRating {
			continue
		}

		candidates = append(candidates, model.CandidateInstructor{
			InstructorID:   n.InstructorID,
			Latitude:       n.Latitude,
			Longitude:      n.Longitude,
			DistanceMeters: n.DistanceMeters,
			Rating:         rating,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].DistanceMeters != candidates[j].DistanceMeters {
			return candidates[i].DistanceMeters < candidates[j].DistanceMeters
		}
		if candidates[i].Rating != candidates[j].Rating {
			return candidates[i].Rating > candidates[j].Rating
		}
		return candidates[i].InstructorID < candidates[j].InstructorID
	})

	if len(candidates) > e.limit {
		candidates = candidates[:e.limit]
	}
	return candidates, nil
}
