package api

import (
	"encoding/json"
	"net/http"
	"time"

	"drivero/internal/ingest"
	"drivero/internal/matching"
	"drivero/internal/presence"
	apperrors "drivero/pkg/errors"
	httputil "drivero/pkg/http"
	"drivero/pkg/logger"
	"drivero/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type InstructorHandler struct {
	ingestor *ingest.Ingestor
	tracker  *presence.Tracker
	matcher  *matching.Engine
	log      *logger.Logger
}

func NewInstructorHandler(ingestor *ingest.Ingestor, tracker *presence.Tracker, matcher *matching.Engine, log *logger.Logger) *InstructorHandler {
	return &InstructorHandler{
		ingestor: ingestor,
		tracker:  tracker,
		matcher:  matcher,
		log:      log,
	}
}

type locationReportResponse struct {
	InstructorID string             `json:"instructor_id"`
	Result       model.IngestResult `json:"result"`
}

func (h *InstructorHandler) ReportLocation(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var report model.LocationReport
	if err := json.NewDecoder(r.Body).Decode(&report); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "ReportLocation", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}
	// The path is authoritative for the instructor identity.
	report.InstructorID = ps.ByName("id")

	result, err := h.ingestor.Ingest(report)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ReportLocation", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, locationReportResponse{
		InstructorID: report.InstructorID,
		Result:       result,
	}); err != nil {
		h.log.Error("failed to write success response", "handler", "ReportLocation", "operation", "WriteSuccess", "error", err)
	}
}

func (h *InstructorHandler) SignOff(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.tracker.SignOff(ps.ByName("id"))
	httputil.WriteNoContent(w)
}

func (h *InstructorHandler) GetPresence(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	p, ok := h.tracker.Presence(id, time.Now())
	if !ok {
		if writeErr := httputil.WriteError(w, apperrors.NotFoundWithID("Instructor", id)); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetPresence", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, p); err != nil {
		h.log.Error("failed to write success response", "handler", "GetPresence", "operation", "WriteSuccess", "error", err)
	}
}

func (h *InstructorHandler) FindNearby(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	lat, err := httputil.ExtractFloat(r, "lat")
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "FindNearby", "operation", "WriteError", "error", writeErr)
		}
		return
	}
	lon, err := httputil.ExtractFloat(r, "lon")
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "FindNearby", "operation", "WriteError", "error", writeErr)
		}
		return
	}
	radius, err := httputil.ExtractFloat(r, "radius")
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "FindNearby", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	limit, err := httputil.ExtractIntDefault(r, "limit", 0)
	if err == nil && limit < 0 {
		err = apperrors.InvalidInput("limit must not be negative")
	}
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "FindNearby", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	query := r.URL.Query()
	filters := model.MatchFilters{
		LessonType: query.Get("lesson_type"),
	}
	if minRatingStr := query.Get("min_rating"); minRatingStr != "" {
		minRating, err := httputil.ExtractFloat(r, "min_rating")
		if err != nil {
			if writeErr := httputil.WriteError(w, err); writeErr != nil {
				h.log.Error("failed to write error response", "handler", "FindNearby", "operation", "WriteError", "error", writeErr)
			}
			return
		}
		filters.MinRating = minRating
	}

	candidates, err := h.matcher.FindCandidates(r.Context(), lat, lon, radius, filters)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "FindNearby", "operation", "WriteError", "error", writeErr)
		}
		return
	}
	// The engine caps results at its configured maximum; a client limit can
	// only narrow that further.
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	if err := httputil.WriteSuccess(w, candidates); err != nil {
		h.log.Error("failed to write success response", "handler", "FindNearby", "operation", "WriteSuccess", "error", err)
	}
}

func (h *InstructorHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/v1/instructors/:id/location", h.ReportLocation)
	router.DELETE("/v1/instructors/:id/location", h.SignOff)
	router.GET("/v1/instructors/:id/presence", h.GetPresence)
	router.GET("/v1/instructors", h.FindNearby)
}
