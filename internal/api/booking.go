package api

import (
	"context"
	"encoding/json"
	"net/http"

	"drivero/internal/booking"
	httputil "drivero/pkg/http"
	"drivero/pkg/logger"
	"drivero/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BookingHandler struct {
	coordinator *booking.Coordinator
	log         *logger.Logger
}

func NewBookingHandler(coordinator *booking.Coordinator, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		coordinator: coordinator,
		log:         log,
	}
}

// transitionRequest carries the optimistic-concurrency token for lifecycle
// transitions. Clients echo the version they last read.
type transitionRequest struct {
	ExpectedVersion int64 `json:"expected_version"`
}

func (h *BookingHandler) RequestBooking(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "RequestBooking", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	hold, err := h.coordinator.RequestBooking(r.Context(), req)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "RequestBooking", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, hold); err != nil {
		h.log.Error("failed to write created response", "handler", "RequestBooking", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) ConfirmBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	lesson, err := h.coordinator.ConfirmBooking(r.Context(), ps.ByName("holdId"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ConfirmBooking", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, lesson); err != nil {
		h.log.Error("failed to write created response", "handler", "ConfirmBooking", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) ReleaseHold(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.coordinator.ReleaseHold(r.Context(), ps.ByName("holdId")); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ReleaseHold", "operation", "WriteError", "error", writeErr)
		}
		return
	}
	httputil.WriteNoContent(w)
}

func (h *BookingHandler) GetLesson(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	lesson, err := h.coordinator.GetLesson(r.Context(), ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetLesson", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, lesson); err != nil {
		h.log.Error("failed to write success response", "handler", "GetLesson", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) StartLesson(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.transition(w, r, ps, "StartLesson", h.coordinator.StartLesson)
}

func (h *BookingHandler) CompleteLesson(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.transition(w, r, ps, "CompleteLesson", h.coordinator.CompleteLesson)
}

func (h *BookingHandler) CancelLesson(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.transition(w, r, ps, "CancelLesson", h.coordinator.CancelLesson)
}

func (h *BookingHandler) MarkNoShow(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.transition(w, r, ps, "MarkNoShow", h.coordinator.MarkNoShow)
}

func (h *BookingHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	ps httprouter.Params,
	name string,
	apply func(ctx context.Context, lessonID string, expectedVersion int64) (*model.Lesson, error),
) {
	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", name, "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	lesson, err := apply(r.Context(), ps.ByName("id"), req.ExpectedVersion)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", name, "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, lesson); err != nil {
		h.log.Error("failed to write success response", "handler", name, "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/v1/bookings", h.RequestBooking)
	router.POST("/v1/bookings/:holdId/confirm", h.ConfirmBooking)
	router.DELETE("/v1/bookings/:holdId", h.ReleaseHold)
	router.GET("/v1/lessons/:id", h.GetLesson)
	router.POST("/v1/lessons/:id/start", h.StartLesson)
	router.POST("/v1/lessons/:id/complete", h.CompleteLesson)
	router.POST("/v1/lessons/:id/cancel", h.CancelLesson)
	router.POST("/v1/lessons/:id/no-show", h.MarkNoShow)
}
