package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestConstructorStatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantCode   string
		wantStatus int
	}{
		{"not found", NotFound("Lesson"), CodeNotFound, http.StatusNotFound},
		{"not found with id", NotFoundWithID("Hold", "h-1"), CodeNotFound, http.StatusNotFound},
		{"validation", Validation("bad request", nil), CodeValidation, http.StatusUnprocessableEntity},
		{"invalid input", InvalidInput("radius must be positive"), CodeInvalidInput, http.StatusBadRequest},
		{"slot conflict", SlotConflict("slot held"), CodeSlotConflict, http.StatusConflict},
		{"hold expired", HoldExpired("h-1"), CodeHoldExpired, http.StatusGone},
		{"stale state", StaleState("l-1", 3), CodeStaleState, http.StatusConflict},
		{"downstream", DownstreamUnavailable("lesson store", errors.New("timeout")), CodeDownstream, http.StatusServiceUnavailable},
		{"internal", Internal("boom", nil), CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("Code = %s, want %s", tt.err.Code, tt.wantCode)
			}
			if tt.err.StatusCode() != tt.wantStatus {
				t.Errorf("StatusCode() = %d, want %d", tt.err.StatusCode(), tt.wantStatus)
			}
		})
	}
}

func TestErrorStringIncludesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := DownstreamUnavailable("hold store", cause)

	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("Error() should include the cause: %s", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("wrapped cause should be reachable via errors.Is")
	}
}

func TestNotFoundWithIDDetails(t *testing.T) {
	err := NotFoundWithID("Lesson", "l-42")
	if err.Details["id"] != "l-42" || err.Details["resource"] != "Lesson" {
		t.Errorf("unexpected details: %v", err.Details)
	}
}

func TestHoldExpiredDetails(t *testing.T) {
	err := HoldExpired("h-7")
	if err.Details["hold_id"] != "h-7" {
		t.Errorf("unexpected details: %v", err.Details)
	}
}

func TestStaleStateDetails(t *testing.T) {
	err := StaleState("l-1", int64(4))
	if err.Details["lesson_id"] != "l-1" {
		t.Errorf("unexpected details: %v", err.Details)
	}
	if err.Details["expected_version"] != int64(4) {
		t.Errorf("unexpected expected_version: %v", err.Details["expected_version"])
	}
}

func TestIsCode(t *testing.T) {
	err := SlotConflict("held")
	if !IsCode(err, CodeSlotConflict) {
		t.Error("IsCode should match the error's code")
	}
	if IsCode(err, CodeNotFound) {
		t.Error("IsCode should not match a different code")
	}
	if IsCode(errors.New("plain"), CodeInternal) {
		t.Error("IsCode should be false for non-app errors")
	}
	if IsCode(nil, CodeInternal) {
		t.Error("IsCode should be false for nil")
	}
}

func TestAsAppErrorWrapsUnknown(t *testing.T) {
	plain := errors.New("disk full")
	appErr := AsAppError(plain)

	if appErr.Code != CodeInternal {
		t.Errorf("unknown errors should map to INTERNAL_ERROR, got %s", appErr.Code)
	}
	if appErr.StatusCode() != http.StatusInternalServerError {
		t.Errorf("unexpected status %d", appErr.StatusCode())
	}
	if !errors.Is(appErr, plain) {
		t.Error("original error should be preserved as the cause")
	}
}

func TestAsAppErrorPassthrough(t *testing.T) {
	orig := InvalidInput("bad")
	if got := AsAppError(orig); got != orig {
		t.Error("AppError should pass through unchanged")
	}
}

func TestWithDetails(t *testing.T) {
	err := InvalidInput("bad").WithDetails(map[string]any{"field": "radius"})
	if err.Details["field"] != "radius" {
		t.Errorf("unexpected details: %v", err.Details)
	}
}

func TestToJSON(t *testing.T) {
	err := SlotConflict("slot held").WithDetails(map[string]any{"instructor_id": "i-1"})
	payload := string(err.ToJSON())

	for _, fragment := range []string{CodeSlotConflict, "slot held", "i-1"} {
		if !strings.Contains(payload, fragment) {
			t.Errorf("JSON missing %q: %s", fragment, payload)
		}
	}
}

func TestErrorAsTarget(t *testing.T) {
	var appErr *AppError
	wrapped := fmt.Errorf("handler: %w", HoldExpired("h-1"))
	if !errors.As(wrapped, &appErr) {
		t.Fatal("errors.As should find the AppError through wrapping")
	}
	if appErr.Code != CodeHoldExpired {
		t.Errorf("unexpected code %s", appErr.Code)
	}
}
