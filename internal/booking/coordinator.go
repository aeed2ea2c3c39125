package booking

import (
	"context"
	"sync"
	"time"

	"drivero/internal/ports"
	"drivero/internal/presence"
	apperrors "drivero/pkg/errors"
	"drivero/pkg/logger"
	"drivero/pkg/model"

	"github.com/google/uuid"
)

// Notification event kinds consumed by the surrounding application.
const (
	EventHoldCreated     = "booking.hold_created"
	EventHoldExpired     = "booking.hold_expired"
	EventHoldReleased    = "booking.hold_released"
	EventLessonConfirmed = "lesson.confirmed"
	EventLessonStarted   = "lesson.started"
	EventLessonCompleted = "lesson.completed"
	EventLessonCancelled = "lesson.cancelled"
	EventLessonNoShow    = "lesson.no_show"
	EventCancellationFee = "lesson.cancellation_fee"
)

// HoldStore mirrors live holds into the durable store so a second process
// cannot win a slot this one is holding. Insert must fail with SlotConflict
// on a duplicate slot key.
type HoldStore interface {
	Insert(ctx context.Context, hold *model.SlotHold) error
	Delete(ctx context.Context, holdID string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// EventFunc receives lesson lifecycle events for publishing.
type EventFunc func(event model.LessonEvent)

type Config struct {
	HoldExpiry              time.Duration
	CancellationGraceWindow time.Duration
	NoShowGraceWindow       time.Duration
}

// Coordinator owns the lesson lifecycle state machine. The hold table
// arbitrates concurrent booking attempts; the persistence port's version
// check linearizes every later transition.
type Coordinator struct {
	cfg       Config
	holds     *HoldTable
	holdStore HoldStore
	store     ports.PersistencePort
	notifier  ports.NotificationPort
	chat      ports.ChatPort
	tracker   *presence.Tracker
	validator *RequestValidator
	publish   EventFunc
	log       *logger.Logger
	now       func() time.Time

	// holdID -> lessonID for holds already confirmed, so a repeated
	// confirm returns the same lesson instead of NotFound.
	confirmedMu sync.RWMutex
	confirmed   map[string]string

	// Tombstones for holds reaped by expiry. Without them a confirm
	// arriving after the sweep would see NotFound instead of HoldExpired,
	// and the client would lose the restart-the-booking signal.
	expiredMu sync.RWMutex
	expired   map[string]struct{}
}

func NewCoordinator(
	cfg Config,
	holds *HoldTable,
	holdStore HoldStore,
	store ports.PersistencePort,
	notifier ports.NotificationPort,
	chat ports.ChatPort,
	tracker *presence.Tracker,
	validator *RequestValidator,
	publish EventFunc,
	log *logger.Logger,
) *Coordinator {
	return &Coordinator{
		cfg:       cfg,
		holds:     holds,
		holdStore: holdStore,
		store:     store,
		notifier:  notifier,
		chat:      chat,
		tracker:   tracker,
		validator: validator,
		publish:   publish,
		log:       log,
		now:       time.Now,
		confirmed: make(map[string]string),
		expired:   make(map[string]struct{}),
	}
}

// RequestBooking arbitrates a booking attempt. Exactly one of any set of
// concurrent requests for an overlapping (instructor, slot) wins a hold;
// the rest receive SlotConflict.
func (c *Coordinator) RequestBooking(ctx context.Context, req model.BookingRequest) (*model.SlotHold, error) {
	if err := c.validator.Validate(&req); err != nil {
		c.log.Warn("Booking request validation failed", "error", err)
		return nil, apperrors.Validation("Invalid booking request", map[string]any{"error": err.Error()})
	}

	now := c.now()
	if !c.tracker.IsAvailable(req.InstructorID, now) {
		return nil, apperrors.SlotConflict("instructor is not available")
	}

	hold := &model.SlotHold{
		HoldID:       uuid.New().String(),
		InstructorID: req.InstructorID,
		StudentID:    req.StudentID,
		Slot:         req.Slot,
		RequestID:    req.RequestID,
		ExpiresAt:    now.Add(c.cfg.HoldExpiry),
		CreatedAt:    now,
	}

	if err := c.holds.Acquire(hold, now); err != nil {
		return nil, err
	}

	// The durable mirror closes the multi-process window. On failure the
	// in-memory hold is rolled back so the slot is not wedged.
	if c.holdStore != nil {
		if err := c.holdStore.Insert(ctx, hold); err != nil {
			if taken, takeErr := c.holds.Take(hold.HoldID, now); takeErr == nil && taken != nil {
				c.log.Debug("Rolled back in-memory hold after store rejection", "hold_id", hold.HoldID)
			}
			return nil, err
		}
	}

	c.log.Info("Slot hold created",
		"hold_id", hold.HoldID,
		"instructor_id", hold.InstructorID,
		"student_id", hold.StudentID,
		"expires_at", hold.ExpiresAt,
	)
	c.notify(ctx, hold.StudentID, EventHoldCreated, map[string]any{
		"hold_id":    hold.HoldID,
		"expires_at": hold.ExpiresAt,
	})
	return hold, nil
}

// ConfirmBooking turns a live hold into a durable Confirmed lesson. The
// transition commits only if the durable write succeeds; on store failure
// the hold is restored and the caller retries the whole confirm.
func (c *Coordinator) ConfirmBooking(ctx context.Context, holdID string) (*model.Lesson, error) {
	now := c.now()

	hold, err := c.holds.Take(holdID, now)
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeHoldExpired) {
			c.rememberExpired(holdID)
			c.deleteHoldMirror(ctx, holdID)
			return nil, err
		}
		// Repeated confirm of an already-confirmed hold is idempotent.
		if lessonID, ok := c.confirmedLesson(holdID); ok {
			return c.store.LoadLesson(ctx, lessonID)
		}
		// The sweeper may have reaped the hold before this confirm
		// arrived; the caller still gets the expiry signal, not a 404.
		if c.isExpired(holdID) {
			return nil, apperrors.HoldExpired(holdID)
		}
		return nil, err
	}

	lesson := &model.Lesson{
		ID:           uuid.New().String(),
		StudentID:    hold.StudentID,
		InstructorID: hold.InstructorID,
		Slot:         hold.Slot,
		State:        model.LessonConfirmed,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := c.store.SaveLesson(ctx, lesson); err != nil {
		// All-or-nothing: an unconfirmed durable write must not eat the
		// hold. Restore unless it lapsed while we were trying.
		if !hold.Expired(c.now()) {
			c.holds.Restore(hold)
		}
		c.log.Error("Lesson persistence failed, hold restored",
			"hold_id", holdID,
			"error", err,
		)
		return nil, apperrors.DownstreamUnavailable("lesson store", err)
	}

	c.rememberConfirmed(holdID, lesson.ID)
	c.deleteHoldMirror(ctx, holdID)
	c.tracker.MarkBusy(lesson.InstructorID)

	c.emit(lesson, now)
	c.notify(ctx, lesson.StudentID, EventLessonConfirmed, lessonPayload(lesson))
	c.notify(ctx, lesson.InstructorID, EventLessonConfirmed, lessonPayload(lesson))

	if err := c.chat.OpenChannel(ctx, lesson.StudentID, lesson.InstructorID, lesson.ID); err != nil {
		c.log.Warn("Chat channel creation failed",
			"lesson_id", lesson.ID,
			"error", err,
		)
	}

	c.log.Info("Booking confirmed",
		"lesson_id", lesson.ID,
		"hold_id", holdID,
		"instructor_id", lesson.InstructorID,
		"student_id", lesson.StudentID,
	)
	return lesson, nil
}

// ReleaseHold abandons a hold before confirmation (Holding -> Cancelled).
func (c *Coordinator) ReleaseHold(ctx context.Context, holdID string) error {
	now := c.now()

	hold, err := c.holds.Take(holdID, now)
	if err != nil && !apperrors.IsCode(err, apperrors.CodeHoldExpired) {
		return err
	}
	if err != nil {
		c.rememberExpired(holdID)
	}
	c.deleteHoldMirror(ctx, holdID)

	if hold != nil {
		c.notify(ctx, hold.StudentID, EventHoldReleased, map[string]any{"hold_id": holdID})
	}
	return nil
}

// StartLesson transitions Confirmed -> InProgress once the slot has begun.
func (c *Coordinator) StartLesson(ctx context.Context, lessonID string, expectedVersion int64) (*model.Lesson, error) {
	lesson, err := c.loadForTransition(ctx, lessonID, model.LessonInProgress)
	if err != nil {
		return nil, err
	}
	if c.now().Before(lesson.Slot.Start) {
		return nil, apperrors.InvalidInput("lesson cannot start before its slot")
	}

	updated, err := c.store.UpdateLessonState(ctx, lessonID, expectedVersion, model.LessonInProgress)
	if err != nil {
		return nil, err
	}

	c.emit(updated, c.now())
	c.notify(ctx, updated.StudentID, EventLessonStarted, lessonPayload(updated))
	c.notify(ctx, updated.InstructorID, EventLessonStarted, lessonPayload(updated))
	return updated, nil
}

// CompleteLesson transitions InProgress -> Completed and frees the
// instructor.
func (c *Coordinator) CompleteLesson(ctx context.Context, lessonID string, expectedVersion int64) (*model.Lesson, error) {
	if _, err := c.loadForTransition(ctx, lessonID, model.LessonCompleted); err != nil {
		return nil, err
	}

	updated, err := c.store.UpdateLessonState(ctx, lessonID, expectedVersion, model.LessonCompleted)
	if err != nil {
		return nil, err
	}

	c.tracker.MarkAvailable(updated.InstructorID)
	c.emit(updated, c.now())
	c.notify(ctx, updated.StudentID, EventLessonCompleted, lessonPayload(updated))
	c.notify(ctx, updated.InstructorID, EventLessonCompleted, lessonPayload(updated))
	return updated, nil
}

// CancelLesson transitions Confirmed/InProgress -> Cancelled. Fee math is
// the billing collaborator's concern; inside the policy window the
// coordinator only flags that a fee applies.
func (c *Coordinator) CancelLesson(ctx context.Context, lessonID string, expectedVersion int64) (*model.Lesson, error) {
	lesson, err := c.loadForTransition(ctx, lessonID, model.LessonCancelled)
	if err != nil {
		return nil, err
	}

	updated, err := c.store.UpdateLessonState(ctx, lessonID, expectedVersion, model.LessonCancelled)
	if err != nil {
		return nil, err
	}

	c.tracker.MarkAvailable(updated.InstructorID)
	c.emit(updated, c.now())
	c.notify(ctx, updated.StudentID, EventLessonCancelled, lessonPayload(updated))
	c.notify(ctx, updated.InstructorID, EventLessonCancelled, lessonPayload(updated))

	if c.withinCancellationWindow(lesson) {
		c.notify(ctx, updated.StudentID, EventCancellationFee, lessonPayload(updated))
	}
	return updated, nil
}

// MarkNoShow transitions Confirmed/InProgress -> NoShow after the grace
// window past slot start has lapsed without a check-in.
func (c *Coordinator) MarkNoShow(ctx context.Context, lessonID string, expectedVersion int64) (*model.Lesson, error) {
	lesson, err := c.loadForTransition(ctx, lessonID, model.LessonNoShow)
	if err != nil {
		return nil, err
	}
	if c.now().Before(lesson.Slot.Start.Add(c.cfg.NoShowGraceWindow)) {
		return nil, apperrors.InvalidInput("no-show grace window has not lapsed")
	}

	updated, err := c.store.UpdateLessonState(ctx, lessonID, expectedVersion, model.LessonNoShow)
	if err != nil {
		return nil, err
	}

	c.tracker.MarkAvailable(updated.InstructorID)
	c.emit(updated, c.now())
	c.notify(ctx, updated.StudentID, EventLessonNoShow, lessonPayload(updated))
	c.notify(ctx, updated.InstructorID, EventLessonNoShow, lessonPayload(updated))
	return updated, nil
}

// GetLesson loads a lesson from the durable store.
func (c *Coordinator) GetLesson(ctx context.Context, lessonID string) (*model.Lesson, error) {
	if lessonID == "" {
		return nil, apperrors.InvalidInput("Lesson ID cannot be empty")
	}
	return c.store.LoadLesson(ctx, lessonID)
}

// SweepExpiredHolds drops lapsed holds and notifies their requesters.
// Expiry is also enforced lazily at confirm time, so the sweep only bounds
// how long a dead hold lingers.
func (c *Coordinator) SweepExpiredHolds(ctx context.Context) int {
	now := c.now()
	expired := c.holds.SweepExpired(now)

	for _, hold := range expired {
		c.rememberExpired(hold.HoldID)
		c.deleteHoldMirror(ctx, hold.HoldID)
		c.notify(ctx, hold.StudentID, EventHoldExpired, map[string]any{
			"hold_id":       hold.HoldID,
			"instructor_id": hold.InstructorID,
		})
	}

	if c.holdStore != nil {
		if _, err := c.holdStore.DeleteExpired(ctx, now); err != nil {
			c.log.Warn("Durable hold cleanup failed", "error", err)
		}
	}
	return len(expired)
}

// --- Helpers ---

var allowedTransitions = map[model.LessonState][]model.LessonState{
	model.LessonConfirmed:  {model.LessonInProgress, model.LessonCancelled, model.LessonNoShow},
	model.LessonInProgress: {model.LessonCompleted, model.LessonCancelled, model.LessonNoShow},
}

func canTransition(from, to model.LessonState) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func (c *Coordinator) loadForTransition(ctx context.Context, lessonID string, to model.LessonState) (*model.Lesson, error) {
	if lessonID == "" {
		return nil, apperrors.InvalidInput("Lesson ID cannot be empty")
	}
	lesson, err := c.store.LoadLesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	if !canTransition(lesson.State, to) {
		return nil, apperrors.InvalidInput(
			"lesson in state " + string(lesson.State) + " cannot transition to " + string(to),
		)
	}
	return lesson, nil
}

func (c *Coordinator) withinCancellationWindow(lesson *model.Lesson) bool {
	return c.now().After(lesson.Slot.Start.Add(-c.cfg.CancellationGraceWindow))
}

func (c *Coordinator) rememberConfirmed(holdID, lessonID string) {
	c.confirmedMu.Lock()
	c.confirmed[holdID] = lessonID
	c.confirmedMu.Unlock()
}

func (c *Coordinator) confirmedLesson(holdID string) (string, bool) {
	c.confirmedMu.RLock()
	defer c.confirmedMu.RUnlock()
	lessonID, ok := c.confirmed[holdID]
	return lessonID, ok
}

func (c *Coordinator) rememberExpired(holdID string) {
	c.expiredMu.Lock()
	c.expired[holdID] = struct{}{}
	c.expiredMu.Unlock()
}

func (c *Coordinator) isExpired(holdID string) bool {
	c.expiredMu.RLock()
	defer c.expiredMu.RUnlock()
	_, ok := c.expired[holdID]
	return ok
}

func (c *Coordinator) deleteHoldMirror(ctx context.Context, holdID string) {
	if c.holdStore == nil {
		return
	}
	if err := c.holdStore.Delete(ctx, holdID); err != nil {
		c.log.Warn("Failed to delete durable hold mirror", "hold_id", holdID, "error", err)
	}
}

// notify is fire-and-forget: delivery failures are logged, never surfaced.
func (c *Coordinator) notify(ctx context.Context, userID, eventKind string, payload map[string]any) {
	if c.notifier == nil {
		return
	}
	if err := c.notifier.Notify(ctx, userID, eventKind, payload); err != nil {
		c.log.Warn("Notification delivery failed",
			"user_id", userID,
			"event_kind", eventKind,
			"error", err,
		)
	}
}

func (c *Coordinator) emit(lesson *model.Lesson, at time.Time) {
	if c.publish == nil {
		return
	}
	c.publish(model.LessonEvent{
		LessonID:     lesson.ID,
		StudentID:    lesson.StudentID,
		InstructorID: lesson.InstructorID,
		State:        lesson.State,
		Version:      lesson.Version,
		OccurredAt:   at,
	})
}

func lessonPayload(lesson *model.Lesson) map[string]any {
	return map[string]any{
		"lesson_id":     lesson.ID,
		"instructor_id": lesson.InstructorID,
		"student_id":    lesson.StudentID,
		"state":         lesson.State,
		"slot_start":    lesson.Slot.Start,
		"slot_duration": lesson.Slot.Duration.String(),
		"version":       lesson.Version,
	}
}
