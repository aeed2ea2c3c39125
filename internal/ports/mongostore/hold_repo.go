package mongostore

import (
	"context"
	"fmt"
	"time"

	"drivero/internal/booking"
	"drivero/pkg/config"
	apperrors "drivero/pkg/errors"
	"drivero/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const holdsCollection = "Slot_holds"

type holdDocument struct {
	ID           string    `bson:"_id"`
	HoldID       string    `bson:"hold_id"`
	InstructorID string    `bson:"instructor_id"`
	StudentID    string    `bson:"student_id"`
	ExpiresAt    time.Time `bson:"expires_at"`
	CreatedAt    time.Time `bson:"created_at"`
}

type holdRepository struct {
	collection *mongo.Collection
}

// NewHoldRepository returns the durable hold mirror. Each hold inserts one
// lock document per time bucket its slot covers, so a duplicate-key error on
// insert is exactly a lost booking race in another process, even when the
// competing slots start at different times.
func NewHoldRepository(cfg *config.Config) booking.HoldStore {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &holdRepository{
		collection: db.Collection(holdsCollection),
	}
}

// slotLockQuantum is the bucket width of the durable lock. Two slots for the
// same instructor overlap in wall-clock time only if they share at least one
// bucket, because every covered bucket gets its own document.
const slotLockQuantum = 15 * time.Minute

func slotLockIDs(instructorID string, slot model.Slot) []string {
	start := slot.Start.Truncate(slotLockQuantum)
	end := slot.Start.Add(slot.Duration)

	ids := []string{fmt.Sprintf("hold_%s_%d", instructorID, start.Unix())}
	for t := start.Add(slotLockQuantum); t.Before(end); t = t.Add(slotLockQuantum) {
		ids = append(ids, fmt.Sprintf("hold_%s_%d", instructorID, t.Unix()))
	}
	return ids
}

func (r *holdRepository) Insert(ctx context.Context, hold *model.SlotHold) error {
	lockIDs := slotLockIDs(hold.InstructorID, hold.Slot)
	docs := make([]any, 0, len(lockIDs))
	for _, id := range lockIDs {
		docs = append(docs, holdDocument{
			ID:           id,
			HoldID:       hold.HoldID,
			InstructorID: hold.InstructorID,
			StudentID:    hold.StudentID,
			ExpiresAt:    hold.ExpiresAt,
			CreatedAt:    hold.CreatedAt,
		})
	}

	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		// Partial inserts must not wedge the slot for later requests.
		_, _ = r.collection.DeleteMany(ctx, bson.M{"hold_id": hold.HoldID})
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.SlotConflict("this instructor slot is currently held by another request")
		}
		return apperrors.DownstreamUnavailable("hold store", err)
	}
	return nil
}

func (r *holdRepository) Delete(ctx context.Context, holdID string) error {
	if _, err := r.collection.DeleteMany(ctx, bson.M{"hold_id": holdID}); err != nil {
		return apperrors.DownstreamUnavailable("hold store", err)
	}
	return nil
}

// DeleteExpired reaps lapsed mirrors. A TTL index on expires_at does the
// same server-side; this keeps the window tight between sweeps.
func (r *holdRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": now}})
	if err != nil {
		return 0, apperrors.DownstreamUnavailable("hold store", err)
	}
	return res.DeletedCount, nil
}
