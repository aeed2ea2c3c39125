package mongostore

import (
	"context"
	"errors"
	"time"

	"drivero/internal/ports"
	"drivero/pkg/config"
	apperrors "drivero/pkg/errors"
	"drivero/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const lessonsCollection = "Lessons"

type lessonRepository struct {
	collection *mongo.Collection
}

// NewLessonRepository returns the Mongo-backed PersistencePort. The version
// check in UpdateLessonState is a conditional write, so concurrent
// transitions cannot both succeed even across processes.
func NewLessonRepository(cfg *config.Config) ports.PersistencePort {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &lessonRepository{
		collection: db.Collection(lessonsCollection),
	}
}

func (r *lessonRepository) SaveLesson(ctx context.Context, lesson *model.Lesson) error {
	if _, err := r.collection.InsertOne(ctx, lesson); err != nil {
		return apperrors.DownstreamUnavailable("lesson store", err)
	}
	return nil
}

func (r *lessonRepository) LoadLesson(ctx context.Context, lessonID string) (*model.Lesson, error) {
	var lesson model.Lesson
	err := r.collection.FindOne(ctx, bson.M{"_id": lessonID}).Decode(&lesson)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFoundWithID("Lesson", lessonID)
		}
		return nil, apperrors.DownstreamUnavailable("lesson store", err)
	}
	return &lesson, nil
}

// UpdateLessonState applies the optimistic-concurrency transition: the
// filter matches on both ID and expected version, so a stale caller matches
// nothing and gets StaleState instead of silently overwriting.
func (r *lessonRepository) UpdateLessonState(ctx context.Context, lessonID string, expectedVersion int64, newState model.LessonState) (*model.Lesson, error) {
	filter := bson.M{
		"_id":     lessonID,
		"version": expectedVersion,
	}
	update := bson.M{
		"$set": bson.M{
			"state":      newState,
			"updated_at": time.Now(),
		},
		"$inc": bson.M{"version": 1},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated model.Lesson
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err == nil {
		return &updated, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.DownstreamUnavailable("lesson store", err)
	}

	// No match: either the lesson is gone or the version is stale.
	count, countErr := r.collection.CountDocuments(ctx, bson.M{"_id": lessonID})
	if countErr != nil {
		return nil, apperrors.DownstreamUnavailable("lesson store", countErr)
	}
	if count == 0 {
		return nil, apperrors.NotFoundWithID("Lesson", lessonID)
	}
	return nil, apperrors.StaleState(lessonID, expectedVersion)
}
