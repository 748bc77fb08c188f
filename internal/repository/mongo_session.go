package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/onlytraining/trainsync/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoSessionRepository struct {
	collection *mongo.Collection
}

func NewMongoSessionRepository(db *mongo.Database) *MongoSessionRepository {
	return &MongoSessionRepository{
		collection: db.Collection("workout_sessions"),
	}
}

func (r *MongoSessionRepository) Create(ctx context.Context, session *domain.WorkoutSession) error {
	session.CreatedAt = time.Now()
	session.UpdatedAt = time.Now()

	if _, err := r.collection.InsertOne(ctx, session); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *MongoSessionRepository) ListInProgress(ctx context.Context, userID string) ([]*domain.WorkoutSession, error) {
	return r.listByStatus(ctx, userID, domain.SessionInProgress, bson.D{{Key: "started_at", Value: -1}})
}

func (r *MongoSessionRepository) ListFinished(ctx context.Context, userID string) ([]*domain.WorkoutSession, error) {
	return r.listByStatus(ctx, userID, domain.SessionFinished, bson.D{{Key: "ended_at", Value: -1}})
}

func (r *MongoSessionRepository) listByStatus(ctx context.Context, userID string, status domain.SessionStatus, sort bson.D) ([]*domain.WorkoutSession, error) {
	filter := bson.M{"user_id": userID, "status": status}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sessions []*domain.WorkoutSession
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *MongoSessionRepository) Finish(ctx context.Context, id string, endedAt time.Time, durationSeconds int) error {
	update := bson.M{
		"$set": bson.M{
			"status":           domain.SessionFinished,
			"ended_at":         endedAt,
			"duration_seconds": durationSeconds,
			"updated_at":       time.Now(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to finish session: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (r *MongoSessionRepository) FinishAllInProgress(ctx context.Context, userID string, endedAt time.Time) error {
	filter := bson.M{"user_id": userID, "status": domain.SessionInProgress}
	update := bson.M{
		"$set": bson.M{
			"status":     domain.SessionFinished,
			"ended_at":   endedAt,
			"updated_at": time.Now(),
		},
	}

	_, err := r.collection.UpdateMany(ctx, filter, update)
	return err
}

func (r *MongoSessionRepository) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	return err
}
