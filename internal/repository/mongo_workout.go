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

type MongoWorkoutRepository struct {
	collection *mongo.Collection
}

func NewMongoWorkoutRepository(db *mongo.Database) *MongoWorkoutRepository {
	return &MongoWorkoutRepository{
		collection: db.Collection("workouts"),
	}
}

func (r *MongoWorkoutRepository) Create(ctx context.Context, workout *domain.Workout) error {
	workout.CreatedAt = time.Now()
	workout.UpdatedAt = time.Now()

	// IDs are ULIDs generated client-side so records can be created while the
	// remote store is unreachable.
	if _, err := r.collection.InsertOne(ctx, workout); err != nil {
		return fmt.Errorf("failed to create workout: %w", err)
	}
	return nil
}

func (r *MongoWorkoutRepository) GetByID(ctx context.Context, id string) (*domain.Workout, error) {
	var workout domain.Workout
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&workout)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrWorkoutNotFound
		}
		return nil, err
	}
	return &workout, nil
}

func (r *MongoWorkoutRepository) ListByUser(ctx context.Context, userID string, archived bool) ([]*domain.Workout, error) {
	filter := bson.M{"user_id": userID, "is_archived": archived}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var workouts []*domain.Workout
	if err := cursor.All(ctx, &workouts); err != nil {
		return nil, err
	}
	return workouts, nil
}

func (r *MongoWorkoutRepository) CountArchived(ctx context.Context, userID string) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"user_id": userID, "is_archived": true})
}

func (r *MongoWorkoutRepository) SetArchived(ctx context.Context, id string, archived bool) error {
	update := bson.M{
		"$set": bson.M{
			"is_archived": archived,
			"updated_at":  time.Now(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return domain.ErrWorkoutNotFound
	}
	return nil
}

func (r *MongoWorkoutRepository) Delete(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
