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

type MongoWorkoutItemRepository struct {
	collection *mongo.Collection
}

func NewMongoWorkoutItemRepository(db *mongo.Database) *MongoWorkoutItemRepository {
	return &MongoWorkoutItemRepository{
		collection: db.Collection("workout_items"),
	}
}

func (r *MongoWorkoutItemRepository) Create(ctx context.Context, item *domain.WorkoutItem) error {
	item.CreatedAt = time.Now()
	item.UpdatedAt = time.Now()

	if _, err := r.collection.InsertOne(ctx, item); err != nil {
		return fmt.Errorf("failed to create workout item: %w", err)
	}
	return nil
}

func (r *MongoWorkoutItemRepository) ListByWorkout(ctx context.Context, workoutID string) ([]*domain.WorkoutItem, error) {
	opts := options.Find().SetSort(bson.D{{Key: "order_index", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{"workout_id": workoutID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var items []*domain.WorkoutItem
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *MongoWorkoutItemRepository) Update(ctx context.Context, item *domain.WorkoutItem) error {
	item.UpdatedAt = time.Now()

	update := bson.M{
		"$set": bson.M{
			"title":          item.Title,
			"default_reps":   item.DefaultReps,
			"default_sets":   item.DefaultSets,
			"rest_seconds":   item.RestSeconds,
			"notes":          item.Notes,
			"video_url":      item.VideoURL,
			"default_weight": item.DefaultWeight,
			"order_index":    item.OrderIndex,
			"updated_at":     item.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": item.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return domain.ErrWorkoutItemNotFound
	}
	return nil
}

func (r *MongoWorkoutItemRepository) Delete(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *MongoWorkoutItemRepository) DeleteByWorkout(ctx context.Context, workoutID string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"workout_id": workoutID})
	return err
}

func (r *MongoWorkoutItemRepository) SetDefaultWeight(ctx context.Context, id string, weight float64) error {
	update := bson.M{
		"$set": bson.M{
			"default_weight": weight,
			"updated_at":     time.Now(),
		},
	}

	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}
