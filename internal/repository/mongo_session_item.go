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

type MongoSessionItemRepository struct {
	collection *mongo.Collection
}

func NewMongoSessionItemRepository(db *mongo.Database) *MongoSessionItemRepository {
	return &MongoSessionItemRepository{
		collection: db.Collection("session_items"),
	}
}

func (r *MongoSessionItemRepository) CreateMany(ctx context.Context, items []*domain.SessionItem) error {
	if len(items) == 0 {
		return nil
	}

	docs := make([]interface{}, len(items))
	for i, item := range items {
		item.CreatedAt = time.Now()
		docs[i] = item
	}

	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to create session items: %w", err)
	}
	return nil
}

func (r *MongoSessionItemRepository) ListBySession(ctx context.Context, sessionID string) ([]*domain.SessionItem, error) {
	return r.list(ctx, bson.M{"session_id": sessionID})
}

func (r *MongoSessionItemRepository) ListBySessions(ctx context.Context, sessionIDs []string) ([]*domain.SessionItem, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}
	return r.list(ctx, bson.M{"session_id": bson.M{"$in": sessionIDs}})
}

func (r *MongoSessionItemRepository) list(ctx context.Context, filter bson.M) ([]*domain.SessionItem, error) {
	opts := options.Find().SetSort(bson.D{{Key: "order_index", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var items []*domain.SessionItem
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *MongoSessionItemRepository) SetDone(ctx context.Context, id string, isDone bool, doneAt *time.Time) error {
	update := bson.M{
		"$set": bson.M{
			"is_done": isDone,
			"done_at": doneAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return domain.ErrSessionItemNotFound
	}
	return nil
}

func (r *MongoSessionItemRepository) SetStats(ctx context.Context, id string, weight float64, reps string) error {
	update := bson.M{
		"$set": bson.M{
			"weight": weight,
			"reps":   reps,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return domain.ErrSessionItemNotFound
	}
	return nil
}

func (r *MongoSessionItemRepository) DeleteBySessions(ctx context.Context, sessionIDs ...string) error {
	if len(sessionIDs) == 0 {
		return nil
	}
	_, err := r.collection.DeleteMany(ctx, bson.M{"session_id": bson.M{"$in": sessionIDs}})
	return err
}
