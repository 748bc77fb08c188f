package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/onlytraining/trainsync/internal/domain"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const snapshotKeyPrefix = "trainsync:snapshot:"

// RedisSnapshotStore implements domain.SnapshotStore on the device-local
// Redis. Snapshots carry no TTL: they must survive arbitrary downtime so a
// session can be resumed after a full process restart.
type RedisSnapshotStore struct {
	client *redis.Client
}

func NewRedisSnapshotStore(client *redis.Client) *RedisSnapshotStore {
	return &RedisSnapshotStore{
		client: client,
	}
}

// Save serializes state to JSON and stores it under the fixed storage name.
func (r *RedisSnapshotStore) Save(ctx context.Context, name string, state any) error {
	tracer := otel.Tracer("redis")
	ctx, span := tracer.Start(ctx, "snapshot.Save",
		trace.WithAttributes(attribute.String("snapshot.name", name)),
	)
	defer span.End()

	data, err := json.Marshal(state)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to marshal snapshot %s: %w", name, err)
	}

	if err := r.client.Set(ctx, snapshotKeyPrefix+name, data, 0).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to save snapshot %s: %w", name, err)
	}
	return nil
}

// Load decodes the stored snapshot into dest; ErrSnapshotMiss when none.
func (r *RedisSnapshotStore) Load(ctx context.Context, name string, dest any) error {
	tracer := otel.Tracer("redis")
	ctx, span := tracer.Start(ctx, "snapshot.Load",
		trace.WithAttributes(attribute.String("snapshot.name", name)),
	)
	defer span.End()

	data, err := r.client.Get(ctx, snapshotKeyPrefix+name).Bytes()
	if err != nil {
		if err == redis.Nil {
			span.SetAttributes(attribute.String("snapshot.result", "miss"))
			return domain.ErrSnapshotMiss
		}
		span.RecordError(err)
		return fmt.Errorf("failed to load snapshot %s: %w", name, err)
	}

	span.SetAttributes(attribute.String("snapshot.result", "hit"))
	if err := json.Unmarshal(data, dest); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to unmarshal snapshot %s: %w", name, err)
	}
	return nil
}

func (r *RedisSnapshotStore) Clear(ctx context.Context, name string) error {
	tracer := otel.Tracer("redis")
	ctx, span := tracer.Start(ctx, "snapshot.Clear",
		trace.WithAttributes(attribute.String("snapshot.name", name)),
	)
	defer span.End()

	if err := r.client.Del(ctx, snapshotKeyPrefix+name).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to clear snapshot %s: %w", name, err)
	}
	return nil
}
