package domain

import (
	"context"
	"time"
)

// Workout is a reusable exercise-plan definition owned by a single user.
type Workout struct {
	ID         string    `json:"id" bson:"_id,omitempty"`
	UserID     string    `json:"user_id" bson:"user_id"`
	Name       string    `json:"name" bson:"name"`
	Focus      string    `json:"focus" bson:"focus"` // e.g., "Legs", "Push", "Full Body"
	Notes      string    `json:"notes,omitempty" bson:"notes,omitempty"`
	IsArchived bool      `json:"is_archived" bson:"is_archived"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" bson:"updated_at"`
}

// WorkoutWithStats annotates a workout with completion stats derived from
// finished sessions.
type WorkoutWithStats struct {
	Workout         `bson:",inline"`
	CompletedCount  int        `json:"completed_count" bson:"completed_count"`
	LastCompletedAt *time.Time `json:"last_completed_at,omitempty" bson:"last_completed_at,omitempty"`
}

// WorkoutItem is one exercise entry within a workout definition.
// DefaultReps is a free-form string so rep schemes like "15/14/13/12" survive.
type WorkoutItem struct {
	ID            string    `json:"id" bson:"_id,omitempty"`
	WorkoutID     string    `json:"workout_id" bson:"workout_id"`
	UserID        string    `json:"user_id" bson:"user_id"`
	Title         string    `json:"title" bson:"title"`
	DefaultReps   string    `json:"default_reps,omitempty" bson:"default_reps,omitempty"`
	DefaultSets   int       `json:"default_sets,omitempty" bson:"default_sets,omitempty"`
	RestSeconds   int       `json:"rest_seconds,omitempty" bson:"rest_seconds,omitempty"`
	Notes         string    `json:"notes,omitempty" bson:"notes,omitempty"`
	VideoURL      string    `json:"video_url,omitempty" bson:"video_url,omitempty"`
	DefaultWeight float64   `json:"default_weight,omitempty" bson:"default_weight,omitempty"`
	OrderIndex    int       `json:"order_index" bson:"order_index"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at"`
}

// WorkoutItemUpdate carries a partial edit; nil fields are left untouched.
type WorkoutItemUpdate struct {
	Title       *string  `json:"title,omitempty"`
	DefaultReps *string  `json:"default_reps,omitempty"`
	DefaultSets *int     `json:"default_sets,omitempty"`
	RestSeconds *int     `json:"rest_seconds,omitempty"`
	Notes       *string  `json:"notes,omitempty"`
	VideoURL    *string  `json:"video_url,omitempty"`
	Weight      *float64 `json:"default_weight,omitempty"`
}

type WorkoutRepository interface {
	Create(ctx context.Context, workout *Workout) error
	GetByID(ctx context.Context, id string) (*Workout, error)
	// ListByUser returns the user's workouts with the given archived flag,
	// newest first.
	ListByUser(ctx context.Context, userID string, archived bool) ([]*Workout, error)
	CountArchived(ctx context.Context, userID string) (int64, error)
	SetArchived(ctx context.Context, id string, archived bool) error
	Delete(ctx context.Context, id string) error
}

type WorkoutItemRepository interface {
	Create(ctx context.Context, item *WorkoutItem) error
	// ListByWorkout returns items ordered by order_index ascending.
	ListByWorkout(ctx context.Context, workoutID string) ([]*WorkoutItem, error)
	Update(ctx context.Context, item *WorkoutItem) error
	Delete(ctx context.Context, id string) error
	// DeleteByWorkout removes every item of a workout, used when the workout
	// itself is deleted.
	DeleteByWorkout(ctx context.Context, workoutID string) error
	// SetDefaultWeight back-fills an item's default weight from a completed
	// session.
	SetDefaultWeight(ctx context.Context, id string, weight float64) error
}
