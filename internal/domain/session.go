package domain

import (
	"context"
	"time"
)

type SessionStatus string

const (
	SessionInProgress SessionStatus = "in_progress"
	SessionFinished   SessionStatus = "finished"
)

// WorkoutSession is a single timed workout-in-progress record. The workout's
// name and focus are snapshotted at start time so the session survives later
// edits or deletion of the workout itself (WorkoutID goes nil on delete).
//
// Invariant: at most one in_progress session exists per user at any time.
type WorkoutSession struct {
	ID                   string        `json:"id" bson:"_id,omitempty"`
	UserID               string        `json:"user_id" bson:"user_id"`
	WorkoutID            *string       `json:"workout_id,omitempty" bson:"workout_id,omitempty"`
	WorkoutNameSnapshot  string        `json:"workout_name_snapshot" bson:"workout_name_snapshot"`
	WorkoutFocusSnapshot string        `json:"workout_focus_snapshot" bson:"workout_focus_snapshot"`
	Status               SessionStatus `json:"status" bson:"status"`
	StartedAt            time.Time     `json:"started_at" bson:"started_at"`
	EndedAt              *time.Time    `json:"ended_at,omitempty" bson:"ended_at,omitempty"`
	// DurationSeconds is authoritative only once Status is finished.
	DurationSeconds int       `json:"duration_seconds" bson:"duration_seconds"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" bson:"updated_at"`
}

// SessionItem is one exercise's live tracking record within a session.
// Title/notes/video/rest are frozen at session start so later edits to the
// workout definition never retroactively alter an in-progress or historical
// session. Immutable once the parent session is finished.
type SessionItem struct {
	ID            string     `json:"id" bson:"_id,omitempty"`
	SessionID     string     `json:"session_id" bson:"session_id"`
	UserID        string     `json:"user_id" bson:"user_id"`
	WorkoutItemID *string    `json:"workout_item_id,omitempty" bson:"workout_item_id,omitempty"`
	TitleSnapshot string     `json:"title_snapshot" bson:"title_snapshot"`
	NotesSnapshot string     `json:"notes_snapshot,omitempty" bson:"notes_snapshot,omitempty"`
	VideoURL      string     `json:"video_url,omitempty" bson:"video_url,omitempty"`
	RestSeconds   int        `json:"rest_seconds,omitempty" bson:"rest_seconds,omitempty"`
	Sets          int        `json:"sets,omitempty" bson:"sets,omitempty"`
	OrderIndex    int        `json:"order_index" bson:"order_index"`
	Weight        float64    `json:"weight,omitempty" bson:"weight,omitempty"`
	Reps          string     `json:"reps,omitempty" bson:"reps,omitempty"`
	IsDone        bool       `json:"is_done" bson:"is_done"`
	DoneAt        *time.Time `json:"done_at,omitempty" bson:"done_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at" bson:"created_at"`
}

// SessionWithItems is a finished session joined with its items, used by the
// history view.
type SessionWithItems struct {
	WorkoutSession `bson:",inline"`
	Items          []*SessionItem `json:"items" bson:"items"`
}

type SessionRepository interface {
	Create(ctx context.Context, session *WorkoutSession) error
	// ListInProgress returns the user's in_progress sessions ordered by
	// started_at descending.
	ListInProgress(ctx context.Context, userID string) ([]*WorkoutSession, error)
	// ListFinished returns the user's finished sessions ordered by ended_at
	// descending.
	ListFinished(ctx context.Context, userID string) ([]*WorkoutSession, error)
	// Finish marks one session finished with the given end time and duration.
	Finish(ctx context.Context, id string, endedAt time.Time, durationSeconds int) error
	// FinishAllInProgress marks every in_progress session of the user
	// finished. Duration is left as last recorded.
	FinishAllInProgress(ctx context.Context, userID string, endedAt time.Time) error
	Delete(ctx context.Context, ids ...string) error
}

type SessionItemRepository interface {
	CreateMany(ctx context.Context, items []*SessionItem) error
	// ListBySession returns items ordered by order_index ascending.
	ListBySession(ctx context.Context, sessionID string) ([]*SessionItem, error)
	ListBySessions(ctx context.Context, sessionIDs []string) ([]*SessionItem, error)
	SetDone(ctx context.Context, id string, isDone bool, doneAt *time.Time) error
	SetStats(ctx context.Context, id string, weight float64, reps string) error
	DeleteBySessions(ctx context.Context, sessionIDs ...string) error
}
