package domain

import (
	"fmt"
	"time"
)

// SyncActionKind enumerates the mutations that can be deferred while offline.
type SyncActionKind string

const (
	ActionToggleDone       SyncActionKind = "toggle_done"
	ActionUpdateStats      SyncActionKind = "update_stats"
	ActionFinishSession    SyncActionKind = "finish_session"
	ActionArchiveWorkout   SyncActionKind = "archive_workout"
	ActionUnarchiveWorkout SyncActionKind = "unarchive_workout"
	ActionDeleteWorkout    SyncActionKind = "delete_workout"
)

type ToggleDonePayload struct {
	IsDone bool       `json:"is_done"`
	DoneAt *time.Time `json:"done_at,omitempty"`
}

type UpdateStatsPayload struct {
	Weight float64 `json:"weight"`
	Reps   string  `json:"reps"`
}

type FinishSessionPayload struct {
	EndedAt         time.Time `json:"ended_at"`
	DurationSeconds int       `json:"duration_seconds"`
	// DefaultWeights maps workout item ids to the weight recorded during the
	// session, to be back-filled into each item's default_weight on replay.
	DefaultWeights map[string]float64 `json:"default_weights,omitempty"`
}

// SyncAction is one pending mutation in the offline queue. Exactly one
// payload pointer matching Kind is non-nil; the archive/unarchive/delete
// kinds carry no payload beyond the target id.
type SyncAction struct {
	// TargetID is the id of the record the action mutates (session item,
	// session, or workout depending on Kind).
	TargetID   string         `json:"id"`
	Kind       SyncActionKind `json:"action"`
	EnqueuedAt time.Time      `json:"enqueued_at"`

	ToggleDone    *ToggleDonePayload    `json:"toggle_done,omitempty"`
	UpdateStats   *UpdateStatsPayload   `json:"update_stats,omitempty"`
	FinishSession *FinishSessionPayload `json:"finish_session,omitempty"`
}

// Validate checks that the payload matches the declared kind.
func (a SyncAction) Validate() error {
	switch a.Kind {
	case ActionToggleDone:
		if a.ToggleDone == nil {
			return fmt.Errorf("sync action %s: missing toggle_done payload", a.TargetID)
		}
	case ActionUpdateStats:
		if a.UpdateStats == nil {
			return fmt.Errorf("sync action %s: missing update_stats payload", a.TargetID)
		}
	case ActionFinishSession:
		if a.FinishSession == nil {
			return fmt.Errorf("sync action %s: missing finish_session payload", a.TargetID)
		}
	case ActionArchiveWorkout, ActionUnarchiveWorkout, ActionDeleteWorkout:
		// target id only
	default:
		return fmt.Errorf("sync action %s: unknown kind %q", a.TargetID, a.Kind)
	}
	return nil
}
