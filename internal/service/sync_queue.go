package service

import (
	"sort"

	"github.com/onlytraining/trainsync/internal/domain"
)

// syncQueue is the ordered log of mutations pending remote application,
// shared by the session engine and the workout catalog. Callers are expected
// to hold their store's lock; the queue itself is not synchronized.
type syncQueue struct {
	actions []domain.SyncAction
}

// enqueue appends an action, superseding any earlier action of the same kind
// for the same target. Intermediate states collapse: the final value wins,
// not a full audit trail.
func (q *syncQueue) enqueue(a domain.SyncAction) {
	for i, existing := range q.actions {
		if existing.TargetID == a.TargetID && existing.Kind == a.Kind {
			q.actions[i] = a
			return
		}
	}
	q.actions = append(q.actions, a)
}

// push re-appends a failed action without superseding, preserving its
// original enqueue timestamp for the next drain.
func (q *syncQueue) push(a domain.SyncAction) {
	q.actions = append(q.actions, a)
}

// drain returns all actions in ascending enqueue order and empties the
// queue. Clearing before replay prevents re-entrant double-processing.
func (q *syncQueue) drain() []domain.SyncAction {
	batch := q.actions
	q.actions = nil

	sort.SliceStable(batch, func(i, j int) bool {
		return batch[i].EnqueuedAt.Before(batch[j].EnqueuedAt)
	})
	return batch
}

func (q *syncQueue) restore(actions []domain.SyncAction) {
	q.actions = actions
}

func (q *syncQueue) snapshot() []domain.SyncAction {
	return q.actions
}

func (q *syncQueue) len() int {
	return len(q.actions)
}
