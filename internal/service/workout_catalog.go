package service

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/onlytraining/trainsync/internal/domain"
)

const catalogSnapshotPrefix = "catalog:state:"

// catalogSnapshot is the durable local copy of the workout list, served as a
// fallback while the remote store is unreachable.
type catalogSnapshot struct {
	Workouts      []*domain.WorkoutWithStats `json:"workouts"`
	ArchivedCount int64                      `json:"archived_count"`
	LastSession   *domain.WorkoutSession     `json:"last_session,omitempty"`
	SyncQueue     []domain.SyncAction        `json:"sync_queue"`
}

// WorkoutCatalogDeps are the collaborators a workout catalog is built from.
type WorkoutCatalogDeps struct {
	Workouts     domain.WorkoutRepository
	WorkoutItems domain.WorkoutItemRepository
	Sessions     domain.SessionRepository
	Snapshots    domain.SnapshotStore
	Probe        domain.ConnectivityProbe
	Clock        domain.Clock
}

// WorkoutCatalog manages one user's workout definitions: listing with
// completion stats, creation, archival and deletion, plus the per-exercise
// item CRUD. List mutations are optimistic; archive/unarchive/delete survive
// offline through the sync queue, while create and item edits require the
// remote store and revert on failure.
type WorkoutCatalog struct {
	userID string

	workouts     domain.WorkoutRepository
	workoutItems domain.WorkoutItemRepository
	sessions     domain.SessionRepository
	snapshots    domain.SnapshotStore
	probe        domain.ConnectivityProbe
	clock        domain.Clock

	mu            sync.Mutex
	list          []*domain.WorkoutWithStats
	archivedCount int64
	lastSession   *domain.WorkoutSession
	queue         syncQueue
	lastErr       string
}

func NewWorkoutCatalog(userID string, deps WorkoutCatalogDeps) *WorkoutCatalog {
	if deps.Clock == nil {
		deps.Clock = domain.SystemClock{}
	}
	return &WorkoutCatalog{
		userID:       userID,
		workouts:     deps.Workouts,
		workoutItems: deps.WorkoutItems,
		sessions:     deps.Sessions,
		snapshots:    deps.Snapshots,
		probe:        deps.Probe,
		clock:        deps.Clock,
	}
}

// Restore loads the persisted catalog snapshot after a process restart.
func (c *WorkoutCatalog) Restore(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var snap catalogSnapshot
	err := c.snapshots.Load(ctx, catalogSnapshotPrefix+c.userID, &snap)
	if err != nil {
		if err == domain.ErrSnapshotMiss {
			return nil
		}
		return err
	}
	c.list = snap.Workouts
	c.archivedCount = snap.ArchivedCount
	c.lastSession = snap.LastSession
	c.queue.restore(snap.SyncQueue)
	return nil
}

// FetchWorkouts refreshes the workout list from the remote store, annotating
// each workout with how many finished sessions completed it and when it was
// last completed. Workouts and session history are fetched concurrently.
// When the remote store is unreachable the last snapshot is served instead.
func (c *WorkoutCatalog) FetchWorkouts(ctx context.Context, archived bool) ([]*domain.WorkoutWithStats, error) {
	if c.userID == "" {
		return nil, domain.ErrNotAuthenticated
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var (
		workouts      []*domain.Workout
		finished      []*domain.WorkoutSession
		archivedCount int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		workouts, err = c.workouts.ListByUser(gctx, c.userID, archived)
		return err
	})
	g.Go(func() error {
		var err error
		finished, err = c.sessions.ListFinished(gctx, c.userID)
		return err
	})
	g.Go(func() error {
		var err error
		archivedCount, err = c.workouts.CountArchived(gctx, c.userID)
		return err
	})
	if err := g.Wait(); err != nil {
		log.Printf("workout catalog: fetch failed, serving snapshot: %v", err)
		// The snapshot holds whichever tab was fetched last; serve only the
		// rows matching the requested one.
		fallback := make([]*domain.WorkoutWithStats, 0, len(c.list))
		for _, w := range c.list {
			if w.IsArchived == archived {
				fallback = append(fallback, w)
			}
		}
		return fallback, nil
	}

	// One pass over the finished sessions builds both stats per workout.
	// ListFinished orders by ended_at descending, so the head is the user's
	// most recent activity across all workouts.
	counts := make(map[string]int)
	lastDone := make(map[string]time.Time)
	for _, sess := range finished {
		if sess.WorkoutID == nil || sess.EndedAt == nil {
			continue
		}
		id := *sess.WorkoutID
		counts[id]++
		if sess.EndedAt.After(lastDone[id]) {
			lastDone[id] = *sess.EndedAt
		}
	}

	annotated := make([]*domain.WorkoutWithStats, len(workouts))
	for i, w := range workouts {
		stats := &domain.WorkoutWithStats{Workout: *w, CompletedCount: counts[w.ID]}
		if last, ok := lastDone[w.ID]; ok {
			lastCopy := last
			stats.LastCompletedAt = &lastCopy
		}
		annotated[i] = stats
	}

	c.list = annotated
	c.archivedCount = archivedCount
	if len(finished) > 0 {
		sess := *finished[0]
		c.lastSession = &sess
	} else {
		c.lastSession = nil
	}
	c.persistLocked(ctx)
	return annotated, nil
}

// Workouts returns the last fetched (or restored) list without touching the
// remote store.
func (c *WorkoutCatalog) Workouts() []*domain.WorkoutWithStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*domain.WorkoutWithStats, len(c.list))
	copy(out, c.list)
	return out
}

// ArchivedCount returns the user's archived workout count as of the last
// fetch.
func (c *WorkoutCatalog) ArchivedCount() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.archivedCount
}

// LastSession returns the most recent finished session across all workouts,
// or nil when the user has never finished one.
func (c *WorkoutCatalog) LastSession() *domain.WorkoutSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastSession == nil {
		return nil
	}
	sess := *c.lastSession
	return &sess
}

// CreateWorkout creates a new workout definition. Requires the remote store;
// creation is not deferrable.
func (c *WorkoutCatalog) CreateWorkout(ctx context.Context, name, focus, notes string) (*domain.Workout, error) {
	if c.userID == "" {
		return nil, domain.ErrNotAuthenticated
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.online(ctx) {
		return nil, domain.ErrOffline
	}

	workout := &domain.Workout{
		ID:     generateULID(c.clock.Now()),
		UserID: c.userID,
		Name:   name,
		Focus:  focus,
		Notes:  notes,
	}
	if err := c.workouts.Create(ctx, workout); err != nil {
		c.setErrLocked(err)
		return nil, err
	}

	c.list = append([]*domain.WorkoutWithStats{{Workout: *workout}}, c.list...)
	c.persistLocked(ctx)
	return workout, nil
}

// ArchiveWorkout hides a workout from the active list without losing its
// history. Offline or failed archives are queued.
func (c *WorkoutCatalog) ArchiveWorkout(ctx context.Context, id string) error {
	return c.setArchived(ctx, id, true)
}

// UnarchiveWorkout restores an archived workout to the active list.
func (c *WorkoutCatalog) UnarchiveWorkout(ctx context.Context, id string) error {
	return c.setArchived(ctx, id, false)
}

func (c *WorkoutCatalog) setArchived(ctx context.Context, id string, archived bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// The row leaves the visible list at once; it reappears on whichever tab
	// the next fetch reads, sorted by server data.
	idx := -1
	for i, w := range c.list {
		if w.ID == id {
			idx = i
			break
		}
	}
	var removed *domain.WorkoutWithStats
	if idx >= 0 {
		removed = c.list[idx]
		c.list = append(c.list[:idx], c.list[idx+1:]...)
	}

	online := c.online(ctx)
	// The local list only holds the last fetched tab; a workout from the
	// other tab is verified against the remote store when it is reachable.
	if online && removed == nil {
		if _, err := c.workouts.GetByID(ctx, id); err != nil {
			return err
		}
	}

	if archived {
		c.archivedCount++
	} else if c.archivedCount > 0 {
		c.archivedCount--
	}

	kind := domain.ActionArchiveWorkout
	if !archived {
		kind = domain.ActionUnarchiveWorkout
	}

	if !online {
		c.queue.enqueue(domain.SyncAction{TargetID: id, Kind: kind, EnqueuedAt: c.clock.Now()})
		c.persistLocked(ctx)
		return nil
	}
	if err := c.workouts.SetArchived(ctx, id, archived); err != nil {
		// Put the row back where it was so the list matches the remote store.
		if removed != nil {
			rest := make([]*domain.WorkoutWithStats, 0, len(c.list)+1)
			rest = append(rest, c.list[:idx]...)
			rest = append(rest, removed)
			rest = append(rest, c.list[idx:]...)
			c.list = rest
		}
		if archived {
			c.archivedCount--
		} else {
			c.archivedCount++
		}
		c.setErrLocked(err)
		return err
	}
	c.persistLocked(ctx)
	return nil
}

// DeleteWorkout removes a workout and its items. The local removal is
// immediate; offline deletes are queued. Finished sessions keep their
// snapshots and are never touched.
func (c *WorkoutCatalog) DeleteWorkout(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := -1
	for i, w := range c.list {
		if w.ID == id {
			idx = i
			break
		}
	}
	online := c.online(ctx)
	var removed *domain.WorkoutWithStats
	countDropped := false
	if idx >= 0 {
		removed = c.list[idx]
		c.list = append(c.list[:idx], c.list[idx+1:]...)
		if removed.IsArchived && c.archivedCount > 0 {
			c.archivedCount--
			countDropped = true
		}
	} else if online {
		// Not on the fetched tab; confirm it exists remotely before
		// touching it.
		w, err := c.workouts.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if w.IsArchived && c.archivedCount > 0 {
			c.archivedCount--
			countDropped = true
		}
	}

	if !online {
		c.queue.enqueue(domain.SyncAction{TargetID: id, Kind: domain.ActionDeleteWorkout, EnqueuedAt: c.clock.Now()})
		c.persistLocked(ctx)
		return nil
	}
	if err := c.deleteRemote(ctx, id); err != nil {
		// Put the row back; the remote store still has it.
		if removed != nil {
			rest := make([]*domain.WorkoutWithStats, 0, len(c.list)+1)
			rest = append(rest, c.list[:idx]...)
			rest = append(rest, removed)
			rest = append(rest, c.list[idx:]...)
			c.list = rest
		}
		if countDropped {
			c.archivedCount++
		}
		c.setErrLocked(err)
		return err
	}
	c.persistLocked(ctx)
	return nil
}

func (c *WorkoutCatalog) deleteRemote(ctx context.Context, id string) error {
	if err := c.workoutItems.DeleteByWorkout(ctx, id); err != nil {
		return err
	}
	return c.workouts.Delete(ctx, id)
}

// AddWorkoutItem appends an exercise to a workout. Requires the remote
// store; the item only becomes visible once the write succeeds.
func (c *WorkoutCatalog) AddWorkoutItem(ctx context.Context, item *domain.WorkoutItem) error {
	if c.userID == "" {
		return domain.ErrNotAuthenticated
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.online(ctx) {
		return domain.ErrOffline
	}

	item.ID = generateULID(c.clock.Now())
	item.UserID = c.userID
	if err := c.workoutItems.Create(ctx, item); err != nil {
		c.setErrLocked(err)
		return err
	}
	return nil
}

// UpdateWorkoutItem applies a partial edit to an exercise. Requires the
// remote store; the edit reads the current remote copy first so a partial
// patch never clobbers fields set elsewhere.
func (c *WorkoutCatalog) UpdateWorkoutItem(ctx context.Context, workoutID, itemID string, patch domain.WorkoutItemUpdate) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.online(ctx) {
		return domain.ErrOffline
	}

	items, err := c.workoutItems.ListByWorkout(ctx, workoutID)
	if err != nil {
		return err
	}
	var item *domain.WorkoutItem
	for _, candidate := range items {
		if candidate.ID == itemID {
			item = candidate
			break
		}
	}
	if item == nil {
		return domain.ErrWorkoutItemNotFound
	}

	if patch.Title != nil {
		item.Title = *patch.Title
	}
	if patch.DefaultReps != nil {
		item.DefaultReps = *patch.DefaultReps
	}
	if patch.DefaultSets != nil {
		item.DefaultSets = *patch.DefaultSets
	}
	if patch.RestSeconds != nil {
		item.RestSeconds = *patch.RestSeconds
	}
	if patch.Notes != nil {
		item.Notes = *patch.Notes
	}
	if patch.VideoURL != nil {
		item.VideoURL = *patch.VideoURL
	}
	if patch.Weight != nil {
		item.DefaultWeight = *patch.Weight
	}

	if err := c.workoutItems.Update(ctx, item); err != nil {
		c.setErrLocked(err)
		return err
	}
	return nil
}

// DeleteWorkoutItem removes one exercise from a workout. Requires the remote
// store.
func (c *WorkoutCatalog) DeleteWorkoutItem(ctx context.Context, itemID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.online(ctx) {
		return domain.ErrOffline
	}
	if err := c.workoutItems.Delete(ctx, itemID); err != nil {
		c.setErrLocked(err)
		return err
	}
	return nil
}

// ListWorkoutItems returns a workout's exercises in display order.
func (c *WorkoutCatalog) ListWorkoutItems(ctx context.Context, workoutID string) ([]*domain.WorkoutItem, error) {
	return c.workoutItems.ListByWorkout(ctx, workoutID)
}

// ProcessSyncQueue replays queued catalog mutations against the remote store
// in enqueue order, re-queueing failures.
func (c *WorkoutCatalog) ProcessSyncQueue(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.queue.len() == 0 || !c.online(ctx) {
		return nil
	}

	batch := c.queue.drain()
	for _, action := range batch {
		if err := c.applyAction(ctx, action); err != nil {
			log.Printf("workout catalog: replay of %s %s failed: %v", action.Kind, action.TargetID, err)
			c.queue.push(action)
		}
	}
	c.persistLocked(ctx)
	return nil
}

func (c *WorkoutCatalog) applyAction(ctx context.Context, action domain.SyncAction) error {
	switch action.Kind {
	case domain.ActionArchiveWorkout:
		return c.workouts.SetArchived(ctx, action.TargetID, true)
	case domain.ActionUnarchiveWorkout:
		return c.workouts.SetArchived(ctx, action.TargetID, false)
	case domain.ActionDeleteWorkout:
		return c.deleteRemote(ctx, action.TargetID)
	}
	log.Printf("workout catalog: dropping action of foreign kind %s", action.Kind)
	return nil
}

// PendingSync reports how many catalog mutations are waiting for replay.
func (c *WorkoutCatalog) PendingSync() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue.len()
}

// LastError returns and clears the stored error.
func (c *WorkoutCatalog) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.lastErr
	c.lastErr = ""
	return err
}

func (c *WorkoutCatalog) setErrLocked(err error) {
	c.lastErr = err.Error()
}

func (c *WorkoutCatalog) online(ctx context.Context) bool {
	return c.probe == nil || c.probe.Online(ctx)
}

func (c *WorkoutCatalog) persistLocked(ctx context.Context) {
	snap := catalogSnapshot{
		Workouts:      c.list,
		ArchivedCount: c.archivedCount,
		LastSession:   c.lastSession,
		SyncQueue:     c.queue.snapshot(),
	}
	if err := c.snapshots.Save(ctx, catalogSnapshotPrefix+c.userID, snap); err != nil {
		log.Printf("workout catalog: snapshot save failed: %v", err)
	}
}
