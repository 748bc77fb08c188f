package service

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/onlytraining/trainsync/internal/domain"
)

const (
	sessionSnapshotPrefix = "session:state:"
	defaultTickInterval   = time.Second
	defaultLongWorkout    = 3600 // seconds
)

// SessionPhase is the engine's lifecycle state. Operations attempted from an
// invalid phase are rejected instead of racing each other.
type SessionPhase int32

const (
	PhaseIdle SessionPhase = iota
	PhaseResuming
	PhaseActive
	PhaseFinishing
)

func (p SessionPhase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseResuming:
		return "resuming"
	case PhaseActive:
		return "active"
	case PhaseFinishing:
		return "finishing"
	}
	return "unknown"
}

// SessionConflict reports how a target workout relates to the current
// session. The engine never silently switches workouts: on
// ConflictDifferentWorkout the caller must explicitly restart or resume.
type SessionConflict string

const (
	ConflictNone             SessionConflict = "none"
	ConflictSameWorkout      SessionConflict = "same_workout"
	ConflictDifferentWorkout SessionConflict = "different_workout"
)

// SessionState is a copy of the engine's observable state, safe to hand to
// the UI and the workout monitor.
type SessionState struct {
	Session                *domain.WorkoutSession `json:"session,omitempty"`
	Items                  []domain.SessionItem   `json:"items"`
	Duration               int                    `json:"duration"`
	HasNotifiedLongWorkout bool                   `json:"has_notified_long_workout"`
	Phase                  string                 `json:"phase"`
	PendingSync            int                    `json:"pending_sync"`
	Err                    string                 `json:"error,omitempty"`
}

// sessionSnapshot is the durable local snapshot, the authority for resuming
// after a process restart until reconciled against the remote store.
// Loading flags and transient UI state are never persisted.
type sessionSnapshot struct {
	CurrentSession         *domain.WorkoutSession `json:"current_session"`
	SessionItems           []*domain.SessionItem  `json:"session_items"`
	Duration               int                    `json:"duration"`
	HasNotifiedLongWorkout bool                   `json:"has_notified_long_workout"`
	SyncQueue              []domain.SyncAction    `json:"sync_queue"`
}

// SessionEngineDeps are the collaborators a session engine is built from.
type SessionEngineDeps struct {
	Sessions     domain.SessionRepository
	SessionItems domain.SessionItemRepository
	Workouts     domain.WorkoutRepository
	WorkoutItems domain.WorkoutItemRepository
	Snapshots    domain.SnapshotStore
	Probe        domain.ConnectivityProbe
	Clock        domain.Clock

	// LongWorkoutSeconds defaults to 3600, TickInterval to one second.
	LongWorkoutSeconds int
	TickInterval       time.Duration
}

// SessionEngine owns the single active workout session of one user: the
// duration timer, item mutations, conflict detection, day-rollover
// auto-finalization and the offline sync queue. Every public operation is
// serialized by the engine mutex; remote calls happen under it, matching the
// single-threaded cooperative model the stores were designed for.
type SessionEngine struct {
	userID string

	sessions     domain.SessionRepository
	items        domain.SessionItemRepository
	workouts     domain.WorkoutRepository
	workoutItems domain.WorkoutItemRepository
	snapshots    domain.SnapshotStore
	probe        domain.ConnectivityProbe
	clock        domain.Clock

	longWorkoutSeconds int
	tickInterval       time.Duration

	mu           sync.Mutex
	phase        SessionPhase
	current      *domain.WorkoutSession
	sessionItems []*domain.SessionItem
	duration     int
	hasNotified  bool
	queue        syncQueue
	lastErr      string

	// resuming implements the resume loading guard: a second ResumeSession
	// while one is in flight is a no-op, not a queued duplicate.
	resuming atomic.Bool

	tickStop chan struct{}
	onTick   func(SessionState)
}

func NewSessionEngine(userID string, deps SessionEngineDeps) *SessionEngine {
	if deps.Clock == nil {
		deps.Clock = domain.SystemClock{}
	}
	if deps.TickInterval <= 0 {
		deps.TickInterval = defaultTickInterval
	}
	if deps.LongWorkoutSeconds <= 0 {
		deps.LongWorkoutSeconds = defaultLongWorkout
	}

	return &SessionEngine{
		userID:             userID,
		sessions:           deps.Sessions,
		items:              deps.SessionItems,
		workouts:           deps.Workouts,
		workoutItems:       deps.WorkoutItems,
		snapshots:          deps.Snapshots,
		probe:              deps.Probe,
		clock:              deps.Clock,
		longWorkoutSeconds: deps.LongWorkoutSeconds,
		tickInterval:       deps.TickInterval,
	}
}

// Restore loads the persisted snapshot after a process restart. The restored
// state (including the sync queue) stands until ResumeSession reconciles it
// against the remote store.
func (e *SessionEngine) Restore(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var snap sessionSnapshot
	err := e.snapshots.Load(ctx, sessionSnapshotPrefix+e.userID, &snap)
	if err != nil {
		if err == domain.ErrSnapshotMiss {
			return nil
		}
		return err
	}

	e.current = snap.CurrentSession
	e.sessionItems = snap.SessionItems
	e.duration = snap.Duration
	e.hasNotified = snap.HasNotifiedLongWorkout
	e.queue.restore(snap.SyncQueue)
	if e.current != nil {
		e.phase = PhaseActive
	}
	return nil
}

// SetTickObserver registers a callback invoked (outside the engine lock)
// after every timer tick. The workout monitor uses it to gate the
// long-workout notification.
func (e *SessionEngine) SetTickObserver(fn func(SessionState)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onTick = fn
}

// ResumeSession reconciles local state with the remote store: adopts the
// remote in_progress session if one exists, auto-finishes it when it started
// on a previous calendar day, or clears local state when there is none.
// Idempotent; a concurrent call is a no-op.
func (e *SessionEngine) ResumeSession(ctx context.Context) error {
	if e.userID == "" {
		return domain.ErrNotAuthenticated
	}
	if !e.resuming.CompareAndSwap(false, true) {
		return nil
	}
	defer e.resuming.Store(false)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.phase = PhaseResuming
	e.lastErr = ""

	sessions, err := e.sessions.ListInProgress(ctx, e.userID)
	if err != nil {
		// Remote unreachable: the local snapshot stays authoritative until
		// the next successful reconcile.
		log.Printf("session engine: resume sync failed: %v", err)
		if e.current != nil && domain.SameCalendarDay(e.clock.Now(), e.current.StartedAt) {
			e.duration = int(e.clock.Now().Sub(e.current.StartedAt).Seconds())
			e.startTickerLocked()
			e.phase = PhaseActive
		} else {
			e.phase = PhaseIdle
		}
		return nil
	}

	if len(sessions) == 0 {
		e.clearSessionLocked(ctx)
		e.phase = PhaseIdle
		return nil
	}

	sess := sessions[0]
	items, err := e.items.ListBySession(ctx, sess.ID)
	if err != nil {
		e.setErrLocked(err)
		e.phase = PhaseIdle
		return err
	}

	now := e.clock.Now()
	if !domain.SameCalendarDay(now, sess.StartedAt) {
		// Stale session from a previous day: auto-finish pinned to the end
		// of its start day, never resume it.
		e.finishStaleLocked(ctx, sess)
		e.clearSessionLocked(ctx)
		e.phase = PhaseIdle
		return nil
	}

	e.current = sess
	e.sessionItems = items
	e.duration = int(now.Sub(sess.StartedAt).Seconds())
	// Resuming past the threshold counts as already notified, otherwise a
	// reload at minute 61 would fire a reminder immediately.
	e.hasNotified = e.duration >= e.longWorkoutSeconds
	e.startTickerLocked()
	e.phase = PhaseActive
	e.persistLocked(ctx)
	return nil
}

// StartSession creates a new in_progress session for the workout with one
// session item per workout item, snapshotting each item's definition. Fails
// fast when a session is already active or another start is in flight;
// returns ErrWorkoutHasNoItems without creating anything when the workout is
// empty.
func (e *SessionEngine) StartSession(ctx context.Context, workoutID string) error {
	if e.userID == "" {
		return domain.ErrNotAuthenticated
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current != nil {
		return domain.ErrSessionActive
	}
	if e.phase != PhaseIdle {
		return domain.ErrOperationInFlight
	}

	if err := e.startLocked(ctx, workoutID); err != nil {
		e.setErrLocked(err)
		e.phase = PhaseIdle
		return err
	}
	return nil
}

func (e *SessionEngine) startLocked(ctx context.Context, workoutID string) error {
	workout, err := e.workouts.GetByID(ctx, workoutID)
	if err != nil {
		return err
	}

	workoutItems, err := e.workoutItems.ListByWorkout(ctx, workout.ID)
	if err != nil {
		return err
	}
	if len(workoutItems) == 0 {
		return domain.ErrWorkoutHasNoItems
	}

	now := e.clock.Now()
	sess := &domain.WorkoutSession{
		ID:                   generateULID(now),
		UserID:               e.userID,
		WorkoutID:            &workout.ID,
		WorkoutNameSnapshot:  workout.Name,
		WorkoutFocusSnapshot: workout.Focus,
		Status:               domain.SessionInProgress,
		StartedAt:            now,
	}
	if err := e.sessions.Create(ctx, sess); err != nil {
		return err
	}

	sessionItems := make([]*domain.SessionItem, len(workoutItems))
	for i, item := range workoutItems {
		itemID := item.ID
		sessionItems[i] = &domain.SessionItem{
			ID:            generateULID(now),
			SessionID:     sess.ID,
			UserID:        e.userID,
			WorkoutItemID: &itemID,
			TitleSnapshot: item.Title,
			NotesSnapshot: item.Notes,
			VideoURL:      item.VideoURL,
			RestSeconds:   item.RestSeconds,
			Sets:          item.DefaultSets,
			OrderIndex:    item.OrderIndex,
			Weight:        item.DefaultWeight,
			Reps:          item.DefaultReps,
			IsDone:        false,
		}
	}
	if err := e.items.CreateMany(ctx, sessionItems); err != nil {
		// No session is exposed if item seeding fails.
		if delErr := e.sessions.Delete(ctx, sess.ID); delErr != nil {
			log.Printf("session engine: rollback of session %s failed: %v", sess.ID, delErr)
		}
		return err
	}

	e.current = sess
	e.sessionItems = sessionItems
	e.duration = 0
	e.hasNotified = false
	e.startTickerLocked()
	e.phase = PhaseActive
	e.persistLocked(ctx)
	return nil
}

// ToggleItemDone marks a session item done/undone. The local mutation is
// applied first; when offline or the remote write fails, a toggle_done
// action is queued, superseding any earlier toggle for the same item.
func (e *SessionEngine) ToggleItemDone(ctx context.Context, itemID string, isDone bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	item := e.findItemLocked(itemID)
	if item == nil {
		return domain.ErrSessionItemNotFound
	}

	var doneAt *time.Time
	if isDone {
		now := e.clock.Now()
		doneAt = &now
	}
	item.IsDone = isDone
	item.DoneAt = doneAt

	action := domain.SyncAction{
		TargetID:   itemID,
		Kind:       domain.ActionToggleDone,
		EnqueuedAt: e.clock.Now(),
		ToggleDone: &domain.ToggleDonePayload{IsDone: isDone, DoneAt: doneAt},
	}

	if !e.online(ctx) {
		e.queue.enqueue(action)
	} else if err := e.items.SetDone(ctx, itemID, isDone, doneAt); err != nil {
		log.Printf("session engine: toggle sync failed, queueing: %v", err)
		e.queue.enqueue(action)
	}
	e.persistLocked(ctx)
	return nil
}

// UpdateItemStats records the weight and reps for a session item with the
// same optimistic + offline-queue discipline as ToggleItemDone.
func (e *SessionEngine) UpdateItemStats(ctx context.Context, itemID string, weight float64, reps string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	item := e.findItemLocked(itemID)
	if item == nil {
		return domain.ErrSessionItemNotFound
	}

	item.Weight = weight
	item.Reps = reps

	action := domain.SyncAction{
		TargetID:    itemID,
		Kind:        domain.ActionUpdateStats,
		EnqueuedAt:  e.clock.Now(),
		UpdateStats: &domain.UpdateStatsPayload{Weight: weight, Reps: reps},
	}

	if !e.online(ctx) {
		e.queue.enqueue(action)
	} else if err := e.items.SetStats(ctx, itemID, weight, reps); err != nil {
		log.Printf("session engine: stats sync failed, queueing: %v", err)
		e.queue.enqueue(action)
	}
	e.persistLocked(ctx)
	return nil
}

// FinishSession stops the timer, finishes the session remotely and back-fills
// each workout item's default weight from the recorded weights. When the
// remote store is unreachable the whole finish is queued and local state is
// cleared immediately: perceived completion must not block on connectivity.
func (e *SessionEngine) FinishSession(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current == nil || e.phase == PhaseFinishing {
		return nil
	}
	e.phase = PhaseFinishing
	e.stopTickerLocked()

	sess := e.current
	endedAt := e.clock.Now()
	if !domain.SameCalendarDay(endedAt, sess.StartedAt) {
		// The session outlived its start day: pin the finish to the last
		// instant of that day so history never shows a multi-day workout.
		endedAt = domain.EndOfDay(sess.StartedAt)
	}
	duration := int(endedAt.Sub(sess.StartedAt).Seconds())
	if duration < 0 {
		duration = 0
	}
	defaultWeights := e.defaultWeightsLocked()

	action := domain.SyncAction{
		TargetID:   sess.ID,
		Kind:       domain.ActionFinishSession,
		EnqueuedAt: endedAt,
		FinishSession: &domain.FinishSessionPayload{
			EndedAt:         endedAt,
			DurationSeconds: duration,
			DefaultWeights:  defaultWeights,
		},
	}

	if !e.online(ctx) {
		e.queue.enqueue(action)
	} else if err := e.sessions.Finish(ctx, sess.ID, endedAt, duration); err != nil {
		log.Printf("session engine: finish sync failed, queueing: %v", err)
		e.queue.enqueue(action)
	} else {
		e.backfillDefaultWeights(ctx, defaultWeights)
	}

	e.clearSessionLocked(ctx)
	e.phase = PhaseIdle
	return nil
}

// RestartSession resolves a conflict by force-finishing every in_progress
// session of the user and starting a fresh one for the given workout.
func (e *SessionEngine) RestartSession(ctx context.Context, workoutID string) error {
	if e.userID == "" {
		return domain.ErrNotAuthenticated
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.stopTickerLocked()
	if err := e.sessions.FinishAllInProgress(ctx, e.userID, e.clock.Now()); err != nil {
		e.setErrLocked(err)
		e.phase = PhaseIdle
		return err
	}
	e.clearSessionLocked(ctx)

	if err := e.startLocked(ctx, workoutID); err != nil {
		e.setErrLocked(err)
		e.phase = PhaseIdle
		return err
	}
	return nil
}

// FinishAllInProgressSessions is the bulk safety valve used when the user
// explicitly discards instead of restarting.
func (e *SessionEngine) FinishAllInProgressSessions(ctx context.Context) error {
	if e.userID == "" {
		return domain.ErrNotAuthenticated
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.stopTickerLocked()
	if err := e.sessions.FinishAllInProgress(ctx, e.userID, e.clock.Now()); err != nil {
		e.setErrLocked(err)
		return err
	}
	e.clearSessionLocked(ctx)
	e.phase = PhaseIdle
	return nil
}

// CancelSession hard-deletes the current session, or with clearAll every
// in_progress session of the user. Items go first to respect referential
// constraints.
func (e *SessionEngine) CancelSession(ctx context.Context, clearAll bool) error {
	if e.userID == "" {
		return domain.ErrNotAuthenticated
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current == nil && !clearAll {
		return nil
	}
	e.stopTickerLocked()

	var ids []string
	if clearAll {
		sessions, err := e.sessions.ListInProgress(ctx, e.userID)
		if err != nil {
			e.setErrLocked(err)
			return err
		}
		for _, s := range sessions {
			ids = append(ids, s.ID)
		}
	} else {
		ids = []string{e.current.ID}
	}

	if len(ids) > 0 {
		if err := e.items.DeleteBySessions(ctx, ids...); err != nil {
			e.setErrLocked(err)
			return err
		}
		if err := e.sessions.Delete(ctx, ids...); err != nil {
			e.setErrLocked(err)
			return err
		}
	}

	e.clearSessionLocked(ctx)
	e.phase = PhaseIdle
	return nil
}

// ProcessSyncQueue drains queued mutations against the remote store in
// enqueue order. The queue is cleared before replay; actions that fail are
// re-appended for a later attempt, never surfaced to the user.
func (e *SessionEngine) ProcessSyncQueue(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.queue.len() == 0 || !e.online(ctx) {
		return nil
	}

	batch := e.queue.drain()
	for _, action := range batch {
		if err := e.applyAction(ctx, action); err != nil {
			log.Printf("session engine: replay of %s %s failed: %v", action.Kind, action.TargetID, err)
			e.queue.push(action)
		}
	}
	e.persistLocked(ctx)
	return nil
}

func (e *SessionEngine) applyAction(ctx context.Context, action domain.SyncAction) error {
	if err := action.Validate(); err != nil {
		// Malformed actions are dropped: replaying them can never succeed.
		log.Printf("session engine: dropping invalid action: %v", err)
		return nil
	}

	switch action.Kind {
	case domain.ActionToggleDone:
		p := action.ToggleDone
		return e.items.SetDone(ctx, action.TargetID, p.IsDone, p.DoneAt)
	case domain.ActionUpdateStats:
		p := action.UpdateStats
		return e.items.SetStats(ctx, action.TargetID, p.Weight, p.Reps)
	case domain.ActionFinishSession:
		p := action.FinishSession
		if err := e.sessions.Finish(ctx, action.TargetID, p.EndedAt, p.DurationSeconds); err != nil {
			return err
		}
		e.backfillDefaultWeights(ctx, p.DefaultWeights)
		return nil
	}
	log.Printf("session engine: dropping action of foreign kind %s", action.Kind)
	return nil
}

// ConflictFor reports how the target workout relates to the current session.
func (e *SessionEngine) ConflictFor(workoutID string) SessionConflict {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current == nil {
		return ConflictNone
	}
	if e.current.WorkoutID != nil && *e.current.WorkoutID == workoutID {
		return ConflictSameWorkout
	}
	return ConflictDifferentWorkout
}

// SetHasNotifiedLongWorkout is called back by the monitor once the reminder
// has been delivered, preventing repeats.
func (e *SessionEngine) SetHasNotifiedLongWorkout(v bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hasNotified = v
	e.persistLocked(context.Background())
}

// State returns a copy of the current engine state.
func (e *SessionEngine) State() SessionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

// LastError returns and clears the stored error, mirroring the UI contract
// of read-then-clear.
func (e *SessionEngine) LastError() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	err := e.lastErr
	e.lastErr = ""
	return err
}

// Close stops the duration timer. State stays persisted for the next run.
func (e *SessionEngine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopTickerLocked()
}

// ---- internals ----

func (e *SessionEngine) stateLocked() SessionState {
	var sess *domain.WorkoutSession
	if e.current != nil {
		copied := *e.current
		sess = &copied
	}
	items := make([]domain.SessionItem, len(e.sessionItems))
	for i, item := range e.sessionItems {
		items[i] = *item
	}
	return SessionState{
		Session:                sess,
		Items:                  items,
		Duration:               e.duration,
		HasNotifiedLongWorkout: e.hasNotified,
		Phase:                  e.phase.String(),
		PendingSync:            e.queue.len(),
		Err:                    e.lastErr,
	}
}

func (e *SessionEngine) findItemLocked(itemID string) *domain.SessionItem {
	for _, item := range e.sessionItems {
		if item.ID == itemID {
			return item
		}
	}
	return nil
}

// defaultWeightsLocked collects one entry per item that recorded a weight,
// keyed by the originating workout item id.
func (e *SessionEngine) defaultWeightsLocked() map[string]float64 {
	weights := make(map[string]float64)
	for _, item := range e.sessionItems {
		if item.WorkoutItemID != nil && item.Weight > 0 {
			weights[*item.WorkoutItemID] = item.Weight
		}
	}
	return weights
}

func (e *SessionEngine) backfillDefaultWeights(ctx context.Context, weights map[string]float64) {
	for itemID, weight := range weights {
		if err := e.workoutItems.SetDefaultWeight(ctx, itemID, weight); err != nil {
			log.Printf("session engine: default weight back-fill for %s failed: %v", itemID, err)
		}
	}
}

// finishStaleLocked unilaterally finishes a session that started on a
// previous day, pinning ended_at to 23:59:59.999 of the start day. If the
// remote write fails the finish is queued like any other offline finish.
func (e *SessionEngine) finishStaleLocked(ctx context.Context, sess *domain.WorkoutSession) {
	endedAt := domain.EndOfDay(sess.StartedAt)
	duration := int(endedAt.Sub(sess.StartedAt).Seconds())
	if duration < 0 {
		duration = 0
	}

	if err := e.sessions.Finish(ctx, sess.ID, endedAt, duration); err != nil {
		log.Printf("session engine: stale auto-finish failed, queueing: %v", err)
		e.queue.enqueue(domain.SyncAction{
			TargetID:   sess.ID,
			Kind:       domain.ActionFinishSession,
			EnqueuedAt: e.clock.Now(),
			FinishSession: &domain.FinishSessionPayload{
				EndedAt:         endedAt,
				DurationSeconds: duration,
			},
		})
	}
}

// clearSessionLocked resets the in-memory session state. The sync queue is
// deliberately left intact.
func (e *SessionEngine) clearSessionLocked(ctx context.Context) {
	e.stopTickerLocked()
	e.current = nil
	e.sessionItems = nil
	e.duration = 0
	e.hasNotified = false
	e.persistLocked(ctx)
}

func (e *SessionEngine) setErrLocked(err error) {
	e.lastErr = err.Error()
}

func (e *SessionEngine) online(ctx context.Context) bool {
	return e.probe == nil || e.probe.Online(ctx)
}

func (e *SessionEngine) persistLocked(ctx context.Context) {
	snap := sessionSnapshot{
		CurrentSession:         e.current,
		SessionItems:           e.sessionItems,
		Duration:               e.duration,
		HasNotifiedLongWorkout: e.hasNotified,
		SyncQueue:              e.queue.snapshot(),
	}
	if err := e.snapshots.Save(ctx, sessionSnapshotPrefix+e.userID, snap); err != nil {
		log.Printf("session engine: snapshot save failed: %v", err)
	}
}

// startTickerLocked starts the once-per-second duration timer. At most one
// ticker runs at a time; starting a new one stops the previous one first.
func (e *SessionEngine) startTickerLocked() {
	e.stopTickerLocked()
	stop := make(chan struct{})
	e.tickStop = stop
	go e.runTicker(stop)
}

func (e *SessionEngine) stopTickerLocked() {
	if e.tickStop != nil {
		close(e.tickStop)
		e.tickStop = nil
	}
}

func (e *SessionEngine) runTicker(stop chan struct{}) {
	ticker := time.NewTicker(e.tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			e.tick(context.Background())
		}
	}
}

// tick recomputes the elapsed duration from the wall clock rather than
// incrementing a counter, so suspended devices self-correct on resume. A
// calendar-day change is a session-expiry event and finishes the session.
func (e *SessionEngine) tick(ctx context.Context) {
	e.mu.Lock()
	if e.current == nil || e.phase != PhaseActive {
		e.mu.Unlock()
		return
	}

	now := e.clock.Now()
	if !domain.SameCalendarDay(now, e.current.StartedAt) {
		e.mu.Unlock()
		if err := e.FinishSession(ctx); err != nil {
			log.Printf("session engine: day-rollover finish failed: %v", err)
		}
		return
	}

	e.duration = int(now.Sub(e.current.StartedAt).Seconds())
	observer := e.onTick
	state := e.stateLocked()
	e.mu.Unlock()

	if observer != nil {
		observer(state)
	}
}
