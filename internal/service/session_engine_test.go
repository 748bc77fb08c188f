package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onlytraining/trainsync/internal/domain"
)

const testUserID = "user_1"

type engineFixture struct {
	engine    *SessionEngine
	clock     *fakeClock
	probe     *fakeProbe
	sessions  *memSessionRepo
	items     *memSessionItemRepo
	workouts  *memWorkoutRepo
	wItems    *memWorkoutItemRepo
	snapshots *memSnapshotStore
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	f := &engineFixture{
		clock:     newFakeClock(time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)),
		probe:     &fakeProbe{online: true},
		sessions:  newMemSessionRepo(),
		items:     newMemSessionItemRepo(),
		workouts:  newMemWorkoutRepo(),
		wItems:    newMemWorkoutItemRepo(),
		snapshots: newMemSnapshotStore(),
	}
	f.engine = NewSessionEngine(testUserID, SessionEngineDeps{
		Sessions:     f.sessions,
		SessionItems: f.items,
		Workouts:     f.workouts,
		WorkoutItems: f.wItems,
		Snapshots:    f.snapshots,
		Probe:        f.probe,
		Clock:        f.clock,
		TickInterval: time.Hour, // ticks are driven manually in tests
	})
	t.Cleanup(f.engine.Close)
	return f
}

// seedWorkout inserts a workout with n items and returns its id.
func (f *engineFixture) seedWorkout(t *testing.T, n int) string {
	t.Helper()
	ctx := context.Background()

	workout := &domain.Workout{
		ID:     generateULID(f.clock.Now()),
		UserID: testUserID,
		Name:   "Push Day",
		Focus:  "Push",
	}
	require.NoError(t, f.workouts.Create(ctx, workout))

	titles := []string{"Bench Press", "Incline Press", "Overhead Press", "Lateral Raise", "Cable Fly"}
	for i := 0; i < n; i++ {
		item := &domain.WorkoutItem{
			ID:            generateULID(f.clock.Now()),
			WorkoutID:     workout.ID,
			UserID:        testUserID,
			Title:         titles[i%len(titles)],
			DefaultReps:   "15/14/13/12",
			DefaultSets:   4,
			RestSeconds:   90,
			DefaultWeight: float64(20 + i*5),
			OrderIndex:    i,
		}
		require.NoError(t, f.wItems.Create(ctx, item))
	}
	return workout.ID
}

func TestStartSessionSeedsItemsFromWorkout(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	workoutID := f.seedWorkout(t, 5)

	require.NoError(t, f.engine.StartSession(ctx, workoutID))

	state := f.engine.State()
	require.NotNil(t, state.Session)
	assert.Equal(t, domain.SessionInProgress, state.Session.Status)
	assert.Equal(t, "Push Day", state.Session.WorkoutNameSnapshot)
	assert.Equal(t, "Push", state.Session.WorkoutFocusSnapshot)
	assert.Equal(t, 0, state.Duration)
	assert.Equal(t, "active", state.Phase)

	require.Len(t, state.Items, 5)
	for i, item := range state.Items {
		assert.Equal(t, i, item.OrderIndex)
		assert.Equal(t, "15/14/13/12", item.Reps)
		assert.Equal(t, 4, item.Sets)
		assert.Equal(t, 90, item.RestSeconds)
		assert.Equal(t, float64(20+i*5), item.Weight)
		assert.False(t, item.IsDone)
	}
	assert.Equal(t, "Bench Press", state.Items[0].TitleSnapshot)

	// Remote store received the session and its items.
	assert.NotNil(t, f.sessions.get(state.Session.ID))
	assert.Equal(t, 5, f.items.countBySession(state.Session.ID))
}

func TestStartSessionRejectsWhenSessionActive(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	workoutID := f.seedWorkout(t, 2)

	require.NoError(t, f.engine.StartSession(ctx, workoutID))
	err := f.engine.StartSession(ctx, workoutID)
	assert.ErrorIs(t, err, domain.ErrSessionActive)
}

func TestStartSessionEmptyWorkout(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	workoutID := f.seedWorkout(t, 0)

	err := f.engine.StartSession(ctx, workoutID)
	assert.ErrorIs(t, err, domain.ErrWorkoutHasNoItems)

	// Nothing was created and the engine stays idle.
	sessions, err := f.sessions.ListInProgress(ctx, testUserID)
	require.NoError(t, err)
	assert.Empty(t, sessions)
	assert.Nil(t, f.engine.State().Session)
	assert.Equal(t, "idle", f.engine.State().Phase)
}

func TestStartSessionRollsBackOnItemSeedFailure(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	workoutID := f.seedWorkout(t, 3)
	f.items.failCreate = true

	err := f.engine.StartSession(ctx, workoutID)
	require.Error(t, err)

	// The half-created session was rolled back, no session is exposed.
	sessions, listErr := f.sessions.ListInProgress(ctx, testUserID)
	require.NoError(t, listErr)
	assert.Empty(t, sessions)
	assert.Nil(t, f.engine.State().Session)
}

func TestResumeSessionAdoptsRemoteSession(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	workoutID := f.seedWorkout(t, 2)
	require.NoError(t, f.engine.StartSession(ctx, workoutID))
	startedID := f.engine.State().Session.ID
	f.engine.Close()

	// A fresh engine (same user, new process) resumes 25 minutes later.
	f.clock.Advance(25 * time.Minute)
	fresh := NewSessionEngine(testUserID, SessionEngineDeps{
		Sessions:     f.sessions,
		SessionItems: f.items,
		Workouts:     f.workouts,
		WorkoutItems: f.wItems,
		Snapshots:    f.snapshots,
		Probe:        f.probe,
		Clock:        f.clock,
		TickInterval: time.Hour,
	})
	t.Cleanup(fresh.Close)

	require.NoError(t, fresh.ResumeSession(ctx))

	state := fresh.State()
	require.NotNil(t, state.Session)
	assert.Equal(t, startedID, state.Session.ID)
	assert.Equal(t, 25*60, state.Duration)
	assert.Len(t, state.Items, 2)
	assert.False(t, state.HasNotifiedLongWorkout)
}

func TestResumeSessionSeedsLongWorkoutFlag(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	workoutID := f.seedWorkout(t, 1)
	require.NoError(t, f.engine.StartSession(ctx, workoutID))

	// Resuming past the threshold must not trigger a fresh reminder.
	f.clock.Advance(61 * time.Minute)
	require.NoError(t, f.engine.ResumeSession(ctx))

	state := f.engine.State()
	assert.Equal(t, 61*60, state.Duration)
	assert.True(t, state.HasNotifiedLongWorkout)
}

func TestResumeSessionFinishesStaleDay(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	workoutID := f.seedWorkout(t, 1)

	f.clock.Set(time.Date(2025, 3, 10, 23, 0, 0, 0, time.UTC))
	require.NoError(t, f.engine.StartSession(ctx, workoutID))
	sessionID := f.engine.State().Session.ID
	f.engine.Close()

	// Next morning the session must be auto-finished, never resumed.
	f.clock.Set(time.Date(2025, 3, 11, 8, 30, 0, 0, time.UTC))
	require.NoError(t, f.engine.ResumeSession(ctx))

	state := f.engine.State()
	assert.Nil(t, state.Session)
	assert.Equal(t, "idle", state.Phase)

	finished := f.sessions.get(sessionID)
	require.NotNil(t, finished)
	assert.Equal(t, domain.SessionFinished, finished.Status)
	require.NotNil(t, finished.EndedAt)
	assert.Equal(t, time.Date(2025, 3, 10, 23, 59, 59, 999000000, time.UTC), *finished.EndedAt)
	assert.Equal(t, 3599, finished.DurationSeconds)
}

func TestResumeSessionLoadingGuard(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	workoutID := f.seedWorkout(t, 1)
	require.NoError(t, f.engine.StartSession(ctx, workoutID))

	// While a resume is in flight a second call is a no-op.
	f.engine.resuming.Store(true)
	require.NoError(t, f.engine.ResumeSession(ctx))
	assert.NotNil(t, f.engine.State().Session)
	f.engine.resuming.Store(false)
}

func TestResumeSessionClearsWhenRemoteEmpty(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	require.NoError(t, f.engine.ResumeSession(ctx))
	state := f.engine.State()
	assert.Nil(t, state.Session)
	assert.Equal(t, "idle", state.Phase)
}

func TestToggleItemDoneOfflineCollapsesQueue(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	workoutID := f.seedWorkout(t, 2)
	require.NoError(t, f.engine.StartSession(ctx, workoutID))
	itemID := f.engine.State().Items[0].ID

	f.probe.setOnline(false)

	require.NoError(t, f.engine.ToggleItemDone(ctx, itemID, true))
	f.clock.Advance(time.Second)
	require.NoError(t, f.engine.ToggleItemDone(ctx, itemID, false))

	// Last write wins: one queued action carrying the final value.
	state := f.engine.State()
	assert.Equal(t, 1, state.PendingSync)
	assert.False(t, state.Items[0].IsDone)

	f.engine.mu.Lock()
	actions := f.engine.queue.snapshot()
	f.engine.mu.Unlock()
	require.Len(t, actions, 1)
	assert.Equal(t, domain.ActionToggleDone, actions[0].Kind)
	require.NotNil(t, actions[0].ToggleDone)
	assert.False(t, actions[0].ToggleDone.IsDone)

	// The remote store never saw either write.
	assert.False(t, f.items.get(itemID).IsDone)
}

func TestUpdateItemStatsAppliesLocallyAndRemotely(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	workoutID := f.seedWorkout(t, 1)
	require.NoError(t, f.engine.StartSession(ctx, workoutID))
	itemID := f.engine.State().Items[0].ID

	require.NoError(t, f.engine.UpdateItemStats(ctx, itemID, 52.5, "12/10/8"))

	state := f.engine.State()
	assert.Equal(t, 52.5, state.Items[0].Weight)
	assert.Equal(t, "12/10/8", state.Items[0].Reps)
	assert.Equal(t, 0, state.PendingSync)

	remote := f.items.get(itemID)
	assert.Equal(t, 52.5, remote.Weight)
	assert.Equal(t, "12/10/8", remote.Reps)
}

func TestProcessSyncQueueReplaysAndEmpties(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	workoutID := f.seedWorkout(t, 2)
	require.NoError(t, f.engine.StartSession(ctx, workoutID))
	state := f.engine.State()
	first, second := state.Items[0].ID, state.Items[1].ID

	f.probe.setOnline(false)
	require.NoError(t, f.engine.ToggleItemDone(ctx, first, true))
	f.clock.Advance(time.Second)
	require.NoError(t, f.engine.UpdateItemStats(ctx, second, 40, "10/10"))
	f.clock.Advance(time.Second)
	require.NoError(t, f.engine.ToggleItemDone(ctx, second, true))
	assert.Equal(t, 3, f.engine.State().PendingSync)

	f.probe.setOnline(true)
	require.NoError(t, f.engine.ProcessSyncQueue(ctx))

	assert.Equal(t, 0, f.engine.State().PendingSync)
	assert.True(t, f.items.get(first).IsDone)
	assert.True(t, f.items.get(second).IsDone)
	assert.Equal(t, float64(40), f.items.get(second).Weight)
}

func TestProcessSyncQueueRequeuesFailures(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	workoutID := f.seedWorkout(t, 1)
	require.NoError(t, f.engine.StartSession(ctx, workoutID))
	itemID := f.engine.State().Items[0].ID

	f.probe.setOnline(false)
	require.NoError(t, f.engine.ToggleItemDone(ctx, itemID, true))
	enqueuedAt := func() time.Time {
		f.engine.mu.Lock()
		defer f.engine.mu.Unlock()
		return f.engine.queue.snapshot()[0].EnqueuedAt
	}()

	// The probe says online but the write still fails; replay is silent and
	// the action goes back on the queue with its original timestamp.
	f.probe.setOnline(true)
	f.items.setFail(true)
	require.NoError(t, f.engine.ProcessSyncQueue(ctx))

	assert.Equal(t, 1, f.engine.State().PendingSync)
	f.engine.mu.Lock()
	requeued := f.engine.queue.snapshot()[0]
	f.engine.mu.Unlock()
	assert.True(t, requeued.EnqueuedAt.Equal(enqueuedAt))

	f.items.setFail(false)
	require.NoError(t, f.engine.ProcessSyncQueue(ctx))
	assert.Equal(t, 0, f.engine.State().PendingSync)
	assert.True(t, f.items.get(itemID).IsDone)
}

func TestTickRecomputesDurationFromClock(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	workoutID := f.seedWorkout(t, 1)
	require.NoError(t, f.engine.StartSession(ctx, workoutID))

	// A suspended device self-corrects: duration is derived, not counted.
	f.clock.Advance(90 * time.Minute)
	f.engine.tick(ctx)

	assert.Equal(t, 90*60, f.engine.State().Duration)
}

func TestTickFinishesOnDayRollover(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	workoutID := f.seedWorkout(t, 1)

	f.clock.Set(time.Date(2025, 3, 10, 23, 0, 0, 0, time.UTC))
	require.NoError(t, f.engine.StartSession(ctx, workoutID))
	sessionID := f.engine.State().Session.ID

	f.clock.Set(time.Date(2025, 3, 11, 0, 10, 0, 0, time.UTC))
	f.engine.tick(ctx)

	assert.Nil(t, f.engine.State().Session)

	finished := f.sessions.get(sessionID)
	require.NotNil(t, finished)
	assert.Equal(t, domain.SessionFinished, finished.Status)
	require.NotNil(t, finished.EndedAt)
	assert.Equal(t, time.Date(2025, 3, 10, 23, 59, 59, 999000000, time.UTC), *finished.EndedAt)
	assert.Equal(t, 3599, finished.DurationSeconds)
}

func TestFinishSessionBackfillsDefaultWeights(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	workoutID := f.seedWorkout(t, 2)
	require.NoError(t, f.engine.StartSession(ctx, workoutID))
	state := f.engine.State()
	sessionID := state.Session.ID
	itemID := state.Items[0].ID
	workoutItemID := *state.Items[0].WorkoutItemID

	require.NoError(t, f.engine.UpdateItemStats(ctx, itemID, 60, "8/8/8"))
	f.clock.Advance(45 * time.Minute)
	require.NoError(t, f.engine.FinishSession(ctx))

	finished := f.sessions.get(sessionID)
	require.NotNil(t, finished)
	assert.Equal(t, domain.SessionFinished, finished.Status)
	assert.Equal(t, 45*60, finished.DurationSeconds)

	// The recorded weight became the item's new default.
	assert.Equal(t, float64(60), f.wItems.get(workoutItemID).DefaultWeight)

	assert.Nil(t, f.engine.State().Session)
	assert.Equal(t, "idle", f.engine.State().Phase)
}

func TestFinishSessionOfflineQueuesAndClears(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	workoutID := f.seedWorkout(t, 1)
	require.NoError(t, f.engine.StartSession(ctx, workoutID))
	state := f.engine.State()
	sessionID := state.Session.ID
	itemID := state.Items[0].ID
	workoutItemID := *state.Items[0].WorkoutItemID

	require.NoError(t, f.engine.UpdateItemStats(ctx, itemID, 35, "12"))
	f.clock.Advance(30 * time.Minute)

	f.probe.setOnline(false)
	require.NoError(t, f.engine.FinishSession(ctx))

	// Locally the workout is over immediately.
	assert.Nil(t, f.engine.State().Session)
	assert.Equal(t, 1, f.engine.State().PendingSync)
	assert.Equal(t, domain.SessionInProgress, f.sessions.get(sessionID).Status)

	// Reconnect: the queued finish lands with end time, duration and the
	// default-weight back-fill.
	f.probe.setOnline(true)
	require.NoError(t, f.engine.ProcessSyncQueue(ctx))

	finished := f.sessions.get(sessionID)
	assert.Equal(t, domain.SessionFinished, finished.Status)
	assert.Equal(t, 30*60, finished.DurationSeconds)
	assert.Equal(t, float64(35), f.wItems.get(workoutItemID).DefaultWeight)
	assert.Equal(t, 0, f.engine.State().PendingSync)
}

func TestCancelSessionDeletesItemsFirst(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	workoutID := f.seedWorkout(t, 3)
	require.NoError(t, f.engine.StartSession(ctx, workoutID))
	sessionID := f.engine.State().Session.ID

	require.NoError(t, f.engine.CancelSession(ctx, false))

	assert.Nil(t, f.sessions.get(sessionID))
	assert.Equal(t, 0, f.items.countBySession(sessionID))
	assert.Nil(t, f.engine.State().Session)
}

func TestRestartSessionFinishesAllThenStarts(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	firstWorkout := f.seedWorkout(t, 1)
	secondWorkout := f.seedWorkout(t, 2)

	require.NoError(t, f.engine.StartSession(ctx, firstWorkout))
	firstSession := f.engine.State().Session.ID

	require.NoError(t, f.engine.RestartSession(ctx, secondWorkout))

	state := f.engine.State()
	require.NotNil(t, state.Session)
	assert.NotEqual(t, firstSession, state.Session.ID)
	assert.Equal(t, secondWorkout, *state.Session.WorkoutID)
	assert.Len(t, state.Items, 2)

	assert.Equal(t, domain.SessionFinished, f.sessions.get(firstSession).Status)
}

func TestConflictFor(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	workoutID := f.seedWorkout(t, 1)
	otherID := f.seedWorkout(t, 1)

	assert.Equal(t, ConflictNone, f.engine.ConflictFor(workoutID))

	require.NoError(t, f.engine.StartSession(ctx, workoutID))
	assert.Equal(t, ConflictSameWorkout, f.engine.ConflictFor(workoutID))
	assert.Equal(t, ConflictDifferentWorkout, f.engine.ConflictFor(otherID))
}

func TestRestoreRecoversStateAndQueue(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	workoutID := f.seedWorkout(t, 2)
	require.NoError(t, f.engine.StartSession(ctx, workoutID))
	itemID := f.engine.State().Items[0].ID

	f.probe.setOnline(false)
	require.NoError(t, f.engine.ToggleItemDone(ctx, itemID, true))
	sessionID := f.engine.State().Session.ID
	f.engine.Close()

	// Simulated process restart: a new engine over the same snapshot store.
	fresh := NewSessionEngine(testUserID, SessionEngineDeps{
		Sessions:     f.sessions,
		SessionItems: f.items,
		Workouts:     f.workouts,
		WorkoutItems: f.wItems,
		Snapshots:    f.snapshots,
		Probe:        f.probe,
		Clock:        f.clock,
		TickInterval: time.Hour,
	})
	t.Cleanup(fresh.Close)
	require.NoError(t, fresh.Restore(ctx))

	state := fresh.State()
	require.NotNil(t, state.Session)
	assert.Equal(t, sessionID, state.Session.ID)
	assert.True(t, state.Items[0].IsDone)
	assert.Equal(t, 1, state.PendingSync)
}

func TestNotAuthenticated(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	anon := NewSessionEngine("", SessionEngineDeps{
		Sessions:     f.sessions,
		SessionItems: f.items,
		Workouts:     f.workouts,
		WorkoutItems: f.wItems,
		Snapshots:    f.snapshots,
		Probe:        f.probe,
		Clock:        f.clock,
		TickInterval: time.Hour,
	})
	t.Cleanup(anon.Close)

	assert.ErrorIs(t, anon.ResumeSession(ctx), domain.ErrNotAuthenticated)
	assert.ErrorIs(t, anon.StartSession(ctx, "w1"), domain.ErrNotAuthenticated)
	assert.ErrorIs(t, anon.FinishAllInProgressSessions(ctx), domain.ErrNotAuthenticated)
}
