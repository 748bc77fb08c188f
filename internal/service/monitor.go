package service

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/onlytraining/trainsync/internal/domain"
)

// WorkoutMonitor watches an engine's tick snapshots and pushes a single
// long-workout reminder once the session passes the threshold. The reminder
// only fires while the client is backgrounded; a foreground user is already
// looking at the timer.
type WorkoutMonitor struct {
	engine   *SessionEngine
	notifier domain.Notifier

	threshold    int
	backgrounded atomic.Bool
}

func NewWorkoutMonitor(engine *SessionEngine, notifier domain.Notifier, thresholdSeconds int) *WorkoutMonitor {
	if thresholdSeconds <= 0 {
		thresholdSeconds = defaultLongWorkout
	}
	m := &WorkoutMonitor{
		engine:    engine,
		notifier:  notifier,
		threshold: thresholdSeconds,
	}
	engine.SetTickObserver(m.observe)
	return m
}

// SetBackgrounded records whether the client currently has the app in the
// background. Reported by the visibility heartbeat.
func (m *WorkoutMonitor) SetBackgrounded(v bool) {
	m.backgrounded.Store(v)
}

func (m *WorkoutMonitor) observe(state SessionState) {
	if state.Session == nil || state.HasNotifiedLongWorkout {
		return
	}
	if state.Duration < m.threshold || !m.backgrounded.Load() {
		return
	}

	// Mark first so a slow delivery cannot double-fire on the next tick.
	m.engine.SetHasNotifiedLongWorkout(true)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	title := "Still working out?"
	body := fmt.Sprintf("%s has been running for %s. Don't forget to finish your session.",
		state.Session.WorkoutNameSnapshot, formatDuration(state.Duration))
	if err := m.notifier.Notify(ctx, title, body); err != nil {
		log.Printf("workout monitor: reminder delivery failed: %v", err)
	}
}

func formatDuration(seconds int) string {
	d := time.Duration(seconds) * time.Second
	h := int(d.Hours())
	mins := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, mins)
	}
	return fmt.Sprintf("%dm", mins)
}
