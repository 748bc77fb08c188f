package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/onlytraining/trainsync/internal/domain"
)

// EngineManagerDeps are the shared collaborators handed to every per-user
// engine and catalog.
type EngineManagerDeps struct {
	Sessions     domain.SessionRepository
	SessionItems domain.SessionItemRepository
	Workouts     domain.WorkoutRepository
	WorkoutItems domain.WorkoutItemRepository
	Snapshots    domain.SnapshotStore
	Probe        domain.ConnectivityProbe
	Clock        domain.Clock
	Notifier     domain.Notifier

	LongWorkoutSeconds int
	TickInterval       time.Duration
}

type userEngines struct {
	engine  *SessionEngine
	catalog *WorkoutCatalog
	monitor *WorkoutMonitor
}

// EngineManager hands out one SessionEngine/WorkoutCatalog pair per user,
// lazily built and restored from the user's local snapshot on first access.
type EngineManager struct {
	deps EngineManagerDeps

	mu    sync.Mutex
	users map[string]*userEngines
}

func NewEngineManager(deps EngineManagerDeps) *EngineManager {
	if deps.Clock == nil {
		deps.Clock = domain.SystemClock{}
	}
	return &EngineManager{
		deps:  deps,
		users: make(map[string]*userEngines),
	}
}

// Engine returns the user's session engine, building and restoring it on
// first access.
func (m *EngineManager) Engine(ctx context.Context, userID string) (*SessionEngine, error) {
	u, err := m.forUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return u.engine, nil
}

// Catalog returns the user's workout catalog, building and restoring it on
// first access.
func (m *EngineManager) Catalog(ctx context.Context, userID string) (*WorkoutCatalog, error) {
	u, err := m.forUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return u.catalog, nil
}

// Monitor returns the user's workout monitor.
func (m *EngineManager) Monitor(ctx context.Context, userID string) (*WorkoutMonitor, error) {
	u, err := m.forUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return u.monitor, nil
}

func (m *EngineManager) forUser(ctx context.Context, userID string) (*userEngines, error) {
	if userID == "" {
		return nil, domain.ErrNotAuthenticated
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if u, ok := m.users[userID]; ok {
		return u, nil
	}

	engine := NewSessionEngine(userID, SessionEngineDeps{
		Sessions:           m.deps.Sessions,
		SessionItems:       m.deps.SessionItems,
		Workouts:           m.deps.Workouts,
		WorkoutItems:       m.deps.WorkoutItems,
		Snapshots:          m.deps.Snapshots,
		Probe:              m.deps.Probe,
		Clock:              m.deps.Clock,
		LongWorkoutSeconds: m.deps.LongWorkoutSeconds,
		TickInterval:       m.deps.TickInterval,
	})
	catalog := NewWorkoutCatalog(userID, WorkoutCatalogDeps{
		Workouts:     m.deps.Workouts,
		WorkoutItems: m.deps.WorkoutItems,
		Sessions:     m.deps.Sessions,
		Snapshots:    m.deps.Snapshots,
		Probe:        m.deps.Probe,
		Clock:        m.deps.Clock,
	})
	monitor := NewWorkoutMonitor(engine, m.deps.Notifier, m.deps.LongWorkoutSeconds)

	if err := engine.Restore(ctx); err != nil {
		log.Printf("engine manager: session restore for %s failed: %v", userID, err)
	}
	if err := catalog.Restore(ctx); err != nil {
		log.Printf("engine manager: catalog restore for %s failed: %v", userID, err)
	}

	u := &userEngines{engine: engine, catalog: catalog, monitor: monitor}
	m.users[userID] = u
	return u, nil
}

// ProcessSyncQueues drains the pending sync queues of every active user,
// typically on a connectivity-restored signal.
func (m *EngineManager) ProcessSyncQueues(ctx context.Context) {
	m.mu.Lock()
	users := make([]*userEngines, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	m.mu.Unlock()

	for _, u := range users {
		if err := u.engine.ProcessSyncQueue(ctx); err != nil {
			log.Printf("engine manager: session queue replay failed: %v", err)
		}
		if err := u.catalog.ProcessSyncQueue(ctx); err != nil {
			log.Printf("engine manager: catalog queue replay failed: %v", err)
		}
	}
}

// Close stops every engine's timer.
func (m *EngineManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		u.engine.Close()
	}
}
