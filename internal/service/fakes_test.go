package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/onlytraining/trainsync/internal/domain"
)

var errRemoteDown = errors.New("remote store down")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeProbe struct {
	mu     sync.Mutex
	online bool
}

func (p *fakeProbe) Online(context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online
}

func (p *fakeProbe) setOnline(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.online = v
}

type memSnapshotStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemSnapshotStore() *memSnapshotStore {
	return &memSnapshotStore{data: make(map[string][]byte)}
}

func (s *memSnapshotStore) Save(_ context.Context, name string, state any) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[name] = raw
	return nil
}

func (s *memSnapshotStore) Load(_ context.Context, name string, dest any) error {
	s.mu.Lock()
	raw, ok := s.data[name]
	s.mu.Unlock()
	if !ok {
		return domain.ErrSnapshotMiss
	}
	return json.Unmarshal(raw, dest)
}

func (s *memSnapshotStore) Clear(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, name)
	return nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *fakeNotifier) Notify(_ context.Context, title, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, title)
	return nil
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

// memSessionRepo is an in-memory SessionRepository. Setting fail makes every
// call error, simulating an unreachable remote store.
type memSessionRepo struct {
	mu       sync.Mutex
	fail     bool
	sessions map[string]*domain.WorkoutSession
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[string]*domain.WorkoutSession)}
}

func (r *memSessionRepo) setFail(v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail = v
}

func (r *memSessionRepo) Create(_ context.Context, session *domain.WorkoutSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errRemoteDown
	}
	copied := *session
	r.sessions[session.ID] = &copied
	return nil
}

func (r *memSessionRepo) ListInProgress(_ context.Context, userID string) ([]*domain.WorkoutSession, error) {
	return r.listByStatus(userID, domain.SessionInProgress)
}

func (r *memSessionRepo) ListFinished(_ context.Context, userID string) ([]*domain.WorkoutSession, error) {
	return r.listByStatus(userID, domain.SessionFinished)
}

func (r *memSessionRepo) listByStatus(userID string, status domain.SessionStatus) ([]*domain.WorkoutSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return nil, errRemoteDown
	}
	var out []*domain.WorkoutSession
	for _, s := range r.sessions {
		if s.UserID == userID && s.Status == status {
			copied := *s
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if status == domain.SessionFinished {
			return out[i].EndedAt.After(*out[j].EndedAt)
		}
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out, nil
}

func (r *memSessionRepo) Finish(_ context.Context, id string, endedAt time.Time, durationSeconds int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errRemoteDown
	}
	s, ok := r.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	s.Status = domain.SessionFinished
	s.EndedAt = &endedAt
	s.DurationSeconds = durationSeconds
	return nil
}

func (r *memSessionRepo) FinishAllInProgress(_ context.Context, userID string, endedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errRemoteDown
	}
	for _, s := range r.sessions {
		if s.UserID == userID && s.Status == domain.SessionInProgress {
			s.Status = domain.SessionFinished
			ended := endedAt
			s.EndedAt = &ended
		}
	}
	return nil
}

func (r *memSessionRepo) Delete(_ context.Context, ids ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errRemoteDown
	}
	for _, id := range ids {
		delete(r.sessions, id)
	}
	return nil
}

func (r *memSessionRepo) get(id string) *domain.WorkoutSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		copied := *s
		return &copied
	}
	return nil
}

// memSessionItemRepo is an in-memory SessionItemRepository. failCreate lets
// tests break only the bulk insert for rollback coverage.
type memSessionItemRepo struct {
	mu         sync.Mutex
	fail       bool
	failCreate bool
	items      map[string]*domain.SessionItem
}

func newMemSessionItemRepo() *memSessionItemRepo {
	return &memSessionItemRepo{items: make(map[string]*domain.SessionItem)}
}

func (r *memSessionItemRepo) setFail(v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail = v
}

func (r *memSessionItemRepo) CreateMany(_ context.Context, items []*domain.SessionItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail || r.failCreate {
		return errRemoteDown
	}
	for _, item := range items {
		copied := *item
		r.items[item.ID] = &copied
	}
	return nil
}

func (r *memSessionItemRepo) ListBySession(_ context.Context, sessionID string) ([]*domain.SessionItem, error) {
	return r.list(func(i *domain.SessionItem) bool { return i.SessionID == sessionID })
}

func (r *memSessionItemRepo) ListBySessions(_ context.Context, sessionIDs []string) ([]*domain.SessionItem, error) {
	ids := make(map[string]bool, len(sessionIDs))
	for _, id := range sessionIDs {
		ids[id] = true
	}
	return r.list(func(i *domain.SessionItem) bool { return ids[i.SessionID] })
}

func (r *memSessionItemRepo) list(match func(*domain.SessionItem) bool) ([]*domain.SessionItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return nil, errRemoteDown
	}
	var out []*domain.SessionItem
	for _, item := range r.items {
		if match(item) {
			copied := *item
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out, nil
}

func (r *memSessionItemRepo) SetDone(_ context.Context, id string, isDone bool, doneAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errRemoteDown
	}
	item, ok := r.items[id]
	if !ok {
		return domain.ErrSessionItemNotFound
	}
	item.IsDone = isDone
	item.DoneAt = doneAt
	return nil
}

func (r *memSessionItemRepo) SetStats(_ context.Context, id string, weight float64, reps string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errRemoteDown
	}
	item, ok := r.items[id]
	if !ok {
		return domain.ErrSessionItemNotFound
	}
	item.Weight = weight
	item.Reps = reps
	return nil
}

func (r *memSessionItemRepo) DeleteBySessions(_ context.Context, sessionIDs ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errRemoteDown
	}
	ids := make(map[string]bool, len(sessionIDs))
	for _, id := range sessionIDs {
		ids[id] = true
	}
	for id, item := range r.items {
		if ids[item.SessionID] {
			delete(r.items, id)
		}
	}
	return nil
}

func (r *memSessionItemRepo) get(id string) *domain.SessionItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	if item, ok := r.items[id]; ok {
		copied := *item
		return &copied
	}
	return nil
}

func (r *memSessionItemRepo) countBySession(sessionID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, item := range r.items {
		if item.SessionID == sessionID {
			n++
		}
	}
	return n
}

type memWorkoutRepo struct {
	mu       sync.Mutex
	fail     bool
	workouts map[string]*domain.Workout
}

func newMemWorkoutRepo() *memWorkoutRepo {
	return &memWorkoutRepo{workouts: make(map[string]*domain.Workout)}
}

func (r *memWorkoutRepo) setFail(v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail = v
}

func (r *memWorkoutRepo) Create(_ context.Context, workout *domain.Workout) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errRemoteDown
	}
	copied := *workout
	r.workouts[workout.ID] = &copied
	return nil
}

func (r *memWorkoutRepo) GetByID(_ context.Context, id string) (*domain.Workout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return nil, errRemoteDown
	}
	w, ok := r.workouts[id]
	if !ok {
		return nil, domain.ErrWorkoutNotFound
	}
	copied := *w
	return &copied, nil
}

func (r *memWorkoutRepo) ListByUser(_ context.Context, userID string, archived bool) ([]*domain.Workout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return nil, errRemoteDown
	}
	var out []*domain.Workout
	for _, w := range r.workouts {
		if w.UserID == userID && w.IsArchived == archived {
			copied := *w
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memWorkoutRepo) CountArchived(_ context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return 0, errRemoteDown
	}
	var n int64
	for _, w := range r.workouts {
		if w.UserID == userID && w.IsArchived {
			n++
		}
	}
	return n, nil
}

func (r *memWorkoutRepo) SetArchived(_ context.Context, id string, archived bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errRemoteDown
	}
	w, ok := r.workouts[id]
	if !ok {
		return domain.ErrWorkoutNotFound
	}
	w.IsArchived = archived
	return nil
}

func (r *memWorkoutRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errRemoteDown
	}
	delete(r.workouts, id)
	return nil
}

func (r *memWorkoutRepo) get(id string) *domain.Workout {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w, ok := r.workouts[id]; ok {
		copied := *w
		return &copied
	}
	return nil
}

type memWorkoutItemRepo struct {
	mu    sync.Mutex
	fail  bool
	items map[string]*domain.WorkoutItem
}

func newMemWorkoutItemRepo() *memWorkoutItemRepo {
	return &memWorkoutItemRepo{items: make(map[string]*domain.WorkoutItem)}
}

func (r *memWorkoutItemRepo) setFail(v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail = v
}

func (r *memWorkoutItemRepo) Create(_ context.Context, item *domain.WorkoutItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errRemoteDown
	}
	copied := *item
	r.items[item.ID] = &copied
	return nil
}

func (r *memWorkoutItemRepo) ListByWorkout(_ context.Context, workoutID string) ([]*domain.WorkoutItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return nil, errRemoteDown
	}
	var out []*domain.WorkoutItem
	for _, item := range r.items {
		if item.WorkoutID == workoutID {
			copied := *item
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out, nil
}

func (r *memWorkoutItemRepo) Update(_ context.Context, item *domain.WorkoutItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errRemoteDown
	}
	if _, ok := r.items[item.ID]; !ok {
		return domain.ErrWorkoutItemNotFound
	}
	copied := *item
	r.items[item.ID] = &copied
	return nil
}

func (r *memWorkoutItemRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errRemoteDown
	}
	delete(r.items, id)
	return nil
}

func (r *memWorkoutItemRepo) DeleteByWorkout(_ context.Context, workoutID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errRemoteDown
	}
	for id, item := range r.items {
		if item.WorkoutID == workoutID {
			delete(r.items, id)
		}
	}
	return nil
}

func (r *memWorkoutItemRepo) SetDefaultWeight(_ context.Context, id string, weight float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errRemoteDown
	}
	item, ok := r.items[id]
	if !ok {
		return domain.ErrWorkoutItemNotFound
	}
	item.DefaultWeight = weight
	return nil
}

func (r *memWorkoutItemRepo) get(id string) *domain.WorkoutItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	if item, ok := r.items[id]; ok {
		copied := *item
		return &copied
	}
	return nil
}
