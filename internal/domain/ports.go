package domain

import (
	"context"
	"errors"
	"time"
)

// ErrSnapshotMiss is returned by SnapshotStore.Load when no snapshot has been
// persisted under the given name.
var ErrSnapshotMiss = errors.New("snapshot miss")

// Clock abstracts wall-clock reads so engines can be tested with frozen time.
// Duration is always recomputed from Now() minus started_at, never counted,
// so suspended processes self-correct on the next tick.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// SnapshotStore persists engine state on the device so a session can be
// resumed after a full process restart. Snapshots are keyed by a fixed
// storage name per store per user.
type SnapshotStore interface {
	Save(ctx context.Context, name string, state any) error
	// Load decodes the snapshot into dest; returns ErrSnapshotMiss when none
	// exists.
	Load(ctx context.Context, name string, dest any) error
	Clear(ctx context.Context, name string) error
}

// ConnectivityProbe reports whether the Remote Store is reachable. Offline is
// not an error: mutations are redirected to the sync queue instead.
type ConnectivityProbe interface {
	Online(ctx context.Context) bool
}

// Notifier delivers a background notification to the user. The decision of
// when to notify lives in the monitor; delivery mechanics live behind this.
type Notifier interface {
	Notify(ctx context.Context, title, body string) error
}

// MediaStore stores exercise demo videos and returns a public URL.
type MediaStore interface {
	Upload(ctx context.Context, data []byte, filename, contentType string) (string, error)
}
