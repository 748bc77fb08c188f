package service

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// generateULID creates a new ULID string seeded with the given instant.
// Records are identified client-side so they can be created while offline.
func generateULID(now time.Time) string {
	return ulid.MustNew(ulid.Timestamp(now), rand.Reader).String()
}
