package domain

import "time"

// SameCalendarDay reports whether a and b fall on the same device-local
// calendar day. Sessions are bounded to a single calendar day: a day change
// is a session-expiry event.
func SameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// EndOfDay returns 23:59:59.999 of t's calendar day in t's location. Stale
// sessions are auto-finished with ended_at pinned to this instant.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 999*int(time.Millisecond), t.Location())
}
