package domain

import "time"

// Hold is a time-bounded soft reservation on (room, date range). It blocks
// other allocations until it expires or the booking workflow confirms it.
type Hold struct {
	ID          string    `json:"id"`
	RoomID      int64     `json:"room_id"`
	PropertyID  int64     `json:"property_id"`
	Range       DateRange `json:"range"`
	RequestedBy string    `json:"requested_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Expired reports whether the hold is void at the given instant.
// A hold is usable exactly until ExpiresAt.
func (h Hold) Expired(now time.Time) bool {
	return now.After(h.ExpiresAt)
}
