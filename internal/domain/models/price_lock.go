package models

import "time"

// PriceLock freezes a quoted price for one subject (session or user) on
// one trip until ExpiresAt. It never reserves a seat.
type PriceLock struct {
	TripID    int64     `json:"tripId"`
	SubjectID string    `json:"subjectId"`
	Price     int64     `json:"price"`
	LockedAt  time.Time `json:"lockedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ActiveAt reports whether the lock still holds at t.
func (l PriceLock) ActiveAt(t time.Time) bool {
	return t.Before(l.ExpiresAt)
}
