package domain

import (
	"errors"
	"time"
)

type (
	SessionID string
	ThreadID  string
)

const MaxScopeIDLen = 64

var ErrBadScopeID = errors.New("bad scope id")

// ValidSessionID guards the client-supplied room id space.
func ValidSessionID(s SessionID) error {
	if len(s) == 0 || len(s) > MaxScopeIDLen {
		return ErrBadScopeID
	}
	return nil
}

func ValidThreadID(t ThreadID) error {
	if len(t) == 0 || len(t) > MaxScopeIDLen {
		return ErrBadScopeID
	}
	return nil
}

// Cursor is the last-known pointer sample of one user in one session.
// Overwritten in place on every move, never queued.
type Cursor struct {
	UserID    UserID    `json:"userId"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Color     string    `json:"color"`
	UpdatedAt time.Time `json:"updatedAt"`
}
