package model

import "time"

// Session is one slot of the fixed-capacity session table. A slot is reusable
// once Active is false; at most one active session occupies a slot.
type Session struct {
	ID         string
	Username   string
	Role       UserRole
	LastActive time.Time
	Active     bool
}
