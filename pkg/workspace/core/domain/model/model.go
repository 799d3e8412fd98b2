// Package model defines the core domain entities of the Daybook workspace:
// tasks, journal entries, chat messages, and the operations an assistant
// proposes against them.
package model

import "github.com/google/uuid"

// NewID generates a new unique ID (UUID).
func NewID() string {
	return uuid.New().String()
}
