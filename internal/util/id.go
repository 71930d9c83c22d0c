package util

import "github.com/google/uuid"

// NewID returns a fresh identifier for entities and queued events.
func NewID() string {
	return uuid.NewString()
}
