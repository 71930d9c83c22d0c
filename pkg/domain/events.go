package domain

// Domain events are facts broadcast after the originating change has been
// committed. They are never persisted; the queue serializes them only while
// in flight.

// UserCreated is published after a new account row is committed.
type UserCreated struct {
	Username string `json:"username"`
	BaseURL  string `json:"baseUrl"`
}

// PasswordResetRequested is published when a reset is requested for an
// already-registered email address.
type PasswordResetRequested struct {
	Email   string `json:"email"`
	BaseURL string `json:"baseUrl"`
}
