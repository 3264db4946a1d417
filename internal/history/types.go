package history

import (
	"context"
	"errors"
	"time"
)

// DefaultWindow is how many recent turns are fed back into the completion call.
const DefaultWindow = 20

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrPersistence marks store connectivity or constraint failures. Callers
// check it with errors.Is; the route layer turns it into a 500.
var ErrPersistence = errors.New("history: persistence failure")

// Turn is one stored message (user or assistant) in a conversation.
type Turn struct {
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	Content   Content   `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists and retrieves per-user conversation turns. Turns are
// insert-only: they are never updated, and they are removed only by erasing
// the whole history for a user id.
type Store interface {
	// Append durably persists one turn.
	Append(ctx context.Context, userID, role string, content Content) error
	// Window returns the most recent limit turns for userID in chronological
	// (oldest-first) order. A user with no history yields an empty slice.
	Window(ctx context.Context, userID string, limit int) ([]Turn, error)
	// Erase removes every turn for userID. Erasing an unknown user succeeds.
	Erase(ctx context.Context, userID string) error
	Close() error
}
