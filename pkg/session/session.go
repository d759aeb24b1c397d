// Package session stores conversation history for interactive walkthroughs.
//
// A Store keeps one message list per thread, so a conversation can resume
// where it left off. The badger-backed implementation persists threads
// across process restarts; opening it without a directory keeps everything
// in memory, which is what the tests use.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrEmptyThreadID rejects writes that would land under an unusable key.
var ErrEmptyThreadID = errors.New("thread id must not be empty")

// DefaultWindow is how many recent messages History returns by default.
const DefaultWindow = 20

// Message is one conversation turn.
type Message struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// Store persists conversation threads. Implementations append messages in
// arrival order and return the most recent window from History.
type Store interface {
	// Append adds a message to the thread, creating the thread on first
	// use. An empty thread id is rejected.
	Append(ctx context.Context, threadID string, msg Message) error

	// History returns the thread's most recent messages in chronological
	// order, at most the configured window. Unknown threads return an
	// empty history.
	History(ctx context.Context, threadID string) ([]Message, error)

	// Clear removes the thread. Clearing an unknown thread is a no-op.
	Clear(ctx context.Context, threadID string) error

	// Close releases the underlying storage.
	Close() error
}
