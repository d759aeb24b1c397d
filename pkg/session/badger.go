package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

const threadPrefix = "thread/"

// BadgerStore keeps each thread as a JSON-encoded message slice under a
// single key, so appends are a read-modify-write inside one transaction.
type BadgerStore struct {
	db     *badger.DB
	window int
}

var _ Store = (*BadgerStore)(nil)

// Option configures a BadgerStore.
type Option func(*BadgerStore)

// WithWindow overrides how many recent messages History returns.
func WithWindow(n int) Option {
	return func(s *BadgerStore) {
		if n > 0 {
			s.window = n
		}
	}
}

// NewBadgerStore opens a thread store rooted at dir. An empty dir opens an
// in-memory store that vanishes on Close.
func NewBadgerStore(dir string, opts ...Option) (*BadgerStore, error) {
	options := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		options = options.WithInMemory(true)
	}

	db, err := badger.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	store := &BadgerStore{
		db:     db,
		window: DefaultWindow,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store, nil
}

// Append adds a message to the thread. A zero At is stamped with the
// current time so history stays ordered even when callers omit it.
func (s *BadgerStore) Append(ctx context.Context, threadID string, msg Message) error {
	if threadID == "" {
		return ErrEmptyThreadID
	}
	if msg.At.IsZero() {
		msg.At = time.Now().UTC()
	}

	key := threadKey(threadID)
	return s.db.Update(func(txn *badger.Txn) error {
		messages, err := readThread(txn, key)
		if err != nil {
			return err
		}
		messages = append(messages, msg)

		data, err := json.Marshal(messages)
		if err != nil {
			return fmt.Errorf("failed to encode thread: %w", err)
		}
		return txn.Set(key, data)
	})
}

// History returns the thread's most recent messages, oldest first.
func (s *BadgerStore) History(ctx context.Context, threadID string) ([]Message, error) {
	var messages []Message
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		messages, err = readThread(txn, threadKey(threadID))
		return err
	})
	if err != nil {
		return nil, err
	}

	if len(messages) > s.window {
		messages = messages[len(messages)-s.window:]
	}
	return messages, nil
}

// Clear removes the thread and all of its messages.
func (s *BadgerStore) Clear(ctx context.Context, threadID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(threadKey(threadID))
	})
}

// Close releases the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func threadKey(threadID string) []byte {
	return []byte(threadPrefix + threadID)
}

// readThread decodes the stored message slice. A missing key is an empty
// thread, not an error.
func readThread(txn *badger.Txn, key []byte) ([]Message, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read thread: %w", err)
	}

	var messages []Message
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &messages)
	}); err != nil {
		return nil, fmt.Errorf("failed to decode thread: %w", err)
	}
	return messages, nil
}
