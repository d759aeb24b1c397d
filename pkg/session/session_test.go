package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, opts ...Option) *BadgerStore {
	t.Helper()

	store, err := NewBadgerStore("", opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})
	return store
}

func TestAppendAndHistory(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Append(ctx, "jess", Message{Role: "user", Content: "hi"}))
	require.NoError(t, store.Append(ctx, "jess", Message{Role: "assistant", Content: "hello"}))
	require.NoError(t, store.Append(ctx, "sam", Message{Role: "user", Content: "sizes?"}))

	history, err := store.History(ctx, "jess")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "hi", history[0].Content)
	assert.Equal(t, "hello", history[1].Content)
	assert.Equal(t, "user", history[0].Role)
	assert.False(t, history[0].At.IsZero(), "append should stamp missing timestamps")

	other, err := store.History(ctx, "sam")
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Equal(t, "sizes?", other[0].Content)
}

func TestHistoryKeepsProvidedTimestamp(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Append(ctx, "jess", Message{Role: "user", Content: "hi", At: at}))

	history, err := store.History(ctx, "jess")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].At.Equal(at))
}

func TestHistoryWindow(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, WithWindow(2))

	for i := 0; i < 5; i++ {
		msg := Message{Role: "user", Content: fmt.Sprintf("turn %d", i)}
		require.NoError(t, store.Append(ctx, "jess", msg))
	}

	history, err := store.History(ctx, "jess")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "turn 3", history[0].Content)
	assert.Equal(t, "turn 4", history[1].Content)
}

func TestHistoryUnknownThread(t *testing.T) {
	store := newTestStore(t)

	history, err := store.History(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Append(ctx, "jess", Message{Role: "user", Content: "hi"}))
	require.NoError(t, store.Clear(ctx, "jess"))

	history, err := store.History(ctx, "jess")
	require.NoError(t, err)
	assert.Empty(t, history)

	assert.NoError(t, store.Clear(ctx, "nobody"))
}

func TestAppendEmptyThreadID(t *testing.T) {
	store := newTestStore(t)

	err := store.Append(context.Background(), "", Message{Role: "user", Content: "hi"})
	assert.ErrorIs(t, err, ErrEmptyThreadID)
}

func TestReopenKeepsHistory(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := NewBadgerStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, "jess", Message{Role: "user", Content: "hi"}))
	require.NoError(t, store.Close())

	reopened, err := NewBadgerStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	history, err := reopened.History(ctx, "jess")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "hi", history[0].Content)
}
