package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Get(ctx, 42)
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, store.Set(ctx, 42, &Session{State: StateAwaitingClientID, Broker: "XM"}))

	got, err := store.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingClientID, got.State)
	assert.Equal(t, "XM", got.Broker)

	// Mutating the returned copy must not affect stored state.
	got.Broker = "Vantage"
	again, err := store.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "XM", again.Broker)

	require.NoError(t, store.Clear(ctx, 42))
	_, err = store.Get(ctx, 42)
	assert.ErrorIs(t, err, ErrNoSession)
}
