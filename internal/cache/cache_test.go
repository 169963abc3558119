package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_LoadReplacesWholesale(t *testing.T) {
	c := New[int]("steps")

	snap, err := Load(context.Background(), c, "campaign=1", func(context.Context) ([]int, error) {
		return []int{1, 2, 3}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, snap.Items)
	assert.True(t, snap.Loaded)

	snap, err = Load(context.Background(), c, "campaign=1", func(context.Context) ([]int, error) {
		return []int{4}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{4}, snap.Items)
}

func TestCache_FailedLoadDropsRows(t *testing.T) {
	c := New[string]("campaigns")
	_, _ = Load(context.Background(), c, "", func(context.Context) ([]string, error) {
		return []string{"a", "b"}, nil
	})

	boom := errors.New("failed to load campaigns")
	snap, err := Load(context.Background(), c, "", func(context.Context) ([]string, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, snap.Items)
	assert.Equal(t, "failed to load campaigns", snap.ErrText())
}

func TestCache_StaleTicketIsDiscarded(t *testing.T) {
	c := New[int]("executions")

	first := c.Begin("campaign=1")
	second := c.Begin("campaign=1")

	assert.True(t, c.Commit(second, []int{2}))
	assert.False(t, c.Commit(first, []int{1}), "older ticket must not overwrite newer result")
	assert.Equal(t, []int{2}, c.Snapshot().Items)
	assert.Equal(t, second.Seq, c.Snapshot().Seq)
}

func TestCache_OutOfOrderCompletion(t *testing.T) {
	c := New[int]("executions")

	first := c.Begin("campaign=1")
	second := c.Begin("campaign=1")

	// the older response arrives first and is dropped; the newer one lands
	assert.False(t, c.Fail(first, errors.New("late failure")))
	assert.True(t, c.Commit(second, []int{7}))
	assert.NoError(t, c.Snapshot().Err)
}

func TestCache_RetargetHidesOldScope(t *testing.T) {
	c := New[int]("customers")
	_, _ = Load(context.Background(), c, "campaign=1", func(context.Context) ([]int, error) {
		return []int{1}, nil
	})

	pending := c.Begin("campaign=1")
	c.Retarget("campaign=2")

	snap := c.Snapshot()
	assert.Equal(t, Scope("campaign=2"), snap.Scope)
	assert.Empty(t, snap.Items)
	assert.False(t, snap.Loaded)

	assert.False(t, c.Commit(pending, []int{1, 1}), "result for a scope no longer targeted")
	assert.Empty(t, c.Snapshot().Items)
}

func TestCache_Find(t *testing.T) {
	c := New[int]("steps")
	_, _ = Load(context.Background(), c, "", func(context.Context) ([]int, error) {
		return []int{3, 5, 8}, nil
	})

	v, ok := c.Find(func(i int) bool { return i > 4 })
	assert.True(t, ok)
	assert.Equal(t, 5, v)

	_, ok = c.Find(func(i int) bool { return i > 10 })
	assert.False(t, ok)
}

func TestCache_TicketsKeptForTargetOnly(t *testing.T) {
	c := New[int]("executions")
	for _, sc := range []Scope{"campaign=1", "campaign=1&step=2", "campaign=1&status=SENT", "campaign=2"} {
		c.Begin(sc)
	}
	pending := c.Begin("campaign=2")

	c.mu.RLock()
	assert.Len(t, c.latest, 1)
	assert.Equal(t, pending.Seq, c.latest["campaign=2"])
	c.mu.RUnlock()

	assert.True(t, c.Commit(pending, []int{4}))
	assert.Equal(t, []int{4}, c.Snapshot().Items)
}
