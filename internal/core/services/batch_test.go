package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFailFast_CommitsInInputOrder(t *testing.T) {
	var mu sync.Mutex
	var committed []int

	failed, err := failFast(context.Background(), 6, 3,
		func(_ context.Context, i int) error {
			// Later items finish first.
			time.Sleep(time.Duration(6-i) * time.Millisecond)
			return nil
		},
		func(_ context.Context, i int) error {
			mu.Lock()
			defer mu.Unlock()
			committed = append(committed, i)
			return nil
		},
	)

	require.NoError(t, err)
	assert.Equal(t, -1, failed)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, committed)
}

func TestFailFast_FirstFailureInInputOrderWins(t *testing.T) {
	var committed []int

	failed, err := failFast(context.Background(), 5, 5,
		func(_ context.Context, i int) error {
			switch i {
			case 2:
				time.Sleep(5 * time.Millisecond)
				return fmt.Errorf("item %d", i)
			case 4:
				return fmt.Errorf("item %d", i)
			}
			return nil
		},
		func(_ context.Context, i int) error {
			committed = append(committed, i)
			return nil
		},
	)

	require.Error(t, err)
	assert.Equal(t, "item 2", err.Error())
	assert.Equal(t, 2, failed)
	assert.Equal(t, []int{0, 1}, committed)
}

func TestFailFast_CommitFailureStops(t *testing.T) {
	var prepared atomic.Int32
	var committed []int

	failed, err := failFast(context.Background(), 4, 1,
		func(_ context.Context, _ int) error {
			prepared.Add(1)
			return nil
		},
		func(_ context.Context, i int) error {
			if i == 1 {
				return errors.New("commit failed")
			}
			committed = append(committed, i)
			return nil
		},
	)

	require.EqualError(t, err, "commit failed")
	assert.Equal(t, 1, failed)
	assert.Equal(t, []int{0}, committed)
	assert.LessOrEqual(t, int(prepared.Load()), 4)
}

func TestFailFast_CancelsInFlightPrepares(t *testing.T) {
	start := time.Now()

	failed, err := failFast(context.Background(), 4, 4,
		func(ctx context.Context, i int) error {
			if i == 0 {
				return errors.New("first")
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(2 * time.Second):
				return nil
			}
		},
		func(context.Context, int) error { return nil },
	)

	require.EqualError(t, err, "first")
	assert.Equal(t, 0, failed)
	assert.Less(t, time.Since(start), time.Second)
}

func TestFailFast_Empty(t *testing.T) {
	called := false
	failed, err := failFast(context.Background(), 0, 2,
		func(context.Context, int) error { called = true; return nil },
		func(context.Context, int) error { called = true; return nil },
	)
	require.NoError(t, err)
	assert.Equal(t, -1, failed)
	assert.False(t, called)
}

func TestFailFast_CancelledBeforeStartFailsAtFirstItem(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var prepared atomic.Int32

	failed, err := failFast(ctx, 3, 2,
		func(context.Context, int) error { prepared.Add(1); return nil },
		func(context.Context, int) error { return nil },
	)

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, failed)
	assert.Zero(t, prepared.Load())
}

func TestCollectAll_RunsEveryItem(t *testing.T) {
	var ran atomic.Int32
	results := make([]int, 10)

	collectAll(context.Background(), 10, 3, func(_ context.Context, i int) {
		ran.Add(1)
		results[i] = i * i
	})

	assert.Equal(t, int32(10), ran.Load())
	assert.Equal(t, 81, results[9])
}
