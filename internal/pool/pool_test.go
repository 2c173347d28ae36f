package pool

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(ctx context.Context, chunk []int) ([]int, error) {
	out := make([]int, len(chunk))
	for i, x := range chunk {
		out[i] = x * x
	}
	return out, nil
}

func TestDispatchMatchesSequential(t *testing.T) {
	items := make([]int, 237)
	want := make([]int, len(items))
	for i := range items {
		items[i] = i
		want[i] = i * i
	}

	for _, workers := range []int{1, 2, 4, 7, 16} {
		got, err := Dispatch(context.Background(), items, workers, square)
		require.NoError(t, err, "workers=%d", workers)
		assert.Equal(t, want, got, "workers=%d", workers)
	}
}

func TestDispatchClampsWorkers(t *testing.T) {
	items := []int{1, 2, 3}
	got, err := Dispatch(context.Background(), items, 100, square)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 4, 9}, got)
}

func TestDispatchEmpty(t *testing.T) {
	got, err := Dispatch(context.Background(), nil, 4, square)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDispatchFailureSurfacesNoPartialResults(t *testing.T) {
	items := make([]int, 50)
	for i := range items {
		items[i] = i
	}

	boom := errors.New("bad chunk")
	task := func(ctx context.Context, chunk []int) ([]int, error) {
		for _, x := range chunk {
			if x == 25 {
				return nil, boom
			}
		}
		return chunk, nil
	}

	got, err := Dispatch(context.Background(), items, 4, task)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, got)
}

func TestDispatchPanicCaptured(t *testing.T) {
	items := []int{1, 2, 3, 4}
	task := func(ctx context.Context, chunk []int) ([]int, error) {
		panic(fmt.Sprintf("worker exploded on %v", chunk))
	}

	_, err := Dispatch(context.Background(), items, 2, task)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic")
	assert.Contains(t, err.Error(), "worker exploded")
	// The stack trace travels with the error.
	assert.Contains(t, err.Error(), "pool.Dispatch")
}

func TestDispatchCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	task := func(ctx context.Context, chunk []int) ([]int, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		calls++
		return chunk, nil
	}

	_, err := Dispatch(ctx, []int{1, 2, 3, 4}, 2, task)
	require.Error(t, err)
	assert.Equal(t, 0, calls)
}

func TestDispatchFirstErrorWins(t *testing.T) {
	items := make([]int, 8)
	task := func(ctx context.Context, chunk []int) ([]int, error) {
		return nil, errors.New("chunk failed")
	}

	_, err := Dispatch(context.Background(), items, 4, task)
	require.Error(t, err)
	// Exactly one failure is surfaced, wrapped with its worker index.
	assert.Contains(t, err.Error(), "worker ")
	assert.Contains(t, err.Error(), "chunk failed")
}
