package sandbox

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolIsolatesRuns(t *testing.T) {
	pool, err := NewPool(DefaultConfig(), 1)
	require.NoError(t, err)
	defer pool.Close()

	_, err = pool.Execute(context.Background(), Request{Scripts: []Script{{Source: `var leaked = 'first run'`}}})
	require.NoError(t, err)

	res, err := pool.Execute(context.Background(), Request{Scripts: []Script{{Source: `console.log(typeof leaked)`}}})
	require.NoError(t, err)
	assert.Equal(t, "undefined", res.Console[0].Message)
	assert.Equal(t, uint64(2), pool.Stats().Runs)
}

func TestPoolAcquireTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AcquireTimeout = 20 * time.Millisecond
	pool, err := NewPool(cfg, 1)
	require.NoError(t, err)
	defer pool.Close()

	rt, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{Size: 1, Available: 0, InUse: 1}, pool.Stats())

	_, err = pool.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, uint64(1), pool.Stats().Timeouts)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = pool.Acquire(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, uint64(1), pool.Stats().Timeouts)

	require.NoError(t, pool.Release(rt))
	assert.Equal(t, 1, pool.Stats().Available)
}

func TestPoolClosed(t *testing.T) {
	pool, err := NewPool(DefaultConfig(), 1)
	require.NoError(t, err)
	require.NoError(t, pool.Close())

	_, err = pool.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrPoolClosed)
	assert.True(t, pool.Stats().Closed)
}

func TestPoolCloseDoesNotWaitOnAcquirers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AcquireTimeout = 5 * time.Second
	pool, err := NewPool(cfg, 1)
	require.NoError(t, err)

	rt, err := pool.Acquire(context.Background())
	require.NoError(t, err)

	waiting := make(chan error, 1)
	go func() {
		_, err := pool.Acquire(context.Background())
		waiting <- err
	}()
	time.Sleep(20 * time.Millisecond)

	closed := make(chan struct{})
	go func() {
		assert.NoError(t, pool.Close())
		assert.NoError(t, pool.Release(rt))
		close(closed)
	}()

	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("Close blocked behind a waiting Acquire")
	}
	select {
	case err := <-waiting:
		assert.ErrorIs(t, err, ErrPoolClosed)
	case <-time.After(time.Second):
		t.Fatal("waiting Acquire did not observe Close")
	}
}
