package worker

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestNewPool_DefaultSize(t *testing.T) {
	p := NewPool(PoolConfig{})
	assert.Equal(t, runtime.NumCPU(), p.Size())

	p = NewPool(PoolConfig{Name: "files", Size: 3})
	assert.Equal(t, 3, p.Size())
}

func TestPool_RunsEveryTask(t *testing.T) {
	defer goleak.VerifyNone(t)

	p := NewPool(PoolConfig{Size: 4})
	results := make([]int, 50)

	err := p.Run(context.Background(), len(results), func(ctx context.Context, i int) error {
		results[i] = i * i
		return nil
	})

	require.NoError(t, err)
	for i, v := range results {
		assert.Equal(t, i*i, v)
	}
}

func TestPool_RespectsLimit(t *testing.T) {
	defer goleak.VerifyNone(t)

	p := NewPool(PoolConfig{Size: 2})
	var inFlight, peak int32

	err := p.Run(context.Background(), 20, func(ctx context.Context, i int) error {
		cur := atomic.AddInt32(&inFlight, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if cur <= old || atomic.CompareAndSwapInt32(&peak, old, cur) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return nil
	})

	require.NoError(t, err)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestPool_ZeroTasks(t *testing.T) {
	p := NewPool(PoolConfig{Size: 2})
	called := false
	err := p.Run(context.Background(), 0, func(ctx context.Context, i int) error {
		called = true
		return nil
	})
	assert.NoError(t, err)
	assert.False(t, called)
}

func TestPool_TaskErrorStopsBatch(t *testing.T) {
	defer goleak.VerifyNone(t)

	boom := errors.New("boom")
	p := NewPool(PoolConfig{Size: 1})
	var ran int32

	err := p.Run(context.Background(), 10, func(ctx context.Context, i int) error {
		atomic.AddInt32(&ran, 1)
		if i == 2 {
			return boom
		}
		return nil
	})

	assert.ErrorIs(t, err, boom)
	assert.Less(t, atomic.LoadInt32(&ran), int32(10))
}

func TestPool_RecoversPanics(t *testing.T) {
	defer goleak.VerifyNone(t)

	p := NewPool(PoolConfig{Size: 2})
	err := p.Run(context.Background(), 3, func(ctx context.Context, i int) error {
		if i == 1 {
			panic("bad input")
		}
		return nil
	})

	var pe *PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 1, pe.Index)
	assert.Equal(t, "bad input", pe.Value)
	assert.NotEmpty(t, pe.Stack)
}

func TestPool_Cancellation(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	p := NewPool(PoolConfig{Size: 2})

	var once sync.Once
	var started int32
	err := p.Run(ctx, 100, func(ctx context.Context, i int) error {
		atomic.AddInt32(&started, 1)
		once.Do(cancel)
		<-ctx.Done()
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, atomic.LoadInt32(&started), int32(100))
}
