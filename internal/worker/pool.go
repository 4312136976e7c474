// Package worker runs independent tasks on a bounded pool of goroutines
package worker

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Task processes item i of a batch
type Task func(ctx context.Context, i int) error

// PanicError is returned when a task panics
type PanicError struct {
	Index int
	Value interface{}
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task %d panicked: %v", e.Index, e.Value)
}

// Pool bounds how many tasks run at once
type Pool struct {
	name string
	size int
}

// PoolConfig configures the worker pool
type PoolConfig struct {
	Name string
	Size int // <= 0 means runtime.NumCPU()
}

// NewPool creates a new worker pool
func NewPool(cfg PoolConfig) *Pool {
	size := cfg.Size
	if size <= 0 {
		size = runtime.NumCPU()
	}
	name := cfg.Name
	if name == "" {
		name = "pool"
	}
	return &Pool{name: name, size: size}
}

// Size returns the maximum number of concurrent tasks
func (p *Pool) Size() int {
	return p.size
}

// Run calls task for every index in [0, n) with at most Size tasks in flight
// and blocks until all started tasks return. The first task error cancels the
// context handed to the others and is returned. Cancellation of ctx stops new
// tasks from starting and Run returns ctx.Err() once in-flight tasks finish.
func (p *Pool) Run(ctx context.Context, n int, task Task) error {
	if n <= 0 {
		return ctx.Err()
	}
	start := time.Now()
	logger := log.With().Str("pool", p.name).Int("workers", p.size).Int("tasks", n).Logger()
	logger.Debug().Msg("pool started")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.size)

	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = &PanicError{Index: i, Value: r, Stack: debug.Stack()}
				}
			}()
			if err := gctx.Err(); err != nil {
				return err
			}
			return task(gctx, i)
		})
	}

	err := g.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = ctxErr
	}
	if err != nil {
		logger.Warn().Err(err).Dur("duration", time.Since(start)).Msg("pool stopped")
		return err
	}
	logger.Debug().Dur("duration", time.Since(start)).Msg("pool finished")
	return nil
}
