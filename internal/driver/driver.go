// Package driver runs a ForkableVisitor across a generation's full task
// list using a fixed worker pool, following the fork/join-with-clone
// shape of the teacher's TablebaseWorker (per-goroutine independent
// expansion, a shared atomic counter to dispense work, and periodic
// progress logging), generalized from one long-lived worker to a
// numWorkers-wide errgroup.Group of short-lived ones that each clone,
// drive, and merge back into a single parent visitor.
package driver

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jbosboom/pushfight-solver/internal/board"
	"github.com/jbosboom/pushfight-solver/internal/enumerate"
	"github.com/jbosboom/pushfight-solver/internal/state"
	"github.com/jbosboom/pushfight-solver/internal/visitor"
)

// Task identifies one unit of enumeration work: a (slice, subslice)
// pair, as produced by enumerate's partitioning of a generation's full
// position space. The driver shards across Tasks, never within one —
// a Task runs start-to-finish on a single goroutine.
type Task struct {
	Slice, Subslice int
}

// Config configures RunGeneration. A zero Config takes NumWorkers from
// runtime.NumCPU() and logs nothing, matching the teacher's
// zero-value-defaults Config convention.
type Config struct {
	NumWorkers int
	Logger     zerolog.Logger
}

// RunGeneration drives parent over every task in tasks, splitting the
// work across cfg.NumWorkers goroutines. Each worker clones parent via
// Clone, drives its share of the position space independently (no
// shared mutable state while enumerating — the database a generation
// consults is already frozen for the generation's whole duration), and
// merges its clone back into parent under a single mutex held only
// across the Merge call itself, never across enumeration. It returns
// the first error any worker or the context raised.
func RunGeneration(ctx context.Context, b *board.Board, parent visitor.ForkableVisitor, cfg Config, tasks []Task) error {
	numWorkers := cfg.NumWorkers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	log := cfg.Logger

	var nextTask atomic.Int64
	var mergeMu sync.Mutex
	var completed atomic.Int64
	total := int64(len(tasks))

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < numWorkers; w++ {
		g.Go(func() error {
			clone := parent.Clone()
			lastLog := time.Now()

			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}

				i := nextTask.Add(1) - 1
				if i >= total {
					break
				}
				task := tasks[i]

				// visitor.Drive's return value only says whether this
				// one source's own successor expansion was cut short
				// (a normal per-source event, e.g. InherentValueVisitor
				// stopping at the first enemy-removal successor); it is
				// never a signal to abort the rest of the subslice.
				var driveErr error
				enumerate.Subslice(b, task.Slice, task.Subslice, func(s state.State) bool {
					visitor.Drive(b, clone, s)
					select {
					case <-ctx.Done():
						driveErr = ctx.Err()
						return false
					default:
						return true
					}
				})
				if driveErr != nil {
					return driveErr
				}

				done := completed.Add(1)
				if time.Since(lastLog) > 30*time.Second {
					log.Info().
						Int64("completed", done).
						Int64("total", total).
						Msg("generation progress")
					lastLog = time.Now()
				}
			}

			mergeMu.Lock()
			defer mergeMu.Unlock()
			parent.Merge(clone)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("driver: generation run: %w", err)
	}
	return nil
}
