package fuzzer

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// minWorkers is the floor of spec §5's "worker pool sized to the number
// of hardware threads (floor 4)".
const minWorkers = 4

// throttleSleep is the producer's backoff when too many jobs are
// outstanding (spec §5).
const throttleSleep = 500 * time.Millisecond

// Scheduler multiplexes jobs across a fixed-size worker pool (spec §4.8
// step 8 / §5), grounded in the teacher's server/sched.go channel-driven
// scheduler and llm/server.go's semaphore.Weighted use for bounding
// concurrent work.
type Scheduler struct {
	Workers       int
	MaxIterations int
	Config        JobConfig
	Counters      *Counters
}

// NewScheduler returns a Scheduler with Workers defaulting to
// runtime.NumCPU(), floored at minWorkers.
func NewScheduler(maxIterations int, cfg JobConfig) *Scheduler {
	workers := runtime.NumCPU()
	if workers < minWorkers {
		workers = minWorkers
	}
	return &Scheduler{
		Workers:       workers,
		MaxIterations: maxIterations,
		Config:        cfg,
		Counters:      &Counters{},
	}
}

// Run drives MaxIterations jobs to completion, or until ctx is canceled
// (spec §4.8 "Termination": checked before enqueuing the next iteration
// and between mutants inside a job -- the latter is Job.Run's
// checkTerminate). The worker pool itself is an errgroup.Group with
// SetLimit(Workers); a semaphore.Weighted bounds outstanding (queued +
// running) jobs at 2*Workers, with the producer sleeping when that bound
// is hit, matching spec §5's throttle. It blocks until every outstanding
// job has returned, so a canceled run still finishes in-flight jobs
// before Run returns (spec §7 "Signal received": workers finish in-flight
// jobs then drain).
func (s *Scheduler) Run(ctx context.Context) {
	var g errgroup.Group
	g.SetLimit(s.Workers)

	outstandingSem := semaphore.NewWeighted(int64(2 * s.Workers))

	for i := 0; i < s.MaxIterations; i++ {
		if ctx.Err() != nil {
			slog.Info("fuzzer: terminate flag set, draining", "enqueued", i)
			break
		}

		for !outstandingSem.TryAcquire(1) {
			if ctx.Err() != nil {
				break
			}
			time.Sleep(throttleSleep)
		}
		if ctx.Err() != nil {
			break
		}

		job := &Job{Index: i, Config: s.Config, Counters: s.Counters}
		g.Go(func() error {
			defer outstandingSem.Release(1)
			defer func() {
				if r := recover(); r != nil {
					slog.Error("fuzzer: job panicked", "iter", job.Index, "panic", r)
				}
			}()
			job.Run(ctx)
			return nil
		})
	}

	g.Wait()
}
