// Package execdriver runs one backend.ExecuteKernel call under a timeout
// budget (spec §4.6). On timeout the in-flight call is abandoned: the
// driver returns immediately and does not wait for the orphaned goroutine,
// matching spec §5's "Abandoned executions" cancellation model (a
// production implementation is expected to run the backend out-of-process
// so the orphan can be killed; the core itself only models the
// walk-away-on-timeout contract).
package execdriver

import (
	"context"
	"fmt"
	"time"

	"github.com/tensure-fuzz/tensure/internal/backend"
)

// Outcome is one execution's result, spec §4.6's four-way disposition:
// success (Code == 0), backend-reported failure (Code > 0), abort
// (Aborted), or timeout (TimedOut).
type Outcome struct {
	Code     int
	Aborted  bool
	TimedOut bool
	Err      error
}

// Failed reports whether o is anything other than a clean success.
func (o Outcome) Failed() bool {
	return o.Code != 0 || o.Aborted || o.TimedOut
}

// Run launches b.ExecuteKernel(ctx, artifactPath) on its own goroutine and
// waits up to timeout for it to complete. If timeout elapses first, Run
// returns immediately with TimedOut set; the goroutine is abandoned, not
// canceled — ctx is not canceled by Run, so a backend that needs to react
// to the timeout must be told to stop by its own process-kill path, not
// by this driver (spec §9 "Abandoned executions").
func Run(ctx context.Context, b backend.Backend, artifactPath string, timeout time.Duration) Outcome {
	resultCh := make(chan Outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resultCh <- Outcome{Aborted: true, Err: fmt.Errorf("execdriver: backend panicked: %v", r)}
			}
		}()
		code, err := b.ExecuteKernel(ctx, artifactPath)
		if err != nil {
			resultCh <- Outcome{Code: code, Aborted: true, Err: err}
			return
		}
		resultCh <- Outcome{Code: code}
	}()

	select {
	case out := <-resultCh:
		return out
	case <-time.After(timeout):
		return Outcome{TimedOut: true}
	}
}
