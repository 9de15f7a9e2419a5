package execdriver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeBackend struct {
	sleep   time.Duration
	code    int
	err     error
	panicOn bool
}

func (f *fakeBackend) GenerateKernel(ctx context.Context, mutantPaths []string, outputDir string) (bool, error) {
	return true, nil
}

func (f *fakeBackend) ExecuteKernel(ctx context.Context, artifactPath string) (int, error) {
	if f.panicOn {
		panic("simulated backend crash")
	}
	time.Sleep(f.sleep)
	return f.code, f.err
}

func (f *fakeBackend) CompareResults(refPath, testPath string) (bool, error) {
	return true, nil
}

func TestRunReturnsSuccessPromptly(t *testing.T) {
	out := Run(context.Background(), &fakeBackend{code: 0}, "artifact", 50*time.Millisecond)
	assert.False(t, out.Failed())
	assert.False(t, out.TimedOut)
}

func TestRunReturnsBackendFailureCode(t *testing.T) {
	out := Run(context.Background(), &fakeBackend{code: 7}, "artifact", 50*time.Millisecond)
	assert.True(t, out.Failed())
	assert.Equal(t, 7, out.Code)
	assert.False(t, out.TimedOut)
}

func TestRunReturnsAbortedOnError(t *testing.T) {
	out := Run(context.Background(), &fakeBackend{err: errors.New("boom")}, "artifact", 50*time.Millisecond)
	assert.True(t, out.Aborted)
	assert.True(t, out.Failed())
}

func TestRunReturnsAbortedOnPanic(t *testing.T) {
	out := Run(context.Background(), &fakeBackend{panicOn: true}, "artifact", 50*time.Millisecond)
	assert.True(t, out.Aborted)
	assert.ErrorContains(t, out.Err, "simulated backend crash")
}

// TestRunTimesOutAndDoesNotBlock checks testable property #8: a backend
// execute that returns after timeout_ms does not alter the driver's
// timeout disposition, and Run itself returns promptly instead of
// blocking on the abandoned goroutine.
func TestRunTimesOutAndDoesNotBlock(t *testing.T) {
	start := time.Now()
	out := Run(context.Background(), &fakeBackend{sleep: 500 * time.Millisecond, code: 0}, "artifact", 50*time.Millisecond)
	elapsed := time.Since(start)

	assert.True(t, out.TimedOut)
	assert.Less(t, elapsed, 200*time.Millisecond, "Run should not wait for the abandoned goroutine")
}
