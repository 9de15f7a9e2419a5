package fuzzer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tensure-fuzz/tensure/internal/stubbackend"
	"github.com/tensure-fuzz/tensure/internal/tensorfile"
)

func baseConfig(t *testing.T, b *stubbackend.Backend) JobConfig {
	return JobConfig{
		BaseSeed:       42,
		OutputDir:      t.TempDir(),
		Backend:        b,
		InitialTimeout: 200 * time.Millisecond,
		TimeoutStep:    200 * time.Millisecond,
		MaxMutants:     3,
		Format:         tensorfile.TNS,
	}
}

// TestJobRunCleanIterationCountsOnce covers testable property #7: a clean
// iteration increments completed_runs exactly once and leaves no
// directory behind (spec §4.8 step 8, §5 "Resource cleanup").
func TestJobRunCleanIterationCountsOnce(t *testing.T) {
	b := stubbackend.New(tensorfile.TNS)
	cfg := baseConfig(t, b)
	counters := &Counters{}

	job := &Job{Index: 0, Config: cfg, Counters: counters}
	job.Run(context.Background())

	assert.Equal(t, int64(1), counters.CompletedRuns.Load())
	assert.Equal(t, int64(0), counters.RefCrashes.Load())
	assert.Equal(t, int64(0), counters.CrashBugs.Load())
	assert.Equal(t, int64(0), counters.WrongCode.Load())

	entries, err := os.ReadDir(filepath.Join(cfg.OutputDir, "corpus"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// TestJobRunReferenceCrash covers spec §8 concrete scenario #6: the seed
// artifact fails, archived under failures/ref_crash/, no mutants run.
func TestJobRunReferenceCrash(t *testing.T) {
	b := stubbackend.New(tensorfile.TNS)
	b.Behaviors["kernel"] = stubbackend.Behavior{Code: 7}
	cfg := baseConfig(t, b)
	counters := &Counters{}

	job := &Job{Index: 0, Config: cfg, Counters: counters}
	job.Run(context.Background())

	assert.Equal(t, int64(1), counters.CompletedRuns.Load())
	assert.Equal(t, int64(1), counters.RefCrashes.Load())
	assert.Equal(t, int64(0), counters.CrashBugs.Load())

	matches, err := filepath.Glob(filepath.Join(cfg.OutputDir, "failures", "ref_crash", "*"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

// TestJobRunMutantCrash covers the crash-bug path of spec §4.8 step 7:
// mutant 1 crashes, the loop breaks, and the failure is archived under
// failures/crash/ with the mutant's own artifact directory included.
func TestJobRunMutantCrash(t *testing.T) {
	b := stubbackend.New(tensorfile.TNS)
	b.Behaviors["kernel1"] = stubbackend.Behavior{Code: 3}
	cfg := baseConfig(t, b)
	counters := &Counters{}

	job := &Job{Index: 0, Config: cfg, Counters: counters}
	job.Run(context.Background())

	assert.Equal(t, int64(1), counters.CompletedRuns.Load())
	assert.Equal(t, int64(1), counters.CrashBugs.Load())

	matches, err := filepath.Glob(filepath.Join(cfg.OutputDir, "failures", "crash", "*"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.DirExists(t, filepath.Join(matches[0], "kernel1"))
	assert.DirExists(t, filepath.Join(matches[0], "kernel"))
	assert.DirExists(t, filepath.Join(matches[0], "data"))
}

// TestJobRunWrongCode covers spec §8 concrete scenario #5: mutant 1
// produces a different value than the reference.
func TestJobRunWrongCode(t *testing.T) {
	b := stubbackend.New(tensorfile.TNS)
	b.Default = stubbackend.Behavior{Value: 1.0}
	b.Behaviors["kernel1"] = stubbackend.Behavior{Value: 1.1}
	cfg := baseConfig(t, b)
	counters := &Counters{}

	job := &Job{Index: 0, Config: cfg, Counters: counters}
	job.Run(context.Background())

	assert.Equal(t, int64(1), counters.CompletedRuns.Load())
	assert.Equal(t, int64(1), counters.WrongCode.Load())

	matches, err := filepath.Glob(filepath.Join(cfg.OutputDir, "failures", "wc", "*"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

// TestJobRunMutantTimeoutAdaptiveRetry covers spec §8 concrete scenario
// #4: a mutant that sleeps past the initial timeout is retried with an
// extended budget rather than counted as a failure, and the iteration
// still completes cleanly.
func TestJobRunMutantTimeoutAdaptiveRetry(t *testing.T) {
	b := stubbackend.New(tensorfile.TNS)
	b.Behaviors["kernel1"] = stubbackend.Behavior{Sleep: 120 * time.Millisecond, Value: 1.0}
	cfg := baseConfig(t, b)
	cfg.InitialTimeout = 50 * time.Millisecond
	cfg.TimeoutStep = 100 * time.Millisecond
	counters := &Counters{}

	job := &Job{Index: 0, Config: cfg, Counters: counters}
	job.Run(context.Background())

	assert.Equal(t, int64(1), counters.CompletedRuns.Load())
	assert.Equal(t, int64(0), counters.CrashBugs.Load())
	assert.Equal(t, int64(0), counters.WrongCode.Load())
}

func TestJobRunKeepCleanIters(t *testing.T) {
	b := stubbackend.New(tensorfile.TNS)
	cfg := baseConfig(t, b)
	cfg.KeepCleanIters = true
	counters := &Counters{}

	job := &Job{Index: 0, Config: cfg, Counters: counters}
	job.Run(context.Background())

	entries, err := os.ReadDir(filepath.Join(cfg.OutputDir, "corpus"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
