// Package fuzzer implements the per-iteration job (spec §4.8) and the
// worker-pool scheduler that drives many jobs concurrently (spec §5),
// grounded in the teacher's server/sched.go channel-based scheduler and
// llm/server.go's subprocess-timeout idiom.
package fuzzer

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/tensure-fuzz/tensure/internal/archive"
	"github.com/tensure-fuzz/tensure/internal/backend"
	"github.com/tensure-fuzz/tensure/internal/datagen"
	"github.com/tensure-fuzz/tensure/internal/einsum"
	"github.com/tensure-fuzz/tensure/internal/execdriver"
	"github.com/tensure-fuzz/tensure/internal/kernel"
	"github.com/tensure-fuzz/tensure/internal/mutate"
	"github.com/tensure-fuzz/tensure/internal/oracle"
	"github.com/tensure-fuzz/tensure/internal/tensorfile"
)

// JobConfig is the fixed, shared-across-jobs configuration a Scheduler
// hands to every Job it runs (spec §4.8/§6).
type JobConfig struct {
	BaseSeed        int64
	OutputDir       string
	Backend         backend.Backend
	InitialTimeout  time.Duration
	TimeoutStep     time.Duration
	MaxMutants      int
	Format          tensorfile.Format
	KeepCleanIters  bool
	GenParams       func(rnd *rand.Rand) einsum.Params
}

// Job is one fuzzing iteration (spec §4.8's numbered steps).
type Job struct {
	Index    int
	Config   JobConfig
	Counters *Counters
}

// iterPaths is the directory layout of spec §6 for one iteration.
type iterPaths struct {
	root         string // corpus/iter_<i>_<ts>_<uuid8>/
	dataDir      string // .../data/
	refOutDir    string // .../data/ref_out/
	backendRoot  string // .../backend_kernel/
	seedKernel   string // .../kernel.json
	iterID       string
}

func newIterPaths(outputDir string, index int) iterPaths {
	ts := time.Now().UTC().Format("20060102T150405")
	iterID := fmt.Sprintf("iter_%d_%s_%s", index, ts, uuid.NewString()[:8])
	root := filepath.Join(outputDir, "corpus", iterID)
	return iterPaths{
		root:        root,
		dataDir:     filepath.Join(root, "data"),
		refOutDir:   filepath.Join(root, "data", "ref_out"),
		backendRoot: filepath.Join(root, "backend_kernel"),
		seedKernel:  filepath.Join(root, "kernel.json"),
		iterID:      iterID,
	}
}

// Run executes spec §4.8's pipeline for this job. The finalizer
// (spec §5 "Resource cleanup") guarantees completed_runs is incremented
// exactly once and that the iteration directory is removed unless the job
// was archived to failures/, on every return path including a panic
// recovered by the caller's worker loop.
func (j *Job) Run(ctx context.Context) {
	archived := false
	defer func() {
		j.Counters.CompletedRuns.Add(1)
	}()

	rnd := rand.New(rand.NewSource(j.Config.BaseSeed + int64(j.Index)))
	paths := newIterPaths(j.Config.OutputDir, j.Index)
	defer func() { j.cleanup(paths, archived) }()

	if err := os.MkdirAll(paths.dataDir, 0o755); err != nil {
		slog.Error("fuzzer: create iteration directory", "iter", j.Index, "error", err)
		return
	}

	genParams := j.Config.GenParams
	if genParams == nil {
		genParams = einsum.DefaultParams
	}

	// Step 3: generator -> data generator -> kernel writer.
	result, err := einsum.Generate(rnd, genParams(rnd))
	if err != nil {
		slog.Error("fuzzer: einsum generation failed", "iter", j.Index, "error", err)
		return
	}

	dataPaths, err := datagen.Generate(rnd, result.Tensors, paths.dataDir, "", j.Config.Format)
	if err != nil {
		slog.Error("fuzzer: data generation failed", "iter", j.Index, "error", err)
		return
	}
	numInputs := len(result.Tensors) - 1
	if len(dataPaths) < numInputs {
		slog.Warn("fuzzer: data generator produced fewer files than inputs, skipping iteration",
			"iter", j.Index, "want", numInputs, "got", len(dataPaths))
		return
	}

	seed := &kernel.KernelDescription{
		Tensors:      result.Tensors,
		Computations: []kernel.Computation{{Expression: result.Expression}},
	}
	for i := range seed.Inputs() {
		seed.Tensors[i+1].DataFile = dataPaths[i]
	}
	if err := kernel.Save(paths.seedKernel, seed); err != nil {
		slog.Error("fuzzer: write seed kernel", "iter", j.Index, "error", err)
		return
	}

	// Step 4: mutation engine.
	mutants, err := mutate.Generate(rnd, seed, paths.root, j.Config.MaxMutants, mutate.DefaultOperators())
	if err != nil {
		slog.Error("fuzzer: mutation engine failed", "iter", j.Index, "error", err)
		return
	}

	// Step 5: backend.generate_kernel on seed + mutants.
	allKernelPaths := append([]string{paths.seedKernel}, mutantPaths(mutants)...)
	ok, err := j.Config.Backend.GenerateKernel(ctx, allKernelPaths, paths.backendRoot)
	if err != nil || !ok {
		slog.Warn("fuzzer: backend generate_kernel failed, skipping iteration", "iter", j.Index, "error", err)
		return
	}

	// Step 6: execute the reference (seed) artifact.
	timeout := j.Config.InitialTimeout
	seedArtifact := filepath.Join(paths.backendRoot, "kernel")
	refOut := filepath.Join(seedArtifact, "results"+j.Config.Format.Ext())

	out := execdriver.Run(ctx, j.Config.Backend, seedArtifact, timeout)
	if out.TimedOut {
		j.Counters.RefCrashes.Add(1)
		j.archiveFailure(paths, archive.BucketRefCrash, "reference execution timed out")
		archived = true
		return
	}
	if out.Failed() {
		j.Counters.RefCrashes.Add(1)
		j.archiveFailure(paths, archive.BucketRefCrash, fmt.Sprintf("reference execution failed: code=%d aborted=%v err=%v", out.Code, out.Aborted, out.Err))
		archived = true
		return
	}

	// Step 7: execute each mutant in order with adaptive timeout.
	for _, m := range mutants {
		if checkTerminate(ctx) {
			break
		}
		stem := mutantStem(m.Path)
		mutantArtifact := filepath.Join(paths.backendRoot, stem)
		mutantOut := filepath.Join(mutantArtifact, "results"+j.Config.Format.Ext())

		for {
			out := execdriver.Run(ctx, j.Config.Backend, mutantArtifact, timeout)
			if out.TimedOut {
				timeout += j.Config.TimeoutStep
				slog.Debug("fuzzer: mutant timed out, extending timeout and retrying", "iter", j.Index, "mutant", stem, "timeout", timeout)
				continue
			}
			if out.Failed() {
				j.Counters.CrashBugs.Add(1)
				j.archiveFailure(paths, archive.BucketCrash, fmt.Sprintf("mutant %s crashed: code=%d aborted=%v err=%v", stem, out.Code, out.Aborted, out.Err), stem)
				archived = true
				return
			}

			verdict, err := oracle.Compare(j.Config.Backend, refOut, mutantOut)
			if err != nil {
				slog.Error("fuzzer: oracle comparison failed", "iter", j.Index, "mutant", stem, "error", err)
				return
			}
			if verdict.WrongCode {
				j.Counters.WrongCode.Add(1)
				j.archiveFailure(paths, archive.BucketWC, fmt.Sprintf("mutant %s disagreed with reference", stem), stem)
				archived = true
				return
			}
			break
		}
	}
}

func (j *Job) archiveFailure(paths iterPaths, bucket archive.Bucket, reason string, mutantStems ...string) {
	srcDirs := map[string]string{
		"kernel": filepath.Join(paths.backendRoot, "kernel"),
		"data":   paths.dataDir,
	}
	for _, stem := range mutantStems {
		srcDirs[stem] = filepath.Join(paths.backendRoot, stem)
	}
	if err := archive.Archive(j.Config.OutputDir, bucket, paths.iterID, reason, srcDirs); err != nil {
		slog.Error("fuzzer: archive failure", "iter", j.Index, "bucket", bucket, "error", err)
	}
}

func (j *Job) cleanup(paths iterPaths, archived bool) {
	if archived || j.Config.KeepCleanIters {
		return
	}
	if err := os.RemoveAll(paths.root); err != nil {
		slog.Warn("fuzzer: remove iteration directory", "iter", j.Index, "error", err)
	}
}

func checkTerminate(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

func mutantPaths(results []mutate.Result) []string {
	paths := make([]string, len(results))
	for i, r := range results {
		paths[i] = r.Path
	}
	return paths
}

// mutantStem returns "kernel3" from ".../kernel3.json", matching the
// backend artifact-directory naming convention of spec §4.5.
func mutantStem(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return base[:len(base)-len(ext)]
}
