// Package stubbackend implements spec §4.5's Backend contract purely
// in-process, for tests and as a runnable reference of the contract
// (never loaded through the plugin loader). Its scripted per-artifact
// behaviors are grounded in the teacher's test doubles in
// llm/server_test.go: a fake server keyed by request shape instead of a
// real subprocess.
package stubbackend

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tensure-fuzz/tensure/internal/backend"
	"github.com/tensure-fuzz/tensure/internal/oracle"
	"github.com/tensure-fuzz/tensure/internal/tensorfile"
)

// Behavior scripts one artifact's execution: how long to sleep before
// responding, what exit code to return, whether to panic instead of
// returning, and the scalar value to write as its output tensor.
type Behavior struct {
	Sleep time.Duration
	Code  int
	Panic bool
	Value float64
}

// Backend is a scripted, in-process implementation of backend.Backend.
// GenerateKernel always succeeds (it only creates the per-stem artifact
// directories); ExecuteKernel follows Behaviors keyed by artifact stem
// ("kernel", "kernel1", ...), falling back to Default; CompareResults
// runs oracle.DefaultCompare on the written result files.
type Backend struct {
	Format    tensorfile.Format
	Tolerance float64
	Behaviors map[string]Behavior
	Default   Behavior
}

// New returns a Backend whose default behavior is a clean, immediate
// success writing Value 1.0, using the default tolerance of spec §4.5.
func New(format tensorfile.Format) *Backend {
	return &Backend{
		Format:    format,
		Tolerance: oracle.DefaultTolerance,
		Behaviors: map[string]Behavior{},
		Default:   Behavior{Value: 1.0},
	}
}

var _ backend.Backend = (*Backend)(nil)

func (b *Backend) GenerateKernel(ctx context.Context, mutantPaths []string, outputDir string) (bool, error) {
	for _, path := range mutantPaths {
		stem := stemOf(path)
		if err := os.MkdirAll(filepath.Join(outputDir, stem), 0o755); err != nil {
			return false, fmt.Errorf("stubbackend: create artifact dir for %s: %w", stem, err)
		}
	}
	return true, nil
}

func (b *Backend) ExecuteKernel(ctx context.Context, artifactPath string) (int, error) {
	stem := filepath.Base(artifactPath)
	behavior, ok := b.Behaviors[stem]
	if !ok {
		behavior = b.Default
	}

	if behavior.Sleep > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(behavior.Sleep):
		}
	}
	if behavior.Panic {
		panic(fmt.Sprintf("stubbackend: scripted panic for %s", stem))
	}
	if behavior.Code != 0 {
		return behavior.Code, nil
	}

	resultsPath := filepath.Join(artifactPath, "results"+b.Format.Ext())
	entries := &tensorfile.Entries{List: []tensorfile.Entry{{Coord: []int{}, Value: behavior.Value}}}
	if err := tensorfile.Write(b.Format, resultsPath, entries); err != nil {
		return 0, fmt.Errorf("stubbackend: write %s: %w", resultsPath, err)
	}
	return 0, nil
}

func (b *Backend) CompareResults(refPath, testPath string) (bool, error) {
	return oracle.DefaultCompare(b.Format, refPath, testPath, b.Tolerance)
}

func stemOf(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return base[:len(base)-len(ext)]
}
