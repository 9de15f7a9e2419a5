package stubbackend

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tensure-fuzz/tensure/internal/tensorfile"
)

func TestGenerateKernelCreatesArtifactDirs(t *testing.T) {
	dir := t.TempDir()
	b := New(tensorfile.TNS)

	ok, err := b.GenerateKernel(context.Background(), []string{
		filepath.Join(dir, "kernel.json"),
		filepath.Join(dir, "kernel1.json"),
	}, dir)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.DirExists(t, filepath.Join(dir, "kernel"))
	assert.DirExists(t, filepath.Join(dir, "kernel1"))
}

func TestExecuteKernelDefaultSuccess(t *testing.T) {
	dir := t.TempDir()
	artifact := filepath.Join(dir, "kernel")
	require.NoError(t, mkArtifactDir(artifact))

	b := New(tensorfile.TNS)
	code, err := b.ExecuteKernel(context.Background(), artifact)
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.FileExists(t, filepath.Join(artifact, "results.tns"))
}

func TestExecuteKernelScriptedCode(t *testing.T) {
	dir := t.TempDir()
	artifact := filepath.Join(dir, "kernel")
	require.NoError(t, mkArtifactDir(artifact))

	b := New(tensorfile.TNS)
	b.Behaviors["kernel"] = Behavior{Code: 7}

	code, err := b.ExecuteKernel(context.Background(), artifact)
	require.NoError(t, err)
	assert.Equal(t, 7, code)
}

// TestExecuteKernelHonorsScriptedSleep checks that a scripted Sleep runs
// to completion before ExecuteKernel reports success: ExecuteKernel does
// not cut the sleep short on its own, which is what lets a caller with a
// shorter deadline observe the call as a timeout.
func TestExecuteKernelHonorsScriptedSleep(t *testing.T) {
	dir := t.TempDir()
	artifact := filepath.Join(dir, "kernel1")
	require.NoError(t, mkArtifactDir(artifact))

	b := New(tensorfile.TNS)
	b.Behaviors["kernel1"] = Behavior{Sleep: 30 * time.Millisecond, Value: 1.0}

	start := time.Now()
	code, err := b.ExecuteKernel(context.Background(), artifact)
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestCompareResultsWrongCode(t *testing.T) {
	dir := t.TempDir()
	b := New(tensorfile.TNS)

	refPath := filepath.Join(dir, "ref.tns")
	testPath := filepath.Join(dir, "test.tns")
	require.NoError(t, tensorfile.Write(tensorfile.TNS, refPath, &tensorfile.Entries{
		List: []tensorfile.Entry{{Coord: []int{}, Value: 1.0}},
	}))
	require.NoError(t, tensorfile.Write(tensorfile.TNS, testPath, &tensorfile.Entries{
		List: []tensorfile.Entry{{Coord: []int{}, Value: 1.1}},
	}))

	ok, err := b.CompareResults(refPath, testPath)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCompareResultsAgree(t *testing.T) {
	dir := t.TempDir()
	b := New(tensorfile.TNS)

	refPath := filepath.Join(dir, "ref.tns")
	testPath := filepath.Join(dir, "test.tns")
	require.NoError(t, tensorfile.Write(tensorfile.TNS, refPath, &tensorfile.Entries{
		List: []tensorfile.Entry{{Coord: []int{}, Value: 1.0}},
	}))
	require.NoError(t, tensorfile.Write(tensorfile.TNS, testPath, &tensorfile.Entries{
		List: []tensorfile.Entry{{Coord: []int{}, Value: 1.0}},
	}))

	ok, err := b.CompareResults(refPath, testPath)
	require.NoError(t, err)
	assert.True(t, ok)
}

func mkArtifactDir(path string) error {
	return os.MkdirAll(path, 0o755)
}
