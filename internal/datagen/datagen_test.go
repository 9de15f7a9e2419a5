package datagen

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tensure-fuzz/tensure/internal/kernel"
	"github.com/tensure-fuzz/tensure/internal/tensorfile"
)

func testTensors() []kernel.TensorDescriptor {
	return []kernel.TensorDescriptor{
		{Name: "A", Indices: []string{"i"}, Shape: []int{3}, DataFile: "-"},
		{Name: "B", Indices: []string{"i", "k"}, Shape: []int{3, 4}, DataFile: "B.tns"},
		{Name: "C", Indices: []string{"k"}, Shape: []int{4}, DataFile: "C.tns"},
	}
}

func TestGenerateWritesOnePathPerInput(t *testing.T) {
	dir := t.TempDir()
	rnd := rand.New(rand.NewSource(1))

	paths, err := Generate(rnd, testTensors(), dir, "", tensorfile.TNS)
	require.NoError(t, err)
	assert.Len(t, paths, 2)

	for i, p := range paths {
		assert.True(t, filepath.IsAbs(p))
		entries, err := tensorfile.ReadTNS(p)
		require.NoError(t, err)
		for _, e := range entries.List {
			assert.LessOrEqual(t, e.Value, ValueMax)
			assert.GreaterOrEqual(t, e.Value, ValueMin)
			assert.Len(t, e.Coord, testTensors()[i+1].Rank())
		}
	}
}

func TestGenerateHonorsSuffix(t *testing.T) {
	dir := t.TempDir()
	rnd := rand.New(rand.NewSource(2))

	paths, err := Generate(rnd, testTensors(), dir, "mut3", tensorfile.TNS)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Contains(t, paths[0], "B_mut3.tns")
	assert.Contains(t, paths[1], "C_mut3.tns")
}

// stuckRand always reports the coordinate as nonzero, used to check the
// sweep visits every coordinate in row-major order.
type stuckRand struct{ calls int }

func (r *stuckRand) Float64() float64 {
	r.calls++
	return 0
}

func TestSweepVisitsEveryCoordinateRowMajor(t *testing.T) {
	shape := []int{2, 3}
	entries := sweep(&stuckRand{}, shape)
	require.Len(t, entries, 6)

	want := [][]int{{0, 0}, {0, 1}, {0, 2}, {1, 0}, {1, 1}, {1, 2}}
	for i, e := range entries {
		assert.Equal(t, want[i], e.Coord)
	}
}

func TestGenerateFormatExtension(t *testing.T) {
	dir := t.TempDir()
	rnd := rand.New(rand.NewSource(3))

	paths, err := Generate(rnd, testTensors(), dir, "", tensorfile.TTX)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Contains(t, paths[0], ".ttx")
}
