// Package datagen materializes random sparse input tensors to disk (spec
// §4.2): for each input tensor it sweeps every coordinate in row-major
// order and, with fixed probability, emits a nonzero value.
package datagen

import (
	"fmt"
	"path/filepath"

	"github.com/tensure-fuzz/tensure/internal/kernel"
	"github.com/tensure-fuzz/tensure/internal/tensorfile"
)

// NonzeroProbability is p=0.4 from spec §4.2.
const NonzeroProbability = 0.4

// ValueMin and ValueMax bound the uniform draw for a nonzero entry
// (spec §4.2: "[0.00, 0.50] rounded to two decimals").
const (
	ValueMin = 0.0
	ValueMax = 0.5
)

// randSource is the minimal interface datagen needs from *rand.Rand,
// narrowed so tests can substitute a deterministic stub.
type randSource interface {
	Float64() float64
}

// Generate writes one data file per input tensor (tensors[0] is the
// output and is skipped) under dir, named "<name>[_<suffix>].<fmt>", and
// returns their absolute paths in input order. If any write fails, it
// returns the paths written so far and the error; per spec §4.2 the
// caller must detect a short list by comparing len(paths) to
// len(tensors)-1.
func Generate(rnd randSource, tensors []kernel.TensorDescriptor, dir, suffix string, format tensorfile.Format) ([]string, error) {
	var paths []string
	for _, t := range tensors[1:] {
		entries := sweep(rnd, t.Shape)
		name := t.Name
		if suffix != "" {
			name = name + "_" + suffix
		}
		path, err := filepath.Abs(filepath.Join(dir, name+format.Ext()))
		if err != nil {
			return paths, fmt.Errorf("datagen: resolve path for %s: %w", t.Name, err)
		}
		if err := tensorfile.Write(format, path, &tensorfile.Entries{Shape: t.Shape, List: entries}); err != nil {
			return paths, fmt.Errorf("datagen: write %s: %w", t.Name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// sweep enumerates every coordinate of shape in row-major order and
// independently decides, with probability NonzeroProbability, to emit an
// entry with a uniform value in [ValueMin, ValueMax] rounded to two
// decimals.
func sweep(rnd randSource, shape []int) []tensorfile.Entry {
	total := 1
	for _, d := range shape {
		total *= d
	}
	var out []tensorfile.Entry
	coord := make([]int, len(shape))
	for i := 0; i < total; i++ {
		if rnd.Float64() < NonzeroProbability {
			v := round2(ValueMin + rnd.Float64()*(ValueMax-ValueMin))
			out = append(out, tensorfile.Entry{Coord: append([]int(nil), coord...), Value: v})
		}
		incrementRowMajor(coord, shape)
	}
	return out
}

// incrementRowMajor advances coord to the next row-major position within
// shape, wrapping the last axis fastest.
func incrementRowMajor(coord, shape []int) {
	for axis := len(coord) - 1; axis >= 0; axis-- {
		coord[axis]++
		if coord[axis] < shape[axis] {
			return
		}
		coord[axis] = 0
	}
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
