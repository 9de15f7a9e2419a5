package oracle

import (
	"fmt"
	"math"
	"strings"

	"github.com/tensure-fuzz/tensure/internal/tensorfile"
)

// DefaultTolerance is the backend-owned policy spec §4.5/§9 names as the
// default: 1e-5 elementwise. The core imposes no tolerance of its own;
// this constant exists only for the bundled reference/test backend in
// internal/stubbackend.
const DefaultTolerance = 1e-5

// DefaultCompare implements spec §4.5's default comparator: treat each
// file as a set of coord-tuple -> value entries, require equal
// cardinality, and check |a-b| <= tolerance elementwise. Any coordinate
// present in one file but not the other also fails the comparison.
func DefaultCompare(format tensorfile.Format, refPath, testPath string, tolerance float64) (bool, error) {
	ref, err := tensorfile.Read(format, refPath)
	if err != nil {
		return false, fmt.Errorf("oracle: read reference %s: %w", refPath, err)
	}
	test, err := tensorfile.Read(format, testPath)
	if err != nil {
		return false, fmt.Errorf("oracle: read test %s: %w", testPath, err)
	}

	if len(ref.List) != len(test.List) {
		return false, nil
	}

	refByCoord := make(map[string]float64, len(ref.List))
	for _, e := range ref.List {
		refByCoord[coordKey(e.Coord)] = e.Value
	}

	for _, e := range test.List {
		want, ok := refByCoord[coordKey(e.Coord)]
		if !ok {
			return false, nil
		}
		if math.Abs(want-e.Value) > tolerance {
			return false, nil
		}
	}
	return true, nil
}

func coordKey(coord []int) string {
	var b strings.Builder
	for i, c := range coord {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%d", c)
	}
	return b.String()
}
