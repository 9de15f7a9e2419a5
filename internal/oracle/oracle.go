// Package oracle implements the differential oracle of spec §4.7: compare
// a mutant's result tensor against the reference's, delegating the actual
// comparison to the backend's CompareResults, and classify a mismatch as
// a wrong-code bug.
package oracle

import (
	"fmt"

	"github.com/tensure-fuzz/tensure/internal/backend"
)

// Verdict is the oracle's classification of one mutant against the
// reference.
type Verdict struct {
	Equal bool
	// WrongCode is true iff the comparison ran successfully and
	// disagreed -- the spec §4.7 "wrong-code bug" classification.
	WrongCode bool
}

// Compare delegates to b.CompareResults(refPath, testPath) (spec §4.5)
// and classifies a negative result as a wrong-code bug.
func Compare(b backend.Backend, refPath, testPath string) (Verdict, error) {
	ok, err := b.CompareResults(refPath, testPath)
	if err != nil {
		return Verdict{}, fmt.Errorf("oracle: compare %s vs %s: %w", refPath, testPath, err)
	}
	return Verdict{Equal: ok, WrongCode: !ok}, nil
}
