package mutate

import (
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"

	"github.com/tensure-fuzz/tensure/internal/kernel"
)

// errNoChange is returned by an Operator when it could not produce a
// kernel different from its input (e.g. SPARSITY redrew the same storage,
// or COMMUTATIVITY kept landing on the identity permutation). The engine
// treats it as a signal to retry with a fresh draw, not a hard failure.
var errNoChange = errors.New("mutate: operator produced no change")

// Operator is a semantics-preserving transformation on a kernel
// description (spec §4.4).
type Operator interface {
	Name() string
	Apply(rnd *rand.Rand, k *kernel.KernelDescription) (*kernel.KernelDescription, error)
}

// DefaultOperators is the enabled set spec §4.4 defines.
func DefaultOperators() []Operator {
	return []Operator{Sparsity{}, Commutativity{}}
}

// Result is one generated mutant: its kernel, the path it was written to,
// and which operator produced it.
type Result struct {
	Kernel   *kernel.KernelDescription
	Path     string
	Operator string
}

// Generate runs the pool-based generation algorithm of spec §4.4.3. seed
// is the frozen reference kernel; it is never itself rewritten. dir is the
// iteration directory mutant files are written into as kernel1.json,
// kernel2.json, .... Returns up to m mutants; fewer if the uniqueness
// safeguard is exhausted (spec §4.4.3 step 5, §7 "Uniqueness safeguard
// exhausted").
func Generate(rnd *rand.Rand, seed *kernel.KernelDescription, dir string, m int, ops []Operator) ([]Result, error) {
	if len(ops) == 0 {
		return nil, fmt.Errorf("mutate: no operators enabled")
	}

	pool := []*kernel.KernelDescription{seed}
	signatures := map[string]bool{kernel.Signature(seed): true}
	safeguard := 10 * m

	var results []Result
	for k := 1; k <= m; {
		parent := pool[rnd.Intn(len(pool))]

		mutant, ok := tryProduceUnique(rnd, parent, ops, signatures)
		if !ok {
			safeguard--
			if safeguard <= 0 {
				return results, nil
			}
			// This parent/operator combination didn't yield a new
			// signature within the retry budget; retry the same mutant
			// slot with a freshly picked parent. The safeguard bounds the
			// total number of failed attempts.
			continue
		}

		path := filepath.Join(dir, fmt.Sprintf("kernel%d.json", k))
		if err := kernel.Save(path, mutant.kernel); err != nil {
			return results, fmt.Errorf("mutate: save kernel%d.json: %w", k, err)
		}

		signatures[kernel.Signature(mutant.kernel)] = true
		pool = append(pool, mutant.kernel)
		results = append(results, Result{Kernel: mutant.kernel, Path: path, Operator: mutant.operator})
		k++
	}
	return results, nil
}

type producedMutant struct {
	kernel   *kernel.KernelDescription
	operator string
}

// tryProduceUnique picks an operator uniformly and attempts up to 100
// retries (spec §4.4.3 step 3) to produce a kernel whose signature is not
// already in signatures.
func tryProduceUnique(rnd *rand.Rand, parent *kernel.KernelDescription, ops []Operator, signatures map[string]bool) (producedMutant, bool) {
	const maxRetries = 100
	for attempt := 0; attempt < maxRetries; attempt++ {
		op := ops[rnd.Intn(len(ops))]
		candidate, err := op.Apply(rnd, parent)
		if err != nil {
			continue
		}
		sig := kernel.Signature(candidate)
		if signatures[sig] {
			continue
		}
		return producedMutant{kernel: candidate, operator: op.Name()}, true
	}
	return producedMutant{}, false
}
