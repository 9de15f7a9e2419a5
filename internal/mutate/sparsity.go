package mutate

import (
	"math/rand"

	"github.com/tensure-fuzz/tensure/internal/kernel"
)

// Sparsity implements the SPARSITY operator of spec §4.4.1: pick a tensor
// uniformly at random and replace its per-dimension storage with a fresh
// uniform draw from {Dense,Sparse}^rank, rejecting a draw that reproduces
// the original. It leaves the expression, tensor order, and every other
// field untouched (testable property #3).
type Sparsity struct{}

func (Sparsity) Name() string { return "SPARSITY" }

func (Sparsity) Apply(rnd *rand.Rand, k *kernel.KernelDescription) (*kernel.KernelDescription, error) {
	mutant := kernel.Clone(k)
	idx := rnd.Intn(len(mutant.Tensors))
	t := &mutant.Tensors[idx]

	original := append([]kernel.StorageFormat(nil), t.StorageFormat...)
	const maxAttempts = 100
	for attempt := 0; attempt < maxAttempts; attempt++ {
		draw := randomStorageVector(rnd, t.Rank())
		if !equalStorage(draw, original) {
			t.StorageFormat = draw
			return mutant, nil
		}
	}
	return nil, errNoChange
}

func randomStorageVector(rnd *rand.Rand, rank int) []kernel.StorageFormat {
	out := make([]kernel.StorageFormat, rank)
	for i := range out {
		if rnd.Intn(2) == 0 {
			out[i] = kernel.Dense
		} else {
			out[i] = kernel.Sparse
		}
	}
	return out
}

func equalStorage(a, b []kernel.StorageFormat) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
