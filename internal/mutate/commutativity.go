package mutate

import (
	"math/rand"

	"github.com/tensure-fuzz/tensure/internal/einsum"
	"github.com/tensure-fuzz/tensure/internal/kernel"
)

// Commutativity implements the COMMUTATIVITY operator of spec §4.4.2:
// split the right-hand side on "*", Fisher-Yates shuffle the factors, and
// reorder the input tensor list to match (output stays first). Pointwise
// multiplication is commutative and reduction order does not change the
// mathematical result, so this is semantics-preserving modulo the
// numerical tolerance the oracle already budgets for (testable property
// #4).
type Commutativity struct{}

func (Commutativity) Name() string { return "COMMUTATIVITY" }

func (Commutativity) Apply(rnd *rand.Rand, k *kernel.KernelDescription) (*kernel.KernelDescription, error) {
	if len(k.Computations) != 1 {
		return nil, errNoChange
	}
	expr, err := einsum.ParseExpression(k.Computations[0].Expression)
	if err != nil {
		return nil, err
	}
	if len(expr.Factors) < 2 {
		return nil, errNoChange
	}

	mutant := kernel.Clone(k)
	inputs := mutant.Tensors[1:]
	if len(inputs) != len(expr.Factors) {
		return nil, errNoChange
	}

	perm := fisherYates(rnd, len(expr.Factors))
	const maxAttempts = 100
	for attempt := 0; attempt < maxAttempts && isIdentityPerm(perm); attempt++ {
		perm = fisherYates(rnd, len(expr.Factors))
	}
	if isIdentityPerm(perm) {
		return nil, errNoChange
	}

	newFactors := make([]string, len(expr.Factors))
	newInputs := make([]kernel.TensorDescriptor, len(inputs))
	for newPos, oldPos := range perm {
		newFactors[newPos] = expr.Factors[oldPos]
		newInputs[newPos] = inputs[oldPos]
	}
	expr.Factors = newFactors
	mutant.Computations[0].Expression = expr.String()
	mutant.Tensors = append([]kernel.TensorDescriptor{mutant.Tensors[0]}, newInputs...)

	return mutant, nil
}

func isIdentityPerm(perm []int) bool {
	for i, v := range perm {
		if i != v {
			return false
		}
	}
	return true
}

func fisherYates(rnd *rand.Rand, n int) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm
}
