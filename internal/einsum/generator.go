// Package einsum implements the random einsum generator of spec §4.1: it
// synthesizes a reducible contraction expression and a matching tensor
// schema from a seeded random stream, grounded in the biased-random,
// seeded-rand.Rand generator idiom of the teacher's
// llm/quickcheck_generators.go (Generator[T] over math/rand, minus the
// Shrink half — shrinking failing cases is an explicit spec Non-goal).
package einsum

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/tensure-fuzz/tensure/internal/kernel"
)

// Alphabet mirrors kernel.Alphabet; kept local so callers of this package
// don't need to import kernel just to size their RNG draws.
const Alphabet = kernel.Alphabet

// Params bounds the shapes the generator is willing to produce (spec §4.1
// "Inputs").
type Params struct {
	// NumInputs is drawn uniformly in [2,5] by the caller, or fixed here.
	NumInputs int
	// MaxRank bounds per-tensor rank, drawn uniformly in [1, MaxRank].
	MaxRank int
}

// DefaultParams returns NumInputs and MaxRank freshly sampled from the
// ranges spec §4.1 names for "Inputs" (num_inputs in [2,5], max_rank in
// [1,6]).
func DefaultParams(rnd *rand.Rand) Params {
	return Params{
		NumInputs: 2 + rnd.Intn(4), // [2,5]
		MaxRank:   1 + rnd.Intn(6), // [1,6]
	}
}

// Result is the generator's output (spec §4.1 "Output"): the tensor
// schema and the rendered expression string.
type Result struct {
	Tensors    []kernel.TensorDescriptor
	Expression string
}

// Generate runs the six-step algorithm of spec §4.1 and returns a
// reducible kernel schema: every non-output index occurs in at least two
// input tensors (spec's "Guarantees" and testable property #1).
func Generate(rnd *rand.Rand, p Params) (*Result, error) {
	if p.NumInputs < 2 || p.NumInputs > 5 {
		return nil, fmt.Errorf("einsum: NumInputs must be in [2,5], got %d", p.NumInputs)
	}
	if p.MaxRank < 1 || p.MaxRank > len(Alphabet) {
		return nil, fmt.Errorf("einsum: MaxRank must be in [1,%d], got %d", len(Alphabet), p.MaxRank)
	}

	// Step 1: per-input rank and distinct index choice.
	inputIndices := make([][]string, p.NumInputs)
	for i := range inputIndices {
		rank := 1 + rnd.Intn(p.MaxRank)
		inputIndices[i] = chooseDistinctIndices(rnd, rank)
	}

	// Step 2: mark each distinct index used anywhere as output or not.
	// Indices are visited in sorted order (never map order) so every draw
	// from rnd is reproducible for a fixed seed.
	allIndices := distinctIndexSet(inputIndices)
	order := make([]string, 0, len(allIndices))
	for idx := range allIndices {
		order = append(order, idx)
	}
	sort.Strings(order)
	outputMarked := map[string]bool{}
	for _, idx := range order {
		outputMarked[idx] = rnd.Intn(2) == 0
	}

	// Step 3: reduction repair — every non-output index occurring in
	// exactly one tensor gets appended to a different, randomly chosen
	// input tensor.
	occCount := occurrenceCounts(inputIndices)
	for _, idx := range order {
		if outputMarked[idx] || occCount[idx] >= 2 {
			continue
		}
		owner := ownerTensor(inputIndices, idx)
		other := rnd.Intn(p.NumInputs)
		for other == owner {
			other = rnd.Intn(p.NumInputs)
		}
		inputIndices[other] = append(inputIndices[other], idx)
	}

	// Step 5 (shape sizing happens before emission so step 4's storage
	// pick can be independent): uniform size per index in
	// [3, min(6, #distinct indices in use)], floor 3.
	allIndices = distinctIndexSet(inputIndices)
	numDistinct := len(allIndices)
	maxShape := 6
	if numDistinct < maxShape {
		maxShape = numDistinct
	}
	if maxShape < 3 {
		maxShape = 3
	}
	shapeOf := map[string]int{}
	for _, idx := range order {
		shapeOf[idx] = 3 + rnd.Intn(maxShape-3+1)
	}

	// Build input tensor descriptors: name, indices, shape, storage (step 4).
	names := inputNames(p.NumInputs)
	tensors := make([]kernel.TensorDescriptor, 0, p.NumInputs+1)
	for i, idxs := range inputIndices {
		sortedIdxs := append([]string(nil), idxs...)
		sort.Strings(sortedIdxs)
		shape := make([]int, len(sortedIdxs))
		storage := make([]kernel.StorageFormat, len(sortedIdxs))
		for j, idx := range sortedIdxs {
			shape[j] = shapeOf[idx]
			storage[j] = randomStorage(rnd)
		}
		tensors = append(tensors, kernel.TensorDescriptor{
			Name:          names[i],
			StrRepr:       renderTensor(names[i], sortedIdxs),
			Indices:       sortedIdxs,
			Shape:         shape,
			StorageFormat: storage,
			DataFile:      names[i] + ".dat",
		})
	}

	// Output tensor "A": indices are exactly the output-marked set.
	var outIdxs []string
	for idx, marked := range outputMarked {
		if marked {
			outIdxs = append(outIdxs, idx)
		}
	}
	sort.Strings(outIdxs)
	outShape := make([]int, len(outIdxs))
	outStorage := make([]kernel.StorageFormat, len(outIdxs))
	for i, idx := range outIdxs {
		outShape[i] = shapeOf[idx]
		outStorage[i] = randomStorage(rnd)
	}
	output := kernel.TensorDescriptor{
		Name:          "A",
		StrRepr:       renderTensor("A", outIdxs),
		Indices:       outIdxs,
		Shape:         outShape,
		StorageFormat: outStorage,
		DataFile:      "-",
	}

	allTensors := append([]kernel.TensorDescriptor{output}, tensors...)
	expr := renderExpression(output, tensors)

	return &Result{Tensors: allTensors, Expression: expr}, nil
}

func chooseDistinctIndices(rnd *rand.Rand, n int) []string {
	perm := rnd.Perm(len(Alphabet))
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = string(Alphabet[perm[i]])
	}
	return out
}

func distinctIndexSet(inputIndices [][]string) map[string]bool {
	set := map[string]bool{}
	for _, idxs := range inputIndices {
		for _, idx := range idxs {
			set[idx] = true
		}
	}
	return set
}

func occurrenceCounts(inputIndices [][]string) map[string]int {
	counts := map[string]int{}
	for _, idxs := range inputIndices {
		seen := map[string]bool{}
		for _, idx := range idxs {
			if !seen[idx] {
				counts[idx]++
				seen[idx] = true
			}
		}
	}
	return counts
}

func ownerTensor(inputIndices [][]string, idx string) int {
	for i, idxs := range inputIndices {
		for _, x := range idxs {
			if x == idx {
				return i
			}
		}
	}
	return -1
}

func inputNames(n int) []string {
	names := make([]string, n)
	for i := 0; i < n; i++ {
		names[i] = string(rune('B' + i))
	}
	return names
}

func randomStorage(rnd *rand.Rand) kernel.StorageFormat {
	if rnd.Intn(2) == 0 {
		return kernel.Dense
	}
	return kernel.Sparse
}

func renderTensor(name string, idxs []string) string {
	return fmt.Sprintf("%s(%s)", name, strings.Join(idxs, ","))
}

func renderExpression(output kernel.TensorDescriptor, inputs []kernel.TensorDescriptor) string {
	factors := make([]string, len(inputs))
	for i, t := range inputs {
		factors[i] = t.StrRepr
	}
	return fmt.Sprintf("%s = %s", output.StrRepr, strings.Join(factors, " * "))
}
