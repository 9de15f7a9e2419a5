// Package kernel defines the on-disk kernel description format: tensor
// descriptors, the einsum computation string, and the data-file map that
// together describe one executable contraction (spec §3, §6).
package kernel

import "fmt"

// Alphabet is the fixed set of index letters a generated einsum may draw
// from (spec §3).
const Alphabet = "ijklmn"

// StorageFormat is the per-dimension physical representation of a tensor
// axis. The mathematical result of a computation must not depend on it.
type StorageFormat string

const (
	Dense  StorageFormat = "Dense"
	Sparse StorageFormat = "Sparse"
)

// TensorDescriptor is the tuple (name, indices, shape, per-dim-storage) of
// spec §3. By convention the first tensor of a KernelDescription is the
// output, named "A"; the rest are inputs named B, C, ...
type TensorDescriptor struct {
	Name          string          `json:"name"`
	StrRepr       string          `json:"str_repr"`
	Indices       []string        `json:"idxs"`
	Shape         []int           `json:"shape"`
	StorageFormat []StorageFormat `json:"storageFormat"`
	DataFile      string          `json:"dataFile"`
}

// Rank is the number of axes of the tensor.
func (t *TensorDescriptor) Rank() int {
	return len(t.Indices)
}

// Validate checks the per-tensor invariants of spec §3: indices, shape and
// per-dim-storage must have equal length, and DataFile must be set.
func (t *TensorDescriptor) Validate() error {
	if len(t.Indices) != len(t.Shape) {
		return fmt.Errorf("kernel: tensor %s: len(indices)=%d != len(shape)=%d", t.Name, len(t.Indices), len(t.Shape))
	}
	if len(t.Indices) != len(t.StorageFormat) {
		return fmt.Errorf("kernel: tensor %s: len(indices)=%d != len(storageFormat)=%d", t.Name, len(t.Indices), len(t.StorageFormat))
	}
	if t.DataFile == "" {
		return fmt.Errorf("kernel: tensor %s: missing dataFile", t.Name)
	}
	return nil
}

// Computation is a single einsum expression, e.g. "A(i,j) = B(i,k) * C(k,j)".
type Computation struct {
	Expression string `json:"expression"`
}

// KernelDescription is the full on-disk unit of spec §3/§6: the tensor
// list (output first, inputs after), the computation(s), implicit in the
// data-file-map embedded per-tensor above.
type KernelDescription struct {
	Tensors      []TensorDescriptor `json:"tensors"`
	Computations []Computation      `json:"computations"`
}

// Output returns the output tensor descriptor ("A"), which is always the
// first entry.
func (k *KernelDescription) Output() *TensorDescriptor {
	if len(k.Tensors) == 0 {
		return nil
	}
	return &k.Tensors[0]
}

// Inputs returns the input tensor descriptors, in order.
func (k *KernelDescription) Inputs() []TensorDescriptor {
	if len(k.Tensors) == 0 {
		return nil
	}
	return k.Tensors[1:]
}

// Validate checks the invariants of spec §3 that span the whole
// description: per-tensor shape/storage consistency, the output's data
// file sentinel, and index-size agreement across tensors.
func (k *KernelDescription) Validate() error {
	if len(k.Tensors) == 0 {
		return fmt.Errorf("kernel: no tensors")
	}
	if out := k.Output(); out.DataFile != "-" {
		return fmt.Errorf("kernel: output tensor %s: dataFile must be \"-\", got %q", out.Name, out.DataFile)
	}
	sizes := map[string]int{}
	for _, t := range k.Tensors {
		if err := t.Validate(); err != nil {
			return err
		}
		for i, idx := range t.Indices {
			if prev, ok := sizes[idx]; ok {
				if prev != t.Shape[i] {
					return fmt.Errorf("kernel: index %q has conflicting sizes %d and %d", idx, prev, t.Shape[i])
				}
			} else {
				sizes[idx] = t.Shape[i]
			}
		}
	}
	return nil
}

// DataFiles returns the name->path map implied by the tensor list, spec
// §3's data-file-map.
func (k *KernelDescription) DataFiles() map[string]string {
	m := make(map[string]string, len(k.Tensors))
	for _, t := range k.Tensors {
		m[t.Name] = t.DataFile
	}
	return m
}
