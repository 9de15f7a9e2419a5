package kernel

import "strings"

// Signature computes the canonical string identifying a kernel's mutation
// state (spec §4.4.3): each tensor's name and per-dimension storage,
// concatenated in the tensor's current order. Two kernels with equal
// signature are considered duplicate mutants regardless of how they were
// produced. The expression string is intentionally excluded — SPARSITY
// leaves it untouched and COMMUTATIVITY only permutes factors that are
// already reflected in tensor order, so expression text adds no
// discriminating power by default (spec's note: a caller may extend this
// if future operators change the expression itself).
func Signature(k *KernelDescription) string {
	var b strings.Builder
	for _, t := range k.Tensors {
		b.WriteString(t.Name)
		b.WriteString(":")
		for i, s := range t.StorageFormat {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(string(s))
		}
		b.WriteString("|")
	}
	return b.String()
}
