package kernel

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Save serializes k to path using an atomic write: a temporary file in the
// same directory is written and fsynced, then renamed over the final path
// (spec §3 "Lifecycle": frozen and written atomically). Grounded in the
// write-to-temp-then-rename pattern used for blob writes in the teacher's
// layer store.
func Save(path string, k *KernelDescription) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".kernel-*.json.tmp")
	if err != nil {
		return fmt.Errorf("kernel: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(k); err != nil {
		tmp.Close()
		return fmt.Errorf("kernel: encode: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("kernel: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("kernel: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("kernel: rename into place: %w", err)
	}
	return nil
}

// Load reads and parses the kernel description at path. It does not
// validate; callers that need spec §3 invariants should call Validate.
func Load(path string) (*KernelDescription, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("kernel: read %s: %w", path, err)
	}
	var k KernelDescription
	if err := json.Unmarshal(b, &k); err != nil {
		return nil, fmt.Errorf("kernel: parse %s: %w", path, err)
	}
	return &k, nil
}

// Clone returns a deep copy of k, used by the mutation engine before
// applying an operator so the parent kernel in the source pool is never
// mutated in place.
func Clone(k *KernelDescription) *KernelDescription {
	out := &KernelDescription{
		Tensors:      make([]TensorDescriptor, len(k.Tensors)),
		Computations: make([]Computation, len(k.Computations)),
	}
	for i, t := range k.Tensors {
		nt := TensorDescriptor{
			Name:     t.Name,
			StrRepr:  t.StrRepr,
			DataFile: t.DataFile,
		}
		nt.Indices = append([]string(nil), t.Indices...)
		nt.Shape = append([]int(nil), t.Shape...)
		nt.StorageFormat = append([]StorageFormat(nil), t.StorageFormat...)
		out.Tensors[i] = nt
	}
	copy(out.Computations, k.Computations)
	return out
}
