package kernel

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleKernel() *KernelDescription {
	return &KernelDescription{
		Tensors: []TensorDescriptor{
			{Name: "A", StrRepr: "A(i)", Indices: []string{"i"}, Shape: []int{5}, StorageFormat: []StorageFormat{Dense}, DataFile: "-"},
			{Name: "B", StrRepr: "B(i,k)", Indices: []string{"i", "k"}, Shape: []int{5, 4}, StorageFormat: []StorageFormat{Dense, Sparse}, DataFile: "B.tns"},
			{Name: "C", StrRepr: "C(k)", Indices: []string{"k"}, Shape: []int{4}, StorageFormat: []StorageFormat{Sparse}, DataFile: "C.tns"},
		},
		Computations: []Computation{{Expression: "A(i) = B(i,k) * C(k)"}},
	}
}

func TestValidateAcceptsWellFormedKernel(t *testing.T) {
	require.NoError(t, sampleKernel().Validate())
}

func TestValidateRejectsMismatchedShapeLength(t *testing.T) {
	k := sampleKernel()
	k.Tensors[1].Shape = []int{5}
	assert.Error(t, k.Validate())
}

func TestValidateRejectsConflictingIndexSize(t *testing.T) {
	k := sampleKernel()
	k.Tensors[2].Shape = []int{99}
	assert.Error(t, k.Validate())
}

func TestValidateRejectsNonSentinelOutputDataFile(t *testing.T) {
	k := sampleKernel()
	k.Tensors[0].DataFile = "A.tns"
	assert.Error(t, k.Validate())
}

func TestRoundtripSaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kernel.json")
	want := sampleKernel()

	require.NoError(t, Save(path, want))
	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, want, got)
}

func TestCloneIsDeep(t *testing.T) {
	orig := sampleKernel()
	clone := Clone(orig)

	clone.Tensors[1].StorageFormat[0] = Sparse
	clone.Tensors[1].Shape[0] = 999

	assert.Equal(t, Dense, orig.Tensors[1].StorageFormat[0])
	assert.Equal(t, 5, orig.Tensors[1].Shape[0])
}

func TestSignatureReflectsStorageAndOrderOnly(t *testing.T) {
	k1 := sampleKernel()
	k2 := Clone(k1)
	k2.Tensors[0].StrRepr = "changed but storage untouched"

	assert.Equal(t, Signature(k1), Signature(k2))

	k2.Tensors[1].StorageFormat[1] = Dense
	assert.NotEqual(t, Signature(k1), Signature(k2))
}
