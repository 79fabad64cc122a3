package descriptor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// These tests exercise the binding-number bookkeeping only; Create()
// requires a live wgpu.Device and is covered by integration testing
// against the real GPU collaborator, not here.

func TestBindingCanOnlyBeUsedOnce(t *testing.T) {
	b := New(nil, 2)

	require.NoError(t, b.BindStorageBuffer(33, nil))
	err := b.BindStorageBuffer(33, nil)
	require.Error(t, err)

	var dup *DuplicateBinding
	require.ErrorAs(t, err, &dup)
	require.Equal(t, uint32(33), dup.Binding)
}

func TestDistinctBindingKindsShareTheSameNumberSpace(t *testing.T) {
	b := New(nil, 2)

	require.NoError(t, b.BindUniformBufferBundle(0, nil))
	require.NoError(t, b.BindStorageBuffer(1, nil))
	require.NoError(t, b.BindStorageImage(2, nil))

	// Binding 1 was already claimed by a storage buffer above.
	err := b.BindStorageImage(1, nil)
	require.Error(t, err)
}

// A sampler occupies its own binding, distinct from the sampled image
// it reads (webgpu has no combined image-sampler binding).
func TestSamplerAndSampledImageUseDistinctBindings(t *testing.T) {
	b := New(nil, 2)

	require.NoError(t, b.BindSampledImage(10, nil))
	require.NoError(t, b.BindSampler(11, nil))

	err := b.BindSampler(10, nil)
	require.Error(t, err)

	var dup *DuplicateBinding
	require.ErrorAs(t, err, &dup)
	require.Equal(t, uint32(10), dup.Binding)
}
