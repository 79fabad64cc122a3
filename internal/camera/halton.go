package camera

// HaltonSequence generates the base-b radical-inverse sequence used for
// low-discrepancy sub-pixel jitter (spec.md §4.5.1, §8 invariant 6: "the
// mean of N consecutive jitter offsets is within 1/N of zero").
func HaltonSequence(index, base uint32) float32 {
	var result float32
	var f float32 = 1
	for index > 0 {
		f /= float32(base)
		result += f * float32(index%base)
		index /= base
	}
	return result
}

// TAAJitterSequence builds a cycle of length n of sub-pixel offsets in
// [-0.5, 0.5]² pixels, base 2 for x and base 3 for y (the standard
// Halton(2,3) pair), matching taaSamplingOffsetSize from spec.md §6.
func TAAJitterSequence(n uint32) []struct{ X, Y float32 } {
	seq := make([]struct{ X, Y float32 }, n)
	for i := uint32(0); i < n; i++ {
		seq[i] = struct{ X, Y float32 }{
			X: HaltonSequence(i+1, 2) - 0.5,
			Y: HaltonSequence(i+1, 3) - 0.5,
		}
	}
	return seq
}
