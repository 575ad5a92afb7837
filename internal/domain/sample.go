package domain

// StrideSample keeps every stride-th item of items, counting positions from 1:
// items at 0-based indices stride-1, 2*stride-1, and so on. The result has
// exactly len(items)/stride elements and is deterministic for a given input.
// A stride below 1 is treated as 1.
func StrideSample[T any](items []T, stride int) []T {
	if stride < 1 {
		stride = 1
	}
	out := make([]T, 0, len(items)/stride)
	for i := stride - 1; i < len(items); i += stride {
		out = append(out, items[i])
	}
	return out
}
