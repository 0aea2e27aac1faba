// internal/sliceutil.go
//
// Small generic helpers shared across packages.
//
//   • Pure – no side effects.
//   • Safe – never modify the input slice in-place.
// ----------------------------------------------------------------------------

package internal

import "golang.org/x/exp/constraints"

// Contains reports whether v ∈ xs (O(n)).
func Contains[T comparable](xs []T, v T) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

// Max returns the larger of a and b.
func Max[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}

// Min returns the smaller of a and b.
func Min[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}
