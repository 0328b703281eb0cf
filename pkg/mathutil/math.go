// Package mathutil provides generic integer math helper functions.
package mathutil

// Min calculates the minimum of two integers.
func Min(a, b int) int {
	if a < b {
		return a
	}

	return b
}

// Max calculates the maximum of two integers.
func Max(a, b int) int {
	if a < b {
		return b
	}

	return a
}

// Clamp limits v to the inclusive range [lo, hi].
func Clamp(v, lo, hi int) int {
	return Max(lo, Min(v, hi))
}

// CeilDiv returns the ceiling of a/b for positive b.
func CeilDiv(a, b int) int {
	return (a + b - 1) / b
}
