package mathx

import "golang.org/x/exp/constraints"

// RoundDiv returns floor((a + b/2)/b), classic rounding for positives.
func RoundDiv[T constraints.Unsigned](a, b T) T {
	if b == 0 {
		return 0
	}
	return (a + b/2) / b
}

// LowMask returns a value with the low n bits set. n at or above the width
// of T yields all ones.
func LowMask[T constraints.Unsigned](n uint8) T {
	return T(1)<<n - 1
}
