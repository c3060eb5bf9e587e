package math

import "golang.org/x/exp/constraints"

// FloorDiv divides two positive integers rounding towards zero. A zero divisor
// yields zero rather than panicking.
func FloorDiv[T constraints.Integer](a, b T) T {
	if b == 0 {
		return 0
	}
	return a / b
}
