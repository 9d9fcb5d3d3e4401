package vec

import "math"

// fma computes a*b+c with a single rounding, matching the hardware fused
// multiply-add the original C used to make the low part of a product exact.
func fma(a, b, c float64) float64 {
	return math.FMA(a, b, c)
}

// roundEven rounds to the nearest integer, ties to even, matching the
// mathematical "round" used throughout the reduction identities.
func roundEven(a float64) float64 {
	return math.RoundToEven(a)
}
