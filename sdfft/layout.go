package sdfft

import "math/bits"

// BlkSz is the minimum FFT granularity (spec.md §3 "Transform block"):
// truncation points and index arithmetic at the public API boundary are
// multiples of BlkSz doubles.
const BlkSz = 256

// LgBlkSz is log2(BlkSz).
const LgBlkSz = 8

// This implementation addresses FFT data as one contiguous, naturally
// ordered []float64 of length 2^L rather than the teacher-inherited
// staggered block layout of spec.md §3 ("FFT layout"/"Block index I maps
// to..."). spec.md §6 explicitly permits this: "(i) FFT data array...
// any reimplementation may choose another layout but must document it".
// The reordering the stagger existed to avoid (associativity aliasing
// in a SIMD implementation) does not apply here since package vec has no
// assembly backend to alias against.
//
// The transform still produces its evaluations in bit-reversed order
// (spec.md §4.3's "slightly-worse-than-bit-reversed order", simplified
// here to exact bit reversal -- permitted by spec.md §9: "a cleaner
// bit-reversal is permitted provided all test properties in §8 are
// updated consistently"). GetFFTIndex/SetFFTIndex below are the
// accessors a caller uses instead of raw indexing.

// BitrevIndex reverses the low L bits of i.
func BitrevIndex(L int, i uint64) uint64 {
	return bits.Reverse64(i<<uint(64-L)) >> uint(64-L)
}

// GetFFTIndex reads the evaluation at ω^i from a transformed buffer of
// depth L (spec.md §3's sd_fft_ctx_get_fft_index, generalized to our
// plain bit-reversed layout).
func GetFFTIndex(data []float64, L int, i uint64) float64 {
	return data[BitrevIndex(L, i)]
}

// SetFFTIndex writes x at the storage slot for logical evaluation index i.
func SetFFTIndex(data []float64, L int, i uint64, x float64) {
	data[BitrevIndex(L, i)] = x
}
