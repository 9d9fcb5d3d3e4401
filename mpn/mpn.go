// Package mpn implements the minimal big-integer limb layer spec.md §6
// lists as a consumed collaborator ("An mpn big-integer layer providing
// mul_1, divexact_1, mod_1, add_n, rshift, zero, copy"). Words are
// little-endian uint64 slices, matching the "little-endian u64 limb
// array" binary layout spec.md §6 specifies for crt_data.
package mpn

import "math/bits"

// Zero clears z.
func Zero(z []uint64) {
	for i := range z {
		z[i] = 0
	}
}

// Copy copies src into dst; dst must be at least as long as src, any
// extra high words in dst are left untouched (the caller is expected to
// Zero first when that matters).
func Copy(dst, src []uint64) {
	copy(dst, src)
}

// Mul1 multiplies the limb sequence a by the single word b, storing the
// product's low len(a) words in z and returning the carry out of the
// top word.
func Mul1(z, a []uint64, b uint64) uint64 {
	var carry uint64
	for i := range a {
		hi, lo := bits.Mul64(a[i], b)
		var c uint64
		z[i], c = bits.Add64(lo, carry, 0)
		carry = hi + c
	}
	return carry
}

// AddN adds a and b (equal length) into z, returning the carry out.
func AddN(z, a, b []uint64) uint64 {
	var carry uint64
	for i := range z {
		z[i], carry = bits.Add64(a[i], b[i], carry)
	}
	return carry
}

// SubN subtracts b from a (equal length) into z, returning the borrow out.
func SubN(z, a, b []uint64) uint64 {
	var borrow uint64
	for i := range z {
		z[i], borrow = bits.Sub64(a[i], b[i], borrow)
	}
	return borrow
}

// Mod1 returns a mod b for a single-word divisor b, a treated as a
// multi-precision little-endian integer.
func Mod1(a []uint64, b uint64) uint64 {
	var rem uint64
	for i := len(a) - 1; i >= 0; i-- {
		_, rem = bits.Div64(rem, a[i], b)
	}
	return rem
}

// DivExact1 divides a (known to be an exact multiple of b) by the single
// word b, storing the quotient in z. Uses plain long division; exactness
// is the caller's contract and is not checked: a nonzero final
// remainder, which would indicate caller error, is discarded.
func DivExact1(z, a []uint64, b uint64) {
	var rem uint64
	for i := len(a) - 1; i >= 0; i-- {
		q, r := bits.Div64(rem, a[i], b)
		z[i] = q
		rem = r
	}
}

// Rshift shifts the limb sequence a right by s bits (0<=s<64) into z,
// returning the bits shifted out of the bottom word (placed in the high
// bits of the return value, mirroring GMP's mpn_rshift convention).
func Rshift(z, a []uint64, s uint) uint64 {
	if s == 0 {
		copy(z, a)
		return 0
	}
	var shiftedOut uint64
	for i := len(a) - 1; i >= 0; i-- {
		lo := a[i] << (64 - s)
		z[i] = a[i]>>s | shiftedOut
		shiftedOut = lo
	}
	return shiftedOut
}

// IsZero reports whether every limb of a is zero.
func IsZero(a []uint64) bool {
	for _, w := range a {
		if w != 0 {
			return false
		}
	}
	return true
}
