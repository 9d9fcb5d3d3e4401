// Package modarith provides the scalar modular-arithmetic helpers the
// multi-prime layer needs outside the vectorized double-precision path:
// an exact 128-bit-product mulmod for 64-bit words, and fixed-width (<=8 limb)
// carry chains used by CRT reconstruction (spec.md §4.6 step 5).
package modarith

import "math/bits"

// MaxWords bounds the limb width of the carry-chain helpers: the multi-
// prime context never combines more than NP_MAX=8 primes (spec.md §5
// "MPCTX"), so crt products never exceed 8 words for the profiles this
// package supports.
const MaxWords = 8

// MulMod computes a*b mod n for 64-bit a, b < n using a full 128-bit
// product and a software divide -- the scalar analog of the VEC-layer
// double-precision mulmod, used where a and b don't already live in a
// double (e.g. the slow_two_pow_tab fill in mpctx).
func MulMod(a, b, n uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	_, rem := bits.Div64(hi%n, lo, n)
	return rem
}

// AddMod computes (a+b) mod n for a, b < n.
func AddMod(a, b, n uint64) uint64 {
	s, carry := bits.Add64(a, b, 0)
	if carry != 0 || s >= n {
		s -= n
	}
	return s
}

// SubMod computes (a-b) mod n for a, b < n.
func SubMod(a, b, n uint64) uint64 {
	d, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		d += n
	}
	return d
}

// PowMod computes base^exp mod n by square-and-multiply.
func PowMod(base, exp, n uint64) uint64 {
	result := uint64(1) % n
	base %= n
	for exp > 0 {
		if exp&1 == 1 {
			result = MulMod(result, base, n)
		}
		base = MulMod(base, base, n)
		exp >>= 1
	}
	return result
}

// AddWords adds two little-endian limb sequences of equal length,
// returning the carry out of the top word. Mirrors the consumed
// mpn::add_n collaborator of spec.md §6.
func AddWords(z, a, b []uint64) uint64 {
	var carry uint64
	for i := range z {
		z[i], carry = bits.Add64(a[i], b[i], carry)
	}
	return carry
}

// AddWordsInPlace adds b into z (both length len(b)), propagating carry
// into z[len(b):], and returns any carry out of z's top word. This is
// the "add a short value starting at a word offset" primitive the CRT
// carry-merge pass (spec.md §4.6 step 5) needs when folding a per-
// coefficient product into z at an arbitrary bit offset.
func AddWordsInPlace(z []uint64, b []uint64) uint64 {
	var carry uint64
	n := len(b)
	for i := 0; i < n; i++ {
		z[i], carry = bits.Add64(z[i], b[i], carry)
	}
	for i := n; carry != 0 && i < len(z); i++ {
		z[i], carry = bits.Add64(z[i], 0, carry)
	}
	return carry
}

// ShiftLeft shifts the little-endian limb sequence a left by s bits
// (0<=s<64) into z, which must have one more word of room than a for
// the overflow; returns the bits shifted out past the top of z.
func ShiftLeft(z, a []uint64, s uint) uint64 {
	if s == 0 {
		copy(z, a)
		if len(z) > len(a) {
			z[len(a)] = 0
		}
		return 0
	}
	var carry uint64
	for i := range a {
		hi := a[i] >> (64 - s)
		z[i] = a[i]<<s | carry
		carry = hi
	}
	if len(z) > len(a) {
		z[len(a)] = carry
		return 0
	}
	return carry
}

// CompareWords returns -1, 0, 1 as the little-endian limb sequences a, b
// (equal length) compare.
func CompareWords(a, b []uint64) int {
	for i := len(a) - 1; i >= 0; i-- {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// SubWords computes z = a-b for equal-length little-endian limb
// sequences, assuming a>=b, returning the (should-be-zero) final borrow.
func SubWords(z, a, b []uint64) uint64 {
	var borrow uint64
	for i := range z {
		z[i], borrow = bits.Sub64(a[i], b[i], borrow)
	}
	return borrow
}
