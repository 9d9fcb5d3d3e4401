// Package sdfft is the small-prime number-theoretic FFT engine: the
// FFTCTX/FFT/IFFT trio of spec.md §4.2-§4.4, reworked from the teacher's
// kiss_fft/mdct complex128 transform (_examples/thesyncim-gopus/celt) into
// a double-precision NTT over a machine-word prime.
package sdfft

import (
	"math/bits"

	"github.com/pkg/errors"

	"github.com/thesyncim/sdfft/modarith"
)

// MaxDepth is L_max, the largest transform depth any usable prime is
// required to support (spec.md §3: "p ≡ 1 (mod 2^{L_max+1})").
const MaxDepth = 30

// FastModBound is the bit bound B on usable primes: every p < 2^B keeps
// (p-1)^2*4 < 2^104, the range every double-precision mulmod in package
// vec relies on to stay exact (spec.md §3).
const FastModBound = 50

// Prime is the (p, 1/p, primitive root) triple spec.md §3 names.
type Prime struct {
	P    uint64
	Pinv float64
	Root uint64
}

// ErrBadPrime is the configuration error (spec.md §7 kind 1) raised when
// a candidate modulus fails the fast-modular bound or isn't prime.
var ErrBadPrime = errors.New("sdfft: prime is unusable for this transform depth")

// IsUsablePrime reports whether p satisfies both halves of the usable-set
// test in spec.md §3: fits under FastModBound and p ≡ 1 (mod 2^(MaxDepth+1)).
func IsUsablePrime(p uint64) bool {
	if p < 3 || p >= uint64(1)<<FastModBound {
		return false
	}
	if (p-1)%(uint64(1)<<(MaxDepth+1)) != 0 {
		return false
	}
	return isPrime(p)
}

// NewPrime validates p and finds a primitive root, returning a Prime
// ready to seed an FftCtx.
func NewPrime(p uint64) (Prime, error) {
	if !IsUsablePrime(p) {
		return Prime{}, errors.Wrapf(ErrBadPrime, "p=%d", p)
	}
	root, err := primitiveRoot(p)
	if err != nil {
		return Prime{}, errors.Wrapf(err, "p=%d", p)
	}
	return Prime{P: p, Pinv: 1.0 / float64(p), Root: root}, nil
}

// isPrime is a deterministic Miller-Rabin test valid for all 64-bit
// integers using the well-known fixed witness set {2,3,5,7,11,13,17,19,
// 23,29,31,37}. No library in the retrieval pack ships a primality
// tester (spec.md §6 lists `is_prime` as an external collaborator this
// module must still provide a default for) so this is implemented
// directly against math/bits -- see DESIGN.md's stdlib justification.
func isPrime(n uint64) bool {
	if n < 2 {
		return false
	}
	for _, p := range [...]uint64{2, 3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37} {
		if n == p {
			return true
		}
		if n%p == 0 {
			return false
		}
	}
	d := n - 1
	r := 0
	for d%2 == 0 {
		d /= 2
		r++
	}
	for _, a := range [...]uint64{2, 3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37} {
		if !millerRabinRound(n, d, r, a) {
			return false
		}
	}
	return true
}

func millerRabinRound(n, d uint64, r int, a uint64) bool {
	x := modarith.PowMod(a%n, d, n)
	if x == 1 || x == n-1 {
		return true
	}
	for i := 0; i < r-1; i++ {
		x = modarith.MulMod(x, x, n)
		if x == n-1 {
			return true
		}
	}
	return false
}

// primitiveRoot finds a generator of (Z/pZ)*, trying small candidates and
// verifying order n-1 by checking g^((n-1)/f) != 1 for every distinct
// prime factor f of n-1, 2 included. p-1 is always a multiple of a large
// power of two for a usable prime (spec.md §3), so after dividing out
// the 2s, trial division only has a small odd cofactor left to factor.
func primitiveRoot(p uint64) (uint64, error) {
	n := p - 1
	factors := distinctPrimeFactors(n)
	for g := uint64(2); g < p; g++ {
		ok := true
		for _, f := range factors {
			if modarith.PowMod(g, n/f, p) == 1 {
				ok = false
				break
			}
		}
		if ok {
			return g, nil
		}
	}
	return 0, errors.New("sdfft: no primitive root found")
}

func distinctPrimeFactors(n uint64) []uint64 {
	var out []uint64
	for n%2 == 0 {
		if len(out) == 0 || out[len(out)-1] != 2 {
			out = append(out, 2)
		}
		n /= 2
	}
	for f := uint64(3); f*f <= n; f += 2 {
		if n%f == 0 {
			out = append(out, f)
			for n%f == 0 {
				n /= f
			}
		}
	}
	if n > 1 {
		out = append(out, n)
	}
	return out
}

// nbits returns the bit length of x (0 for x==0), matching FLINT's
// n_nbits used to index into the dyadic twiddle-row buckets.
func nbits(x uint64) int {
	return bits.Len64(x)
}
