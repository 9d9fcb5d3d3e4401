// Package dispatch is the DISPATCH module of spec.md §4.9: it picks the
// multiplication strategy for a polynomial product by modulus bit-width
// and operand length, the way `_nmod_poly_mul`'s crossover tables do in
// original_source/src/nmod_poly/mul.c. Above the tabulated crossover
// length it calls into polymul's sd-FFT engine; below it, it falls back
// to classical schoolbook or a Kronecker-substitution packed big-integer
// multiply (via math/big). The teacher's C ancestor further splits KS into
// three variants by `cutoff_len*bits` / `cutoff_len*bits^2`; this package
// makes no such split and uses a single KS packing for all of them.
package dispatch

import (
	"math/big"

	"github.com/thesyncim/sdfft/nmod"
	"github.com/thesyncim/sdfft/polymul"
)

// fftMulTab and fftSqrTab are the sd-FFT crossover lengths indexed by
// bits(p')-1, reproducing the shape (not the exact tuned values, which
// are platform-specific per spec.md §9) of original_source's
// fft_mul_tab/fft_sqr_tab: longer for narrow moduli, shrinking as bits
// grows because each sd-FFT lane does more useful work per prime.
var fftMulTab = []int{1326, 1326, 1095, 802, 674, 537, 330, 306, 290, 274, 200, 192,
	182, 173, 163, 99, 97, 93, 90, 82, 80, 78, 76, 74, 72, 70, 68, 66, 64, 62,
	60, 58, 56, 54, 52, 50, 48, 46, 44, 42, 40, 38, 36, 34, 32, 30, 28, 26, 24, 22}

var fftSqrTab = []int{1420, 1420, 1353, 964, 689, 569, 407, 353, 321, 321, 292, 279,
	200, 182, 182, 159, 159, 152, 145, 139, 137, 135, 133, 131, 129, 127, 125,
	123, 121, 119, 117, 115, 113, 111, 109, 107, 105, 103, 101, 99, 97, 95, 93,
	91, 89, 87, 85, 83, 81, 79}

// classicalCutoff mirrors "len2 <= 5" in _nmod_poly_mul: below this the
// quadratic loop's tiny constant factor beats any packing or transform
// setup cost.
const classicalCutoff = 5

// Strategy names the multiplication path dispatch chose, surfaced for
// diagnostics and tests rather than used as control flow by callers.
type Strategy int

const (
	StrategyClassical Strategy = iota
	StrategyKS
	StrategyFFT
)

func (s Strategy) String() string {
	switch s {
	case StrategyClassical:
		return "classical"
	case StrategyKS:
		return "ks"
	case StrategyFFT:
		return "fft"
	default:
		return "unknown"
	}
}

// Mul multiplies a and b mod p', choosing classical, Kronecker
// substitution, or the sd-FFT engine by the same cutoff_len/bits shape
// _nmod_poly_mul uses. e may be nil when the caller knows in advance the
// modulus isn't a usable sd-FFT prime (Mul then never reaches the FFT
// tier); when non-nil it must have been built for modulus p.
func Mul(e *polymul.Engine, p uint64, a, b []uint64) ([]uint64, Strategy) {
	m := nmod.Init(p)
	strategy := choose(e, len(a), len(b), sameLen(a, b), bitLen(p))
	switch strategy {
	case StrategyFFT:
		zn := len(a) + len(b) - 1
		z := make([]uint64, zn)
		e.MulMid(z, 0, zn, a, b)
		return z, strategy
	case StrategyKS:
		return mulKS(m, a, b), strategy
	default:
		return mulClassical(m, a, b), strategy
	}
}

func choose(e *polymul.Engine, len1, len2 int, squaring bool, bits int) Strategy {
	if len2 <= classicalCutoff {
		return StrategyClassical
	}
	cutoffLen := len1
	if 2*len2 < cutoffLen {
		cutoffLen = 2 * len2
	}

	if e != nil && bits >= 1 && bits <= len(fftMulTab) {
		tab := fftMulTab
		if squaring {
			tab = fftSqrTab
		}
		if cutoffLen >= tab[bits-1] {
			return StrategyFFT
		}
	}

	maxBits10 := bits
	if maxBits10 < 10 {
		maxBits10 = 10
	}
	if 3*cutoffLen < 2*maxBits10 {
		return StrategyClassical
	}
	// spec.md §4.9's KS/KS2/KS4 trichotomy (selected by cutoff_len*bits
	// and cutoff_len*bits^2) all pack coefficients into a single big
	// integer and recover them from one wide product; original_source
	// ships no buildable KS2/KS4 packing source in this retrieval pack
	// (those are 2- and 4-word evaluation-point variants of the same
	// idea), so this implementation collapses all three tiers onto one
	// generically-sized Kronecker-substitution packing (DESIGN.md: a
	// documented scope simplification, not an oversight).
	return StrategyKS
}

func sameLen(a, b []uint64) bool { return len(a) == len(b) }

func bitLen(x uint64) int {
	n := 0
	for x > 0 {
		n++
		x >>= 1
	}
	return n
}

func mulClassical(m nmod.Mod, a, b []uint64) []uint64 {
	zn := len(a) + len(b) - 1
	z := make([]uint64, zn)
	for i, av := range a {
		if av == 0 {
			continue
		}
		for j, bv := range b {
			z[i+j] = m.AddMul(z[i+j], av, bv)
		}
	}
	return z
}

// mulKS implements Kronecker substitution: pack each polynomial's
// coefficients into one big.Int at a fixed bit stride wide enough that
// no convolution sum can carry into a neighboring digit, multiply as
// plain integers, then slice the product back into coefficients and
// reduce mod p. math/big is used directly (spec.md §4.9 names this
// fallback only by its crossover formula, not an implementation; no
// library in the retrieval pack offers a packed big-integer polynomial
// multiply -- see DESIGN.md's stdlib justification).
func mulKS(m nmod.Mod, a, b []uint64) []uint64 {
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	bits := bitLen(m.N)
	stride := 2*bits + bitLen(uint64(minLen)) + 1

	A := packKS(a, stride)
	B := packKS(b, stride)
	C := new(big.Int).Mul(A, B)

	zn := len(a) + len(b) - 1
	z := make([]uint64, zn)
	mask := new(big.Int).Lsh(big.NewInt(1), uint(stride))
	mask.Sub(mask, big.NewInt(1))
	modBig := new(big.Int).SetUint64(m.N)

	window := new(big.Int)
	shifted := new(big.Int)
	for i := 0; i < zn; i++ {
		shifted.Rsh(C, uint(i*stride))
		window.And(shifted, mask)
		window.Mod(window, modBig)
		z[i] = window.Uint64()
	}
	return z
}

func packKS(a []uint64, stride int) *big.Int {
	out := new(big.Int)
	for i := len(a) - 1; i >= 0; i-- {
		out.Lsh(out, uint(stride))
		out.Or(out, new(big.Int).SetUint64(a[i]))
	}
	return out
}
