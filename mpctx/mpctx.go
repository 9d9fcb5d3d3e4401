// Package mpctx is the multi-prime context of spec.md §4.5: it searches
// out a reproducible set of usable primes, builds the CRT data needed to
// reconstruct a product from per-prime residues, and precomputes the
// power-of-two tables MPMUL's packing stage consults.
package mpctx

import (
	"github.com/pkg/errors"

	"github.com/thesyncim/sdfft/mpn"
	"github.com/thesyncim/sdfft/sdfft"
)

// NpMax is the largest number of primes a multi-prime context ever
// carries (spec.md §4.5).
const NpMax = 8

// MaxBits bounds the slow_two_pow_tab row length: no packing width this
// module supports exceeds 256 bits per coefficient.
const MaxBits = 256

// ErrSeedPrime wraps a failure to grow the prime set from the seed.
var ErrSeedPrime = errors.New("mpctx: unable to extend prime sequence from seed")

// CrtData is the reconstruction data for a fixed np-prime profile
// (spec.md §3 "CRT data"): prod = product of the np primes, Ci = prod/pi,
// and Ci mod pi, all as little-endian limb arrays/words.
type CrtData struct {
	Np       int
	Primes   []uint64
	Prod     []uint64   // coeff_len words
	Cofactor [][]uint64 // Cofactor[i] = prod/primes[i], coeff_len words
	CiModPi  []uint64   // Cofactor[i] mod primes[i]
	CoeffLen int
}

// MpnCtx is the multi-prime context: one FftCtx per prime plus CRT data
// and the scratch buffer spec.md §5 names as the context's only mutable
// shared state ("mpn_ctx.buffer -- exclusive to the current top-level
// call").
//
// Profiles holds one CrtData per prefix length np in [1, NpMax]: profile
// np-1 reconstructs from the first np primes only. A caller committing to
// np primes for a given multiplication MUST use Profiles[np-1], not a
// slice of the NpMax-prime CrtData -- the cofactors Ci = prod/pi depend
// on which primes are actually in play, so a narrower profile is not a
// truncation of a wider one's fields.
type MpnCtx struct {
	Ffts     []*sdfft.FftCtx
	Profiles []CrtData

	slowTwoPow [][]float64 // slowTwoPow[i][k] = 2^k mod primes[i], as a double

	buffer []uint64 // bump-arena scratch, grown on demand (spec.md §9)
}

// Crt returns the CRT reconstruction data for the first np primes.
func (c *MpnCtx) Crt(np int) CrtData { return c.Profiles[np-1] }

// New builds a multi-prime context by extending the seed prime p0 into
// NpMax distinct usable primes via nextFFTNumber, matching
// mpn_ctx_init(R, p0) (spec.md §4.5).
func New(p0 uint64) (*MpnCtx, error) {
	primes := make([]uint64, 0, NpMax)
	p := p0
	for len(primes) < NpMax {
		if !sdfft.IsUsablePrime(p) {
			next, err := nextFFTNumber(p)
			if err != nil {
				return nil, errors.Wrapf(ErrSeedPrime, "seed=%d", p0)
			}
			p = next
			continue
		}
		primes = append(primes, p)
		next, err := nextFFTNumber(p)
		if err != nil {
			return nil, errors.Wrapf(ErrSeedPrime, "seed=%d", p0)
		}
		p = next
	}

	ffts := make([]*sdfft.FftCtx, NpMax)
	for i, pr := range primes {
		q, err := sdfft.NewFftCtx(pr)
		if err != nil {
			return nil, errors.Wrapf(err, "prime[%d]=%d", i, pr)
		}
		ffts[i] = q
	}

	profiles := make([]CrtData, NpMax)
	for np := 1; np <= NpMax; np++ {
		crt, err := buildCrtData(primes[:np])
		if err != nil {
			return nil, err
		}
		profiles[np-1] = crt
	}

	ctx := &MpnCtx{Ffts: ffts, Profiles: profiles}
	ctx.fillSlowTwoPowTab()
	return ctx, nil
}

// nextFFTNumber reproduces FLINT's fft_small/mpn_mul.c search exactly
// (SPEC_FULL.md §4): given p, let bits=nbits(p), l=trailingZeros(p-1),
// q=p-(2<<l). If nbits(q)==bits, return q; else if l<5 return
// 2^(bits-2)+1; else return 2^bits - 2^(l-1) + 1. The search then walks
// backward from that candidate, testing IsUsablePrime, since the FLINT
// formula picks a *candidate odd value* near the previous prime rather
// than a guaranteed-prime one.
func nextFFTNumber(p uint64) (uint64, error) {
	candidate := candidateBelow(p)
	for c := candidate; c >= 3; c -= 2 {
		if sdfft.IsUsablePrime(c) {
			return c, nil
		}
	}
	return 0, errors.New("mpctx: exhausted search window below seed")
}

func candidateBelow(p uint64) uint64 {
	bits := nbits(p)
	l := trailingZeros(p - 1)
	q := p - (uint64(2) << uint(l))
	if nbits(q) == bits {
		return q
	}
	if l < 5 {
		return uint64(1)<<uint(bits-2) + 1
	}
	return uint64(1)<<uint(bits) - uint64(1)<<uint(l-1) + 1
}

func nbits(x uint64) int {
	n := 0
	for x > 0 {
		n++
		x >>= 1
	}
	return n
}

func trailingZeros(x uint64) int {
	if x == 0 {
		return 64
	}
	n := 0
	for x&1 == 0 {
		n++
		x >>= 1
	}
	return n
}

// NextFFTNumber exports nextFFTNumber for callers outside this package
// that need to grow their own prime set reproducibly -- polymul's
// generic-modulus path (spec.md §4.7 step 2) searches a set of primes
// distinct from the caller's modulus using exactly this search rather
// than duplicating it.
func NextFFTNumber(p uint64) (uint64, error) { return nextFFTNumber(p) }

// BuildCrtData exports buildCrtData for callers that grow their own
// prime set outside of New/MpnCtx (polymul's generic-modulus path).
func BuildCrtData(primes []uint64) (CrtData, error) { return buildCrtData(primes) }

// buildCrtData builds prod, per-prime cofactors and Ci mod pi
// incrementally (spec.md §4.5: "prod_i = prod_{i-1} * p_i; cofactors by
// exact division; per-prime reductions via mpn_mod_1").
func buildCrtData(primes []uint64) (CrtData, error) {
	np := len(primes)
	coeffLen := np + 1 // np 64-bit primes' product never needs more than np+1 words
	prod := make([]uint64, coeffLen)
	prod[0] = 1
	for _, p := range primes {
		carry := mpn.Mul1(prod, prod, p)
		if carry != 0 {
			return CrtData{}, errors.New("mpctx: prod overflowed coeff_len")
		}
	}

	cofactors := make([][]uint64, np)
	ciModPi := make([]uint64, np)
	for i, p := range primes {
		c := make([]uint64, coeffLen)
		copy(c, prod)
		mpn.DivExact1(c, c, p)
		cofactors[i] = c
		ciModPi[i] = mpn.Mod1(c, p)
	}

	return CrtData{
		Np:       np,
		Primes:   append([]uint64(nil), primes...),
		Prod:     prod,
		Cofactor: cofactors,
		CiModPi:  ciModPi,
		CoeffLen: coeffLen,
	}, nil
}

// fillSlowTwoPowTab fills slow_two_pow_tab[i][k] = 2^k mod primes[i] for
// k in [0, MaxBits), the scalar power table spec.md §4.5 names
// ("Allocate and fill slow-mod tables"). The SIMD-lane vec_two_pow_tab
// variant is an optimization-only restructuring of this same data (four
// consecutive primes per lane) and is not required for correctness, so
// this implementation keeps the single scalar table and lets the
// packing stage in mpmul read it per-prime.
func (c *MpnCtx) fillSlowTwoPowTab() {
	fullSet := c.Profiles[NpMax-1].Primes
	c.slowTwoPow = make([][]float64, len(fullSet))
	for i, p := range fullSet {
		row := make([]float64, MaxBits)
		v := uint64(1) % p
		for k := 0; k < MaxBits; k++ {
			row[k] = float64(v)
			v = (v * 2) % p
		}
		c.slowTwoPow[i] = row
	}
}

// TwoPowMod returns 2^k mod primes[i] as a double, precomputed at
// construction time.
func (c *MpnCtx) TwoPowMod(i, k int) float64 {
	return c.slowTwoPow[i][k]
}

// Scratch returns a []uint64 of at least n words from the context's bump
// arena, growing it if necessary (spec.md §9 "the context's buffer is a
// bump arena whose capacity is grown when insufficient"). The returned
// slice is exclusive to the current top-level call (spec.md §5: mpn_ctx
// is not safe for concurrent top-level calls).
func (c *MpnCtx) Scratch(n int) []uint64 {
	if len(c.buffer) < n {
		c.buffer = make([]uint64, n)
	}
	return c.buffer[:n]
}
