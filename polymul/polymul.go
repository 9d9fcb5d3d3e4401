// Package polymul is the truncated modular polynomial multiplier of
// spec.md §4.7: `z[i-zl] = Σ a[j]*b[i-j] mod p'` for `zl <= i < zh`.
// Three paths are implemented: the *direct-lane* path (spec.md §4.7
// step 2, np=1) when the caller's modulus is itself a usable sd-FFT
// prime; the *generic* path (spec.md §4.7 steps 2, 4-6) for moduli that
// are not themselves sd-FFT primes, which picks np in {1,2,3} primes
// distinct from the caller's modulus and CRT-reconstructs each
// coefficient (generic.go, adapting mpctx's CrtData/cofactor machinery
// and mpmul's CRT-merge pattern); and a classical schoolbook fallback
// for operand sizes too small for the FFT overhead to pay off.
package polymul

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/thesyncim/sdfft/nmod"
	"github.com/thesyncim/sdfft/sdfft"
)

// ErrNotApplicable is the *Inapplicability* error kind of spec.md §7
// kind 4: MulPrecomp.MulMid returns it when the cached depth cannot
// cover the requested truncation range.
var ErrNotApplicable = errors.New("polymul: precomputed product not applicable to this range")

// genericCutoff is the smallest bn above which the generic multi-prime
// CRT path is tried before falling back to the classical schoolbook
// path -- below it the O(np) FFT/IFFT/CRT overhead is not worth paying
// (mirrors dispatch.go's own classicalCutoff-class threshold for the
// equivalent direct-vs-classical decision).
const genericCutoff = 24

// Engine multiplies polynomials with coefficients reduced modulo Mod. If
// Mod.N is itself a usable sd-FFT prime, Engine uses the direct-lane FFT
// path (np=1); otherwise, for operands large enough to amortize the FFT
// overhead, it builds a generic multi-prime CRT context (generic.go) on
// first use; below that size, or if the generic context fails to build,
// it falls back to the classical schoolbook path.
type Engine struct {
	Mod    nmod.Mod
	direct *sdfft.FftCtx // non-nil iff Mod.N is a usable sd-FFT prime

	genericOnce sync.Once
	genericCtx  *genericCRT
	genericErr  error
}

// NewEngine builds an Engine for modulus n.
func NewEngine(n uint64) (*Engine, error) {
	mod := nmod.Init(n)
	e := &Engine{Mod: mod}
	if sdfft.IsUsablePrime(n) {
		q, err := sdfft.NewFftCtx(n)
		if err != nil {
			return nil, err
		}
		e.direct = q
	}
	return e, nil
}

// MulMid computes z[i-zl] = sum_j a[j]*b[i-j] mod p' for zl <= i < zh
// (spec.md §4.7's poly_mul_mid). an, bn are len(a), len(b); zn = an+bn-1.
func (e *Engine) MulMid(z []uint64, zl, zh int, a, b []uint64) {
	an, bn := len(a), len(b)
	zn := an + bn - 1
	if zl >= zh {
		return
	}
	if zh > zn {
		for i := zn; i < zh; i++ {
			if i-zl >= 0 && i-zl < len(z) {
				z[i-zl] = 0
			}
		}
		zh = zn
	}
	if e.direct != nil {
		e.mulMidDirect(z, zl, zh, a, b)
		return
	}
	if bn > genericCutoff {
		if g, err := e.ensureGeneric(); err == nil {
			e.mulMidGeneric(g, z, zl, zh, a, b)
			return
		}
	}
	e.mulMidClassical(z, zl, zh, a, b)
}

func (e *Engine) mulMidClassical(z []uint64, zl, zh int, a, b []uint64) {
	an, bn := len(a), len(b)
	m := e.Mod
	for i := zl; i < zh; i++ {
		var acc uint64
		jlo := 0
		if i-bn+1 > 0 {
			jlo = i - bn + 1
		}
		jhi := i
		if jhi > an-1 {
			jhi = an - 1
		}
		for j := jlo; j <= jhi; j++ {
			acc = m.AddMul(acc, a[j], b[i-j])
		}
		z[i-zl] = acc
	}
}

// mulMidDirect runs the sd-FFT direct-lane path: a single prime whose
// w2tab context is exactly the caller's modulus, so coefficients need no
// reduction beyond the 0n->pm1n conversion before the transform.
func (e *Engine) mulMidDirect(z []uint64, zl, zh int, a, b []uint64) {
	an, bn := len(a), len(b)
	zn := an + bn - 1
	depth := bitLen(uint32(zn - 1))
	ztrunc := 1 << uint(depth)
	for ztrunc < zn {
		depth++
		ztrunc <<= 1
	}

	bufA := make([]float64, ztrunc)
	bufB := make([]float64, ztrunc)
	for i, v := range a {
		bufA[i] = float64(v)
	}
	for i, v := range b {
		bufB[i] = float64(v)
	}

	q := e.direct
	q.FftTrunc(bufA, depth, uint64(an), uint64(ztrunc))
	q.FftTrunc(bufB, depth, uint64(bn), uint64(ztrunc))
	scaling := q.InverseScaling(depth)
	q.PointMul(bufA, bufB, scaling, ztrunc)
	q.IfftTrunc(bufA, depth, uint64(ztrunc))

	p := q.Prime().P
	for i := zl; i < zh; i++ {
		z[i-zl] = residueZN(bufA[i], p)
	}
}

// MulModXpnm1 computes the convolution of a and b modulo x^ztrunc-1
// (spec.md §4.7 point 8 "poly_mul_mod_xpnm1"), reusing the NTT's natural
// wraparound when the direct-lane path is available, or an explicit
// modular reduction of indices in the classical fallback.
func (e *Engine) MulModXpnm1(z []uint64, ztrunc int, a, b []uint64, depth int) {
	if e.direct != nil && (1<<uint(depth)) == ztrunc {
		e.mulModXpnm1Direct(z, ztrunc, a, b, depth)
		return
	}
	m := e.Mod
	for i := range z[:ztrunc] {
		z[i] = 0
	}
	for i, av := range a {
		if av == 0 {
			continue
		}
		for j, bv := range b {
			k := (i + j) % ztrunc
			z[k] = m.AddMul(z[k], av, bv)
		}
	}
}

func (e *Engine) mulModXpnm1Direct(z []uint64, ztrunc int, a, b []uint64, depth int) {
	bufA := make([]float64, ztrunc)
	bufB := make([]float64, ztrunc)
	for i, v := range a {
		k := i % ztrunc
		bufA[k] = float64(e.Mod.Add(uint64(bufA[k]), v%e.Mod.N))
	}
	for i, v := range b {
		k := i % ztrunc
		bufB[k] = float64(e.Mod.Add(uint64(bufB[k]), v%e.Mod.N))
	}
	q := e.direct
	q.FftTrunc(bufA, depth, uint64(ztrunc), uint64(ztrunc))
	q.FftTrunc(bufB, depth, uint64(ztrunc), uint64(ztrunc))
	scaling := q.InverseScaling(depth)
	q.PointMul(bufA, bufB, scaling, ztrunc)
	q.IfftTrunc(bufA, depth, uint64(ztrunc))

	p := q.Prime().P
	for i := 0; i < ztrunc; i++ {
		z[i] = residueZN(bufA[i], p)
	}
}

// DivRem computes quotient q and remainder r of a/b mod p' (spec.md §4.7
// point 8 "poly_divrem"), via a Newton-iterated series inverse of the
// reversed divisor, one middle product, and a coefficientwise subtract
// (SPEC_FULL.md §4, grounded on original_source's
// t-nmod_poly_divrem.c contract: deg(r) < deg(b)).
func (e *Engine) DivRem(a, b []uint64) (quot, rem []uint64) {
	an, bn := len(a), len(b)
	if bn == 0 || b[bn-1] == 0 {
		panic("polymul: divisor must be nonzero with nonzero leading coefficient")
	}
	if an < bn {
		rem = append([]uint64(nil), a...)
		for len(rem) < bn-1 {
			rem = append(rem, 0)
		}
		return nil, rem
	}
	qn := an - bn + 1
	m := e.Mod

	revB := reverse(b)
	revBInv := m.SeriesInverse(revB, qn)

	revA := reverse(a)
	revQ := seriesMulTrunc(m, revA, revBInv, qn)
	quot = reverse(revQ)

	bq := make([]uint64, an)
	e.MulMid(bq, 0, an, b, quot)
	rem = make([]uint64, bn-1)
	for i := 0; i < bn-1; i++ {
		rem[i] = m.Sub(a[i], bq[i])
	}
	return quot, rem
}

func reverse(a []uint64) []uint64 {
	out := make([]uint64, len(a))
	for i, v := range a {
		out[len(a)-1-i] = v
	}
	return out
}

func seriesMulTrunc(m nmod.Mod, f, g []uint64, n int) []uint64 {
	out := make([]uint64, n)
	for i := 0; i < n; i++ {
		var acc uint64
		for j := 0; j <= i; j++ {
			if j >= len(f) || i-j >= len(g) {
				continue
			}
			acc = m.AddMul(acc, f[j], g[i-j])
		}
		out[i] = acc
	}
	return out
}

func residueZN(a float64, p uint64) uint64 {
	r := int64(a)
	r %= int64(p)
	if r < 0 {
		r += int64(p)
	}
	return uint64(r)
}

func bitLen(x uint32) int {
	n := 0
	for x > 0 {
		n++
		x >>= 1
	}
	return n
}
