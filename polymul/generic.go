package polymul

import (
	"github.com/pkg/errors"

	"github.com/thesyncim/sdfft/modarith"
	"github.com/thesyncim/sdfft/mpctx"
	"github.com/thesyncim/sdfft/mpn"
	"github.com/thesyncim/sdfft/sdfft"
)

// genericSeedPrime is the reproducible starting point for the prime
// search below, the same 50-bit usable seed mpctx's own tests grow
// their context from -- any usable prime works as a seed (spec.md
// §4.5), this one is simply fixed so two Engines built for the same
// modulus pick the same generic primes.
const genericSeedPrime = 1108307720798209

// genericMaxNp is the largest np the generic path ever needs (spec.md
// §4.7 step 2: "pick the smallest np in {1,2,3}").
const genericMaxNp = 3

// genericCRT holds genericMaxNp usable sd-FFT primes, all distinct from
// the caller's modulus, plus the CRT reconstruction data for every
// prefix length np in [1, genericMaxNp] -- mirroring mpctx.MpnCtx's own
// per-np Profiles (mpctx/mpctx.go), so a caller committing to np primes
// uses profiles[np-1] rather than a slice of the widest profile.
type genericCRT struct {
	ffts     []*sdfft.FftCtx
	profiles []mpctx.CrtData
}

// newGenericCRT grows genericMaxNp primes distinct from modN via
// mpctx.NextFFTNumber -- the same search mpctx.New uses to grow its own
// NpMax-prime set (mpctx/mpctx.go's New) -- then builds one FftCtx and
// one CrtData profile per prefix length.
func newGenericCRT(modN uint64) (*genericCRT, error) {
	primes := make([]uint64, 0, genericMaxNp)
	p := uint64(genericSeedPrime)
	for len(primes) < genericMaxNp {
		if !sdfft.IsUsablePrime(p) || p == modN {
			next, err := mpctx.NextFFTNumber(p)
			if err != nil {
				return nil, errors.Wrap(err, "polymul: growing generic prime set")
			}
			p = next
			continue
		}
		primes = append(primes, p)
		next, err := mpctx.NextFFTNumber(p)
		if err != nil {
			return nil, errors.Wrap(err, "polymul: growing generic prime set")
		}
		p = next
	}

	ffts := make([]*sdfft.FftCtx, genericMaxNp)
	for i, pr := range primes {
		q, err := sdfft.NewFftCtx(pr)
		if err != nil {
			return nil, errors.Wrapf(err, "polymul: generic prime[%d]=%d", i, pr)
		}
		ffts[i] = q
	}

	profiles := make([]mpctx.CrtData, genericMaxNp)
	for np := 1; np <= genericMaxNp; np++ {
		crt, err := mpctx.BuildCrtData(primes[:np])
		if err != nil {
			return nil, err
		}
		profiles[np-1] = crt
	}
	return &genericCRT{ffts: ffts, profiles: profiles}, nil
}

// ensureGeneric lazily builds e's generic multi-prime context, matching
// FFTCTX's own lazy-growth idiom (sdfft/ctx.go's FitDepth) rather than
// paying the primitive-root search up front for engines that only ever
// use the direct-lane or classical paths.
func (e *Engine) ensureGeneric() (*genericCRT, error) {
	e.genericOnce.Do(func() {
		e.genericCtx, e.genericErr = newGenericCRT(e.Mod.N)
	})
	return e.genericCtx, e.genericErr
}

// chooseGenericNp picks the smallest np in {1,2,3} with
// prod_np >= bn * 4^bits(p') (spec.md §4.7 step 2), by comparing bit
// lengths: the np-prime product is taken as 50*np bits, which slightly
// over-approximates it (every generic prime is just under 2^50); the +2
// in needBits covers that shortfall.
func chooseGenericNp(modBits uint64, bn int) int {
	needBits := 2*bitLen64(modBits) + bitLen64(uint64(bn)) + 2
	np := (needBits + 49) / 50
	if np < 1 {
		np = 1
	}
	if np > genericMaxNp {
		np = genericMaxNp
	}
	return np
}

func bitLen64(x uint64) int {
	n := 0
	for x > 0 {
		n++
		x >>= 1
	}
	return n
}

// mulMidGeneric runs spec.md §4.7's generic path: np primes distinct
// from e.Mod.N, one sd-FFT per prime, then a per-coefficient CRT
// reconstruction mirroring mpmul's crtMerge (mpmul/mpmul.go) but
// without mpmul's digit-packing/shift step, since here every
// convolution coefficient stands on its own and is reduced mod e.Mod.N
// directly via mpn.Mod1 rather than shifted into a packed integer.
func (e *Engine) mulMidGeneric(g *genericCRT, z []uint64, zl, zh int, a, b []uint64) {
	an, bn := len(a), len(b)
	zn := an + bn - 1

	np := chooseGenericNp(e.Mod.N, bn)
	crt := g.profiles[np-1]

	depth := bitLen(uint32(zn - 1))
	ztrunc := 1 << uint(depth)
	for ztrunc < zn {
		depth++
		ztrunc <<= 1
	}

	bufsA := make([][]float64, np)
	bufsB := make([][]float64, np)
	for i := 0; i < np; i++ {
		bufsA[i] = make([]float64, ztrunc)
		bufsB[i] = make([]float64, ztrunc)
		pi := g.ffts[i].Prime().P
		for j, v := range a {
			bufsA[i][j] = float64(v % pi)
		}
		for j, v := range b {
			bufsB[i][j] = float64(v % pi)
		}
	}

	for i := 0; i < np; i++ {
		q := g.ffts[i]
		q.FftTrunc(bufsA[i], depth, uint64(an), uint64(ztrunc))
		q.FftTrunc(bufsB[i], depth, uint64(bn), uint64(ztrunc))
		scaling := q.CombineScaling(q.InverseScaling(depth), crt.CiModPi[i])
		q.PointMul(bufsA[i], bufsB[i], scaling, ztrunc)
		q.IfftTrunc(bufsA[i], depth, uint64(ztrunc))
	}

	coeffLen := crt.CoeffLen
	rWords := make([]uint64, coeffLen)
	term := make([]uint64, coeffLen)
	for i := zl; i < zh; i++ {
		for k := range rWords {
			rWords[k] = 0
		}
		for k := 0; k < np; k++ {
			r := residueZN(bufsA[k][i], g.ffts[k].Prime().P)
			mpn.Mul1(term, crt.Cofactor[k], r)
			mpn.AddN(rWords, rWords, term)
		}
		reduceModProdGeneric(rWords, crt.Prod)
		z[i-zl] = mpn.Mod1(rWords, e.Mod.N)
	}
}

// reduceModProdGeneric mirrors mpmul.reduceModProd (mpmul/mpmul.go):
// summing all np cofactor*residue terms directly, rather than Garner's
// incremental two-subtraction reconstruction, can overshoot prod by up
// to a factor of np, so reduce with a bounded conditional-subtract loop.
func reduceModProdGeneric(r, prod []uint64) {
	for modarith.CompareWords(r, prod) >= 0 {
		modarith.SubWords(r, r, prod)
	}
}
