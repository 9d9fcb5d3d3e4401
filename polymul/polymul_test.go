package polymul

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/thesyncim/sdfft/nmod"
)

// usableDirectPrime is a 50-bit sd-FFT prime, within FastModBound, so
// tests exercising the direct-lane path don't trip the bound that the
// spec's own 62-bit example primes exceed.
const usableDirectPrime = 1108307720798209

func refMulMid(m nmod.Mod, zl, zh int, a, b []uint64) []uint64 {
	an, bn := len(a), len(b)
	out := make([]uint64, zh-zl)
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
		out[i-zl] = acc
	}
	return out
}

// TestMulMidTinyModulus is spec.md §8 scenario 3: modulus p'=2.
func TestMulMidTinyModulus(t *testing.T) {
	e, err := NewEngine(2)
	require.NoError(t, err)
	require.Nil(t, e.direct) // 2 is not a usable sd-FFT prime

	a := []uint64{1, 0, 1, 1}
	b := []uint64{1, 1, 0, 1}
	zn := len(a) + len(b) - 1
	z := make([]uint64, zn)
	e.MulMid(z, 0, zn, a, b)

	want := refMulMid(e.Mod, 0, zn, a, b)
	require.Equal(t, want, z)
}

// TestMulMidMiddleProductEquality is spec.md §8 scenario 4: p'=0x3f00000000000001,
// length-5000 operands, middle product over the whole range equals full
// convolution. p exceeds FastModBound so e.direct is nil and bn=5000
// well exceeds genericCutoff, so this also exercises the generic
// multi-prime CRT path end to end.
func TestMulMidMiddleProductEquality(t *testing.T) {
	const p = 0x3f00000000000001
	e, err := NewEngine(p)
	require.NoError(t, err)
	require.Nil(t, e.direct) // exceeds FastModBound, forces generic/classical path

	rng := rand.New(rand.NewSource(7))
	const n = 5000
	a := make([]uint64, n)
	b := make([]uint64, n)
	for i := range a {
		a[i] = rng.Uint64() % p
	}
	for i := range b {
		b[i] = rng.Uint64() % p
	}

	zn := 2*n - 1
	z := make([]uint64, zn)
	e.MulMid(z, 0, zn, a, b)
	want := refMulMid(e.Mod, 0, zn, a, b)
	require.Equal(t, want, z)
}

// TestMulMidPartialRangeMatchesFull checks that a partial [zl,zh) window
// agrees with the corresponding slice of the full convolution -- the
// "middle product is a windowed slice of the full product" property.
func TestMulMidPartialRangeMatchesFull(t *testing.T) {
	e, err := NewEngine(97)
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(3))
	a := make([]uint64, 20)
	b := make([]uint64, 15)
	for i := range a {
		a[i] = rng.Uint64() % 97
	}
	for i := range b {
		b[i] = rng.Uint64() % 97
	}
	zn := len(a) + len(b) - 1
	full := make([]uint64, zn)
	e.MulMid(full, 0, zn, a, b)

	zl, zh := 5, 22
	mid := make([]uint64, zh-zl)
	e.MulMid(mid, zl, zh, a, b)
	require.Equal(t, full[zl:zh], mid)
}

// TestMulModXpnm1 is spec.md §8 scenario 5: wrap convolution mod
// x^ztrunc-1 with p'=97, checked against a direct index-wraparound
// reference.
func TestMulModXpnm1(t *testing.T) {
	e, err := NewEngine(97)
	require.NoError(t, err)
	m := e.Mod

	rng := rand.New(rand.NewSource(11))
	const ztrunc = 16
	depth := 4
	a := make([]uint64, ztrunc)
	b := make([]uint64, ztrunc)
	for i := range a {
		a[i] = rng.Uint64() % 97
	}
	for i := range b {
		b[i] = rng.Uint64() % 97
	}

	z := make([]uint64, ztrunc)
	e.MulModXpnm1(z, ztrunc, a, b, depth)

	want := make([]uint64, ztrunc)
	for i, av := range a {
		if av == 0 {
			continue
		}
		for j, bv := range b {
			k := (i + j) % ztrunc
			want[k] = m.AddMul(want[k], av, bv)
		}
	}
	require.Equal(t, want, z)
}

// TestDirectLaneAgreesWithClassical exercises the direct-lane path (a
// usable sd-FFT prime) and checks it agrees with the classical schoolbook
// computation over the same modulus.
func TestDirectLaneAgreesWithClassical(t *testing.T) {
	e, err := NewEngine(usableDirectPrime)
	require.NoError(t, err)
	require.NotNil(t, e.direct)

	rng := rand.New(rand.NewSource(99))
	a := make([]uint64, 64)
	b := make([]uint64, 64)
	for i := range a {
		a[i] = rng.Uint64() % usableDirectPrime
	}
	for i := range b {
		b[i] = rng.Uint64() % usableDirectPrime
	}
	zn := len(a) + len(b) - 1
	z := make([]uint64, zn)
	e.MulMid(z, 0, zn, a, b)

	want := refMulMid(e.Mod, 0, zn, a, b)
	require.Equal(t, want, z)
}

// TestGenericPathAgreesWithDirectLane is the explicit property test
// SPEC_FULL.md's POLYMUL supplement names: the np=1 direct-lane output
// and the generic np>=2 multi-prime CRT path's output must agree bit
// for bit on the same modulus and operands. Both private paths are
// invoked directly (bypassing MulMid's dispatch, which would otherwise
// always pick the direct lane for usableDirectPrime) so the comparison
// is apples to apples.
func TestGenericPathAgreesWithDirectLane(t *testing.T) {
	e, err := NewEngine(usableDirectPrime)
	require.NoError(t, err)
	require.NotNil(t, e.direct)

	rng := rand.New(rand.NewSource(211))
	a := make([]uint64, 48)
	b := make([]uint64, 40)
	for i := range a {
		a[i] = rng.Uint64() % usableDirectPrime
	}
	for i := range b {
		b[i] = rng.Uint64() % usableDirectPrime
	}
	zn := len(a) + len(b) - 1

	direct := make([]uint64, zn)
	e.mulMidDirect(direct, 0, zn, a, b)

	g, err := e.ensureGeneric()
	require.NoError(t, err)
	generic := make([]uint64, zn)
	e.mulMidGeneric(g, generic, 0, zn, a, b)

	require.Equal(t, direct, generic)
}

func TestDivRemRoundTrips(t *testing.T) {
	e, err := NewEngine(97)
	require.NoError(t, err)
	m := e.Mod

	rng := rand.New(rand.NewSource(5))
	b := make([]uint64, 6)
	for i := range b {
		b[i] = rng.Uint64() % 97
	}
	b[len(b)-1] = 1 // nonzero leading coefficient

	a := make([]uint64, 20)
	for i := range a {
		a[i] = rng.Uint64() % 97
	}

	quot, rem := e.DivRem(a, b)
	require.Less(t, len(rem), len(b))

	// a == quot*b + rem, checked coefficientwise via a classical expand.
	recombined := make([]uint64, len(a))
	zn := len(quot) + len(b) - 1
	qb := make([]uint64, zn)
	e.MulMid(qb, 0, zn, quot, b)
	for i := range recombined {
		var v uint64
		if i < len(qb) {
			v = qb[i]
		}
		if i < len(rem) {
			v = m.Add(v, rem[i])
		}
		recombined[i] = v
	}
	require.Equal(t, a, recombined)
}

func TestMulPrecompAgreesWithFreshMulMid(t *testing.T) {
	e, err := NewEngine(usableDirectPrime)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(13))
	b := make([]uint64, 32)
	for i := range b {
		b[i] = rng.Uint64() % usableDirectPrime
	}
	a := make([]uint64, 40)
	for i := range a {
		a[i] = rng.Uint64() % usableDirectPrime
	}

	pc := NewMulPrecomp(e, b, 40)
	zn := len(a) + len(b) - 1
	got := make([]uint64, zn)
	require.NoError(t, pc.MulMid(got, 0, zn, a))

	want := make([]uint64, zn)
	e.MulMid(want, 0, zn, a, b)
	require.Equal(t, want, got)
}

func TestMulPrecompReturnsErrNotApplicableWhenTooSmall(t *testing.T) {
	e, err := NewEngine(usableDirectPrime)
	require.NoError(t, err)

	b := make([]uint64, 8)
	for i := range b {
		b[i] = uint64(i + 1)
	}
	pc := NewMulPrecomp(e, b, 8) // commits to covering only an<=8

	a := make([]uint64, 64) // far larger than the committed depth
	for i := range a {
		a[i] = uint64(i + 1)
	}
	zn := len(a) + len(b) - 1
	got := make([]uint64, zn)
	err = pc.MulMid(got, 0, zn, a)
	require.ErrorIs(t, err, ErrNotApplicable)
}
