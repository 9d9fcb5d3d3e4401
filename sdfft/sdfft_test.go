package sdfft

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/thesyncim/sdfft/modarith"
	"github.com/thesyncim/sdfft/vec"
)

// testPrime is a 50-bit prime congruent to 1 mod 2^31, small enough to
// stay under FastModBound (see vec/vec_test.go for why spec.md's own
// 62-bit example moduli, e.g. 0x3f00000000000001, cannot be used here;
// recorded in DESIGN.md).
const testPrime = 1108307720798209

func newTestCtx(t *testing.T) *FftCtx {
	t.Helper()
	q, err := NewFftCtx(testPrime)
	require.NoError(t, err)
	return q
}

// naiveEval computes f(x) mod p via Horner's rule, the reference oracle
// for "FFT correctness" (spec.md §8).
func naiveEval(coeffs []float64, x uint64, p uint64) uint64 {
	var acc uint64
	xr := x % p
	for i := len(coeffs) - 1; i >= 0; i-- {
		acc = (acc*xr + toU64(coeffs[i], p)) % p
	}
	return acc
}

func toU64(a float64, p uint64) uint64 {
	r := vec.ReduceToZN(a, float64(p))
	return uint64(r)
}

func TestFftCorrectness(t *testing.T) {
	q := newTestCtx(t)
	const L = 6
	n := 1 << L
	coeffs := make([]float64, n)
	for i := range coeffs {
		coeffs[i] = float64(i*131 + 7)
	}
	data := make([]float64, n)
	copy(data, coeffs)
	q.FftTrunc(data, L, uint64(n), uint64(n))

	root := q.Prime().Root
	p := q.Prime().P
	exp := (p - 1) >> uint(L)
	omega := modarith.PowMod(root, exp, p)

	for i := 0; i < n; i++ {
		xi := modarith.PowMod(omega, uint64(i), p)
		want := naiveEval(coeffs, xi, p)
		got := toU64(GetFFTIndex(data, L, uint64(i)), p)
		require.Equalf(t, want, got, "index %d", i)
	}
}

func TestIfftIsLeftInverseOfFft(t *testing.T) {
	q := newTestCtx(t)
	const L = 5
	n := 1 << L
	p := q.Prime().P
	orig := make([]float64, n)
	for i := range orig {
		orig[i] = float64((i*97 + 3) % int(p))
	}
	data := make([]float64, n)
	copy(data, orig)

	q.FftTrunc(data, L, uint64(n), uint64(n))
	q.IfftTrunc(data, L, uint64(n))

	scaling := q.InverseScaling(L)
	for i := range data {
		data[i] = vec.MulMod(data[i], scaling, float64(p), q.Prime().Pinv)
	}

	for i := range orig {
		want := toU64(orig[i], p)
		got := toU64(data[i], p)
		require.Equalf(t, want, got, "index %d", i)
	}
}

func TestIfftTruncatedLeftInverse(t *testing.T) {
	q := newTestCtx(t)
	const L = 5
	n := 1 << L
	p := q.Prime().P
	orig := make([]float64, n)
	for i := 0; i < n/2; i++ {
		orig[i] = float64((i*53 + 11) % int(p))
	}
	data := make([]float64, n)
	copy(data, orig)

	q.FftTrunc(data, L, uint64(n/2), uint64(n))
	q.IfftTrunc(data, L, uint64(n))

	scaling := q.InverseScaling(L)
	for i := range data {
		data[i] = vec.MulMod(data[i], scaling, float64(p), q.Prime().Pinv)
	}

	for i := range orig {
		want := toU64(orig[i], p)
		got := toU64(data[i], p)
		require.Equalf(t, want, got, "index %d", i)
	}
}

func TestPointMulScalingConsistency(t *testing.T) {
	q := newTestCtx(t)
	const L = 5
	n := 1 << L
	p := q.Prime().P

	a := make([]float64, n)
	b := make([]float64, n)
	for i := range a {
		a[i] = float64((i*17 + 1) % int(p))
		b[i] = float64((i*23 + 2) % int(p))
	}
	fa := append([]float64(nil), a...)
	fb := append([]float64(nil), b...)
	q.FftTrunc(fa, L, uint64(n), uint64(n))
	q.FftTrunc(fb, L, uint64(n), uint64(n))

	scaling := q.InverseScaling(L)
	prod := append([]float64(nil), fa...)
	q.PointMul(prod, fb, scaling, n)
	q.IfftTrunc(prod, L, uint64(n))

	// convolution (cyclic, length n) via schoolbook mod x^n-1, reference oracle
	want := make([]uint64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			k := (i + j) % n
			want[k] = (want[k] + toU64(a[i], p)*toU64(b[j], p)) % p
		}
	}
	for i := range prod {
		got := toU64(prod[i], p)
		require.Equalf(t, want[i], got, "index %d", i)
	}
}

func TestFitDepthIsIdempotentAndMonotonic(t *testing.T) {
	q := newTestCtx(t)
	require.GreaterOrEqual(t, q.Depth(), int64(InitDepth))
	q.FitDepth(InitDepth - 1)
	require.Equal(t, int64(InitDepth), q.Depth())
	q.FitDepth(InitDepth + 5)
	require.Equal(t, int64(InitDepth+5), q.Depth())
	q.FitDepth(InitDepth + 2)
	require.Equal(t, int64(InitDepth+5), q.Depth())
}
