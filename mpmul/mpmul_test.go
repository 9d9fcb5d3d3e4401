package mpmul

import (
	"math/big"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/thesyncim/sdfft/mpctx"
)

// seedPrime is an arbitrary usable 50-bit seed; mpctx.New walks
// nextFFTNumber from here to build the full NpMax-prime set.
const seedPrime = 1108307720798209

func newTestCtx(t *testing.T) *mpctx.MpnCtx {
	t.Helper()
	ctx, err := mpctx.New(seedPrime)
	require.NoError(t, err)
	return ctx
}

func wordsToBig(w []uint64) *big.Int {
	out := new(big.Int)
	for i := len(w) - 1; i >= 0; i-- {
		out.Lsh(out, 64)
		out.Or(out, new(big.Int).SetUint64(w[i]))
	}
	return out
}

func bigToWords(x *big.Int, n int) []uint64 {
	out := make([]uint64, n)
	bz := new(big.Int).Set(x)
	mask := new(big.Int).SetUint64(^uint64(0))
	for i := 0; i < n; i++ {
		word := new(big.Int).And(bz, mask)
		out[i] = word.Uint64()
		bz.Rsh(bz, 64)
	}
	return out
}

// TestMpnMulScenario1 is spec.md §8 scenario 1 exactly.
func TestMpnMulScenario1(t *testing.T) {
	ctx := newTestCtx(t)
	a := []uint64{0xFFFFFFFFFFFFFFFF, 0xFFFFFFFFFFFFFFFF}
	b := []uint64{0xFFFFFFFFFFFFFFFF}
	z := make([]uint64, len(a)+len(b))
	err := MpnMul(ctx, z, a, b)
	require.NoError(t, err)

	want := []uint64{0x0000000000000001, 0xFFFFFFFFFFFFFFFF, 0xFFFFFFFFFFFFFFFE}
	require.Equal(t, want, z)
}

// TestMpnMulRandomAgreesWithBigInt is the spec.md §8 scenario 2 shape
// (random operands, compared against a big.Int reference) at a smaller
// size so the test runs quickly.
func TestMpnMulRandomAgreesWithBigInt(t *testing.T) {
	ctx := newTestCtx(t)
	rng := rand.New(rand.NewSource(42))

	const an, bn = 24, 24
	a := make([]uint64, an)
	b := make([]uint64, bn)
	for i := range a {
		a[i] = rng.Uint64()
	}
	for i := range b {
		b[i] = rng.Uint64()
	}

	z := make([]uint64, an+bn)
	require.NoError(t, MpnMul(ctx, z, a, b))

	want := new(big.Int).Mul(wordsToBig(a), wordsToBig(b))
	wantWords := bigToWords(want, an+bn)
	require.Equal(t, wantWords, z)
}

func TestMpnMulSquaringFastPath(t *testing.T) {
	ctx := newTestCtx(t)
	a := []uint64{0x123456789ABCDEF0, 0x0FEDCBA987654321}
	z := make([]uint64, len(a)*2)
	require.NoError(t, MpnMul(ctx, z, a, a))

	want := new(big.Int).Mul(wordsToBig(a), wordsToBig(a))
	require.Equal(t, bigToWords(want, len(a)*2), z)
}
