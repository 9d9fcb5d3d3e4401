package vec

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMulModAgreesWithMathMod(t *testing.T) {
	// 50-bit prime, under the fast-modular bound p < 2^50 (see
	// sdfft.FastModBound); spec.md's own example constants (e.g.
	// 0x3f00000000000001) are 62 bits and exceed that bound -- see
	// DESIGN.md's note on this discrepancy. This one is representative
	// of what sd_fft_ctx_init_prime actually accepts.
	const n = 1108307720798209
	p := float64(n)
	pinv := 1.0 / p

	cases := []struct{ a, b float64 }{
		{12345, 67890},
		{-12345, 67890},
		{p - 1, p - 1},
		{-(p - 1), p - 1},
		{0, p - 1},
	}
	for _, c := range cases {
		got := MulMod(c.a, c.b, p, pinv)
		require.LessOrEqual(t, math.Abs(got), p)

		// recover the [0,n) residue and compare against big-int modmul.
		gotZn := ReduceToZN(got, p)
		want := modmulBig(int64(c.a), int64(c.b), int64(n))
		require.Equal(t, want, int64(gotZn))
	}
}

func TestReduceToPMHNRange(t *testing.T) {
	const p = 1108307720798209
	for _, a := range []float64{p, -p, p / 2, -p / 2, p - 1, -(p - 1)} {
		r := ReduceToPMHN(a, p)
		require.LessOrEqual(t, r, float64(p/2))
		require.GreaterOrEqual(t, r, -float64(p/2))
	}
}

func TestWidth4LiftsScalar(t *testing.T) {
	const p = 1108307720798209
	pinv := 1.0 / p
	a := Width4{1, 2, 3, 4}
	b := Width4{5, 6, 7, 8}
	got := MulMod4(a, b, p, pinv)
	for i := range got {
		want := MulMod(a[i], b[i], p, pinv)
		require.Equal(t, want, got[i])
	}
}

func TestWidth8LiftsWidth4(t *testing.T) {
	const p = 1108307720798209
	pinv := 1.0 / p
	a := Width8{{1, 2, 3, 4}, {9, 10, 11, 12}}
	b := Width8{{5, 6, 7, 8}, {13, 14, 15, 16}}
	got := MulMod8(a, b, p, pinv)
	require.Equal(t, MulMod4(a[0], b[0], p, pinv), got[0])
	require.Equal(t, MulMod4(a[1], b[1], p, pinv), got[1])
}

// modmulBig computes a*b mod n in [0, n) -- this is only a test oracle,
// so plain big.Int is used rather than 128-bit word arithmetic.
func modmulBig(a, b, n int64) int64 {
	prod := new(big.Int).Mul(big.NewInt(a), big.NewInt(b))
	prod.Mod(prod, big.NewInt(n)) // Euclidean modulus: result in [0, n)
	return prod.Int64()
}
