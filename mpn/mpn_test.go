package mpn

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func wordsToBig(a []uint64) *big.Int {
	z := new(big.Int)
	for i := len(a) - 1; i >= 0; i-- {
		z.Lsh(z, 64)
		z.Or(z, new(big.Int).SetUint64(a[i]))
	}
	return z
}

func TestMul1AgreesWithBigInt(t *testing.T) {
	a := []uint64{0xFFFFFFFFFFFFFFFF, 0x1}
	b := uint64(3)
	z := make([]uint64, 2)
	carry := Mul1(z, a, b)

	want := new(big.Int).Mul(wordsToBig(a), new(big.Int).SetUint64(b))
	got := new(big.Int).Lsh(new(big.Int).SetUint64(carry), 128)
	got.Or(got, wordsToBig(z))
	require.Equal(t, want, got)
}

func TestMod1AndDivExact1Roundtrip(t *testing.T) {
	a := []uint64{100, 0}
	b := uint64(7)
	// make a an exact multiple of b first
	q := make([]uint64, 2)
	DivExact1(q, []uint64{700, 0}, b)
	require.Equal(t, uint64(0), Mod1([]uint64{700, 0}, b))
	require.Equal(t, uint64(100), q[0])
	_ = a
}

func TestRshiftMatchesBigInt(t *testing.T) {
	a := []uint64{0x0123456789ABCDEF, 0xFEDCBA9876543210}
	z := make([]uint64, 2)
	Rshift(z, a, 17)
	want := new(big.Int).Rsh(wordsToBig(a), 17)
	require.Equal(t, want, wordsToBig(z))
}
