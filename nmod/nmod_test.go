package nmod

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInvAndMulRoundtrip(t *testing.T) {
	m := Init(1108307720798209)
	a := uint64(123456789)
	inv := m.Inv(a)
	require.Equal(t, uint64(1), m.Mul(a, inv))
}

func TestAddMulMatchesAddThenMul(t *testing.T) {
	m := Init(97)
	got := m.AddMul(5, 6, 7)
	require.Equal(t, m.Add(5, m.Mul(6, 7)), got)
}

func TestSeriesInverseRoundtrip(t *testing.T) {
	m := Init(97)
	f := []uint64{1, 2, 3, 4, 5}
	n := 6
	g := m.SeriesInverse(f, n)
	prod := m.seriesMulTrunc(f, g, n)
	require.Equal(t, uint64(1), prod[0])
	for i := 1; i < n; i++ {
		require.Equal(t, uint64(0), prod[i], "coefficient %d of f*inv(f) should vanish mod x^n", i)
	}
}
