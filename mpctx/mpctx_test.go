package mpctx

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/thesyncim/sdfft/modarith"
	"github.com/thesyncim/sdfft/mpn"
	"github.com/thesyncim/sdfft/sdfft"
)

const seedPrime = 1108307720798209

func TestNewBuildsNpMaxDistinctUsablePrimes(t *testing.T) {
	ctx, err := New(seedPrime)
	require.NoError(t, err)
	require.Len(t, ctx.Ffts, NpMax)

	full := ctx.Profiles[NpMax-1]
	require.Len(t, full.Primes, NpMax)
	require.Equal(t, seedPrime, int(full.Primes[0]))

	seen := make(map[uint64]bool)
	for _, p := range full.Primes {
		require.True(t, sdfft.IsUsablePrime(p), "prime %d must be usable", p)
		require.False(t, seen[p], "prime %d repeated", p)
		seen[p] = true
	}
}

func TestNextFFTNumberIsReproducible(t *testing.T) {
	p1, err := nextFFTNumber(seedPrime)
	require.NoError(t, err)
	p2, err := nextFFTNumber(seedPrime)
	require.NoError(t, err)
	require.Equal(t, p1, p2)
	require.Less(t, p1, uint64(seedPrime))
	require.True(t, sdfft.IsUsablePrime(p1))
}

// TestProfilesAreNotSharedAcrossPrefixLengths is a regression test for
// the per-np CRT data bug: cofactors for a narrower prime set are not a
// truncation of the wider set's cofactors.
func TestProfilesAreNotSharedAcrossPrefixLengths(t *testing.T) {
	ctx, err := New(seedPrime)
	require.NoError(t, err)

	np1 := ctx.Crt(1)
	np2 := ctx.Crt(2)
	require.Equal(t, 1, np1.Np)
	require.Equal(t, 2, np2.Np)

	// Profile 1's single cofactor is 1 (prod == primes[0]); profile 2's
	// first cofactor is primes[1], strictly larger -- they must not be
	// byte-identical.
	require.NotEqual(t, np1.Cofactor[0], np2.Cofactor[0][:len(np1.Cofactor[0])])
}

// TestCrtDataReconstructsKnownResidues checks that CRT-reconstructing a
// small known integer from its per-prime residues via the prod/cofactor
// data recovers the original value. Each residue is weighted by
// Ci^-1 mod pi first, so that sum_i Ci*(x*Ci^-1 mod pi) == x mod prod.
func TestCrtDataReconstructsKnownResidues(t *testing.T) {
	ctx, err := New(seedPrime)
	require.NoError(t, err)
	crt := ctx.Crt(3)

	const want = 123456789012345
	residues := make([]uint64, 3)
	for i, p := range crt.Primes {
		ciInv := modarith.PowMod(crt.CiModPi[i], p-2, p)
		residues[i] = modarith.MulMod(want%p, ciInv, p)
	}

	coeffLen := crt.CoeffLen
	acc := make([]uint64, coeffLen)
	term := make([]uint64, coeffLen)
	for i := range crt.Primes {
		copy(term, crt.Cofactor[i])
		carry := mpn.Mul1(term, term, residues[i])
		require.Zero(t, carry)
		mpn.AddN(acc, acc, term)
	}
	for modarith.CompareWords(acc, crt.Prod) >= 0 {
		modarith.SubWords(acc, acc, crt.Prod)
	}
	require.Equal(t, uint64(want), acc[0])
	for _, w := range acc[1:] {
		require.Zero(t, w)
	}
}
