// Package nmod implements the modular-arithmetic helper type spec.md §6
// lists as a consumed collaborator ("Nmod supplying init(n), red(r,hi,lo),
// pow, inv, add, sub, addmul"). Nothing in the retrieval pack ships an
// equivalent word-modulus type with a 128-bit reduction entry point, so
// this package is implemented directly against the standard library
// (math/bits for the wide multiply, math/big only for the extended-gcd
// inverse) -- see DESIGN.md's stdlib justification for this package.
package nmod

import (
	"math/big"
	"math/bits"

	"github.com/thesyncim/sdfft/modarith"
)

// Mod is a fixed modulus paired with the helpers every reduction in this
// module is expressed in terms of.
type Mod struct {
	N uint64
}

// Init builds a Mod for modulus n. n must be nonzero; contract violations
// (n==0) panic per spec.md §7 kind 2.
func Init(n uint64) Mod {
	if n == 0 {
		panic("nmod: modulus must be nonzero")
	}
	return Mod{N: n}
}

// Red reduces the 128-bit value (hi,lo) modulo m.N.
func (m Mod) Red(hi, lo uint64) uint64 {
	if hi == 0 && lo < m.N {
		return lo
	}
	_, rem := bits.Div64(hi%m.N, lo, m.N)
	return rem
}

// Add returns (a+b) mod m.N for a, b < m.N.
func (m Mod) Add(a, b uint64) uint64 { return modarith.AddMod(a, b, m.N) }

// Sub returns (a-b) mod m.N for a, b < m.N.
func (m Mod) Sub(a, b uint64) uint64 { return modarith.SubMod(a, b, m.N) }

// Mul returns a*b mod m.N.
func (m Mod) Mul(a, b uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	return m.Red(hi, lo)
}

// AddMul returns (acc + a*b) mod m.N, the fused step CRT reconstruction
// and series-inverse Newton iteration both lean on.
func (m Mod) AddMul(acc, a, b uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	lo2, carry := bits.Add64(lo, acc, 0)
	hi += carry
	return m.Red(hi, lo2)
}

// Pow returns base^exp mod m.N.
func (m Mod) Pow(base, exp uint64) uint64 { return modarith.PowMod(base, exp, m.N) }

// Inv returns a^-1 mod m.N via the extended Euclidean algorithm. Panics
// if a is not invertible mod m.N (a contract violation: the caller must
// only invert residues coprime to the modulus, which holds for every
// nonzero residue when m.N is prime).
func (m Mod) Inv(a uint64) uint64 {
	g, x, _ := extGCD(new(big.Int).SetUint64(a), new(big.Int).SetUint64(m.N))
	if g.Cmp(big.NewInt(1)) != 0 {
		panic("nmod: value not invertible mod N")
	}
	mod := new(big.Int).SetUint64(m.N)
	x.Mod(x, mod)
	return x.Uint64()
}

func extGCD(a, b *big.Int) (g, x, y *big.Int) {
	if b.Sign() == 0 {
		return new(big.Int).Set(a), big.NewInt(1), big.NewInt(0)
	}
	q, r := new(big.Int), new(big.Int)
	q.DivMod(a, b, r)
	g1, x1, y1 := extGCD(b, r)
	x = y1
	y = new(big.Int).Sub(x1, new(big.Int).Mul(q, y1))
	return g1, x, y
}
