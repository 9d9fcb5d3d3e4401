package sdfft

import (
	"github.com/thesyncim/sdfft/modarith"
	"github.com/thesyncim/sdfft/vec"
)

// PointMul computes a[i] = a[i]*b[i]*scaling (mod p) for i in [0,n),
// where scaling folds together the inverse-transform 2^-L factor and (in
// MPMUL/POLYMUL) the CRT cofactor, per spec.md §4.6 step 4: "m =
// (2^depth * (Ci mod pi))^-1 mod pi -- this multiplies in the inverse-
// transform scaling and CRT cofactor in one shot".
func (q *FftCtx) PointMul(a, b []float64, scaling float64, n int) {
	p := float64(q.prime.P)
	pinv := q.prime.Pinv
	sv := vec.Set4(scaling)
	i := 0
	for ; i+4 <= n; i += 4 {
		av := vec.Load4(a, i)
		bv := vec.Load4(b, i)
		prod := vec.MulMod4(av, bv, p, pinv)
		scaled := vec.MulMod4(prod, sv, p, pinv)
		vec.Store4(a, i, scaled)
	}
	for ; i < n; i++ {
		prod := vec.MulMod(a[i], b[i], p, pinv)
		a[i] = vec.MulMod(prod, scaling, p, pinv)
	}
}

// PointSqr computes a[i] = a[i]^2*scaling (mod p) for i in [0,n), the
// squaring fast path of spec.md §4.6 step 6.
func (q *FftCtx) PointSqr(a []float64, scaling float64, n int) {
	p := float64(q.prime.P)
	pinv := q.prime.Pinv
	sv := vec.Set4(scaling)
	i := 0
	for ; i+4 <= n; i += 4 {
		av := vec.Load4(a, i)
		sq := vec.MulMod4(av, av, p, pinv)
		scaled := vec.MulMod4(sq, sv, p, pinv)
		vec.Store4(a, i, scaled)
	}
	for ; i < n; i++ {
		sq := vec.MulMod(a[i], a[i], p, pinv)
		a[i] = vec.MulMod(sq, scaling, p, pinv)
	}
}

// InverseScaling returns (2^depth)^-1 mod p as a double, the base
// scaling factor PointMul/PointSqr need before any additional CRT
// cofactor is folded in via CombineScaling.
func (q *FftCtx) InverseScaling(depth int) float64 {
	p := q.prime.P
	inv2 := modarith.PowMod(2, p-2, p)
	inv2L := modarith.PowMod(inv2, uint64(depth), p)
	return float64(vec.ReduceToPMHN(float64(inv2L), float64(p)))
}

// CombineScaling folds the inverse of a CRT cofactor (already reduced mod
// p) into the base 2^-L scaling factor, producing the m of spec.md §4.6
// step 4.
func (q *FftCtx) CombineScaling(base float64, cofactorModP uint64) float64 {
	p := q.prime.P
	baseZN := uint64(vec.ReduceToZN(base, float64(p)))
	cofactorInv := modarith.PowMod(cofactorModP, p-2, p) // Fermat inverse
	m := modarith.MulMod(baseZN, cofactorInv, p)
	return float64(vec.ReduceToPMHN(float64(m), float64(p)))
}
