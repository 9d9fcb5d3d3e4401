// Package vec provides width-1, width-4 and width-8 lanes of float64
// together with the modular-reduction and mulmod primitives the transform
// layer builds on. There is no portable SIMD intrinsic in Go without
// per-ISA assembly (the teacher's radix-4 butterflies rely on the Go
// compiler's own auto-vectorization of these loops); Width4 and Width8
// are plain fixed-size arrays so every lane operation is expressed once
// and the compiler is free to widen it.
package vec

// Width4 is four packed double-precision residues.
type Width4 [4]float64

// Width8 is a pair of Width4 lanes, mirroring the teacher's vec8 tier.
type Width8 [2]Width4

// Zero returns the zero vector.
func (Width4) Zero() Width4 { return Width4{} }

// Add returns a+b lanewise.
func Add4(a, b Width4) Width4 {
	return Width4{a[0] + b[0], a[1] + b[1], a[2] + b[2], a[3] + b[3]}
}

// Sub returns a-b lanewise.
func Sub4(a, b Width4) Width4 {
	return Width4{a[0] - b[0], a[1] - b[1], a[2] - b[2], a[3] - b[3]}
}

// Neg returns -a lanewise.
func Neg4(a Width4) Width4 {
	return Width4{-a[0], -a[1], -a[2], -a[3]}
}

// Mul returns a*b lanewise.
func Mul4(a, b Width4) Width4 {
	return Width4{a[0] * b[0], a[1] * b[1], a[2] * b[2], a[3] * b[3]}
}

// Fmadd returns a*b+c lanewise, using the platform's fused multiply-add
// where available (math.FMA) so the low part of the product is exact.
func Fmadd4(a, b, c Width4) Width4 {
	return Width4{
		fma(a[0], b[0], c[0]),
		fma(a[1], b[1], c[1]),
		fma(a[2], b[2], c[2]),
		fma(a[3], b[3], c[3]),
	}
}

// Fnmadd returns c-a*b lanewise.
func Fnmadd4(a, b, c Width4) Width4 {
	return Width4{
		fma(-a[0], b[0], c[0]),
		fma(-a[1], b[1], c[1]),
		fma(-a[2], b[2], c[2]),
		fma(-a[3], b[3], c[3]),
	}
}

// Round rounds each lane to the nearest integer value (ties to even),
// matching the rounding mode the modular-reduction identities assume.
func Round4(a Width4) Width4 {
	return Width4{roundEven(a[0]), roundEven(a[1]), roundEven(a[2]), roundEven(a[3])}
}

// Blendv selects b[i] where mask[i] < 0, else a[i] -- the vectorized
// conditional-subtract idiom used by reduce_to_pmhn.
func Blendv4(a, b, mask Width4) Width4 {
	var out Width4
	for i := range out {
		if mask[i] < 0 {
			out[i] = b[i]
		} else {
			out[i] = a[i]
		}
	}
	return out
}

// ReduceToPM1N reduces a (mod n) into [-n, n], given ninv = 1/n.
// a - round(a*ninv)*n
func ReduceToPM1N4(a Width4, n, ninv float64) Width4 {
	q := Round4(Mul4(a, Width4{ninv, ninv, ninv, ninv}))
	return Fnmadd4(q, Width4{n, n, n, n}, a)
}

// ReduceToPMHN further folds |a|>n/2 by +/-n, producing [-n/2, n/2].
func ReduceToPMHN4(a Width4, n float64) Width4 {
	half := n / 2
	hi := Width4{half, half, half, half}
	nn := Width4{n, n, n, n}
	lowMask := Sub4(a, Neg4(hi))  // a+half, sign bit set iff a < -half
	hiMask := Sub4(hi, a)         // half-a, sign bit set iff a > half
	out := Blendv4(a, Add4(a, nn), lowMask)
	out = Blendv4(out, Sub4(out, nn), hiMask)
	return out
}

// ReduceToZN normalizes a to [0, n).
func ReduceToZN4(a Width4, n float64) Width4 {
	r := ReduceToPM1N4(a, n, 1/n)
	nn := Width4{n, n, n, n}
	var mask Width4
	for i := range mask {
		if r[i] < 0 {
			mask[i] = -1
		}
	}
	return Add4(r, Mul4(mask, Neg4(nn)))
}

// MulMod computes a*b mod n in [-n, n], exploiting the fact that the
// low part of an IEEE-754 product is exact: the FMA below recovers it.
// Requires |a|, |b| <= n <= 2^fast-bound (see sdfft.FastModBound).
func MulMod4(a, b Width4, n, ninv float64) Width4 {
	hi := Mul4(a, b)
	lo := Fmadd4(a, b, Neg4(hi))
	q := Round4(Mul4(hi, Width4{ninv, ninv, ninv, ninv}))
	return Add4(Fnmadd4(q, Width4{n, n, n, n}, hi), lo)
}

// --- width-1 scalar helpers (used by boundary/leaf code paths) ---

// ReduceToPM1N reduces the scalar a (mod n) into [-n, n].
func ReduceToPM1N(a, n, ninv float64) float64 {
	q := roundEven(a * ninv)
	return fma(-q, n, a)
}

// ReduceToPMHN folds a scalar pm1n residue into [-n/2, n/2].
func ReduceToPMHN(a, n float64) float64 {
	half := n / 2
	if a < -half {
		return a + n
	}
	if a > half {
		return a - n
	}
	return a
}

// ReduceToZN normalizes a scalar residue to [0, n).
func ReduceToZN(a, n float64) float64 {
	r := ReduceToPM1N(a, n, 1/n)
	if r < 0 {
		r += n
	}
	return r
}

// MulMod computes a*b mod n in [-n, n].
func MulMod(a, b, n, ninv float64) float64 {
	hi := a * b
	lo := fma(a, b, -hi)
	q := roundEven(hi * ninv)
	return fma(-q, n, hi) + lo
}
