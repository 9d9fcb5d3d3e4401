package vec

import "github.com/klauspost/cpuid/v2"

// Native is the lane width the current CPU prefers for the inner
// butterfly loops. The teacher's C ancestor picked this at compile time
// via FLINT_AVX2/FLINT_NEON macros (spec.md §9); cpuid lets the decision
// happen once at process start instead, as a plain runtime value rather
// than a per-call branch.
type Native int

const (
	// NativeWidth4 is chosen on ISAs without a wide double lane (NEON
	// only gives 2x float64, and scalar-only targets get no benefit
	// from pretending otherwise).
	NativeWidth4 Native = 4
	// NativeWidth8 is chosen when AVX2-class fused-multiply-add and a
	// 4-wide double lane are both available, letting Width8 operations
	// be treated as two independent Width4 lanes issued back to back.
	NativeWidth8 Native = 8
)

// DetectNative inspects the running CPU and returns the preferred lane
// width for this process.
func DetectNative() Native {
	if cpuid.CPU.Supports(cpuid.AVX2, cpuid.FMA3) {
		return NativeWidth8
	}
	return NativeWidth4
}

// NativeLane is computed once at package init and used by callers that
// don't need to special-case the width themselves.
var NativeLane = DetectNative()

// Add8, Sub8, Mul8, Fmadd8, Round8, MulMod8 lift the Width4 operations
// componentwise across the two Width4 lanes of a Width8, per spec.md
// §4.1 ("every vec4 operation lifts componentwise").

func Add8(a, b Width8) Width8 {
	return Width8{Add4(a[0], b[0]), Add4(a[1], b[1])}
}

func Sub8(a, b Width8) Width8 {
	return Width8{Sub4(a[0], b[0]), Sub4(a[1], b[1])}
}

func Mul8(a, b Width8) Width8 {
	return Width8{Mul4(a[0], b[0]), Mul4(a[1], b[1])}
}

func Fmadd8(a, b, c Width8) Width8 {
	return Width8{Fmadd4(a[0], b[0], c[0]), Fmadd4(a[1], b[1], c[1])}
}

func Round8(a Width8) Width8 {
	return Width8{Round4(a[0]), Round4(a[1])}
}

func ReduceToPM1N8(a Width8, n, ninv float64) Width8 {
	return Width8{ReduceToPM1N4(a[0], n, ninv), ReduceToPM1N4(a[1], n, ninv)}
}

func ReduceToPMHN8(a Width8, n float64) Width8 {
	return Width8{ReduceToPMHN4(a[0], n), ReduceToPMHN4(a[1], n)}
}

func MulMod8(a, b Width8, n, ninv float64) Width8 {
	return Width8{MulMod4(a[0], b[0], n, ninv), MulMod4(a[1], b[1], n, ninv)}
}

// Load4 gathers four consecutive doubles from s starting at off.
func Load4(s []float64, off int) Width4 {
	return Width4{s[off], s[off+1], s[off+2], s[off+3]}
}

// Store4 scatters v into four consecutive doubles of s starting at off.
func Store4(s []float64, off int, v Width4) {
	s[off], s[off+1], s[off+2], s[off+3] = v[0], v[1], v[2], v[3]
}

// Load8 gathers eight consecutive doubles from s starting at off.
func Load8(s []float64, off int) Width8 {
	return Width8{Load4(s, off), Load4(s, off+4)}
}

// Store8 scatters v into eight consecutive doubles of s starting at off.
func Store8(s []float64, off int, v Width8) {
	Store4(s, off, v[0])
	Store4(s, off+4, v[1])
}

// Set4 broadcasts x into all four lanes.
func Set4(x float64) Width4 { return Width4{x, x, x, x} }

// Set8 broadcasts x into all eight lanes.
func Set8(x float64) Width8 { return Width8{Set4(x), Set4(x)} }
