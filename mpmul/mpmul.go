// Package mpmul is the large-integer multiplier of spec.md §4.6: it
// packs two big integers into FFT inputs, runs one NTT per prime, CRT-
// reconstructs, and carry-merges the result across worker-owned output
// regions. The worker-partition idiom (one goroutine per disjoint index
// range, joined by a sync.WaitGroup) follows
// _examples/bpfs-defs/downloads/task_segment.go.
package mpmul

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/thesyncim/sdfft/modarith"
	"github.com/thesyncim/sdfft/mpctx"
	"github.com/thesyncim/sdfft/mpn"
)

// PackBits is the fixed per-digit packing width used by this
// implementation. spec.md §4.6 step 1 picks (np, bits) from a tuned
// static profile table keyed by bn and the cost heuristic
// np*depth*ztrunc*(1-ratio/4); this implementation instead fixes
// bits=16 (comfortably small enough that no overflow analysis depends on
// platform tuning) and only searches np, a documented simplification
// recorded in DESIGN.md.
const PackBits = 16

// ErrEmptyOperand is a contract violation: spec.md §7 kind 2 names
// `bn == 0` explicitly.
var ErrEmptyOperand = errors.New("mpmul: operand must have at least one word")

// MpnMul computes z = a*b for little-endian word arrays a (an words) and
// b (bn words), an >= bn >= 1, writing len(a)+len(b) words into z
// (spec.md §4.6's mpn_mul entry point). z must have capacity an+bn.
func MpnMul(ctx *mpctx.MpnCtx, z []uint64, a, b []uint64) error {
	an, bn := len(a), len(b)
	if an == 0 || bn == 0 {
		panic(ErrEmptyOperand)
	}
	if an < bn {
		a, b = b, a
		an, bn = bn, an
	}
	squaring := an == bn && sameWords(a, b)

	np, depth, ztrunc, digitsA, digitsB := choosePacking(ctx, an, bn)
	crt := ctx.Crt(np)

	bufsA := make([][]float64, np)
	bufsB := make([][]float64, np)
	for i := 0; i < np; i++ {
		bufsA[i] = make([]float64, ztrunc)
		if !squaring {
			bufsB[i] = make([]float64, ztrunc)
		}
	}

	packDigits(bufsA, a, np, digitsA)
	if !squaring {
		packDigits(bufsB, b, np, digitsB)
	}

	var wg sync.WaitGroup
	for i := 0; i < np; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			q := ctx.Ffts[i]
			q.FftTrunc(bufsA[i], depth, uint64(digitsA), uint64(ztrunc))
			scaling := q.CombineScaling(q.InverseScaling(depth), crt.CiModPi[i])
			if squaring {
				q.PointSqr(bufsA[i], scaling, ztrunc)
			} else {
				q.FftTrunc(bufsB[i], depth, uint64(digitsB), uint64(ztrunc))
				q.PointMul(bufsA[i], bufsB[i], scaling, ztrunc)
			}
			q.IfftTrunc(bufsA[i], depth, uint64(ztrunc))
		}(i)
	}
	wg.Wait()

	zlen := an + bn
	for i := range z[:zlen] {
		z[i] = 0
	}
	crtMerge(ctx, crt, z, bufsA, np, digitsA+digitsB-1, zlen)
	return nil
}

func sameWords(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// choosePacking picks np (number of primes) for a fixed PackBits so that
// the CRT modulus comfortably exceeds the largest possible convolution
// coefficient bn*(2^bits-1)^2, then derives the transform depth from the
// resulting digit counts (spec.md §4.6 step 1, simplified per the
// PackBits doc comment).
func choosePacking(ctx *mpctx.MpnCtx, an, bn int) (np, depth int, ztrunc int, digitsA, digitsB int) {
	digitsA = digitCount(an, PackBits)
	digitsB = digitCount(bn, PackBits)
	zlenDigits := digitsA + digitsB - 1

	needBits := 2*PackBits + bitLen(uint64(digitsB)) + 4
	primeBits := 50 // every usable prime in this module is <2^50 (sdfft.FastModBound margin)
	np = (needBits + primeBits - 1) / primeBits
	if np < 1 {
		np = 1
	}
	if np > mpctx.NpMax {
		np = mpctx.NpMax
	}

	depth = bitLen(uint64(zlenDigits - 1))
	if depth < 1 {
		depth = 1
	}
	ztrunc = 1 << uint(depth)
	for ztrunc < zlenDigits {
		depth++
		ztrunc <<= 1
	}
	return
}

func digitCount(words int, bits int) int {
	totalBits := words * 64
	return (totalBits + bits - 1) / bits
}

func bitLen(x uint64) int {
	n := 0
	for x > 0 {
		n++
		x >>= 1
	}
	return n
}

// packDigits splits the little-endian word array src into base-2^bits
// digits and writes the (identical, prime-independent) digit sequence
// into every prime's buffer -- the digits are small enough (< 2^16) to
// be exact doubles under every usable prime, so no per-prime reduction
// is needed before the transform (spec.md §4.6 step 3 "each packed slot
// is reduced to pm1n", trivially satisfied here since 2^16-1 < p).
func packDigits(bufs [][]float64, src []uint64, np int, ndigits int) {
	for j := 0; j < ndigits; j++ {
		d := float64(extractDigit(src, j*PackBits, PackBits))
		for i := 0; i < np; i++ {
			bufs[i][j] = d
		}
	}
}

func extractDigit(words []uint64, bitOff, bits int) uint64 {
	wordIdx := bitOff / 64
	bitIdx := uint(bitOff % 64)
	if wordIdx >= len(words) {
		return 0
	}
	lo := words[wordIdx] >> bitIdx
	if bitIdx+uint(bits) > 64 && wordIdx+1 < len(words) {
		lo |= words[wordIdx+1] << (64 - bitIdx)
	}
	mask := uint64(1)<<uint(bits) - 1
	return lo & mask
}

// crtMerge reconstructs each convolution coefficient from its np
// residues and adds it, shifted by its digit position, into z. Each
// coefficient's contribution can straddle a 64-bit word boundary, so the
// shift-and-add uses modarith's ShiftLeft/AddWordsInPlace carry-chain
// primitives (spec.md §4.6 step 5).
func crtMerge(ctx *mpctx.MpnCtx, crt mpctx.CrtData, z []uint64, bufs [][]float64, np, ndigits, zlen int) {
	coeffLen := crt.CoeffLen
	nthreads := 4
	if nthreads > ndigits {
		nthreads = ndigits
	}
	if nthreads < 1 {
		nthreads = 1
	}

	type overhang struct {
		words []uint64
		at    int // starting word index this overhang applies to
	}
	overhangs := make([]overhang, nthreads)

	chunk := (ndigits + nthreads - 1) / nthreads
	var wg sync.WaitGroup
	for t := 0; t < nthreads; t++ {
		lo := t * chunk
		hi := lo + chunk
		if hi > ndigits {
			hi = ndigits
		}
		if lo >= hi {
			continue
		}
		wg.Add(1)
		go func(t, lo, hi int) {
			defer wg.Done()
			rWords := make([]uint64, coeffLen)
			term := make([]uint64, coeffLen)
			shifted := make([]uint64, coeffLen+1)

			base := (lo * PackBits) / 64
			lastWordOff := ((hi - 1) * PackBits) / 64
			local := make([]uint64, lastWordOff-base+coeffLen+2)

			for k := lo; k < hi; k++ {
				for i := range rWords {
					rWords[i] = 0
				}
				for i := 0; i < np; i++ {
					r := uint64(residueZN(bufs[i][k], ctx.Ffts[i].Prime().P))
					mpn.Mul1(term, crt.Cofactor[i], r)
					mpn.AddN(rWords, rWords, term)
				}
				reduceModProd(rWords, crt.Prod)

				bitOff := k * PackBits
				wordOff := bitOff / 64
				shiftBits := uint(bitOff % 64)
				modarith.ShiftLeft(shifted, rWords, shiftBits)

				localOff := wordOff - base
				modarith.AddWordsInPlace(local[localOff:], shifted)
			}
			overhangs[t] = overhang{words: local, at: base}
		}(t, lo, hi)
	}
	wg.Wait()

	for t := 0; t < nthreads; t++ {
		oh := overhangs[t]
		if oh.words == nil {
			continue
		}
		end := oh.at + len(oh.words)
		if end > zlen {
			end = zlen
			if end <= oh.at {
				continue
			}
		}
		modarith.AddWordsInPlace(z[oh.at:end], oh.words[:end-oh.at])
	}
}

func residueZN(a float64, p uint64) uint64 {
	r := int64(a)
	r %= int64(p)
	if r < 0 {
		r += int64(p)
	}
	return uint64(r)
}

// reduceModProd reduces r (length len(prod)) modulo prod in place.
// spec.md §4.6 step 5 states the FLINT implementation's Garner-style
// incremental reconstruction needs "at most two subtractions"; this
// implementation instead sums all np cofactor*residue terms directly
// (documented simplification, DESIGN.md), so r can reach np*prod in the
// worst case -- reduce with a bounded conditional-subtract loop instead
// of assuming two suffice.
func reduceModProd(r, prod []uint64) {
	for modarith.CompareWords(r, prod) >= 0 {
		modarith.SubWords(r, r, prod)
	}
}
