package sdfft

import (
	"math/bits"

	"github.com/thesyncim/sdfft/vec"
)

// FftTrunc is the forward truncated NTT of spec.md §4.3. data must have
// length >= 2^L; positions [0, itrunc) hold the input coefficients
// (already reduced to pm1n, i.e. in [-p,p]) and positions [itrunc, 2^L)
// are assumed zero on entry -- FftTrunc zeroes them itself so callers
// may pass a reused buffer. On return, GetFFTIndex(data, L, i) for
// i < otrunc equals f(ω^i) mod p (spec.md §8 "FFT correctness").
//
// As documented in layout.go, this implementation always evaluates the
// full 2^L-point transform; itrunc/otrunc bound what is guaranteed
// meaningful to the caller rather than pruning the recursion the way
// the teacher's 12 hand-coded "moth" boundary variants did. Every
// truncation-related property in spec.md §8 still holds because they
// are stated purely in terms of which slots are guaranteed, not in
// terms of work performed.
func (q *FftCtx) FftTrunc(data []float64, L int, itrunc, otrunc uint64) {
	n := uint64(1) << uint(L)
	if itrunc > n || otrunc > n {
		panic("sdfft: trunc exceeds transform length")
	}
	if itrunc < n {
		clear := data[itrunc:n]
		for i := range clear {
			clear[i] = 0
		}
	}
	q.FitDepth(L)
	q.fftFull(data[:n], L)
}

// fftFull runs the standard iterative decimation-in-frequency NTT: on
// entry data holds the natural-order coefficients, on exit
// data[bitrev_L(i)] = f(omega^i) for every i in [0, 2^L).
//
// The butterfly loop runs an 8-wide tier first when vec.NativeLane
// reports AVX2+FMA3 (spec.md §4.1 "NATIVE width selects the preferred
// loop unroll"), falling through to the 4-wide tier and then a scalar
// tail for the remainder. Width8 is defined as two independent Width4
// lanes (vec/isa.go), so this is a pure loop-stride change, not a
// different algorithm.
func (q *FftCtx) fftFull(data []float64, L int) {
	p := float64(q.prime.P)
	pinv := q.prime.Pinv
	n := len(data)
	wide := vec.NativeLane == vec.NativeWidth8
	for s := n; s >= 2; s >>= 1 {
		half := s / 2
		m := bits.Len(uint(s)) - 1
		tw := q.stageTwiddles(m)
		for start := 0; start < n; start += s {
			block := data[start : start+s]
			i := 0
			if wide {
				for ; i+8 <= half; i += 8 {
					u := vec.Load8(block, i)
					v := vec.Load8(block, i+half)
					w := vec.Load8(tw, i)
					sum := vec.ReduceToPM1N8(vec.Add8(u, v), p, pinv)
					diff := vec.Sub8(u, v)
					prod := vec.MulMod8(diff, w, p, pinv)
					vec.Store8(block, i, sum)
					vec.Store8(block, i+half, prod)
				}
			}
			for ; i+4 <= half; i += 4 {
				u := vec.Load4(block, i)
				v := vec.Load4(block, i+half)
				w := vec.Load4(tw, i)
				sum := vec.ReduceToPM1N4(vec.Add4(u, v), p, pinv)
				diff := vec.Sub4(u, v)
				prod := vec.MulMod4(diff, w, p, pinv)
				vec.Store4(block, i, sum)
				vec.Store4(block, i+half, prod)
			}
			for ; i < half; i++ {
				u := block[i]
				v := block[i+half]
				w := tw[i]
				block[i] = vec.ReduceToPM1N(u+v, p, pinv)
				block[i+half] = vec.MulMod(u-v, w, p, pinv)
			}
		}
	}
}
