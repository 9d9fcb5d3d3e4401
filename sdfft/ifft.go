package sdfft

import (
	"math/bits"

	"github.com/thesyncim/sdfft/modarith"
	"github.com/thesyncim/sdfft/vec"
)

// invStageState mirrors stageState but holds 1/omega powers; it is grown
// lazily by ensureInvStage when IfftTrunc needs a deeper stage.
type invStageState struct {
	tw [][]float64
}

// IfftTrunc is the inverse truncated NTT of spec.md §4.4: on entry
// data[0:trunc] holds the evaluations fft_trunc produced (in the layout
// described in layout.go); on exit data[0:trunc] holds the length-2^L
// inverse transform scaled by 2^L, matching spec.md's contract that the
// caller divides by 2^L mod p separately (package mpmul/polymul do this
// by folding 2^-L into the pointwise scaling, spec.md §4.6 step 4).
//
// The inverse always runs over all of data[:2^L]: slots at and past trunc
// are read as part of the transform, not ignored, so they must hold the
// forward transform's output as well.
func (q *FftCtx) IfftTrunc(data []float64, L int, trunc uint64) {
	n := uint64(1) << uint(L)
	if trunc > n {
		panic("sdfft: trunc exceeds transform length")
	}
	q.FitDepth(L)
	q.ensureInvStage(L)
	q.ifftFull(data[:n], L)
}

// ensureInvStage builds the inverse-root stage twiddles up to depth L,
// deriving omega^-1 from the same primitive root as the forward table.
func (q *FftCtx) ensureInvStage(L int) {
	if s := q.invStage.Load(); s != nil && len(s.tw) > L {
		return
	}
	q.stageMu.Lock()
	defer q.stageMu.Unlock()
	old := q.invStage.Load()
	if old != nil && len(old.tw) > L {
		return
	}
	start := 1
	var tw [][]float64
	if old != nil {
		tw = append(tw, old.tw...)
		start = len(tw)
	} else {
		tw = append(tw, nil)
	}
	p := q.prime.P
	for m := start; m <= L; m++ {
		row := make([]float64, 1<<uint(m-1))
		omega := modarith.PowMod(q.prime.Root, (p-1)>>uint(m), p)
		omegaInv := modarith.PowMod(omega, p-2, p) // Fermat inverse
		w := uint64(1)
		for i := range row {
			row[i] = vec.ReduceToPMHN(float64(w), float64(p))
			w = modarith.MulMod(w, omegaInv, p)
		}
		tw = append(tw, row)
	}
	q.invStage.Store(&invStageState{tw: tw})
}

// ifftFull runs the standard iterative decimation-in-time inverse NTT:
// on entry data[bitrev_L(i)] holds the i-th evaluation, on exit
// data[i] = 2^L * X[i] for every i in [0, 2^L).
//
// As in fftFull, an 8-wide tier runs first when vec.NativeLane reports
// AVX2+FMA3, falling through to the 4-wide tier and a scalar tail.
func (q *FftCtx) ifftFull(data []float64, L int) {
	p := float64(q.prime.P)
	pinv := q.prime.Pinv
	n := len(data)
	wide := vec.NativeLane == vec.NativeWidth8
	for s := 2; s <= n; s <<= 1 {
		half := s / 2
		m := bits.Len(uint(s)) - 1
		tw := q.invStage.Load().tw[m]
		for start := 0; start < n; start += s {
			block := data[start : start+s]
			i := 0
			if wide {
				for ; i+8 <= half; i += 8 {
					u := vec.Load8(block, i)
					v := vec.Load8(block, i+half)
					w := vec.Load8(tw, i)
					vw := vec.MulMod8(v, w, p, pinv)
					sum := vec.ReduceToPM1N8(vec.Add8(u, vw), p, pinv)
					diff := vec.ReduceToPM1N8(vec.Sub8(u, vw), p, pinv)
					vec.Store8(block, i, sum)
					vec.Store8(block, i+half, diff)
				}
			}
			for ; i+4 <= half; i += 4 {
				u := vec.Load4(block, i)
				v := vec.Load4(block, i+half)
				w := vec.Load4(tw, i)
				vw := vec.MulMod4(v, w, p, pinv)
				sum := vec.ReduceToPM1N4(vec.Add4(u, vw), p, pinv)
				diff := vec.ReduceToPM1N4(vec.Sub4(u, vw), p, pinv)
				vec.Store4(block, i, sum)
				vec.Store4(block, i+half, diff)
			}
			for ; i < half; i++ {
				u := block[i]
				v := block[i+half]
				w := tw[i]
				vw := vec.MulMod(v, w, p, pinv)
				block[i] = vec.ReduceToPM1N(u+vw, p, pinv)
				block[i+half] = vec.ReduceToPM1N(u-vw, p, pinv)
			}
		}
	}
}
