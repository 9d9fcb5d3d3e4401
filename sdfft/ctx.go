package sdfft

import (
	"sync"
	"sync/atomic"

	"github.com/thesyncim/sdfft/modarith"
	"github.com/thesyncim/sdfft/vec"
)

// InitDepth is D_init in spec.md §3: NewFftCtx eagerly fills twiddle rows
// 0..InitDepth at construction time, each row in its own slice.
const InitDepth = 10

// FftCtx is the per-prime context of spec.md §4.2: it owns the prime
// lane and a sparsely-allocated, lazily-grown table of twiddle roots.
// Reads are lock-free once the required depth is already published;
// growth is serialized by growMu (the "fast path is lock-free" design
// note of spec.md §9).
type FftCtx struct {
	prime Prime

	growMu sync.Mutex
	depth  atomic.Int64    // published depth, release/acquire via atomic ops
	w2tab  atomic.Pointer[rowsState]

	// stageCache holds, for each depth m already computed, the flat
	// array of omega_{2^m}^i for i in [0, 2^(m-1)) in natural (non bit-
	// reversed) order -- the form the iterative butterfly loops in
	// fft.go/ifft.go actually consult. It is computed from the same
	// primitive root as w2tab (not read from w2tab) and grown in lockstep
	// with it.
	stageMu    sync.Mutex
	stageCache atomic.Pointer[stageState]
	invStage   atomic.Pointer[invStageState]
}

type rowsState struct {
	rows [][]float64 // rows[0]=row 0 ([1]), rows[k] for k>=1 has length 2^(k-1)
}

type stageState struct {
	tw [][]float64 // tw[m] has length 2^(m-1), m from 1..depth
}

// NewFftCtx validates p and builds a context with InitDepth rows filled,
// mirroring sd_fft_ctx_init_prime (spec.md §4.2).
func NewFftCtx(p uint64) (*FftCtx, error) {
	prime, err := NewPrime(p)
	if err != nil {
		return nil, err
	}
	q := &FftCtx{prime: prime}
	q.growMu.Lock()
	defer q.growMu.Unlock()
	q.growRowsLocked(InitDepth)
	q.depth.Store(InitDepth)
	q.growStageCacheLocked(InitDepth)
	return q, nil
}

// Prime returns the lane's prime triple.
func (q *FftCtx) Prime() Prime { return q.prime }

// Depth returns the currently published twiddle depth.
func (q *FftCtx) Depth() int64 { return q.depth.Load() }

// FitDepth grows the twiddle table so depths up to L are available,
// mirroring sd_fft_ctx_fit_depth: the no-lock fast path when the depth
// is already satisfied, the double-checked lock otherwise (spec.md §4.2,
// §5 "any thread whose required depth is already satisfied... never
// takes the lock").
func (q *FftCtx) FitDepth(L int) {
	if int64(L) <= q.depth.Load() {
		return
	}
	q.growMu.Lock()
	defer q.growMu.Unlock()
	if int64(L) <= q.depth.Load() {
		return
	}
	q.growRowsLocked(L)
	q.growStageCacheLocked(L)
	q.depth.Store(int64(L))
}

// growRowsLocked fills w2tab rows up to and including row L. Must be
// called with growMu held.
func (q *FftCtx) growRowsLocked(L int) {
	old := q.w2tab.Load()
	var rows [][]float64
	start := 0
	if old != nil {
		rows = append(rows, old.rows...)
		start = len(rows)
	} else {
		rows = append(rows, []float64{1})
		start = 1
	}
	p := q.prime.P
	for k := start; k <= L; k++ {
		if k == 0 {
			continue
		}
		row := make([]float64, 1<<uint(k-1))
		omega := modarith.PowMod(q.prime.Root, (p-1)>>uint(k+1), p)
		for i := range row {
			j := i + (1 << uint(k-1))
			e := bitrevBits(uint64(j), k)
			val := modarith.PowMod(omega, e, p)
			row[i] = vec.ReduceToPMHN(float64(val), float64(p))
		}
		rows = append(rows, row)
	}
	q.w2tab.Store(&rowsState{rows: rows})
}

// growStageCacheLocked fills the flat per-depth twiddle arrays the
// transform loops consult, up through depth L. Must be called with
// growMu held (stageMu additionally guards the swap so a concurrent
// reader never observes a torn stage slice).
func (q *FftCtx) growStageCacheLocked(L int) {
	q.stageMu.Lock()
	defer q.stageMu.Unlock()

	old := q.stageCache.Load()
	var tw [][]float64
	start := 1
	if old != nil {
		tw = append(tw, old.tw...)
		start = len(tw)
	} else {
		tw = append(tw, nil) // index 0 unused (no stage of size 1)
	}
	p := q.prime.P
	for m := start; m <= L; m++ {
		row := make([]float64, 1<<uint(m-1))
		omega := modarith.PowMod(q.prime.Root, (p-1)>>uint(m), p)
		w := uint64(1)
		for i := range row {
			row[i] = vec.ReduceToPMHN(float64(w), float64(p))
			w = modarith.MulMod(w, omega, p)
		}
		tw = append(tw, row)
	}
	q.stageCache.Store(&stageState{tw: tw})
}

// stageTwiddles returns the flat array of omega_{2^m}^i for i in
// [0, 2^(m-1)), m>=1. The caller must have already called FitDepth(m).
func (q *FftCtx) stageTwiddles(m int) []float64 {
	return q.stageCache.Load().tw[m]
}

// W2 returns w2tab[k][i], the public twiddle-row accessor of spec.md §3.
func (q *FftCtx) W2(k, i int) float64 {
	return q.w2tab.Load().rows[k][i]
}

// bitrevBits reverses the low `bits` bits of x.
func bitrevBits(x uint64, bits int) uint64 {
	var r uint64
	for i := 0; i < bits; i++ {
		r = (r << 1) | (x & 1)
		x >>= 1
	}
	return r
}
