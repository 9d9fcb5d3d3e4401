package polymul

// MulPrecomp caches a fixed operand b's packed/FFT'd representation so
// many a-operands can be multiplied against it without repeating the
// forward transform (spec.md §4.7 point 7 "MulPrecomp"). Only the
// direct-lane path benefits from an actual cached transform; the
// classical fallback caches just b itself (recomputing is already O(n)
// per coefficient, so there is nothing expensive to amortize).
type MulPrecomp struct {
	engine *Engine
	b      []uint64
	depth  int
	ztrunc int
	bFFT   []float64 // non-nil iff engine.direct != nil
}

// NewMulPrecomp builds a precomputed product for operand b, committing
// to a transform depth that can serve any an up to maxAn (the caller's
// expected largest future a-operand length).
func NewMulPrecomp(e *Engine, b []uint64, maxAn int) *MulPrecomp {
	p := &MulPrecomp{engine: e, b: append([]uint64(nil), b...)}
	if e.direct == nil {
		return p
	}
	zn := maxAn + len(b) - 1
	depth := bitLen(uint32(zn - 1))
	ztrunc := 1 << uint(depth)
	for ztrunc < zn {
		depth++
		ztrunc <<= 1
	}
	buf := make([]float64, ztrunc)
	for i, v := range b {
		buf[i] = float64(v)
	}
	e.direct.FftTrunc(buf, depth, uint64(len(b)), uint64(ztrunc))
	p.depth = depth
	p.ztrunc = ztrunc
	p.bFFT = buf
	return p
}

// MulMid reuses the cached transform of b to compute z[i-zl] for
// zl <= i < zh, given a new a. Returns ErrNotApplicable if the cached
// depth cannot cover the (an, zh) the caller now needs, per spec.md §7
// kind 4 -- the caller must fall back to a fresh (non-cached) MulMid.
func (p *MulPrecomp) MulMid(z []uint64, zl, zh int, a []uint64) error {
	if p.engine.direct == nil {
		p.engine.mulMidClassical(z, zl, zh, a, p.b)
		return nil
	}
	an := len(a)
	zn := an + len(p.b) - 1
	needed := zh
	if zn > needed {
		needed = zn
	}
	if needed > p.ztrunc {
		return ErrNotApplicable
	}

	bufA := make([]float64, p.ztrunc)
	for i, v := range a {
		bufA[i] = float64(v)
	}
	q := p.engine.direct
	q.FftTrunc(bufA, p.depth, uint64(an), uint64(p.ztrunc))
	scaling := q.InverseScaling(p.depth)
	q.PointMul(bufA, p.bFFT, scaling, p.ztrunc)
	q.IfftTrunc(bufA, p.depth, uint64(p.ztrunc))

	prime := q.Prime().P
	effZh := zh
	if effZh > zn {
		effZh = zn
	}
	for i := zl; i < effZh; i++ {
		z[i-zl] = residueZN(bufA[i], prime)
	}
	for i := effZh; i < zh; i++ {
		z[i-zl] = 0
	}
	return nil
}
