package nmod

// SeriesInverse computes the first n coefficients of 1/f mod x^n, where
// f[0] != 0 mod m.N (f is a unit in the power series ring). This backs
// poly_divrem (spec.md §4.7 point 8): the quotient of a/b is obtained by
// reversing b, inverting its series, and running one middle product.
//
// Classical Newton iteration: if g_k agrees with 1/f mod x^(2^k), then
//
//	g_{k+1} = g_k * (2 - f*g_k)  mod x^(2^(k+1))
//
// doubles the precision each step.
func (m Mod) SeriesInverse(f []uint64, n int) []uint64 {
	if n <= 0 {
		return nil
	}
	inv0 := m.Inv(f[0])
	g := []uint64{inv0}
	for len(g) < n {
		next := minInt(2*len(g), n)
		fg := m.seriesMulTrunc(f, g, next)
		// two - f*g, coefficientwise, with the constant term offset by 2
		for i := range fg {
			if i == 0 {
				fg[i] = m.Sub(2%m.N, fg[i])
			} else {
				fg[i] = m.Sub(0, fg[i])
			}
		}
		g = m.seriesMulTrunc(g, fg, next)
	}
	return g[:n]
}

// seriesMulTrunc multiplies two power series truncated to n coefficients.
// This is a scalar O(n^2) product; Newton iteration only needs it at
// small, doubling sizes so the quadratic cost is bounded.
func (m Mod) seriesMulTrunc(a, b []uint64, n int) []uint64 {
	out := make([]uint64, n)
	for i := 0; i < len(a) && i < n; i++ {
		if a[i] == 0 {
			continue
		}
		maxJ := n - i
		for j := 0; j < len(b) && j < maxJ; j++ {
			out[i+j] = m.AddMul(out[i+j], a[i], b[j])
		}
	}
	return out
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
