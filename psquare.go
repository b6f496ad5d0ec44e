package kernel

import "math"

// pSquare implements the P² streaming-quantile estimator (Jain &
// Chlamtac 1985), grounded on eventloop/psquare.go. It tracks a single
// quantile in O(1) time and space, which matters here because
// scheduling-latency and CPU-time percentiles are sampled on every
// context switch and cannot afford a sort or a growing sample buffer.
type pSquare struct {
	p          float64
	n          [5]int
	nDesired   [5]float64
	dn         [5]float64
	q          [5]float64
	count      int
}

// newPSquare creates an estimator for quantile p (0 < p < 1).
func newPSquare(p float64) *pSquare {
	ps := &pSquare{p: p}
	for i := 0; i < 5; i++ {
		ps.n[i] = i + 1
	}
	ps.dn = [5]float64{0, p / 2, p, (1 + p) / 2, 1}
	return ps
}

// observe folds one sample into the estimator.
func (ps *pSquare) observe(x float64) {
	ps.count++
	if ps.count <= 5 {
		ps.q[ps.count-1] = x
		if ps.count == 5 {
			sortFive(&ps.q)
			for i := 0; i < 5; i++ {
				ps.nDesired[i] = float64(i + 1)
			}
		}
		return
	}

	k := ps.locate(x)
	for i := k + 1; i < 5; i++ {
		ps.n[i]++
	}
	for i := 0; i < 5; i++ {
		ps.nDesired[i] += ps.dn[i]
	}

	for i := 1; i < 4; i++ {
		d := ps.nDesired[i] - float64(ps.n[i])
		if (d >= 1 && ps.n[i+1]-ps.n[i] > 1) || (d <= -1 && ps.n[i-1]-ps.n[i] < -1) {
			sign := 1
			if d < 0 {
				sign = -1
			}
			qp := ps.parabolic(i, sign)
			if ps.q[i-1] < qp && qp < ps.q[i+1] {
				ps.q[i] = qp
			} else {
				ps.q[i] = ps.linear(i, sign)
			}
			ps.n[i] += sign
		}
	}
}

func (ps *pSquare) locate(x float64) int {
	switch {
	case x < ps.q[0]:
		ps.q[0] = x
		return 0
	case x >= ps.q[4]:
		ps.q[4] = x
		return 3
	default:
		for i := 1; i < 5; i++ {
			if x < ps.q[i] {
				return i - 1
			}
		}
		return 3
	}
}

func (ps *pSquare) parabolic(i, sign int) float64 {
	d := float64(sign)
	return ps.q[i] + d/float64(ps.n[i+1]-ps.n[i-1])*(
		(float64(ps.n[i]-ps.n[i-1])+d)*(ps.q[i+1]-ps.q[i])/float64(ps.n[i+1]-ps.n[i])+
			(float64(ps.n[i+1]-ps.n[i])-d)*(ps.q[i]-ps.q[i-1])/float64(ps.n[i]-ps.n[i-1]))
}

func (ps *pSquare) linear(i, sign int) float64 {
	d := float64(sign)
	return ps.q[i] + d*(ps.q[i+sign]-ps.q[i])/float64(ps.n[i+sign]-ps.n[i])
}

// value returns the current quantile estimate.
func (ps *pSquare) value() float64 {
	if ps.count == 0 {
		return math.NaN()
	}
	if ps.count < 5 {
		sorted := ps.q
		sortFive(&sorted)
		idx := int(ps.p * float64(ps.count-1))
		return sorted[idx]
	}
	return ps.q[2]
}

func sortFive(a *[5]float64) {
	for i := 1; i < 5; i++ {
		v := a[i]
		j := i - 1
		for j >= 0 && a[j] > v {
			a[j+1] = a[j]
			j--
		}
		a[j+1] = v
	}
}

// multiQuantile tracks several quantiles of the same sample stream
// concurrently, mirroring pSquareMultiQuantile's API: scheduling
// latency reports p50/p90/p99 from a single feed of samples.
type multiQuantile struct {
	estimators []*pSquare
	ps         []float64
}

// newMultiQuantile builds a tracker for the given quantiles.
func newMultiQuantile(quantiles ...float64) *multiQuantile {
	mq := &multiQuantile{ps: quantiles}
	for _, p := range quantiles {
		mq.estimators = append(mq.estimators, newPSquare(p))
	}
	return mq
}

// observe folds one sample into every tracked quantile.
func (mq *multiQuantile) observe(x float64) {
	for _, e := range mq.estimators {
		e.observe(x)
	}
}

// values returns the current estimate for each configured quantile,
// keyed by the quantile.
func (mq *multiQuantile) values() map[float64]float64 {
	out := make(map[float64]float64, len(mq.ps))
	for i, p := range mq.ps {
		out[p] = mq.estimators[i].value()
	}
	return out
}
