package penalties

import (
	"math"

	"github.com/sharnoff/mfgnet"
)

// **********************************************
// L1 (Lasso)
// **********************************************

type l1 float64

// λ is a small value close to 0 where λ > 0
func L1(λ float64) *l1 {
	p := l1(λ)
	return &p
}

// λ is a small value close to 0 where λ > 0
func Lasso(λ float64) *l1 {
	return L1(λ)
}

func (p *l1) TypeString() string {
	return mfgnet.PenaltyL1
}

func (p *l1) Penalize(param *mfgnet.Param) {
	λ := float64(*p)
	for i, w := range param.Values {
		param.Grads[i] += λ * sign(w)
	}
}

func (p *l1) Cost(param *mfgnet.Param) float64 {
	var sum float64
	for _, w := range param.Values {
		sum += math.Abs(w)
	}
	return float64(*p) * sum
}

// **********************************************
// L2 (Ridge)
// **********************************************

type l2 float64

// λ is a small value close to 0 where λ > 0
func L2(λ float64) *l2 {
	p := l2(λ)
	return &p
}

// λ is a small value close to 0 where λ > 0
func Ridge(λ float64) *l2 {
	return L2(λ)
}

func (p *l2) TypeString() string {
	return mfgnet.PenaltyL2
}

func (p *l2) Penalize(param *mfgnet.Param) {
	λ := float64(*p)
	for i, w := range param.Values {
		param.Grads[i] += 2 * λ * w
	}
}

func (p *l2) Cost(param *mfgnet.Param) float64 {
	var sum float64
	for _, w := range param.Values {
		sum += w * w
	}
	return float64(*p) * sum
}

// sign is like math.Copysign(1, w), except that it is 0 at 0, so that zero weights are left
// alone.
func sign(w float64) float64 {
	switch {
	case w > 0:
		return 1
	case w < 0:
		return -1
	default:
		return 0
	}
}
