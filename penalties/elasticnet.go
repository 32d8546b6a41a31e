package penalties

import (
	"math"

	"github.com/sharnoff/mfgnet"
)

type elasticNet struct {
	α float64
	λ float64
}

// λ is a small value close to 0 where λ > 0,
// α is a value that controls the ratio between L1 and L2
// Regularization, where 0 ≤ α ≤ 1. α = 1 is functionally identical to L1 and α = 0 is equivalent to
// L2.
func ElasticNet(α, λ float64) *elasticNet {
	return &elasticNet{α, λ}
}

func (p *elasticNet) TypeString() string {
	return mfgnet.PenaltyElasticNet
}

func (p *elasticNet) Penalize(param *mfgnet.Param) {
	for i, w := range param.Values {
		param.Grads[i] += p.λ * ((1-p.α)*2*w + p.α*sign(w))
	}
}

func (p *elasticNet) Cost(param *mfgnet.Param) float64 {
	var sum float64
	for _, w := range param.Values {
		sum += (1-p.α)*w*w + p.α*math.Abs(w)
	}
	return p.λ * sum
}
