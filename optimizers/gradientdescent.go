package optimizers

import (
	"github.com/sharnoff/mfgnet"
)

type gradientdescent struct {
	momentum float64

	velocity map[*mfgnet.Param][]float64
}

// SGD returns plain stochastic gradient descent, which implements mfgnet.Optimizer. Each value
// is changed by -learningRate * gradient.
func SGD() *gradientdescent {
	return &gradientdescent{velocity: make(map[*mfgnet.Param][]float64)}
}

// Momentum sets the momentum factor, which is 0 by default.
func (g *gradientdescent) Momentum(m float64) *gradientdescent {
	g.momentum = m
	return g
}

func (g *gradientdescent) TypeString() string {
	return mfgnet.OptimizerSGD
}

func (g *gradientdescent) Run(params []*mfgnet.Param, learningRate float64) error {
	for _, p := range params {
		if g.momentum == 0 {
			for i, d := range p.Grads {
				p.Values[i] -= learningRate * d
			}
			continue
		}

		v, ok := g.velocity[p]
		if !ok {
			v = make([]float64, len(p.Values))
			copy(v, p.Grads)
			g.velocity[p] = v
		} else {
			for i, d := range p.Grads {
				v[i] = g.momentum*v[i] + d
			}
		}

		for i := range p.Values {
			p.Values[i] -= learningRate * v[i]
		}
	}

	return nil
}
