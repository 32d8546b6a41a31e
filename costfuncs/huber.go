package costfuncs

import (
	"math"

	"github.com/sharnoff/mfgnet"
)

type huber struct {
	elementwise
	δ float64
}

// Huber returns the Huber Loss Function, which implements mfgnet.CostFunction. δ controls the
// bounds of the transition between MSE and Absolute Value.
func Huber(δ float64) *huber {
	return &huber{
		δ: δ,
		elementwise: elementwise{
			cost: func(d float64) float64 {
				d = math.Abs(d)
				if d <= δ {
					return 0.5 * d * d
				}
				return δ*d - 0.5*δ*δ
			},
			deriv: func(d float64) float64 {
				if !(d < -δ || d > δ) { // d >= -δ && d <= δ
					return d
				}
				return δ * math.Copysign(1, d)
			},
		},
	}
}

// SmoothL1 returns the Huber loss with δ = 1, where it is equal to the smooth L1 loss.
func SmoothL1() *huber {
	return Huber(1)
}

func (h *huber) TypeString() string {
	if h.δ == 1 {
		return mfgnet.LossSmoothL1
	}
	return "huber"
}
