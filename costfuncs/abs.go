package costfuncs

import (
	"math"

	"github.com/sharnoff/mfgnet"
)

type abs struct {
	elementwise
}

// L1 returns the mean absolute error cost function, which implements mfgnet.CostFunction.
func L1() *abs {
	return &abs{elementwise{
		cost: math.Abs,
		deriv: func(d float64) float64 {
			if d == 0 {
				return 0
			}
			return math.Copysign(1, d)
		},
	}}
}

func (a *abs) TypeString() string {
	return mfgnet.LossL1
}
