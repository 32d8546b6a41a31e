package costfuncs

import "github.com/sharnoff/mfgnet"

type mse struct {
	elementwise
}

// MSE returns the mean squared error cost function, which implements mfgnet.CostFunction. The
// cost is the mean of (out - target)² over every value in the batch.
func MSE() *mse {
	return &mse{elementwise{
		cost:  func(d float64) float64 { return d * d },
		deriv: func(d float64) float64 { return 2 * d },
	}}
}

// L2 is a proxy for MSE
func L2() *mse {
	return MSE()
}

func (m *mse) TypeString() string {
	return mfgnet.LossMSE
}
