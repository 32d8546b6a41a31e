package optimizers

import (
	"github.com/pkg/errors"
	"github.com/sharnoff/mfgnet"
)

// orDefault returns v, or def if v is unset
func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

func init() {
	list := map[string]mfgnet.OptimizerFunc{
		mfgnet.OptimizerSGD: func(oc mfgnet.OptimizerConfig) (mfgnet.Optimizer, error) {
			if !(oc.Momentum >= 0 && oc.Momentum < 1) {
				return nil, errors.Errorf("SGD momentum must be in [0, 1) (got %g)", oc.Momentum)
			}
			return SGD().Momentum(oc.Momentum), nil
		},
		mfgnet.OptimizerAdam: func(oc mfgnet.OptimizerConfig) (mfgnet.Optimizer, error) {
			a := Adam().
				Betas(orDefault(oc.Beta1, defaultBeta1), orDefault(oc.Beta2, defaultBeta2)).
				Epsilon(orDefault(oc.Epsilon, defaultEpsilon))
			if err := a.check(); err != nil {
				return nil, err
			}
			return a, nil
		},
	}

	for s, f := range list {
		err := mfgnet.RegisterOptimizer(s, f)
		if err != nil {
			panic(err.Error())
		}
	}
}
