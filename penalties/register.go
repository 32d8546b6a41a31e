package penalties

import (
	"math"

	"github.com/pkg/errors"
	"github.com/sharnoff/mfgnet"
)

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

func init() {
	list := map[string]mfgnet.PenaltyFunc{
		mfgnet.PenaltyL1: func(pc mfgnet.PenaltyConfig) (mfgnet.Penalty, error) {
			if !positive(pc.Lambda) {
				return nil, errors.Errorf("L1 lambda must be positive (got %g)", pc.Lambda)
			}
			return L1(pc.Lambda), nil
		},
		mfgnet.PenaltyL2: func(pc mfgnet.PenaltyConfig) (mfgnet.Penalty, error) {
			if !positive(pc.Lambda) {
				return nil, errors.Errorf("L2 lambda must be positive (got %g)", pc.Lambda)
			}
			return L2(pc.Lambda), nil
		},
		mfgnet.PenaltyElasticNet: func(pc mfgnet.PenaltyConfig) (mfgnet.Penalty, error) {
			if !positive(pc.Lambda) {
				return nil, errors.Errorf("Elastic net lambda must be positive (got %g)", pc.Lambda)
			} else if !(pc.Alpha >= 0 && pc.Alpha <= 1) {
				return nil, errors.Errorf("Elastic net alpha must be in [0, 1] (got %g)", pc.Alpha)
			}
			return ElasticNet(pc.Alpha, pc.Lambda), nil
		},
	}

	for s, f := range list {
		if err := mfgnet.RegisterPenalty(s, f); err != nil {
			panic(err.Error())
		}
	}
}
