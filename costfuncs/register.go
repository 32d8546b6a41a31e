package costfuncs

import (
	"github.com/sharnoff/mfgnet"
)

func init() {
	list := map[string]func() mfgnet.CostFunction{
		CrossEntropy().TypeString(): func() mfgnet.CostFunction { return CrossEntropy() },
		L1().TypeString():           func() mfgnet.CostFunction { return L1() },
		SmoothL1().TypeString():     func() mfgnet.CostFunction { return SmoothL1() },
		MSE().TypeString():          func() mfgnet.CostFunction { return MSE() },
	}

	for s, f := range list {
		err := mfgnet.RegisterCostFunction(s, f)
		if err != nil {
			panic(err.Error())
		}
	}
}
