package hyperparams

import (
	"github.com/sharnoff/mfgnet"
)

func init() {
	list := map[string]mfgnet.ScheduleFunc{
		mfgnet.ScheduleNone: func(base float64, sc mfgnet.ScheduleConfig) (mfgnet.HyperParameter, error) {
			return Constant(base), nil
		},
		mfgnet.ScheduleStep: func(base float64, sc mfgnet.ScheduleConfig) (mfgnet.HyperParameter, error) {
			d, err := StepDecay(base, sc.StepSize, sc.Gamma)
			if err != nil {
				return nil, err
			}
			return d, nil
		},
		mfgnet.ScheduleMultiStep: func(base float64, sc mfgnet.ScheduleConfig) (mfgnet.HyperParameter, error) {
			m, err := MultiStep(base, sc.Milestones, sc.Gamma)
			if err != nil {
				return nil, err
			}
			return m, nil
		},
	}

	for s, f := range list {
		err := mfgnet.RegisterSchedule(s, f)
		if err != nil {
			panic(err.Error())
		}
	}
}
