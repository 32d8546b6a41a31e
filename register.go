package mfgnet

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// ScheduleFunc builds a learning-rate schedule from the base learning rate and the schedule
// record of a Config.
type ScheduleFunc func(base float64, sc ScheduleConfig) (HyperParameter, error)

var (
	registerMux sync.Mutex

	costFuncs  = make(map[string]func() CostFunction)
	optimizers = make(map[string]OptimizerFunc)
	schedules  = make(map[string]ScheduleFunc)
	penalties  = make(map[string]PenaltyFunc)
)

// OptimizerFunc builds an Optimizer from the optimizer settings of a Config.
type OptimizerFunc func(oc OptimizerConfig) (Optimizer, error)

// PenaltyFunc builds a Penalty from the penalty record of a Config.
type PenaltyFunc func(pc PenaltyConfig) (Penalty, error)

// RegisterCostFunction makes a CostFunction available by name, so that a Config can refer to
// it. The subpackage costfuncs registers its types in init(). Registering the same name twice
// returns an error.
func RegisterCostFunction(name string, f func() CostFunction) error {
	registerMux.Lock()
	defer registerMux.Unlock()

	if f == nil {
		return NilArgError{"CostFunction constructor"}
	} else if _, ok := costFuncs[name]; ok {
		return errors.Errorf("CostFunction %q has already been registered", name)
	} else if f() == nil {
		return ErrRegisterNilReturn
	}

	costFuncs[name] = f
	return nil
}

// RegisterOptimizer makes an Optimizer available by name. The subpackage optimizers
// registers its types in init().
func RegisterOptimizer(name string, f OptimizerFunc) error {
	registerMux.Lock()
	defer registerMux.Unlock()

	if f == nil {
		return NilArgError{"Optimizer constructor"}
	} else if _, ok := optimizers[name]; ok {
		return errors.Errorf("Optimizer %q has already been registered", name)
	} else if o, err := f(OptimizerConfig{}); err != nil || o == nil {
		return ErrRegisterNilReturn
	}

	optimizers[name] = f
	return nil
}

// RegisterSchedule makes a learning-rate schedule available by name. The subpackage
// hyperparams registers its types in init().
func RegisterSchedule(name string, f ScheduleFunc) error {
	registerMux.Lock()
	defer registerMux.Unlock()

	if f == nil {
		return NilArgError{"Schedule constructor"}
	} else if _, ok := schedules[name]; ok {
		return errors.Errorf("Schedule %q has already been registered", name)
	}

	schedules[name] = f
	return nil
}

// RegisterPenalty makes a Penalty available by name. The subpackage penalties registers its
// types in init().
func RegisterPenalty(name string, f PenaltyFunc) error {
	registerMux.Lock()
	defer registerMux.Unlock()

	if f == nil {
		return NilArgError{"Penalty constructor"}
	} else if _, ok := penalties[name]; ok {
		return errors.Errorf("Penalty %q has already been registered", name)
	}

	penalties[name] = f
	return nil
}

// GetCostFunction returns a new instance of the CostFunction registered under the given name.
func GetCostFunction(name string) (CostFunction, error) {
	registerMux.Lock()
	defer registerMux.Unlock()

	f, ok := costFuncs[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownName, "Cost function %q", name)
	}

	return f(), nil
}

// GetOptimizer returns a new instance of the Optimizer registered under the given name, with
// the given settings applied.
func GetOptimizer(name string, oc OptimizerConfig) (Optimizer, error) {
	registerMux.Lock()
	f, ok := optimizers[name]
	registerMux.Unlock()

	if !ok {
		return nil, errors.Wrapf(ErrUnknownName, "Optimizer %q", name)
	}

	return f(oc)
}

// GetSchedule builds the learning-rate schedule described by the given record.
func GetSchedule(base float64, sc ScheduleConfig) (HyperParameter, error) {
	registerMux.Lock()
	f, ok := schedules[sc.Type]
	registerMux.Unlock()

	if !ok {
		return nil, errors.Wrapf(ErrUnknownName, "Schedule %q", sc.Type)
	}

	return f(base, sc)
}

// GetPenalty builds the Penalty described by the given record. It returns nil without an error
// if the record's type is PenaltyNone or empty.
func GetPenalty(pc PenaltyConfig) (Penalty, error) {
	if pc.Type == "" || pc.Type == PenaltyNone {
		return nil, nil
	}

	registerMux.Lock()
	f, ok := penalties[pc.Type]
	registerMux.Unlock()

	if !ok {
		return nil, errors.Wrapf(ErrUnknownName, "Penalty %q", pc.Type)
	}

	return f(pc)
}

func sortedKeys(n int, each func(func(string))) []string {
	names := make([]string, 0, n)
	each(func(s string) { names = append(names, s) })
	sort.Strings(names)
	return names
}

// CostFunctions returns the sorted names of all registered CostFunctions.
func CostFunctions() []string {
	registerMux.Lock()
	defer registerMux.Unlock()

	return sortedKeys(len(costFuncs), func(add func(string)) {
		for s := range costFuncs {
			add(s)
		}
	})
}

// Optimizers returns the sorted names of all registered Optimizers.
func Optimizers() []string {
	registerMux.Lock()
	defer registerMux.Unlock()

	return sortedKeys(len(optimizers), func(add func(string)) {
		for s := range optimizers {
			add(s)
		}
	})
}

// Schedules returns the sorted names of all registered schedules.
func Schedules() []string {
	registerMux.Lock()
	defer registerMux.Unlock()

	return sortedKeys(len(schedules), func(add func(string)) {
		for s := range schedules {
			add(s)
		}
	})
}

// Penalties returns the sorted names of all registered Penalties.
func Penalties() []string {
	registerMux.Lock()
	defer registerMux.Unlock()

	return sortedKeys(len(penalties), func(add func(string)) {
		for s := range penalties {
			add(s)
		}
	})
}
