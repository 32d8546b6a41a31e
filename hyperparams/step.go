package hyperparams

import (
	"math"
	"sort"

	"github.com/pkg/errors"
)

type decay struct {
	base     float64
	stepSize int
	gamma    float64
}

// StepDecay returns a HyperParameter that starts at base and is multiplied by gamma every
// stepSize iterations: base * gamma^floor(iter / stepSize).
func StepDecay(base float64, stepSize int, gamma float64) (*decay, error) {
	if stepSize < 1 {
		return nil, errors.Errorf("Step size must be positive (got %d)", stepSize)
	} else if !(gamma > 0) || math.IsInf(gamma, 1) {
		return nil, errors.Errorf("Gamma must be positive (got %g)", gamma)
	}

	return &decay{base, stepSize, gamma}, nil
}

func (d *decay) TypeString() string {
	return "step"
}

func (d *decay) Value(iter int) float64 {
	return d.base * math.Pow(d.gamma, float64(iter/d.stepSize))
}

type multiStep struct {
	base       float64
	milestones []int
	gamma      float64
}

// MultiStep returns a HyperParameter that starts at base and is multiplied by gamma once each
// time a milestone is reached. Milestones must be positive and increasing.
func MultiStep(base float64, milestones []int, gamma float64) (*multiStep, error) {
	if len(milestones) == 0 {
		return nil, errors.Errorf("MultiStep needs at least one milestone")
	} else if !sort.IntsAreSorted(milestones) || milestones[0] < 1 {
		return nil, errors.Errorf("Milestones must be positive and increasing (got %v)", milestones)
	} else if !(gamma > 0) || math.IsInf(gamma, 1) {
		return nil, errors.Errorf("Gamma must be positive (got %g)", gamma)
	}

	return &multiStep{base, append([]int(nil), milestones...), gamma}, nil
}

func (m *multiStep) TypeString() string {
	return "multistep"
}

func (m *multiStep) Value(iter int) float64 {
	// number of milestones ≤ iter
	passed := sort.SearchInts(m.milestones, iter+1)
	return m.base * math.Pow(m.gamma, float64(passed))
}
