package optimizers

import (
	"math"

	"github.com/pkg/errors"
	"github.com/sharnoff/mfgnet"
)

const (
	defaultBeta1   float64 = 0.9
	defaultBeta2   float64 = 0.999
	defaultEpsilon float64 = 1e-8
)

type moments struct {
	m, v []float64
}

type adam struct {
	beta1, beta2, epsilon float64

	// the number of steps taken, for bias correction
	step  int
	state map[*mfgnet.Param]*moments
}

// Adam returns the Adam optimizer, which implements mfgnet.Optimizer. It keeps a running
// average of the gradient and of its square for each Param, corrected for their bias towards
// zero in early steps.
func Adam() *adam {
	return &adam{
		beta1:   defaultBeta1,
		beta2:   defaultBeta2,
		epsilon: defaultEpsilon,
		state:   make(map[*mfgnet.Param]*moments),
	}
}

// Betas sets the decay rates of the two running averages. Both must be in [0, 1).
func (a *adam) Betas(beta1, beta2 float64) *adam {
	a.beta1, a.beta2 = beta1, beta2
	return a
}

// Epsilon sets the value added to the denominator of each update.
func (a *adam) Epsilon(eps float64) *adam {
	a.epsilon = eps
	return a
}

func (a *adam) TypeString() string {
	return mfgnet.OptimizerAdam
}

func (a *adam) check() error {
	if !(a.beta1 >= 0 && a.beta1 < 1) || !(a.beta2 >= 0 && a.beta2 < 1) {
		return errors.Errorf("Adam betas must be in [0, 1) (got %g, %g)", a.beta1, a.beta2)
	} else if !(a.epsilon > 0) || math.IsInf(a.epsilon, 1) {
		return errors.Errorf("Adam epsilon must be positive (got %g)", a.epsilon)
	}

	return nil
}

func (a *adam) Run(params []*mfgnet.Param, learningRate float64) error {
	if err := a.check(); err != nil {
		return err
	}

	a.step++
	c1 := 1 - math.Pow(a.beta1, float64(a.step))
	c2 := 1 - math.Pow(a.beta2, float64(a.step))

	for _, p := range params {
		s, ok := a.state[p]
		if !ok {
			s = &moments{make([]float64, len(p.Values)), make([]float64, len(p.Values))}
			a.state[p] = s
		}

		for i, g := range p.Grads {
			s.m[i] = a.beta1*s.m[i] + (1-a.beta1)*g
			s.v[i] = a.beta2*s.v[i] + (1-a.beta2)*g*g

			mHat := s.m[i] / c1
			vHat := s.v[i] / c2
			p.Values[i] -= learningRate * mHat / (math.Sqrt(vHat) + a.epsilon)
		}
	}

	return nil
}
