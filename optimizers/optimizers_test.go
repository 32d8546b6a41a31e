package optimizers

import (
	"math"
	"testing"

	"github.com/sharnoff/mfgnet"
)

func param(values, grads []float64) *mfgnet.Param {
	p := mfgnet.NewParam("p", len(values))
	copy(p.Values, values)
	copy(p.Grads, grads)
	return p
}

func TestSGD(t *testing.T) {
	p := param([]float64{1, 2}, []float64{0.5, -1})
	if err := SGD().Run([]*mfgnet.Param{p}, 0.1); err != nil {
		t.Fatal(err)
	}

	want := []float64{0.95, 2.1}
	for i := range want {
		if math.Abs(p.Values[i]-want[i]) > 1e-12 {
			t.Errorf("value %d = %g, want %g", i, p.Values[i], want[i])
		}
	}
}

func TestSGDMomentum(t *testing.T) {
	p := param([]float64{0}, []float64{1})
	opt := SGD().Momentum(0.9)

	// velocities are 1 then 1.9
	for _, want := range []float64{-1, -2.9} {
		if err := opt.Run([]*mfgnet.Param{p}, 1); err != nil {
			t.Fatal(err)
		}
		if math.Abs(p.Values[0]-want) > 1e-12 {
			t.Errorf("value = %g, want %g", p.Values[0], want)
		}
	}
}

// the first bias-corrected Adam step is lr * sign(gradient), up to epsilon
func TestAdamFirstStep(t *testing.T) {
	p := param([]float64{1, 1, 1}, []float64{0.001, -50, 0})
	if err := Adam().Run([]*mfgnet.Param{p}, 0.01); err != nil {
		t.Fatal(err)
	}

	want := []float64{0.99, 1.01, 1}
	for i := range want {
		if math.Abs(p.Values[i]-want[i]) > 1e-6 {
			t.Errorf("value %d = %g, want %g", i, p.Values[i], want[i])
		}
	}
}

func TestAdamState(t *testing.T) {
	a, b := param([]float64{0}, []float64{1}), param([]float64{0}, []float64{1})
	opt := Adam()

	for i := 0; i < 5; i++ {
		if err := opt.Run([]*mfgnet.Param{a, b}, 0.1); err != nil {
			t.Fatal(err)
		}
	}

	// constant gradients give steps of exactly lr
	if math.Abs(a.Values[0]+0.5) > 1e-6 || a.Values[0] != b.Values[0] {
		t.Errorf("values after 5 steps: %g, %g; want -0.5", a.Values[0], b.Values[0])
	}

	if err := Adam().Betas(1, 0.9).Run([]*mfgnet.Param{a}, 0.1); err == nil {
		t.Errorf("beta of 1: expected error")
	}
}

func TestRegistered(t *testing.T) {
	for _, name := range []string{mfgnet.OptimizerAdam, mfgnet.OptimizerSGD} {
		opt, err := mfgnet.GetOptimizer(name, mfgnet.OptimizerConfig{})
		if err != nil {
			t.Errorf("%s: %v", name, err)
		} else if opt.TypeString() != name {
			t.Errorf("%s: got %q", name, opt.TypeString())
		}
	}

	if _, err := mfgnet.GetOptimizer("rmsprop", mfgnet.OptimizerConfig{}); err == nil {
		t.Errorf("unknown optimizer: expected error")
	}
}

func TestRegisteredSettings(t *testing.T) {
	// registered SGD with momentum takes the same steps as TestSGDMomentum
	opt, err := mfgnet.GetOptimizer(mfgnet.OptimizerSGD, mfgnet.OptimizerConfig{Momentum: 0.9})
	if err != nil {
		t.Fatal(err)
	}
	p := param([]float64{0}, []float64{1})
	for _, want := range []float64{-1, -2.9} {
		if err := opt.Run([]*mfgnet.Param{p}, 1); err != nil {
			t.Fatal(err)
		}
		if math.Abs(p.Values[0]-want) > 1e-12 {
			t.Errorf("momentum: value = %g, want %g", p.Values[0], want)
		}
	}

	// a large epsilon shrinks the first Adam step from lr to lr * |g| / (|g| + eps)
	opt, err = mfgnet.GetOptimizer(mfgnet.OptimizerAdam, mfgnet.OptimizerConfig{Epsilon: 1})
	if err != nil {
		t.Fatal(err)
	}
	p = param([]float64{0}, []float64{1})
	if err := opt.Run([]*mfgnet.Param{p}, 0.1); err != nil {
		t.Fatal(err)
	}
	if math.Abs(p.Values[0]+0.05) > 1e-9 {
		t.Errorf("epsilon: value = %g, want -0.05", p.Values[0])
	}

	tests := []struct {
		name string
		opt  string
		oc   mfgnet.OptimizerConfig
	}{
		{"momentum of 1", mfgnet.OptimizerSGD, mfgnet.OptimizerConfig{Momentum: 1}},
		{"NaN momentum", mfgnet.OptimizerSGD, mfgnet.OptimizerConfig{Momentum: math.NaN()}},
		{"beta of 1", mfgnet.OptimizerAdam, mfgnet.OptimizerConfig{Beta2: 1}},
		{"negative epsilon", mfgnet.OptimizerAdam, mfgnet.OptimizerConfig{Epsilon: -1}},
		{"infinite epsilon", mfgnet.OptimizerAdam, mfgnet.OptimizerConfig{Epsilon: math.Inf(1)}},
	}

	for _, test := range tests {
		if _, err := mfgnet.GetOptimizer(test.opt, test.oc); err == nil {
			t.Errorf("%s: expected error", test.name)
		}
	}
}
