package mfgnet_test

import (
	"io/ioutil"
	"math"
	"math/rand"
	"testing"

	"github.com/sharnoff/mfgnet"
	"github.com/sharnoff/mfgnet/costfuncs"
	"github.com/sharnoff/mfgnet/hyperparams"
	"github.com/sharnoff/mfgnet/operators"
	"github.com/sharnoff/mfgnet/optimizers"
	"github.com/sharnoff/mfgnet/penalties"
	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.Out = ioutil.Discard
	return l
}

// line returns n samples of y = 3x - 1 with x spread over [-1, 1], split 4:1
func line(t *testing.T, n int) (train, val *mfgnet.Dataset) {
	inputs := make([][]float64, n)
	targets := make([][]float64, n)
	for i := range inputs {
		x := -1 + 2*float64(i)/float64(n-1)
		inputs[i] = []float64{x}
		targets[i] = []float64{3*x - 1}
	}

	d, err := mfgnet.NewDataset(inputs, []int{1}, targets)
	if err != nil {
		t.Fatal(err)
	}

	train, val, err = d.Split(0.2, true, rand.New(rand.NewSource(5)))
	if err != nil {
		t.Fatal(err)
	}
	return train, val
}

func TestTrainerRegression(t *testing.T) {
	train, val := line(t, 20)
	rng := rand.New(rand.NewSource(1))

	model, err := mfgnet.NewSequential([]int{1}, operators.Linear(1, 1, rng))
	if err != nil {
		t.Fatal(err)
	}

	var updates int
	tr, err := mfgnet.NewTrainer(mfgnet.TrainArgs{
		Model:        model,
		Train:        train,
		Validation:   val,
		Cost:         costfuncs.MSE(),
		Optimizer:    optimizers.SGD(),
		LearningRate: 0.1,
		Epochs:       50,
		BatchSize:    4,
		Shuffle:      true,
		Rand:         rng,
		Logger:       quietLogger(),
		Update:       func(mfgnet.EpochResult) { updates++ },
	})
	if err != nil {
		t.Fatal(err)
	}

	if err = tr.Run(); err != nil {
		t.Fatal(err)
	}

	h := tr.History()
	if h.Epochs() != 50 || len(h.TrainLoss) != 50 || updates != 50 {
		t.Fatalf("%d epochs recorded, %d updates", h.Epochs(), updates)
	}
	if len(h.TrainAcc) != 0 {
		t.Errorf("accuracy recorded for a regression cost")
	}
	if last := h.ValLoss[49]; last > 1e-3 || last >= h.ValLoss[0] {
		t.Errorf("validation loss went from %g to %g", h.ValLoss[0], last)
	}
	if tr.State() != mfgnet.Done || tr.Epoch() != 50 {
		t.Errorf("finished in state %v at epoch %d", tr.State(), tr.Epoch())
	}
}

func TestTrainerStates(t *testing.T) {
	train, val := line(t, 10)
	rng := rand.New(rand.NewSource(1))
	model, _ := mfgnet.NewSequential([]int{1}, operators.Linear(1, 1, rng))

	schedule, err := hyperparams.StepDecay(0.1, 1, 0.5)
	if err != nil {
		t.Fatal(err)
	}

	tr, err := mfgnet.NewTrainer(mfgnet.TrainArgs{
		Model:      model,
		Train:      train,
		Validation: val,
		Cost:       costfuncs.L1(),
		Optimizer:  optimizers.Adam(),
		Schedule:   schedule,
		Epochs:     2,
		BatchSize:  3,
		Logger:     quietLogger(),
	})
	if err != nil {
		t.Fatal(err)
	}

	want := []mfgnet.State{
		mfgnet.TrainingEpoch, mfgnet.Validating, mfgnet.SchedulerStep,
		mfgnet.TrainingEpoch, mfgnet.Validating, mfgnet.SchedulerStep,
		mfgnet.Done, mfgnet.Done,
	}

	if tr.State() != mfgnet.Idle {
		t.Fatalf("new Trainer in state %v", tr.State())
	}
	for i, s := range want {
		if err := tr.Step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if tr.State() != s {
			t.Fatalf("after step %d: state %v, want %v", i, tr.State(), s)
		}
	}

	lrs := tr.History().LearningRates
	if len(lrs) != 2 || lrs[0] != 0.1 || lrs[1] != 0.05 {
		t.Errorf("learning rates = %v, want [0.1 0.05]", lrs)
	}
	if lr := tr.LearningRate(); lr != 0.025 {
		t.Errorf("LearningRate() after training = %g, want 0.025", lr)
	}
}

func TestTrainerClassification(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	n := 40
	inputs := make([][]float64, n)
	targets := make([][]float64, n)
	for i := range inputs {
		class := i % 2
		inputs[i] = []float64{float64(2*class-1) + 0.1*rng.NormFloat64(), rng.NormFloat64()}
		targets[i] = []float64{float64(class)}
	}

	d, err := mfgnet.NewDataset(inputs, []int{2}, targets)
	if err != nil {
		t.Fatal(err)
	}
	train, val, err := d.Split(0.25, true, rng)
	if err != nil {
		t.Fatal(err)
	}

	model, _ := mfgnet.NewSequential([]int{2}, operators.Linear(2, 2, rng))
	tr, err := mfgnet.NewTrainer(mfgnet.TrainArgs{
		Model:        model,
		Train:        train,
		Validation:   val,
		Cost:         costfuncs.CrossEntropy(),
		Optimizer:    optimizers.Adam(),
		LearningRate: 0.05,
		Epochs:       20,
		BatchSize:    5,
		Shuffle:      true,
		Rand:         rng,
		Logger:       quietLogger(),
	})
	if err != nil {
		t.Fatal(err)
	}

	if err = tr.Run(); err != nil {
		t.Fatal(err)
	}

	h := tr.History()
	if len(h.TrainAcc) != 20 || len(h.ValAcc) != 20 {
		t.Fatalf("accuracy recorded for %d/%d epochs", len(h.TrainAcc), len(h.ValAcc))
	}
	for i := range h.TrainAcc {
		for _, a := range []float64{h.TrainAcc[i], h.ValAcc[i]} {
			if a < 0 || a > 100 || math.IsNaN(a) {
				t.Fatalf("epoch %d accuracy %g out of range", i, a)
			}
		}
	}
	if h.ValAcc[19] < 90 {
		t.Errorf("final validation accuracy %g on separable data", h.ValAcc[19])
	}
}

func TestNewTrainerErrors(t *testing.T) {
	train, val := line(t, 10)
	model, _ := mfgnet.NewSequential([]int{1}, operators.Linear(1, 1, rand.New(rand.NewSource(1))))

	base := func() mfgnet.TrainArgs {
		return mfgnet.TrainArgs{
			Model:        model,
			Train:        train,
			Validation:   val,
			Cost:         costfuncs.MSE(),
			Optimizer:    optimizers.SGD(),
			LearningRate: 0.1,
			Epochs:       1,
			BatchSize:    2,
		}
	}

	tests := []struct {
		name   string
		modify func(*mfgnet.TrainArgs)
	}{
		{"no model", func(a *mfgnet.TrainArgs) { a.Model = nil }},
		{"no validation", func(a *mfgnet.TrainArgs) { a.Validation = nil }},
		{"no cost", func(a *mfgnet.TrainArgs) { a.Cost = nil }},
		{"no optimizer", func(a *mfgnet.TrainArgs) { a.Optimizer = nil }},
		{"shuffle without rand", func(a *mfgnet.TrainArgs) { a.Shuffle = true }},
		{"zero epochs", func(a *mfgnet.TrainArgs) { a.Epochs = 0 }},
		{"zero batch", func(a *mfgnet.TrainArgs) { a.BatchSize = 0 }},
		{"zero learning rate", func(a *mfgnet.TrainArgs) { a.LearningRate = 0 }},
	}

	for _, test := range tests {
		args := base()
		test.modify(&args)
		if _, err := mfgnet.NewTrainer(args); err == nil {
			t.Errorf("%s: expected error", test.name)
		}
	}

	if _, err := mfgnet.NewTrainer(base()); err != nil {
		t.Errorf("valid args: %v", err)
	}
}

func TestTrainerPenalty(t *testing.T) {
	train, val := line(t, 20)

	fit := func(pen mfgnet.Penalty) float64 {
		rng := rand.New(rand.NewSource(1))
		model, err := mfgnet.NewSequential([]int{1}, operators.Linear(1, 1, rng))
		if err != nil {
			t.Fatal(err)
		}

		tr, err := mfgnet.NewTrainer(mfgnet.TrainArgs{
			Model:        model,
			Train:        train,
			Validation:   val,
			Cost:         costfuncs.MSE(),
			Optimizer:    optimizers.SGD(),
			Penalty:      pen,
			LearningRate: 0.1,
			Epochs:       50,
			BatchSize:    4,
			Shuffle:      true,
			Rand:         rng,
			Logger:       quietLogger(),
		})
		if err != nil {
			t.Fatal(err)
		}
		if err = tr.Run(); err != nil {
			t.Fatal(err)
		}

		return model.Params()[0].Values[0]
	}

	plain, ridge := fit(nil), fit(penalties.Ridge(0.5))
	if math.Abs(plain-3) > 0.05 {
		t.Errorf("unpenalized weight = %g, want about 3", plain)
	}
	if ridge <= 0 || ridge > 0.8*plain {
		t.Errorf("ridge weight = %g, want well below %g", ridge, plain)
	}
}
