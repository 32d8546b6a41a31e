package cnnlstm

import (
	"bytes"
	"io/ioutil"
	"math/rand"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/sharnoff/mfgnet"
	"github.com/sharnoff/mfgnet/utils"
)

// toyData returns n sequences of 2 8x8 images. Regression targets are the mean pixel value;
// classification targets are i % classes.
func toyData(t *testing.T, n, classes int) *mfgnet.Dataset {
	rng := rand.New(rand.NewSource(1))

	x := utils.NewTensor(n, 2, 8, 8)
	targets := make([][]float64, n)
	for i := 0; i < n; i++ {
		row := x.Row(i)
		var sum float64
		for j := range row {
			row[j] = rng.Float64()
			sum += row[j]
		}

		if classes > 0 {
			targets[i] = []float64{float64(i % classes)}
		} else {
			targets[i] = []float64{sum / float64(len(row))}
		}
	}

	data, err := mfgnet.FromTensor(x, targets)
	if err != nil {
		t.Fatalf("FromTensor: %v", err)
	}
	return data
}

func toyConfig() mfgnet.Config {
	cfg := mfgnet.DefaultConfig()
	cfg.ImageHeight, cfg.ImageWidth = 8, 8
	cfg.Layers = mfgnet.DefaultLayers(4, 8)
	cfg.Recurrent.Hidden = 4
	cfg.Recurrent.Layers = 1
	cfg.Recurrent.Output = 1
	cfg.BatchSize = 4
	cfg.Loss = mfgnet.LossMSE
	cfg.Epochs = 2
	return cfg
}

func quiet(t *testing.T, cfg mfgnet.Config, data *mfgnet.Dataset) *Pipeline {
	p, err := New(cfg, data)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	p.Logger.Out = ioutil.Discard
	p.Out = ioutil.Discard
	return p
}

func trained(t *testing.T, cfg mfgnet.Config, data *mfgnet.Dataset) *Pipeline {
	p := quiet(t, cfg, data)
	if err := p.Assemble(); err != nil {
		t.Fatalf("Assemble: %v", err)
	} else if err = p.Train(); err != nil {
		t.Fatalf("Train: %v", err)
	}
	return p
}

func TestRegressionEndToEnd(t *testing.T) {
	data := toyData(t, 20, 0)
	p := trained(t, toyConfig(), data)

	train, val := p.Split()
	if train.Len() != 16 || val.Len() != 4 {
		t.Errorf("split sizes %d/%d, want 16/4", train.Len(), val.Len())
	}

	h := p.History()
	if len(h.TrainLoss) != 2 || len(h.ValLoss) != 2 {
		t.Fatalf("history has %d training and %d validation losses, want 2", len(h.TrainLoss), len(h.ValLoss))
	}
	if len(h.TrainAcc) != 0 {
		t.Errorf("regression history has accuracy %v", h.TrainAcc)
	}

	x, err := utils.FromValues(val.Inputs[0], 2, 8, 8)
	if err != nil {
		t.Fatal(err)
	}
	out, err := p.Predict(x)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if out.Rank() != 2 || out.Dim(0) != 1 || out.Dim(1) != 1 {
		t.Fatalf("Predict gave dims %v, want [1 1]", out.Dims)
	}

	again, err := p.Predict(x)
	if err != nil {
		t.Fatalf("second Predict: %v", err)
	}
	if again.Values[0] != out.Values[0] {
		t.Errorf("Predict not repeatable: %g then %g", out.Values[0], again.Values[0])
	}
}

func TestClassificationEndToEnd(t *testing.T) {
	cfg := toyConfig()
	cfg.Loss = mfgnet.LossCrossEntropy
	cfg.Recurrent.Output = 3

	p := trained(t, cfg, toyData(t, 20, 3))

	h := p.History()
	if len(h.TrainAcc) != 2 || len(h.ValAcc) != 2 {
		t.Fatalf("history has %d training and %d validation accuracies, want 2", len(h.TrainAcc), len(h.ValAcc))
	}
	for i := range h.TrainAcc {
		for _, acc := range []float64{h.TrainAcc[i], h.ValAcc[i]} {
			if acc < 0 || acc > 100 {
				t.Errorf("epoch %d: accuracy %g outside [0, 100]", i, acc)
			}
		}
	}

	_, val := p.Split()
	x, _ := val.Gather([]int{0, 1, 2})
	classes, err := p.Predict(x)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if classes.Rank() != 1 || classes.Dim(0) != 3 {
		t.Fatalf("Predict gave dims %v, want [3]", classes.Dims)
	}
	for _, c := range classes.Values {
		if c != float64(int(c)) || c < 0 || c >= 3 {
			t.Errorf("predicted class %g is not in [0, 3)", c)
		}
	}
}

func TestReport(t *testing.T) {
	cfg := toyConfig()
	cfg.Loss = mfgnet.LossCrossEntropy
	cfg.Recurrent.Output = 2

	p := quiet(t, cfg, toyData(t, 20, 2))
	if err := p.Assemble(); err != nil {
		t.Fatal(err)
	}
	if err := p.Report(ReportOptions{}); err != mfgnet.ErrNotTrained {
		t.Errorf("Report before training: error = %v, want ErrNotTrained", err)
	}
	if err := p.Train(); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	p.Out = &out
	dir := filepath.Join(t.TempDir(), "report")

	err := p.Report(ReportOptions{Dir: dir, Plots: true, SaveWeights: true, SaveConfig: true})
	if err != nil {
		t.Fatalf("Report: %v", err)
	}

	for _, name := range []string{LossFile, AccuracyFile, WeightsFile, ConfigFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}

	for _, s := range []string{"Model Summary:", "Final validation loss", "Final validation accuracy", "Device"} {
		if !strings.Contains(out.String(), s) {
			t.Errorf("report is missing %q", s)
		}
	}

	saved, err := mfgnet.LoadConfig(filepath.Join(dir, ConfigFile))
	if err != nil {
		t.Fatal(err)
	}
	if saved.String() != cfg.String() {
		t.Errorf("saved config differs:\n%v\nwant\n%v", saved, cfg)
	}
}

func TestWeightsRoundTrip(t *testing.T) {
	data := toyData(t, 20, 0)
	cfg := toyConfig()

	p := trained(t, cfg, data)
	path := filepath.Join(t.TempDir(), WeightsFile)
	if err := p.SaveWeights(path); err != nil {
		t.Fatalf("SaveWeights: %v", err)
	}

	// a different seed gives different initial weights
	cfg.Seed = 7
	q := quiet(t, cfg, data)
	if err := q.LoadWeights(path); err != mfgnet.ErrNotAssembled {
		t.Errorf("LoadWeights before Assemble: error = %v, want ErrNotAssembled", err)
	}
	if err := q.Assemble(); err != nil {
		t.Fatal(err)
	}
	if err := q.LoadWeights(path); err != nil {
		t.Fatalf("LoadWeights: %v", err)
	}

	x, _ := data.Gather([]int{0, 1, 2, 3})
	a, err := p.Predict(x)
	if err != nil {
		t.Fatal(err)
	}
	b, err := q.Predict(x)
	if err != nil {
		t.Fatal(err)
	}

	for i := range a.Values {
		if a.Values[i] != b.Values[i] {
			t.Errorf("prediction %d: %g before saving, %g after loading", i, a.Values[i], b.Values[i])
		}
	}

	other := toyConfig()
	other.Layers = mfgnet.DefaultLayers(4, 6)
	r := quiet(t, other, data)
	if err := r.Assemble(); err != nil {
		t.Fatal(err)
	}
	if err := r.LoadWeights(path); err == nil {
		t.Errorf("LoadWeights into a different network: expected error")
	}
}

func TestStageErrors(t *testing.T) {
	p := quiet(t, toyConfig(), toyData(t, 20, 0))

	if err := p.Train(); err != mfgnet.ErrNotAssembled {
		t.Errorf("Train: error = %v, want ErrNotAssembled", err)
	}
	if _, err := p.Predict(utils.NewTensor(2, 8, 8)); err != mfgnet.ErrNotAssembled {
		t.Errorf("Predict: error = %v, want ErrNotAssembled", err)
	}
	if err := p.SaveWeights(filepath.Join(t.TempDir(), "w.json")); err != mfgnet.ErrNotAssembled {
		t.Errorf("SaveWeights: error = %v, want ErrNotAssembled", err)
	}
}

func TestNewChecksData(t *testing.T) {
	regression := toyData(t, 20, 0)

	wrongSize := toyConfig()
	wrongSize.ImageWidth = 9

	wideOutput := toyConfig()
	wideOutput.Recurrent.Output = 2

	classes := toyConfig()
	classes.Loss = mfgnet.LossCrossEntropy
	classes.Recurrent.Output = 2

	invalid := toyConfig()
	invalid.BatchSize = 0

	tests := []struct {
		name string
		cfg  mfgnet.Config
		data *mfgnet.Dataset
	}{
		{"image size", wrongSize, regression},
		{"target width", wideOutput, regression},
		{"class index too large", classes, toyData(t, 20, 3)},
		{"non-integer class", classes, regression},
		{"invalid config", invalid, regression},
		{"nil dataset", toyConfig(), nil},
		{"empty split", toyConfig(), toyData(t, 2, 0)},
	}

	for _, test := range tests {
		if _, err := New(test.cfg, test.data); err == nil {
			t.Errorf("%s: expected error", test.name)
		}
	}

	_, err := New(toyConfig(), toyData(t, 2, 0))
	if errors.Cause(err) != mfgnet.ErrEmptySplit {
		t.Errorf("empty split: error = %v, want ErrEmptySplit", err)
	}
}

func TestAssembleNetwork(t *testing.T) {
	cfg := toyConfig()

	net, err := Assemble(cfg, 2, rand.New(rand.NewSource(0)))
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	if got := net.InputDims(); len(got) != 3 || got[0] != 2 || got[1] != 8 || got[2] != 8 {
		t.Errorf("InputDims() = %v, want [2 8 8]", got)
	}
	if net.OutputSize() != 1 {
		t.Errorf("OutputSize() = %d, want 1", net.OutputSize())
	}
	// two batch norm layers, each with a running mean and variance
	if n := len(net.Buffers()); n != 4 {
		t.Errorf("%d buffers, want 4", n)
	}

	for _, name := range []string{mfgnet.InitHe, mfgnet.InitHeFanOut, mfgnet.InitXavier, mfgnet.InitLeCun} {
		cfg.Init = name
		other, err := Assemble(cfg, 2, rand.New(rand.NewSource(0)))
		if err != nil {
			t.Fatalf("Assemble with %s init: %v", name, err)
		}
		if a, b := mfgnet.CountParams(net.Params()), mfgnet.CountParams(other.Params()); a != b {
			t.Errorf("%s initializer changed the parameter count: %d vs %d", name, a, b)
		}

		// the first convolution's weights are drawn again
		if reflect.DeepEqual(net.Params()[0].Values, other.Params()[0].Values) {
			t.Errorf("%s initializer kept the default weights", name)
		}
	}

	s := net.String()
	for _, part := range []string{"cnn", "lstm", "head", "Parameters:"} {
		if !strings.Contains(s, part) {
			t.Errorf("String() is missing %q:\n%s", part, s)
		}
	}
}

func TestPenalizedTraining(t *testing.T) {
	cfg := toyConfig()
	cfg.Penalty = mfgnet.PenaltyConfig{Type: mfgnet.PenaltyElasticNet, Lambda: 0.01, Alpha: 0.5}
	cfg.Optimizer = mfgnet.OptimizerSGD
	cfg.OptimizerArgs = mfgnet.OptimizerConfig{Momentum: 0.9}

	p := trained(t, cfg, toyData(t, 20, 0))
	if n := p.History().Epochs(); n != 2 {
		t.Errorf("trained for %d epochs, want 2", n)
	}
	for _, want := range []string{"elastic-net", "momentum 0.9"} {
		if !strings.Contains(p.Summary(), want) {
			t.Errorf("summary is missing %q:\n%s", want, p.Summary())
		}
	}
}

// inDir runs f with the working directory set to a temporary directory.
func inDir(t *testing.T, f func(dir string)) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err = os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	f(dir)
}

func TestInteractive(t *testing.T) {
	input := []string{
		"8", "8",
		"2", "4", "8",
		"y", "y", "y", "y", "y",
		"4", "1", "", "1", "4", "", "4", "", "", "1", "2",
		"y", // save weights
	}

	inDir(t, func(dir string) {
		var out bytes.Buffer
		r := strings.NewReader(strings.Join(input, "\n") + "\n")

		p, err := Interactive(toyData(t, 20, 0), r, &out)
		if err != nil {
			t.Fatalf("Interactive: %v\n%s", err, out.String())
		}

		if p.History().Epochs() != 2 {
			t.Errorf("trained for %d epochs, want 2", p.History().Epochs())
		}
		for _, name := range []string{LossFile, WeightsFile} {
			if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
				t.Errorf("%s not written: %v", name, err)
			}
		}
		if !strings.Contains(out.String(), "End of training") {
			t.Errorf("output does not end the session:\n%s", out.String())
		}
	})
}

func TestRun(t *testing.T) {
	inDir(t, func(dir string) {
		p, err := Run(toyConfig(), toyData(t, 20, 0), strings.NewReader("n\n"), new(bytes.Buffer))
		if err != nil {
			t.Fatalf("Run: %v", err)
		}

		if len(p.History().TrainLoss) != 2 {
			t.Errorf("history has %d losses, want 2", len(p.History().TrainLoss))
		}
		if _, err := os.Stat(filepath.Join(dir, WeightsFile)); !os.IsNotExist(err) {
			t.Errorf("weights saved without being asked to")
		}
	})
}
