package plotting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sharnoff/mfgnet"
)

func exists(t *testing.T, path string) {
	info, err := os.Stat(path)
	if err != nil {
		t.Errorf("%s not written: %v", filepath.Base(path), err)
	} else if info.Size() == 0 {
		t.Errorf("%s is empty", filepath.Base(path))
	}
}

func TestCurves(t *testing.T) {
	dir := t.TempDir()

	h := mfgnet.History{
		TrainLoss: []float64{1, 0.5, 0.25},
		ValLoss:   []float64{1.2, 0.7, 0.4},
	}

	if err := Loss(filepath.Join(dir, "loss.png"), h); err != nil {
		t.Fatalf("Loss: %v", err)
	}
	exists(t, filepath.Join(dir, "loss.png"))

	if err := Accuracy(filepath.Join(dir, "accuracy.png"), h); err == nil {
		t.Errorf("Accuracy without accuracy values: expected error")
	}

	h.TrainAcc = []float64{40, 60, 80}
	h.ValAcc = []float64{30, 50, 75}
	if err := Accuracy(filepath.Join(dir, "accuracy.png"), h); err != nil {
		t.Fatalf("Accuracy: %v", err)
	}
	exists(t, filepath.Join(dir, "accuracy.png"))

	// the format follows the extension
	if err := Curves(filepath.Join(dir, "rates.svg"), "Learning rate", "Rate", Series{"lr", []float64{0.1, 0.05}}); err != nil {
		t.Fatalf("Curves: %v", err)
	}
	exists(t, filepath.Join(dir, "rates.svg"))

	if err := Curves(filepath.Join(dir, "empty.png"), "Empty", "", Series{"none", nil}); err == nil {
		t.Errorf("Curves with an empty series: expected error")
	}
}

func TestRegression(t *testing.T) {
	dir := t.TempDir()
	xs := []float64{0, 1, 2, 3}
	ys := []float64{1, 2.9, 5.2, 7}

	if err := Regression(filepath.Join(dir, "fit.png"), xs, ys, 2, 1); err != nil {
		t.Fatalf("Regression: %v", err)
	}
	exists(t, filepath.Join(dir, "fit.png"))

	tests := []struct {
		name   string
		xs, ys []float64
	}{
		{"length mismatch", xs, ys[:2]},
		{"no points", nil, nil},
	}

	for _, test := range tests {
		if err := Regression(filepath.Join(dir, "bad.png"), test.xs, test.ys, 1, 0); err == nil {
			t.Errorf("%s: expected error", test.name)
		}
	}
}
