package costfuncs

import (
	"github.com/sharnoff/mfgnet"
)

// checkSizes returns an error unless outs and targets have the same number of samples, each
// with the same number of values. It returns the total number of values.
func checkSizes(outs, targets [][]float64) (int, error) {
	if len(outs) == 0 {
		return 0, mfgnet.ErrEmptyDataset
	} else if len(outs) != len(targets) {
		return 0, mfgnet.SizeMismatchError{Expected: len(outs), Got: len(targets), What: "number of targets"}
	}

	n := 0
	for i := range outs {
		if len(outs[i]) != len(targets[i]) {
			return 0, mfgnet.SizeMismatchError{Expected: len(outs[i]), Got: len(targets[i]), What: "target values"}
		}
		n += len(outs[i])
	}

	return n, nil
}

// elementwise applies the cost and derivative of a single value to every value, averaging over
// all of them
type elementwise struct {
	cost  func(d float64) float64
	deriv func(d float64) float64
}

func (e elementwise) Cost(outs, targets [][]float64) (float64, error) {
	n, err := checkSizes(outs, targets)
	if err != nil {
		return 0, err
	}

	var sum float64
	for i := range outs {
		for j := range outs[i] {
			sum += e.cost(outs[i][j] - targets[i][j])
		}
	}

	return sum / float64(n), nil
}

func (e elementwise) Derivs(outs, targets [][]float64) ([][]float64, error) {
	n, err := checkSizes(outs, targets)
	if err != nil {
		return nil, err
	}

	ds := make([][]float64, len(outs))
	for i := range outs {
		ds[i] = make([]float64, len(outs[i]))
		for j := range outs[i] {
			ds[i][j] = e.deriv(outs[i][j]-targets[i][j]) / float64(n)
		}
	}

	return ds, nil
}
