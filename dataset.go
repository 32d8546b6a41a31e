package mfgnet

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
	"github.com/sharnoff/mfgnet/utils"
	"gonum.org/v1/gonum/stat"
)

// Dataset is a set of samples sharing one shape - [time steps, height, width] for image
// sequences - together with their target vectors. Classification targets hold a single class
// index per sample.
//
// A Dataset is not modified once it has been created; Split and Subset share the underlying
// slices.
type Dataset struct {
	Inputs  [][]float64
	Targets [][]float64

	// SampleShape is the shape of each input, excluding the sample dimension
	SampleShape []int
}

// NewDataset checks that every input has the size given by sampleShape and that there is one
// target per input, all of equal length.
func NewDataset(inputs [][]float64, sampleShape []int, targets [][]float64) (*Dataset, error) {
	if len(inputs) == 0 {
		return nil, ErrEmptyDataset
	} else if len(inputs) != len(targets) {
		return nil, SizeMismatchError{Expected: len(inputs), Got: len(targets), What: "number of targets"}
	}

	for i, d := range sampleShape {
		if d < 1 {
			return nil, errors.Errorf("Sample dimension %d must be positive (got %d)", i, d)
		}
	}

	size := utils.Prod(sampleShape)
	for i := range inputs {
		if len(inputs[i]) != size {
			return nil, errors.Wrapf(SizeMismatchError{size, len(inputs[i]), "sample input"}, "Sample %d", i)
		} else if len(targets[i]) != len(targets[0]) || len(targets[i]) == 0 {
			return nil, errors.Wrapf(SizeMismatchError{len(targets[0]), len(targets[i]), "sample target"}, "Sample %d", i)
		}
	}

	return &Dataset{
		Inputs:      inputs,
		Targets:     targets,
		SampleShape: append([]int(nil), sampleShape...),
	}, nil
}

// FromTensor builds a Dataset from a Tensor whose first dimension indexes samples. The Inputs
// alias the Tensor's values.
func FromTensor(t *utils.Tensor, targets [][]float64) (*Dataset, error) {
	if t.Rank() < 2 {
		return nil, errors.Errorf("Can't make dataset from %v, need at least two dimensions", t)
	}

	inputs := make([][]float64, t.Dim(0))
	for i := range inputs {
		inputs[i] = t.Row(i)
	}

	return NewDataset(inputs, t.Dims[1:], targets)
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	return len(d.Inputs)
}

// TargetWidth returns the length of each target vector.
func (d *Dataset) TargetWidth() int {
	return len(d.Targets[0])
}

// Subset returns a Dataset of the samples at the given indexes, in order.
func (d *Dataset) Subset(indexes []int) *Dataset {
	s := &Dataset{
		Inputs:      make([][]float64, len(indexes)),
		Targets:     make([][]float64, len(indexes)),
		SampleShape: d.SampleShape,
	}

	for i, idx := range indexes {
		s.Inputs[i] = d.Inputs[idx]
		s.Targets[i] = d.Targets[idx]
	}

	return s
}

// Split partitions the Dataset into a training and a validation set. The validation set has
// round(n * valFrac) samples and the training set the rest. If shuffle is true, samples are
// assigned randomly using rng; otherwise the last samples are used for validation. It returns
// ErrEmptySplit if either set would be empty.
func (d *Dataset) Split(valFrac float64, shuffle bool, rng *rand.Rand) (train, val *Dataset, err error) {
	if valFrac <= 0 || valFrac >= 1 {
		return nil, nil, errors.Errorf("Validation fraction must be in (0, 1) (got %g)", valFrac)
	}

	n := d.Len()
	nVal := int(math.Round(float64(n) * valFrac))
	if nVal < 1 || nVal >= n {
		return nil, nil, errors.Wrapf(ErrEmptySplit, "%d samples with validation fraction %g", n, valFrac)
	}

	var order []int
	if shuffle {
		if rng == nil {
			return nil, nil, NilArgError{"Random source for shuffled split"}
		}
		order = rng.Perm(n)
	} else {
		order = make([]int, n)
		for i := range order {
			order[i] = i
		}
	}

	return d.Subset(order[:n-nVal]), d.Subset(order[n-nVal:]), nil
}

// Batches divides the sample indexes into batches of at most size samples, in random order if
// rng is not nil. The last batch may be smaller.
func (d *Dataset) Batches(size int, rng *rand.Rand) [][]int {
	n := d.Len()

	var order []int
	if rng != nil {
		order = rng.Perm(n)
	} else {
		order = make([]int, n)
		for i := range order {
			order[i] = i
		}
	}

	batches := make([][]int, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		batches = append(batches, order[start:end])
	}

	return batches
}

// Gather copies the samples at the given indexes into a single Tensor of dimensions
// [len(indexes)] + SampleShape, and returns their targets alongside.
func (d *Dataset) Gather(indexes []int) (*utils.Tensor, [][]float64) {
	dims := append([]int{len(indexes)}, d.SampleShape...)
	x := utils.NewTensor(dims...)
	targets := make([][]float64, len(indexes))

	for i, idx := range indexes {
		copy(x.Row(i), d.Inputs[idx])
		targets[i] = d.Targets[idx]
	}

	return x, targets
}

// TargetStats returns the mean and standard deviation of each target column.
func (d *Dataset) TargetStats() (means, stds []float64) {
	w := d.TargetWidth()
	means, stds = make([]float64, w), make([]float64, w)

	col := make([]float64, d.Len())
	for j := 0; j < w; j++ {
		for i := range d.Targets {
			col[i] = d.Targets[i][j]
		}

		means[j], stds[j] = stat.MeanStdDev(col, nil)
	}

	return means, stds
}
