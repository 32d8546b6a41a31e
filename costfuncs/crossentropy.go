package costfuncs

import (
	"math"

	"github.com/pkg/errors"
	"github.com/sharnoff/mfgnet"
)

type crossEntropy struct{}

// CrossEntropy returns the softmax cross-entropy cost function, which implements
// mfgnet.Classifier. Outputs are unnormalized class scores; each target is a single class
// index. The cost is the mean negative log-likelihood over the batch.
func CrossEntropy() *crossEntropy {
	return new(crossEntropy)
}

func (c *crossEntropy) TypeString() string {
	return mfgnet.LossCrossEntropy
}

func (c *crossEntropy) Classifies() bool {
	return true
}

// Softmax returns the softmax of the scores, shifted by their maximum for stability.
func Softmax(scores []float64) []float64 {
	max := math.Inf(-1)
	for _, s := range scores {
		max = math.Max(max, s)
	}

	var sum float64
	ps := make([]float64, len(scores))
	for i, s := range scores {
		ps[i] = math.Exp(s - max)
		sum += ps[i]
	}

	for i := range ps {
		ps[i] /= sum
	}

	return ps
}

func logSumExp(scores []float64) float64 {
	max := math.Inf(-1)
	for _, s := range scores {
		max = math.Max(max, s)
	}

	var sum float64
	for _, s := range scores {
		sum += math.Exp(s - max)
	}

	return max + math.Log(sum)
}

func class(outs, targets []float64) (int, error) {
	if len(targets) != 1 {
		return 0, mfgnet.SizeMismatchError{Expected: 1, Got: len(targets), What: "class target values"}
	}

	c := int(targets[0])
	if float64(c) != targets[0] || c < 0 || c >= len(outs) {
		return 0, errors.Errorf("Class target %v is not an index into %d classes", targets[0], len(outs))
	}

	return c, nil
}

func (c *crossEntropy) Cost(outs, targets [][]float64) (float64, error) {
	if len(outs) == 0 {
		return 0, mfgnet.ErrEmptyDataset
	} else if len(outs) != len(targets) {
		return 0, mfgnet.SizeMismatchError{Expected: len(outs), Got: len(targets), What: "number of targets"}
	}

	var sum float64
	for i := range outs {
		cl, err := class(outs[i], targets[i])
		if err != nil {
			return 0, errors.Wrapf(err, "Sample %d", i)
		}

		sum += logSumExp(outs[i]) - outs[i][cl]
	}

	return sum / float64(len(outs)), nil
}

func (c *crossEntropy) Derivs(outs, targets [][]float64) ([][]float64, error) {
	if len(outs) == 0 {
		return nil, mfgnet.ErrEmptyDataset
	} else if len(outs) != len(targets) {
		return nil, mfgnet.SizeMismatchError{Expected: len(outs), Got: len(targets), What: "number of targets"}
	}

	ds := make([][]float64, len(outs))
	for i := range outs {
		cl, err := class(outs[i], targets[i])
		if err != nil {
			return nil, errors.Wrapf(err, "Sample %d", i)
		}

		ds[i] = Softmax(outs[i])
		ds[i][cl]--
		for j := range ds[i] {
			ds[i][j] /= float64(len(outs))
		}
	}

	return ds, nil
}
