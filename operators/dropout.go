package operators

import (
	"math/rand"

	"github.com/sharnoff/mfgnet"
	"github.com/sharnoff/mfgnet/utils"
)

type dropout struct {
	P float64

	rng *rand.Rand
	// scale applied to each value in the last training Forward; 0 where dropped
	mask []float64
	dims []int
}

// Dropout returns a Layer that, while training, zeroes each value with probability p and scales
// the rest by 1/(1-p). Outside of training it does nothing.
func Dropout(p float64, rng *rand.Rand) *dropout {
	return &dropout{P: p, rng: rng}
}

func (d *dropout) TypeString() string {
	return "dropout"
}

func (d *dropout) OutputDims(in []int) ([]int, error) {
	return append([]int(nil), in...), nil
}

func (d *dropout) Params() []*mfgnet.Param {
	return nil
}

func (d *dropout) Forward(in *utils.Tensor, training bool) (*utils.Tensor, error) {
	if !training {
		return in, nil
	}

	d.dims = in.Dims
	d.mask = make([]float64, in.Size())
	out := utils.NewTensor(in.Dims...)

	scale := 1 / (1 - d.P)
	for i, v := range in.Values {
		if d.P == 0 || d.rng.Float64() >= d.P {
			d.mask[i] = scale
			out.Values[i] = v * scale
		}
	}

	return out, nil
}

func (d *dropout) Backward(grad *utils.Tensor) (*utils.Tensor, error) {
	if d.mask == nil {
		return nil, ErrNoForward
	} else if err := checkGrad(grad, d.dims, d.TypeString()); err != nil {
		return nil, err
	}

	dx := utils.NewTensor(grad.Dims...)
	for i, m := range d.mask {
		dx.Values[i] = grad.Values[i] * m
	}

	return dx, nil
}
