package operators

import (
	"github.com/sharnoff/mfgnet"
	"github.com/sharnoff/mfgnet/utils"
)

type relu struct {
	// positive[i] is whether the i-th input of the last training Forward was > 0
	positive []bool
	dims     []int
}

// ReLU returns the standard rectified linear unit, which implements mfgnet.Layer. It accepts
// inputs of any shape.
func ReLU() *relu {
	return new(relu)
}

func (r *relu) TypeString() string {
	return "relu"
}

func (r *relu) OutputDims(in []int) ([]int, error) {
	return append([]int(nil), in...), nil
}

func (r *relu) Params() []*mfgnet.Param {
	return nil
}

func (r *relu) Forward(in *utils.Tensor, training bool) (*utils.Tensor, error) {
	out := utils.NewTensor(in.Dims...)
	if training {
		r.positive = make([]bool, in.Size())
		r.dims = in.Dims
	}

	for i, v := range in.Values {
		if v > 0 {
			out.Values[i] = v
			if training {
				r.positive[i] = true
			}
		}
	}

	return out, nil
}

func (r *relu) Backward(grad *utils.Tensor) (*utils.Tensor, error) {
	if r.positive == nil {
		return nil, ErrNoForward
	} else if err := checkGrad(grad, r.dims, r.TypeString()); err != nil {
		return nil, err
	}

	dx := utils.NewTensor(grad.Dims...)
	for i, p := range r.positive {
		if p {
			dx.Values[i] = grad.Values[i]
		}
	}

	return dx, nil
}
