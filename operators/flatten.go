package operators

import (
	"github.com/pkg/errors"
	"github.com/sharnoff/mfgnet"
	"github.com/sharnoff/mfgnet/utils"
)

type flatten struct {
	dims []int
}

// Flatten returns a Layer that reshapes each sample of its input to a single dimension.
func Flatten() *flatten {
	return new(flatten)
}

func (f *flatten) TypeString() string {
	return "flatten"
}

func (f *flatten) OutputDims(in []int) ([]int, error) {
	if len(in) == 0 {
		return nil, errors.Errorf("Flatten needs at least one input dimension")
	}

	return []int{utils.Prod(in)}, nil
}

func (f *flatten) Params() []*mfgnet.Param {
	return nil
}

func (f *flatten) Forward(in *utils.Tensor, training bool) (*utils.Tensor, error) {
	if training {
		f.dims = in.Dims
	}

	return in.Reshape(in.Dim(0), -1)
}

func (f *flatten) Backward(grad *utils.Tensor) (*utils.Tensor, error) {
	if f.dims == nil {
		return nil, ErrNoForward
	}

	return grad.Reshape(f.dims...)
}
