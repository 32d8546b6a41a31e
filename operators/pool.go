package operators

import (
	"github.com/pkg/errors"
	"github.com/sharnoff/mfgnet"
	"github.com/sharnoff/mfgnet/utils"
)

type maxPool struct {
	Kernel mfgnet.Pair
	Stride mfgnet.Pair

	// for each output value of the last training Forward, the index of the input it was taken
	// from
	argmax  []int
	lastIn  []int
	lastOut []int
}

// MaxPool2D returns a max pooling Layer over inputs of [channels, height, width], with no
// padding.
func MaxPool2D(kernel, stride mfgnet.Pair) *maxPool {
	return &maxPool{Kernel: kernel, Stride: stride}
}

func (m *maxPool) TypeString() string {
	return "max-pool"
}

func (m *maxPool) OutputDims(in []int) ([]int, error) {
	if len(in) != 3 {
		return nil, errors.Errorf("MaxPool2D expects input dimensions [channels height width], got %v", in)
	}

	out := mfgnet.PoolOutputSize(mfgnet.Pair{H: in[1], W: in[2]}, m.Kernel, m.Stride)
	if !out.Positive() {
		return nil, errors.Errorf("MaxPool2D output size %v from input %v is not positive", out, in)
	}

	return []int{in[0], out.H, out.W}, nil
}

func (m *maxPool) Params() []*mfgnet.Param {
	return nil
}

func (m *maxPool) Forward(in *utils.Tensor, training bool) (*utils.Tensor, error) {
	if in == nil || in.Rank() != 4 {
		return nil, errors.Errorf("MaxPool2D expects input of rank 4, got %v", in)
	}

	dims, err := m.OutputDims(in.Dims[1:])
	if err != nil {
		return nil, err
	}

	planes, inH, inW := in.Dim(0)*in.Dim(1), in.Dim(2), in.Dim(3)
	outH, outW := dims[1], dims[2]
	out := utils.NewTensor(in.Dim(0), dims[0], outH, outW)
	argmax := make([]int, out.Size())

	for p := 0; p < planes; p++ {
		for oh := 0; oh < outH; oh++ {
			for ow := 0; ow < outW; ow++ {
				best := -1
				for kh := 0; kh < m.Kernel.H; kh++ {
					ih := oh*m.Stride.H + kh
					for kw := 0; kw < m.Kernel.W; kw++ {
						idx := p*inH*inW + ih*inW + ow*m.Stride.W + kw
						if best == -1 || in.Values[idx] > in.Values[best] {
							best = idx
						}
					}
				}

				o := (p*outH+oh)*outW + ow
				out.Values[o] = in.Values[best]
				argmax[o] = best
			}
		}
	}

	if training {
		m.argmax = argmax
		m.lastIn = in.Dims
		m.lastOut = out.Dims
	}

	return out, nil
}

func (m *maxPool) Backward(grad *utils.Tensor) (*utils.Tensor, error) {
	if m.argmax == nil {
		return nil, ErrNoForward
	} else if err := checkGrad(grad, m.lastOut, m.TypeString()); err != nil {
		return nil, err
	}

	dx := utils.NewTensor(m.lastIn...)
	for o, i := range m.argmax {
		dx.Values[i] += grad.Values[o]
	}

	return dx, nil
}
