package operators

import (
	"math/rand"

	"github.com/pkg/errors"
	"github.com/sharnoff/mfgnet"
	"github.com/sharnoff/mfgnet/initializers"
	"github.com/sharnoff/mfgnet/utils"
)

// Initializer sets the initial weights of a Layer, given the number of inputs to and outputs
// from each unit. The initializers returned by initializers.LeCun, He, and Xavier satisfy it.
type Initializer interface {
	Set(ws []float64, fanIn, fanOut int)
}

type linear struct {
	In, Out int

	weights *mfgnet.Param // Out × In
	bias    *mfgnet.Param

	lastIn *utils.Tensor
}

// Linear returns a fully-connected layer from 'in' to 'out' values, which implements
// mfgnet.Layer. Weights and biases are drawn uniformly from ±1/sqrt(in).
func Linear(in, out int, rng *rand.Rand) *linear {
	l := &linear{
		In:      in,
		Out:     out,
		weights: mfgnet.NewParam("weights", in*out),
		bias:    mfgnet.NewParam("bias", out),
	}

	g := initializers.FanIn(rng, in)
	initializers.Fill(g, l.weights.Values)
	initializers.Fill(g, l.bias.Values)
	return l
}

// Init replaces the weights with ones set by the given Initializer. Biases are left unchanged.
func (l *linear) Init(i Initializer) *linear {
	i.Set(l.weights.Values, l.In, l.Out)
	return l
}

func (l *linear) TypeString() string {
	return "linear"
}

func (l *linear) OutputDims(in []int) ([]int, error) {
	if len(in) != 1 || in[0] != l.In {
		return nil, errors.Errorf("Linear expects input dimensions [%d], got %v", l.In, in)
	}

	return []int{l.Out}, nil
}

func (l *linear) Params() []*mfgnet.Param {
	return []*mfgnet.Param{l.weights, l.bias}
}

func (l *linear) Forward(in *utils.Tensor, training bool) (*utils.Tensor, error) {
	if err := checkDims(in, []int{l.In}, l.TypeString()); err != nil {
		return nil, err
	}

	b := in.Dim(0)
	out := utils.NewTensor(b, l.Out)
	for i := 0; i < b; i++ {
		copy(out.Row(i), l.bias.Values)
	}

	mulTransAdd(out.Values, in.Values, l.weights.Values, b, l.In, l.Out)

	if training {
		l.lastIn = in
	}

	return out, nil
}

func (l *linear) Backward(grad *utils.Tensor) (*utils.Tensor, error) {
	if l.lastIn == nil {
		return nil, ErrNoForward
	}

	b := l.lastIn.Dim(0)
	if err := checkGrad(grad, []int{b, l.Out}, l.TypeString()); err != nil {
		return nil, err
	}

	transMulAdd(l.weights.Grads, grad.Values, l.lastIn.Values, b, l.Out, l.In)
	addRows(l.bias.Grads, grad.Values, b, l.Out)

	dx := utils.NewTensor(l.lastIn.Dims...)
	mulAdd(dx.Values, grad.Values, l.weights.Values, b, l.Out, l.In)
	return dx, nil
}
