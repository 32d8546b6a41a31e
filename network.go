package mfgnet

import (
	"github.com/pkg/errors"
	"github.com/sharnoff/mfgnet/utils"
)

// Sequential is a Layer made of other Layers, each fed the output of the previous one. The
// dimensions are checked as Layers are added, so that a Sequential built without error will
// not fail on well-formed input.
type Sequential struct {
	layers []Layer

	// dims[0] is the input; dims[i+1] is the output of layers[i]. Neither includes the batch
	// dimension.
	dims [][]int
}

// NewSequential creates a Sequential for inputs of the given dimensions (excluding the batch
// dimension), and adds the Layers in order.
func NewSequential(inDims []int, layers ...Layer) (*Sequential, error) {
	if len(inDims) == 0 {
		return nil, errors.Errorf("Sequential must have at least one input dimension")
	}

	s := &Sequential{dims: [][]int{append([]int(nil), inDims...)}}
	for _, l := range layers {
		if err := s.Add(l); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Add appends a Layer, checking that it accepts the current output dimensions.
func (s *Sequential) Add(l Layer) error {
	if l == nil {
		return NilArgError{"Layer"}
	}

	out, err := l.OutputDims(s.OutputDimensions())
	if err != nil {
		return errors.Wrapf(err, "Can't add layer %d (%s) to sequential", len(s.layers), l.TypeString())
	}

	s.layers = append(s.layers, l)
	s.dims = append(s.dims, out)
	return nil
}

// Layers returns a copy of the list of Layers.
func (s *Sequential) Layers() []Layer {
	return append([]Layer(nil), s.layers...)
}

// Len returns the number of Layers.
func (s *Sequential) Len() int {
	return len(s.layers)
}

// InputDimensions returns the dimensions of a single input.
func (s *Sequential) InputDimensions() []int {
	return s.dims[0]
}

// OutputDimensions returns the dimensions of a single output.
func (s *Sequential) OutputDimensions() []int {
	return s.dims[len(s.dims)-1]
}

func (s *Sequential) TypeString() string {
	return "sequential"
}

func sameInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (s *Sequential) OutputDims(in []int) ([]int, error) {
	if !sameInts(in, s.InputDimensions()) {
		return nil, errors.Errorf("Sequential expects input dimensions %v, got %v", s.InputDimensions(), in)
	}

	return append([]int(nil), s.OutputDimensions()...), nil
}

func (s *Sequential) Forward(in *utils.Tensor, training bool) (*utils.Tensor, error) {
	if in == nil {
		return nil, NilArgError{"Input tensor"}
	} else if in.Rank() < 1 || !sameInts(in.Dims[1:], s.InputDimensions()) {
		return nil, errors.Errorf("Sequential expects input dimensions [batch]%v, got %v", s.InputDimensions(), in.Dims)
	}

	var err error
	for i, l := range s.layers {
		if in, err = l.Forward(in, training); err != nil {
			return nil, errors.Wrapf(err, "Forward failed on layer %d (%s)", i, l.TypeString())
		}
	}

	return in, nil
}

func (s *Sequential) Backward(grad *utils.Tensor) (*utils.Tensor, error) {
	var err error
	for i := len(s.layers) - 1; i >= 0; i-- {
		if grad, err = s.layers[i].Backward(grad); err != nil {
			return nil, errors.Wrapf(err, "Backward failed on layer %d (%s)", i, s.layers[i].TypeString())
		}
	}

	return grad, nil
}

// Params returns the Params of every Layer, in order.
func (s *Sequential) Params() []*Param {
	var ps []*Param
	for _, l := range s.layers {
		ps = append(ps, l.Params()...)
	}

	return ps
}

// Buffers returns the buffers of every Layer, in order.
func (s *Sequential) Buffers() []*Param {
	var bs []*Param
	for _, l := range s.layers {
		bs = append(bs, Buffers(l)...)
	}

	return bs
}

// ZeroGrad resets the gradients of all of the given Params.
func ZeroGrad(params []*Param) {
	for _, p := range params {
		p.ZeroGrad()
	}
}

// CountParams returns the total number of learnable values in the given Params.
func CountParams(params []*Param) int {
	n := 0
	for _, p := range params {
		n += len(p.Values)
	}
	return n
}
