package mfgnet

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

// Pair is a two-dimensional size, stride, or padding. H is the first (height) axis and W the
// second (width) axis. In JSON, a Pair is written as a two-element array.
type Pair struct {
	H, W int
}

// Square returns a Pair with both axes set to n.
func Square(n int) Pair {
	return Pair{n, n}
}

func (p Pair) String() string {
	return fmt.Sprintf("(%d, %d)", p.H, p.W)
}

// Area returns H * W
func (p Pair) Area() int {
	return p.H * p.W
}

// Positive returns whether or not both axes are greater than zero
func (p Pair) Positive() bool {
	return p.H > 0 && p.W > 0
}

func (p Pair) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{p.H, p.W})
}

func (p *Pair) UnmarshalJSON(data []byte) error {
	var a [2]int
	if err := json.Unmarshal(data, &a); err != nil {
		return errors.Wrapf(err, "Failed to decode pair from %s", data)
	}

	p.H, p.W = a[0], a[1]
	return nil
}

// outputSize is the discrete convolution output-size formula for one axis:
//	floor((in + 2*padding - (kernel - 1) - 1) / stride + 1)
func outputSize(in, padding, kernel, stride int) int {
	n := in + 2*padding - (kernel - 1) - 1
	// integer division truncates towards zero; floor is needed for negative numerators
	q := n / stride
	if n%stride != 0 && n < 0 {
		q--
	}

	return q + 1
}

// ConvOutputSize returns the spatial size produced by a convolution, applied independently to
// each axis.
func ConvOutputSize(in, padding, kernel, stride Pair) Pair {
	return Pair{
		H: outputSize(in.H, padding.H, kernel.H, stride.H),
		W: outputSize(in.W, padding.W, kernel.W, stride.W),
	}
}

// PoolOutputSize returns the spatial size produced by a (non-padded) pooling window.
func PoolOutputSize(in, kernel, stride Pair) Pair {
	return ConvOutputSize(in, Pair{}, kernel, stride)
}

// LayerShape records the spatial size after each stage of one convolutional layer.
type LayerShape struct {
	Conv Pair
	// Pool is equal to Conv if the layer has no pooling
	Pool Pair
}

// Out returns the size passed on to the next layer.
func (s LayerShape) Out() Pair {
	return s.Pool
}

// LayerShapes runs the shape calculator over every layer of the Config, carrying each layer's
// output size as the next layer's input size. It returns a *ShapeError at the first stage that
// would produce a non-positive dimension.
func (c Config) LayerShapes() ([]LayerShape, error) {
	in := Pair{c.ImageHeight, c.ImageWidth}
	if !in.Positive() {
		return nil, errors.Errorf("Image size must be positive (got %v)", in)
	}

	shapes := make([]LayerShape, len(c.Layers))
	for i, l := range c.Layers {
		if !l.Stride.Positive() {
			return nil, errors.Errorf("Layer %d stride must be positive (got %v)", i, l.Stride)
		}

		s := LayerShape{Conv: ConvOutputSize(in, l.Padding, l.Kernel, l.Stride)}
		if !s.Conv.Positive() {
			return nil, &ShapeError{Layer: i, Stage: "convolution", Size: s.Conv}
		}

		s.Pool = s.Conv
		if l.Pooling {
			if !l.PoolStride.Positive() {
				return nil, errors.Errorf("Layer %d pool stride must be positive (got %v)", i, l.PoolStride)
			}

			s.Pool = PoolOutputSize(s.Conv, l.PoolKernel, l.PoolStride)
			if !s.Pool.Positive() {
				return nil, &ShapeError{Layer: i, Stage: "pooling", Size: s.Pool}
			}
		}

		shapes[i] = s
		in = s.Out()
	}

	return shapes, nil
}

// Shapes returns the output size of each convolutional layer (after pooling, if any).
func (c Config) Shapes() ([]Pair, error) {
	ls, err := c.LayerShapes()
	if err != nil {
		return nil, err
	}

	ps := make([]Pair, len(ls))
	for i := range ls {
		ps[i] = ls[i].Out()
	}

	return ps, nil
}

// FlattenedSize returns the number of values the convolutional stack produces for a single
// image: the last layer's channel count times its final height and width.
func (c Config) FlattenedSize() (int, error) {
	if len(c.Layers) == 0 {
		return 0, errors.Errorf("Config has no convolutional layers")
	}

	ps, err := c.Shapes()
	if err != nil {
		return 0, err
	}

	return c.Layers[len(c.Layers)-1].Channels * ps[len(ps)-1].Area(), nil
}
