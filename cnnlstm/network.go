package cnnlstm

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/pkg/errors"
	"github.com/sharnoff/mfgnet"
	"github.com/sharnoff/mfgnet/initializers"
	"github.com/sharnoff/mfgnet/operators"
	"github.com/sharnoff/mfgnet/utils"
)

// Network is the assembled CNN+LSTM model. Its input is [batch, time, height, width]: every time
// step is a single-channel image, passed through the same convolutional stack. The flattened
// features of each step form the sequence given to the LSTM, whose last hidden state goes
// through three linear projections.
type Network struct {
	steps int
	image mfgnet.Pair

	cnn   *mfgnet.Sequential
	lstm  mfgnet.Layer
	heads *mfgnet.Sequential

	// the convolutional output per image
	features int
}

// initializer returns the weight initializer with the given name, or nil to keep the
// layers' own uniform initialization.
func initializer(name string, rng *rand.Rand) operators.Initializer {
	switch name {
	case mfgnet.InitHe:
		return initializers.He(rng)
	case mfgnet.InitHeFanOut:
		return initializers.HeFanOut(rng)
	case mfgnet.InitXavier:
		return initializers.Xavier(rng)
	case mfgnet.InitLeCun:
		return initializers.LeCun(rng)
	default:
		return nil
	}
}

// newBlock builds the Layers of a single convolutional block: convolution, then batch
// normalization if set, ReLU, dropout if p > 0, max pooling if set, and flattening for the last
// block.
func newBlock(l mfgnet.ConvLayer, inChannels int, dropout float64, last bool, wi operators.Initializer, rng *rand.Rand) []mfgnet.Layer {
	conv := operators.Conv2D(inChannels, l.Channels, l.Kernel, l.Stride, l.Padding, rng)
	if wi != nil {
		conv.Init(wi)
	}

	ls := []mfgnet.Layer{conv}

	if l.BatchNorm {
		ls = append(ls, operators.BatchNorm2D(l.Channels))
	}

	ls = append(ls, operators.ReLU())

	if dropout > 0 {
		ls = append(ls, operators.Dropout(dropout, rng))
	}

	if l.Pooling {
		ls = append(ls, operators.MaxPool2D(l.PoolKernel, l.PoolStride))
	}

	if last {
		ls = append(ls, operators.Flatten())
	}

	return ls
}

// Assemble builds a Network from the Config, for sequences of the given number of time steps.
// Weights are drawn from rng. It returns a SizeMismatchError if the convolutional output does not
// have the size computed by cfg.FlattenedSize.
func Assemble(cfg mfgnet.Config, steps int, rng *rand.Rand) (*Network, error) {
	if steps < 1 {
		return nil, errors.Errorf("Number of time steps must be positive (got %d)", steps)
	} else if rng == nil {
		return nil, errors.Errorf("Random source is nil")
	} else if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "Invalid config")
	}

	flat, err := cfg.FlattenedSize()
	if err != nil {
		return nil, err
	}

	net := &Network{
		steps: steps,
		image: mfgnet.Pair{H: cfg.ImageHeight, W: cfg.ImageWidth},
	}

	net.cnn, err = mfgnet.NewSequential([]int{1, cfg.ImageHeight, cfg.ImageWidth})
	if err != nil {
		return nil, err
	}

	wi := initializer(cfg.Init, rng)

	in := 1
	for i, l := range cfg.Layers {
		for _, layer := range newBlock(l, in, cfg.Dropout, i == len(cfg.Layers)-1, wi, rng) {
			if err = net.cnn.Add(layer); err != nil {
				return nil, errors.Wrapf(err, "Failed to assemble convolutional layer %d", i)
			}
		}
		in = l.Channels
	}

	net.features = net.cnn.OutputDimensions()[0]
	if net.features != flat {
		return nil, mfgnet.SizeMismatchError{Expected: flat, Got: net.features, What: "flattened convolutional output"}
	}

	r := cfg.Recurrent
	net.lstm = operators.LSTM(flat, r.Hidden, r.Layers, r.Bidirectional, rng)

	hs := r.HeadSizes()
	net.heads, err = mfgnet.NewSequential(hs[:1])
	if err != nil {
		return nil, err
	}

	for i := 1; i < len(hs); i++ {
		lin := operators.Linear(hs[i-1], hs[i], rng)
		if wi != nil {
			lin.Init(wi)
		}

		if err = net.heads.Add(lin); err != nil {
			return nil, errors.Wrapf(err, "Failed to assemble linear projection %d", i)
		}
	}

	return net, nil
}

// Steps returns the number of time steps in each input sequence.
func (net *Network) Steps() int {
	return net.steps
}

// InputDims returns the dimensions of a single input: [time, height, width].
func (net *Network) InputDims() []int {
	return []int{net.steps, net.image.H, net.image.W}
}

// OutputSize returns the number of values output for each input.
func (net *Network) OutputSize() int {
	return net.heads.OutputDimensions()[0]
}

func (net *Network) TypeString() string {
	return "cnn-lstm"
}

func (net *Network) OutputDims(in []int) ([]int, error) {
	if len(in) != 3 || in[0] != net.steps || in[1] != net.image.H || in[2] != net.image.W {
		return nil, errors.Errorf("Network expects input dimensions %v, got %v", net.InputDims(), in)
	}

	return []int{net.OutputSize()}, nil
}

func (net *Network) Forward(in *utils.Tensor, training bool) (*utils.Tensor, error) {
	if in == nil {
		return nil, errors.Errorf("Input tensor is nil")
	} else if in.Rank() != 4 {
		return nil, errors.Errorf("Network expects input of rank 4, got %v", in)
	} else if _, err := net.OutputDims(in.Dims[1:]); err != nil {
		return nil, err
	}

	b := in.Dim(0)

	// every time step of every sample is one image
	images, err := in.Reshape(b*net.steps, 1, net.image.H, net.image.W)
	if err != nil {
		return nil, err
	}

	features, err := net.cnn.Forward(images, training)
	if err != nil {
		return nil, errors.Wrap(err, "Convolutional stage failed")
	}

	seq, err := features.Reshape(b, net.steps, net.features)
	if err != nil {
		return nil, err
	}

	hidden, err := net.lstm.Forward(seq, training)
	if err != nil {
		return nil, errors.Wrap(err, "LSTM failed")
	}

	out, err := net.heads.Forward(hidden, training)
	if err != nil {
		return nil, errors.Wrap(err, "Linear projections failed")
	}

	return out, nil
}

func (net *Network) Backward(grad *utils.Tensor) (*utils.Tensor, error) {
	g, err := net.heads.Backward(grad)
	if err != nil {
		return nil, errors.Wrap(err, "Linear projections failed")
	}

	if g, err = net.lstm.Backward(g); err != nil {
		return nil, errors.Wrap(err, "LSTM failed")
	}

	b := g.Dim(0)
	if g, err = g.Reshape(b*net.steps, net.features); err != nil {
		return nil, err
	}

	if g, err = net.cnn.Backward(g); err != nil {
		return nil, errors.Wrap(err, "Convolutional stage failed")
	}

	return g.Reshape(b, net.steps, net.image.H, net.image.W)
}

// Params returns every Param of the network, in the order: convolutional stage, LSTM, linear
// projections.
func (net *Network) Params() []*mfgnet.Param {
	var ps []*mfgnet.Param
	ps = append(ps, net.cnn.Params()...)
	ps = append(ps, net.lstm.Params()...)
	ps = append(ps, net.heads.Params()...)
	return ps
}

// Buffers returns the running statistics of the batch normalization layers.
func (net *Network) Buffers() []*mfgnet.Param {
	return net.cnn.Buffers()
}

// String describes the layers of the network and their output dimensions.
func (net *Network) String() string {
	var str []string
	describe := func(stage string, seq *mfgnet.Sequential) {
		dims := seq.InputDimensions()
		for _, l := range seq.Layers() {
			dims, _ = l.OutputDims(dims)
			str = append(str, fmt.Sprintf("  %-6s %-12s -> %v", stage, l.TypeString(), dims))
		}
	}

	str = append(str, fmt.Sprintf("Input: %v", net.InputDims()))
	describe("cnn", net.cnn)
	lstmOut, _ := net.lstm.OutputDims([]int{net.steps, net.features})
	str = append(str, fmt.Sprintf("  %-6s %-12s -> %v", "lstm", net.lstm.TypeString(), lstmOut))
	describe("head", net.heads)
	str = append(str, fmt.Sprintf("Parameters: %d", mfgnet.CountParams(net.Params())))

	return strings.Join(str, "\n")
}
