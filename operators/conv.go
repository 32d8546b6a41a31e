package operators

import (
	"math/rand"

	"github.com/pkg/errors"
	"github.com/sharnoff/mfgnet"
	"github.com/sharnoff/mfgnet/initializers"
	"github.com/sharnoff/mfgnet/utils"
)

type conv2d struct {
	InC, OutC int
	Kernel    mfgnet.Pair
	Stride    mfgnet.Pair
	Padding   mfgnet.Pair

	// weights are indexed [out channel][in channel][kernel row][kernel column]
	weights *mfgnet.Param
	bias    *mfgnet.Param

	lastIn  *utils.Tensor
	lastOut []int
}

// Conv2D returns a two-dimensional convolution over inputs of [channels, height, width], which
// implements mfgnet.Layer. Padding is with zeros. Weights and biases are drawn uniformly from
// ±1/sqrt(inChannels * kernel area).
func Conv2D(inChannels, outChannels int, kernel, stride, padding mfgnet.Pair, rng *rand.Rand) *conv2d {
	c := &conv2d{
		InC:     inChannels,
		OutC:    outChannels,
		Kernel:  kernel,
		Stride:  stride,
		Padding: padding,
		weights: mfgnet.NewParam("weights", outChannels*inChannels*kernel.Area()),
		bias:    mfgnet.NewParam("bias", outChannels),
	}

	g := initializers.FanIn(rng, c.fanIn())
	initializers.Fill(g, c.weights.Values)
	initializers.Fill(g, c.bias.Values)
	return c
}

func (c *conv2d) fanIn() int {
	return c.InC * c.Kernel.Area()
}

// Init replaces the weights with ones set by the given Initializer. Biases are left unchanged.
func (c *conv2d) Init(i Initializer) *conv2d {
	i.Set(c.weights.Values, c.fanIn(), c.OutC*c.Kernel.Area())
	return c
}

func (c *conv2d) TypeString() string {
	return "conv2d"
}

func (c *conv2d) OutputDims(in []int) ([]int, error) {
	if len(in) != 3 || in[0] != c.InC {
		return nil, errors.Errorf("Conv2D expects input dimensions [%d height width], got %v", c.InC, in)
	}

	out := mfgnet.ConvOutputSize(mfgnet.Pair{H: in[1], W: in[2]}, c.Padding, c.Kernel, c.Stride)
	if !out.Positive() {
		return nil, errors.Errorf("Conv2D output size %v from input %v is not positive", out, in)
	}

	return []int{c.OutC, out.H, out.W}, nil
}

func (c *conv2d) Params() []*mfgnet.Param {
	return []*mfgnet.Param{c.weights, c.bias}
}

// each calls f with the output position and the input position for every kernel element that
// falls inside the (unpadded) input
func (c *conv2d) each(inH, inW, outH, outW int, f func(oh, ow, kh, kw, ih, iw int)) {
	for oh := 0; oh < outH; oh++ {
		for ow := 0; ow < outW; ow++ {
			for kh := 0; kh < c.Kernel.H; kh++ {
				ih := oh*c.Stride.H - c.Padding.H + kh
				if ih < 0 || ih >= inH {
					continue
				}

				for kw := 0; kw < c.Kernel.W; kw++ {
					iw := ow*c.Stride.W - c.Padding.W + kw
					if iw < 0 || iw >= inW {
						continue
					}

					f(oh, ow, kh, kw, ih, iw)
				}
			}
		}
	}
}

func (c *conv2d) Forward(in *utils.Tensor, training bool) (*utils.Tensor, error) {
	if in == nil || in.Rank() != 4 {
		return nil, errors.Errorf("Conv2D expects input of rank 4, got %v", in)
	}

	dims, err := c.OutputDims(in.Dims[1:])
	if err != nil {
		return nil, err
	}

	b, inH, inW := in.Dim(0), in.Dim(2), in.Dim(3)
	outH, outW := dims[1], dims[2]
	out := utils.NewTensor(b, c.OutC, outH, outW)

	kSize := c.Kernel.Area()
	inPlane, outPlane := inH*inW, outH*outW

	// one index per (sample, output channel) plane
	utils.Parallel(b*c.OutC, func(p int) {
		n, oc := p/c.OutC, p%c.OutC
		plane := out.Values[p*outPlane : (p+1)*outPlane]
		for i := range plane {
			plane[i] = c.bias.Values[oc]
		}

		for ic := 0; ic < c.InC; ic++ {
			x := in.Values[(n*c.InC+ic)*inPlane:]
			w := c.weights.Values[(oc*c.InC+ic)*kSize:]
			c.each(inH, inW, outH, outW, func(oh, ow, kh, kw, ih, iw int) {
				plane[oh*outW+ow] += w[kh*c.Kernel.W+kw] * x[ih*inW+iw]
			})
		}
	})

	if training {
		c.lastIn = in
		c.lastOut = out.Dims
	}

	return out, nil
}

func (c *conv2d) Backward(grad *utils.Tensor) (*utils.Tensor, error) {
	if c.lastIn == nil {
		return nil, ErrNoForward
	} else if err := checkGrad(grad, c.lastOut, c.TypeString()); err != nil {
		return nil, err
	}

	in := c.lastIn
	b, inH, inW := in.Dim(0), in.Dim(2), in.Dim(3)
	outH, outW := c.lastOut[2], c.lastOut[3]

	kSize := c.Kernel.Area()
	inPlane, outPlane := inH*inW, outH*outW

	// weight and bias gradients: one index per output channel
	utils.Parallel(c.OutC, func(oc int) {
		for n := 0; n < b; n++ {
			g := grad.Values[(n*c.OutC+oc)*outPlane : (n*c.OutC+oc+1)*outPlane]
			for _, v := range g {
				c.bias.Grads[oc] += v
			}

			for ic := 0; ic < c.InC; ic++ {
				x := in.Values[(n*c.InC+ic)*inPlane:]
				dw := c.weights.Grads[(oc*c.InC+ic)*kSize:]
				c.each(inH, inW, outH, outW, func(oh, ow, kh, kw, ih, iw int) {
					dw[kh*c.Kernel.W+kw] += g[oh*outW+ow] * x[ih*inW+iw]
				})
			}
		}
	})

	// input gradients: one index per sample
	dx := utils.NewTensor(in.Dims...)
	utils.Parallel(b, func(n int) {
		for oc := 0; oc < c.OutC; oc++ {
			g := grad.Values[(n*c.OutC+oc)*outPlane:]
			for ic := 0; ic < c.InC; ic++ {
				d := dx.Values[(n*c.InC+ic)*inPlane:]
				w := c.weights.Values[(oc*c.InC+ic)*kSize:]
				c.each(inH, inW, outH, outW, func(oh, ow, kh, kw, ih, iw int) {
					d[ih*inW+iw] += g[oh*outW+ow] * w[kh*c.Kernel.W+kw]
				})
			}
		}
	})

	return dx, nil
}
