package operators

import (
	"math"

	"github.com/pkg/errors"
	"github.com/sharnoff/mfgnet"
	"github.com/sharnoff/mfgnet/utils"
)

const (
	defaultMomentum float64 = 0.1
	defaultEpsilon  float64 = 1e-5
)

type batchNorm struct {
	Channels int
	Momentum float64
	Epsilon  float64

	gamma, beta *mfgnet.Param

	// running statistics, used outside of training
	mean, variance *mfgnet.Param

	// from the last training Forward
	xhat   []float64
	invStd []float64
	dims   []int
}

// BatchNorm2D returns a batch normalization Layer over inputs of [channels, height, width],
// normalizing each channel over the batch and spatial dimensions. While training it uses the
// statistics of the batch and updates running estimates with a momentum of 0.1; otherwise it
// uses the running estimates.
func BatchNorm2D(channels int) *batchNorm {
	b := &batchNorm{
		Channels: channels,
		Momentum: defaultMomentum,
		Epsilon:  defaultEpsilon,
		gamma:    mfgnet.NewParam("gamma", channels),
		beta:     mfgnet.NewParam("beta", channels),
		mean:     mfgnet.NewParam("running-mean", channels),
		variance: mfgnet.NewParam("running-var", channels),
	}

	for i := 0; i < channels; i++ {
		b.gamma.Values[i] = 1
		b.variance.Values[i] = 1
	}

	return b
}

func (b *batchNorm) TypeString() string {
	return "batch-norm"
}

func (b *batchNorm) OutputDims(in []int) ([]int, error) {
	if len(in) != 3 || in[0] != b.Channels {
		return nil, errors.Errorf("BatchNorm2D expects input dimensions [%d height width], got %v", b.Channels, in)
	}

	return append([]int(nil), in...), nil
}

func (b *batchNorm) Params() []*mfgnet.Param {
	return []*mfgnet.Param{b.gamma, b.beta}
}

// Buffers returns the running mean and variance.
func (b *batchNorm) Buffers() []*mfgnet.Param {
	return []*mfgnet.Param{b.mean, b.variance}
}

func (b *batchNorm) Forward(in *utils.Tensor, training bool) (*utils.Tensor, error) {
	if in == nil || in.Rank() != 4 {
		return nil, errors.Errorf("BatchNorm2D expects input of rank 4, got %v", in)
	} else if _, err := b.OutputDims(in.Dims[1:]); err != nil {
		return nil, err
	}

	batch, plane := in.Dim(0), in.Dim(2)*in.Dim(3)
	n := batch * plane
	if training && n < 2 {
		return nil, errors.Errorf("BatchNorm2D needs more than one value per channel while training, got %v", in.Dims)
	}

	// calls f with the index of every value in channel c
	each := func(c int, f func(int)) {
		for s := 0; s < batch; s++ {
			start := (s*b.Channels + c) * plane
			for i := start; i < start+plane; i++ {
				f(i)
			}
		}
	}

	out := utils.NewTensor(in.Dims...)
	if training {
		b.xhat = make([]float64, in.Size())
		b.invStd = make([]float64, b.Channels)
		b.dims = in.Dims
	}

	for c := 0; c < b.Channels; c++ {
		var mean, variance float64
		if training {
			each(c, func(i int) { mean += in.Values[i] })
			mean /= float64(n)
			each(c, func(i int) {
				d := in.Values[i] - mean
				variance += d * d
			})
			variance /= float64(n)

			unbiased := variance * float64(n) / float64(n-1)
			b.mean.Values[c] = (1-b.Momentum)*b.mean.Values[c] + b.Momentum*mean
			b.variance.Values[c] = (1-b.Momentum)*b.variance.Values[c] + b.Momentum*unbiased
		} else {
			mean, variance = b.mean.Values[c], b.variance.Values[c]
		}

		invStd := 1 / math.Sqrt(variance+b.Epsilon)
		g, be := b.gamma.Values[c], b.beta.Values[c]
		each(c, func(i int) {
			xh := (in.Values[i] - mean) * invStd
			out.Values[i] = g*xh + be
			if training {
				b.xhat[i] = xh
			}
		})

		if training {
			b.invStd[c] = invStd
		}
	}

	return out, nil
}

func (b *batchNorm) Backward(grad *utils.Tensor) (*utils.Tensor, error) {
	if b.xhat == nil {
		return nil, ErrNoForward
	} else if err := checkGrad(grad, b.dims, b.TypeString()); err != nil {
		return nil, err
	}

	batch, plane := b.dims[0], b.dims[2]*b.dims[3]
	n := float64(batch * plane)
	dx := utils.NewTensor(b.dims...)

	for c := 0; c < b.Channels; c++ {
		var sumDy, sumDyXhat float64
		for s := 0; s < batch; s++ {
			start := (s*b.Channels + c) * plane
			for i := start; i < start+plane; i++ {
				sumDy += grad.Values[i]
				sumDyXhat += grad.Values[i] * b.xhat[i]
			}
		}

		b.gamma.Grads[c] += sumDyXhat
		b.beta.Grads[c] += sumDy

		k := b.gamma.Values[c] * b.invStd[c] / n
		for s := 0; s < batch; s++ {
			start := (s*b.Channels + c) * plane
			for i := start; i < start+plane; i++ {
				dx.Values[i] = k * (n*grad.Values[i] - sumDy - b.xhat[i]*sumDyXhat)
			}
		}
	}

	return dx, nil
}
