package operators

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/pkg/errors"
	"github.com/sharnoff/mfgnet"
	"github.com/sharnoff/mfgnet/initializers"
	"github.com/sharnoff/mfgnet/utils"
)

// values stored at each time step of a training Forward, all batch-major
type lstmStep struct {
	x, hPrev, cPrev []float64
	// the activated gates: input, forget, cell, output; each of Hidden values per sample
	gates []float64
	tanhC []float64
}

// one direction of one layer
type lstmCell struct {
	inSize, hidden int
	reverse        bool

	// the gate weights are stacked in the order input, forget, cell, output
	wih, whh, bih, bhh *mfgnet.Param

	steps []lstmStep
}

func newCell(name string, inSize, hidden int, reverse bool, g initializers.RNG) *lstmCell {
	c := &lstmCell{
		inSize:  inSize,
		hidden:  hidden,
		reverse: reverse,
		wih:     mfgnet.NewParam(name+"weights-ih", 4*hidden*inSize),
		whh:     mfgnet.NewParam(name+"weights-hh", 4*hidden*hidden),
		bih:     mfgnet.NewParam(name+"bias-ih", 4*hidden),
		bhh:     mfgnet.NewParam(name+"bias-hh", 4*hidden),
	}

	for _, p := range c.params() {
		initializers.Fill(g, p.Values)
	}

	return c
}

func (c *lstmCell) params() []*mfgnet.Param {
	return []*mfgnet.Param{c.wih, c.whh, c.bih, c.bhh}
}

// time returns the time index of the s-th step processed
func (c *lstmCell) time(s, steps int) int {
	if c.reverse {
		return steps - 1 - s
	}
	return s
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

type lstm struct {
	In, Hidden, Layers int
	Bidirectional      bool

	// Sequences is whether the output is every time step, or only the last one
	Sequences bool

	// indexed [layer][direction]
	cells [][]*lstmCell

	batch, steps int
	trained      bool
}

// LSTM returns a stack of LSTM layers over inputs of [time, features], which implements
// mfgnet.Layer. Each layer after the first takes the hidden states of the one before it. If
// bidirectional, each layer runs over the sequence in both directions and concatenates the two
// hidden states.
//
// The output is the hidden state at the last time step, of size hidden (times 2, if
// bidirectional). To output every time step instead, use ReturnSequences.
//
// All weights and biases are drawn uniformly from ±1/sqrt(hidden).
func LSTM(in, hidden, layers int, bidirectional bool, rng *rand.Rand) *lstm {
	l := &lstm{
		In:            in,
		Hidden:        hidden,
		Layers:        layers,
		Bidirectional: bidirectional,
	}

	g := initializers.FanIn(rng, hidden)
	size := in
	for i := 0; i < layers; i++ {
		cs := []*lstmCell{newCell(fmt.Sprintf("l%d.", i), size, hidden, false, g)}
		if bidirectional {
			cs = append(cs, newCell(fmt.Sprintf("l%d.reverse.", i), size, hidden, true, g))
		}

		l.cells = append(l.cells, cs)
		size = l.OutputSize()
	}

	return l
}

// ReturnSequences sets the LSTM to output the hidden states of every time step, as
// [time, OutputSize()].
func (l *lstm) ReturnSequences() *lstm {
	l.Sequences = true
	return l
}

// OutputSize returns the size of the hidden state at each time step: Hidden, or 2 * Hidden if
// bidirectional.
func (l *lstm) OutputSize() int {
	if l.Bidirectional {
		return 2 * l.Hidden
	}
	return l.Hidden
}

func (l *lstm) TypeString() string {
	return "lstm"
}

func (l *lstm) OutputDims(in []int) ([]int, error) {
	if len(in) != 2 || in[1] != l.In {
		return nil, errors.Errorf("LSTM expects input dimensions [time %d], got %v", l.In, in)
	}

	if l.Sequences {
		return []int{in[0], l.OutputSize()}, nil
	}
	return []int{l.OutputSize()}, nil
}

func (l *lstm) Params() []*mfgnet.Param {
	var ps []*mfgnet.Param
	for _, cs := range l.cells {
		for _, c := range cs {
			ps = append(ps, c.params()...)
		}
	}

	return ps
}

func (l *lstm) Forward(in *utils.Tensor, training bool) (*utils.Tensor, error) {
	if in == nil || in.Rank() != 3 {
		return nil, errors.Errorf("LSTM expects input of rank 3, got %v", in)
	} else if _, err := l.OutputDims(in.Dims[1:]); err != nil {
		return nil, err
	}

	b, t := in.Dim(0), in.Dim(1)
	h, d := l.Hidden, l.OutputSize()

	seq, size := in.Values, l.In
	for _, cs := range l.cells {
		out := make([]float64, b*t*d)
		for dir, c := range cs {
			if training {
				c.steps = make([]lstmStep, t)
			}

			hPrev, cPrev := make([]float64, b*h), make([]float64, b*h)
			for s := 0; s < t; s++ {
				ti := c.time(s, t)

				x := make([]float64, b*size)
				for n := 0; n < b; n++ {
					copy(x[n*size:(n+1)*size], seq[(n*t+ti)*size:])
				}

				gates := make([]float64, b*4*h)
				for n := 0; n < b; n++ {
					row := gates[n*4*h : (n+1)*4*h]
					copy(row, c.bih.Values)
					for j := range row {
						row[j] += c.bhh.Values[j]
					}
				}

				mulTransAdd(gates, x, c.wih.Values, b, size, 4*h)
				mulTransAdd(gates, hPrev, c.whh.Values, b, h, 4*h)

				hNext, cNext, tanhC := make([]float64, b*h), make([]float64, b*h), make([]float64, b*h)
				for n := 0; n < b; n++ {
					g := gates[n*4*h:]
					for j := 0; j < h; j++ {
						g[j] = sigmoid(g[j])
						g[h+j] = sigmoid(g[h+j])
						g[2*h+j] = math.Tanh(g[2*h+j])
						g[3*h+j] = sigmoid(g[3*h+j])

						k := n*h + j
						cNext[k] = g[h+j]*cPrev[k] + g[j]*g[2*h+j]
						tanhC[k] = math.Tanh(cNext[k])
						hNext[k] = g[3*h+j] * tanhC[k]

						out[(n*t+ti)*d+dir*h+j] = hNext[k]
					}
				}

				if training {
					c.steps[s] = lstmStep{x, hPrev, cPrev, gates, tanhC}
				}

				hPrev, cPrev = hNext, cNext
			}
		}

		seq, size = out, d
	}

	if training {
		l.batch, l.steps = b, t
		l.trained = true
	}

	if l.Sequences {
		return utils.FromValues(seq, b, t, d)
	}

	last := utils.NewTensor(b, d)
	for n := 0; n < b; n++ {
		copy(last.Row(n), seq[(n*t+t-1)*d:(n*t+t)*d])
	}

	return last, nil
}

func (l *lstm) Backward(grad *utils.Tensor) (*utils.Tensor, error) {
	if !l.trained {
		return nil, ErrNoForward
	}

	b, t := l.batch, l.steps
	h, d := l.Hidden, l.OutputSize()

	var dSeq []float64
	if l.Sequences {
		if err := checkGrad(grad, []int{b, t, d}, l.TypeString()); err != nil {
			return nil, err
		}
		dSeq = grad.Values
	} else {
		if err := checkGrad(grad, []int{b, d}, l.TypeString()); err != nil {
			return nil, err
		}

		dSeq = make([]float64, b*t*d)
		for n := 0; n < b; n++ {
			copy(dSeq[(n*t+t-1)*d:(n*t+t)*d], grad.Row(n))
		}
	}

	for layer := len(l.cells) - 1; layer >= 0; layer-- {
		size := l.cells[layer][0].inSize
		dIn := make([]float64, b*t*size)

		for dir, c := range l.cells[layer] {
			dhNext, dcNext := make([]float64, b*h), make([]float64, b*h)
			for s := t - 1; s >= 0; s-- {
				ti := c.time(s, t)
				st := c.steps[s]

				dA := make([]float64, b*4*h)
				for n := 0; n < b; n++ {
					g, da := st.gates[n*4*h:], dA[n*4*h:]
					for j := 0; j < h; j++ {
						k := n*h + j
						i, f, gg, o := g[j], g[h+j], g[2*h+j], g[3*h+j]
						tc := st.tanhC[k]

						dh := dSeq[(n*t+ti)*d+dir*h+j] + dhNext[k]
						dc := dcNext[k] + dh*o*(1-tc*tc)

						da[j] = dc * gg * i * (1 - i)
						da[h+j] = dc * st.cPrev[k] * f * (1 - f)
						da[2*h+j] = dc * i * (1 - gg*gg)
						da[3*h+j] = dh * tc * o * (1 - o)

						dcNext[k] = dc * f
					}
				}

				transMulAdd(c.wih.Grads, dA, st.x, b, 4*h, size)
				transMulAdd(c.whh.Grads, dA, st.hPrev, b, 4*h, h)
				addRows(c.bih.Grads, dA, b, 4*h)
				addRows(c.bhh.Grads, dA, b, 4*h)

				dx := make([]float64, b*size)
				mulAdd(dx, dA, c.wih.Values, b, 4*h, size)
				for n := 0; n < b; n++ {
					row := dIn[(n*t+ti)*size : (n*t+ti+1)*size]
					for j := range row {
						row[j] += dx[n*size+j]
					}
				}

				dhNext = make([]float64, b*h)
				mulAdd(dhNext, dA, c.whh.Values, b, 4*h, h)
			}
		}

		dSeq = dIn
	}

	return utils.FromValues(dSeq, b, t, l.In)
}
