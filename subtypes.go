package mfgnet

import (
	"github.com/sharnoff/mfgnet/utils"
)

// Param is a single learnable weight array, together with the gradient accumulated for it
// since the last call to ZeroGrad. Layers own their Params; only Optimizers change Values.
type Param struct {
	// Name identifies the Param inside its Layer, e.g. "weights" or "bias". Network-level
	// names are prefixed with the path to the Layer.
	Name string

	Values []float64
	Grads  []float64
}

// NewParam returns a zero-filled Param of the given size.
func NewParam(name string, size int) *Param {
	return &Param{
		Name:   name,
		Values: make([]float64, size),
		Grads:  make([]float64, size),
	}
}

// ZeroGrad resets the accumulated gradient.
func (p *Param) ZeroGrad() {
	for i := range p.Grads {
		p.Grads[i] = 0
	}
}

// Layer is an interface for the operations that make up a network: convolutions,
// activation functions, pooling, recurrent units, and so on.
type Layer interface {
	// TypeString returns the string corresponding to the type of the Layer.
	// For example: the Layer "ReLU" should return "relu", or something to that effect.
	TypeString() string

	// OutputDims returns the dimensions (excluding the batch dimension) that Forward will
	// produce for inputs with the given dimensions (also excluding the batch dimension), or an
	// error if the input cannot be accepted.
	OutputDims(in []int) ([]int, error)

	// Forward calculates the outputs of the Layer for a batch of inputs. The first dimension of
	// the input is always the batch. If 'training' is true, the Layer should store whatever it
	// needs for Backward, and use training behavior (e.g. dropout, batch statistics).
	//
	// The returned Tensor may be a view of the input.
	Forward(in *utils.Tensor, training bool) (*utils.Tensor, error)

	// Backward is given the derivative of the cost w.r.t. each output value of the most recent
	// training Forward, adds to the gradients of the Layer's Params, and returns the derivative
	// w.r.t. each input value.
	Backward(grad *utils.Tensor) (*utils.Tensor, error)

	// Params returns the learnable Params of the Layer. May be empty.
	Params() []*Param
}

// Optimizer determines how Params are changed, given their gradients.
type Optimizer interface {
	// TypeString returns the string corresponding to the type of the Optimizer.
	// For example: the Optimizer "Adam" should return "adam", or something
	// to that effect.
	TypeString() string

	// Run applies one update to each of the given Params, using their current gradients and
	// the provided learning rate. Optimizers with state (like Adam) keep it per Param.
	Run(params []*Param, learningRate float64) error
}

// CostFunction measures the error of a batch of outputs. Both arguments are indexed as
// [sample][value]; targets for classification costs hold a single class index per sample.
type CostFunction interface {
	// TypeString returns the string corresponding to the type of the CostFunction.
	TypeString() string

	// Cost returns the mean cost over the batch.
	Cost(outs, targets [][]float64) (float64, error)

	// Derivs returns the derivative of Cost w.r.t. each output value.
	Derivs(outs, targets [][]float64) ([][]float64, error)
}

// Classifier is implemented by CostFunctions whose outputs are class scores. Only with
// these is accuracy tracked during training, and only with these does prediction return
// class indices.
type Classifier interface {
	CostFunction

	// Classifies should return true.
	Classifies() bool
}

// IsClassification returns whether or not the given CostFunction is a Classifier
func IsClassification(cf CostFunction) bool {
	c, ok := cf.(Classifier)
	return ok && c.Classifies()
}

// Penalty regularizes Params by adding the derivative of a penalty on their values to their
// gradients. It is applied after the backward pass and before the Optimizer.
type Penalty interface {
	TypeString() string

	// Penalize adds the penalty's derivative w.r.t. each value to the corresponding gradient.
	Penalize(p *Param)

	// Cost returns the value of the penalty for the Param.
	Cost(p *Param) float64
}

// HyperParameter is a value - usually a learning rate - that may change over the course of
// training. Value is given the number of times the schedule has been stepped (once per epoch).
type HyperParameter interface {
	TypeString() string
	Value(iter int) float64
}

// Buffered is implemented by Layers that keep state which is not learned by gradient descent
// but is still part of the trained network, like the running statistics of batch
// normalization.
type Buffered interface {
	Buffers() []*Param
}

// Buffers returns the buffers of the Layer, if it has any.
func Buffers(l Layer) []*Param {
	if b, ok := l.(Buffered); ok {
		return b.Buffers()
	}
	return nil
}
