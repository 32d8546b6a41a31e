package utils

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Tensor is a dense, row-major n-dimensional array of float64. It is the currency passed
// between layers: convolutional layers expect [batch, channel, height, width], recurrent
// layers [batch, time, features], and linear layers [batch, features].
//
// Reshape returns views that share Values, so writing through one is visible in the other.
type Tensor struct {
	Dims   []int
	Values []float64

	// set by the constructors and never written afterwards, so that a Tensor may be read
	// from several goroutines
	md *MultiDim
}

// Prod returns the product of the given dimensions; 1 for none.
func Prod(dims []int) int {
	p := 1
	for _, d := range dims {
		p *= d
	}

	return p
}

// NewTensor returns a zero-filled Tensor with the given dimensions.
func NewTensor(dims ...int) *Tensor {
	return &Tensor{
		Dims:   append([]int(nil), dims...),
		Values: make([]float64, Prod(dims)),
		md:     NewMultiDim(dims),
	}
}

// FromValues wraps the given values (without copying) in a Tensor with the given dimensions.
// It returns an error if the number of values does not match the dimensions.
func FromValues(values []float64, dims ...int) (*Tensor, error) {
	for i, d := range dims {
		if d < 1 {
			return nil, errors.Errorf("Dimension %d must be positive (got %d)", i, d)
		}
	}

	if len(values) != Prod(dims) {
		return nil, errors.Errorf("Can't make tensor %v from %d values (need %d)", dims, len(values), Prod(dims))
	}

	return &Tensor{Dims: append([]int(nil), dims...), Values: values, md: NewMultiDim(dims)}, nil
}

// Size returns the total number of values in the Tensor.
func (t *Tensor) Size() int {
	return len(t.Values)
}

// Dim returns the size of dimension d.
func (t *Tensor) Dim(d int) int {
	return t.Dims[d]
}

// Rank returns the number of dimensions.
func (t *Tensor) Rank() int {
	return len(t.Dims)
}

// Reshape returns a view of the Tensor with new dimensions. A single -1 dimension is
// inferred from the rest.
func (t *Tensor) Reshape(dims ...int) (*Tensor, error) {
	dims = append([]int(nil), dims...)

	infer := -1
	known := 1
	for i, d := range dims {
		if d == -1 {
			if infer != -1 {
				return nil, errors.Errorf("Can't reshape %v to %v, more than one inferred dimension", t.Dims, dims)
			}
			infer = i
			continue
		}

		known *= d
	}

	if infer != -1 {
		if known == 0 || t.Size()%known != 0 {
			return nil, errors.Errorf("Can't reshape %v to %v, size %d does not divide", t.Dims, dims, t.Size())
		}
		dims[infer] = t.Size() / known
	}

	if Prod(dims) != t.Size() {
		return nil, errors.Errorf("Can't reshape %v to %v, sizes differ (%d != %d)", t.Dims, dims, t.Size(), Prod(dims))
	}

	return &Tensor{Dims: dims, Values: t.Values, md: NewMultiDim(dims)}, nil
}

// Copy returns a deep copy of the Tensor.
func (t *Tensor) Copy() *Tensor {
	c := NewTensor(t.Dims...)
	copy(c.Values, t.Values)
	return c
}

// Zero sets every value to 0.
func (t *Tensor) Zero() {
	for i := range t.Values {
		t.Values[i] = 0
	}
}

func (t *Tensor) index(point []int) int {
	md := t.md
	if md == nil {
		// built from a literal
		md = NewMultiDim(t.Dims)
	}

	return md.Index(point)
}

// At returns the value at the given point. It panics if the point is out of range.
func (t *Tensor) At(point ...int) float64 {
	return t.Values[t.index(point)]
}

// Set sets the value at the given point. It panics if the point is out of range.
func (t *Tensor) Set(v float64, point ...int) {
	t.Values[t.index(point)] = v
}

// Row returns the slice of values of index i along the first dimension. The slice aliases
// the Tensor's values.
func (t *Tensor) Row(i int) []float64 {
	n := t.Size() / t.Dims[0]
	return t.Values[i*n : (i+1)*n]
}

// SameDims returns whether or not both Tensors have identical dimensions.
func (t *Tensor) SameDims(o *Tensor) bool {
	if len(t.Dims) != len(o.Dims) {
		return false
	}

	for i := range t.Dims {
		if t.Dims[i] != o.Dims[i] {
			return false
		}
	}

	return true
}

func (t *Tensor) String() string {
	strs := make([]string, len(t.Dims))
	for i, d := range t.Dims {
		strs[i] = fmt.Sprint(d)
	}

	return fmt.Sprintf("Tensor[%s]", strings.Join(strs, "x"))
}
