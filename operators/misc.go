package operators

import (
	"github.com/pkg/errors"
	"github.com/sharnoff/mfgnet/utils"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ErrNoForward is returned by Backward if there has not been a training Forward to go
// backwards from.
var ErrNoForward = errors.New("Backward called without a preceding training Forward")

// checkDims returns an error if the Tensor's dimensions, excluding the batch, are not equal to
// the expected ones.
func checkDims(t *utils.Tensor, expected []int, typeString string) error {
	if t == nil {
		return errors.Errorf("Input to %s is nil", typeString)
	} else if t.Rank() != len(expected)+1 {
		return errors.Errorf("%s expects input of rank %d, got %v", typeString, len(expected)+1, t.Dims)
	}

	for i := range expected {
		if t.Dims[i+1] != expected[i] {
			return errors.Errorf("%s expects input dimensions [batch]%v, got %v", typeString, expected, t.Dims)
		}
	}

	return nil
}

// checkGrad returns an error if the gradient does not have the dimensions of the last output.
func checkGrad(grad *utils.Tensor, dims []int, typeString string) error {
	if grad == nil {
		return errors.Errorf("Gradient to %s is nil", typeString)
	} else if !grad.SameDims(&utils.Tensor{Dims: dims}) {
		return errors.Errorf("%s expects gradient with dimensions %v, got %v", typeString, dims, grad.Dims)
	}

	return nil
}

// dense wraps the values as an r × c matrix, without copying.
func dense(r, c int, values []float64) *mat.Dense {
	return mat.NewDense(r, c, values)
}

// mulTransAdd adds a × bᵀ to dst, where a is n × k, b is m × k, and dst is n × m.
func mulTransAdd(dst []float64, a, b []float64, n, k, m int) {
	var p mat.Dense
	p.Mul(dense(n, k, a), dense(m, k, b).T())
	floats.Add(dst, p.RawMatrix().Data)
}

// transMulAdd adds aᵀ × b to dst, where a is n × m, b is n × k, and dst is m × k.
func transMulAdd(dst []float64, a, b []float64, n, m, k int) {
	var p mat.Dense
	p.Mul(dense(n, m, a).T(), dense(n, k, b))
	floats.Add(dst, p.RawMatrix().Data)
}

// mulAdd adds a × b to dst, where a is n × k, b is k × m, and dst is n × m.
func mulAdd(dst []float64, a, b []float64, n, k, m int) {
	var p mat.Dense
	p.Mul(dense(n, k, a), dense(k, m, b))
	floats.Add(dst, p.RawMatrix().Data)
}

// addRows adds each of the n rows of a (n × m) to dst.
func addRows(dst []float64, a []float64, n, m int) {
	for i := 0; i < n; i++ {
		floats.Add(dst, a[i*m:(i+1)*m])
	}
}
