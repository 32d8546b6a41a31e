package mfgnet

import (
	"github.com/sharnoff/mfgnet/utils"
)

// ArgMax returns the index of the largest value; the first in case of ties. It returns -1 for an
// empty slice.
func ArgMax(values []float64) int {
	if len(values) == 0 {
		return -1
	}

	best := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[best] {
			best = i
		}
	}

	return best
}

// CorrectClass returns whether the largest output is at the index given by the single target
// value.
func CorrectClass(outs, targets []float64) bool {
	return len(targets) == 1 && ArgMax(outs) == int(targets[0])
}

// Rows splits a Tensor along its first dimension. The rows alias the Tensor's values.
func Rows(t *utils.Tensor) [][]float64 {
	rows := make([][]float64, t.Dim(0))
	for i := range rows {
		rows[i] = t.Row(i)
	}

	return rows
}

// FromRows copies the given rows, all of equal length, into a Tensor of dimensions
// [len(rows), len(rows[0])].
func FromRows(rows [][]float64) *utils.Tensor {
	if len(rows) == 0 {
		return utils.NewTensor(0, 0)
	}

	t := utils.NewTensor(len(rows), len(rows[0]))
	for i := range rows {
		copy(t.Row(i), rows[i])
	}

	return t
}
