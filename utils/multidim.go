package utils

// MultiDim allows index arithmetic on n-dimensional slices
//
// stored row-major: the last dimension varies fastest, so a [batch, channel, height, width]
// slice keeps each image row contiguous
//
// the fields are made public in order to allow exporting to JSON,
// but they should not actually be altered once it has been initialized
type MultiDim struct {
	// the size of each dimension
	Dims []int

	// the number of values covered by a single step along each dimension
	// -- Strides[end] = 1; Strides[0] * Dims[0] = total size
	// Strides will be initialized by the constructor -- should not be provided
	Strides []int
}

// NewMultiDim creates a new MultiDim wrapper for the given dimensions
//
// the given slice is copied
func NewMultiDim(dims []int) *MultiDim {
	m := &MultiDim{
		Dims:    append([]int(nil), dims...),
		Strides: make([]int, len(dims)),
	}

	if len(dims) == 0 {
		return m
	}

	m.Strides[len(dims)-1] = 1
	for i := len(dims) - 2; i >= 0; i-- {
		m.Strides[i] = m.Strides[i+1] * m.Dims[i+1]
	}

	return m
}

// Index returns the index corresponding to the given point
// assumes that the point has the same number of dimensions as 'm'
func (m *MultiDim) Index(point []int) int {
	index := 0
	for i := range point {
		index += point[i] * m.Strides[i]
	}

	return index
}

// Point returns the multi-dimensional point leading to the given index in the base slice
//
// assumes that the given index will be in bounds
func (m *MultiDim) Point(index int) []int {
	p := make([]int, len(m.Dims))
	for i := range p {
		p[i] = index / m.Strides[i]
		index %= m.Strides[i]
	}

	return p
}

// Size returns the total number of values covered
func (m *MultiDim) Size() int {
	if len(m.Dims) == 0 {
		return 0
	}

	return m.Strides[0] * m.Dims[0]
}

func (m *MultiDim) Dim(d int) int {
	return m.Dims[d]
}

// Increment increments the given point by 1, carrying into earlier dimensions
// assumes that len(point) = len(dims)
//
// returns false if it overflows, in which case the point is reset to all zeros
func (m *MultiDim) Increment(point []int) bool {
	for i := len(point) - 1; i >= 0; i-- {
		point[i]++
		if point[i] < m.Dims[i] {
			return true
		}

		point[i] = 0
	}

	return false
}
