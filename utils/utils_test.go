package utils

import (
	"sync/atomic"
	"testing"
)

func TestMultiDim(t *testing.T) {
	m := NewMultiDim([]int{2, 3, 4})

	if m.Size() != 24 {
		t.Fatalf("Size() = %d, want 24", m.Size())
	}

	tests := []struct {
		point []int
		index int
	}{
		{[]int{0, 0, 0}, 0},
		{[]int{0, 0, 3}, 3},
		{[]int{0, 1, 0}, 4},
		{[]int{1, 0, 0}, 12},
		{[]int{1, 2, 3}, 23},
	}

	for _, test := range tests {
		if i := m.Index(test.point); i != test.index {
			t.Errorf("Index(%v) = %d, want %d", test.point, i, test.index)
		}

		p := m.Point(test.index)
		for d := range p {
			if p[d] != test.point[d] {
				t.Errorf("Point(%d) = %v, want %v", test.index, p, test.point)
				break
			}
		}
	}

	point := []int{0, 0, 0}
	count := 1
	for m.Increment(point) {
		count++
	}
	if count != 24 {
		t.Errorf("Increment visited %d points, want 24", count)
	}
}

func TestTensorReshape(t *testing.T) {
	x := NewTensor(2, 3, 4)

	tests := []struct {
		dims []int
		want []int
		ok   bool
	}{
		{[]int{6, 4}, []int{6, 4}, true},
		{[]int{-1, 4}, []int{6, 4}, true},
		{[]int{2, -1}, []int{2, 12}, true},
		{[]int{5, -1}, nil, false},
		{[]int{-1, -1}, nil, false},
		{[]int{7, 4}, nil, false},
	}

	for _, test := range tests {
		r, err := x.Reshape(test.dims...)
		if !test.ok {
			if err == nil {
				t.Errorf("Reshape(%v): expected error", test.dims)
			}
			continue
		} else if err != nil {
			t.Errorf("Reshape(%v): %v", test.dims, err)
			continue
		}

		if !r.SameDims(&Tensor{Dims: test.want}) {
			t.Errorf("Reshape(%v) has dims %v, want %v", test.dims, r.Dims, test.want)
		}
	}

	// views share values
	r, _ := x.Reshape(24)
	r.Values[5] = 7
	if x.At(0, 1, 1) != 7 {
		t.Errorf("reshaped view does not share values")
	}
}

func TestTensorAccess(t *testing.T) {
	x, err := FromValues([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
	if err != nil {
		t.Fatal(err)
	}

	if v := x.At(1, 2); v != 6 {
		t.Errorf("At(1, 2) = %g, want 6", v)
	}

	x.Set(9, 0, 1)
	if row := x.Row(0); row[1] != 9 || len(row) != 3 {
		t.Errorf("Row(0) = %v, want [1 9 3]", row)
	}

	c := x.Copy()
	c.Values[0] = -1
	if x.Values[0] != 1 {
		t.Errorf("Copy shares values with original")
	}

	c.Zero()
	for _, v := range c.Values {
		if v != 0 {
			t.Fatalf("Zero left %v", c.Values)
		}
	}

	if _, err := FromValues([]float64{1, 2}, 3); err == nil {
		t.Errorf("FromValues with wrong size: expected error")
	}
	if s := x.String(); s != "Tensor[2x3]" {
		t.Errorf("String() = %q", s)
	}
}

func TestMultiThread(t *testing.T) {
	for _, n := range []int{0, 1, 7, 1000} {
		seen := make([]int32, n)
		var calls int32

		MultiThread(0, n, func(i int) {
			atomic.AddInt32(&seen[i], 1)
			atomic.AddInt32(&calls, 1)
		}, 3, 2)

		if int(calls) != n {
			t.Errorf("n = %d: %d calls", n, calls)
		}
		for i, s := range seen {
			if s != 1 {
				t.Errorf("n = %d: index %d called %d times", n, i, s)
				break
			}
		}
	}

	out := make([]int, 50)
	Parallel(len(out), func(i int) { out[i] = i * i })
	for i, v := range out {
		if v != i*i {
			t.Fatalf("Parallel: out[%d] = %d", i, v)
		}
	}
}

func TestTensorConcurrentReads(t *testing.T) {
	x := NewTensor(4, 5, 6)
	for i := range x.Values {
		x.Values[i] = float64(i)
	}

	views := []*Tensor{x}
	if r, err := x.Reshape(20, -1); err != nil {
		t.Fatal(err)
	} else {
		views = append(views, r)
	}

	for _, v := range views {
		var bad int32
		last := len(v.Dims) - 1
		Parallel(v.Dims[0], func(i int) {
			p := make([]int, len(v.Dims))
			p[0] = i
			for j := 0; j < v.Dims[last]; j++ {
				p[last] = j
				if v.At(p...) != v.Values[v.md.Index(p)] {
					atomic.AddInt32(&bad, 1)
				}
			}
		})
		if bad != 0 {
			t.Errorf("%v: %d mismatched reads", v.Dims, bad)
		}
	}

	// a literal Tensor still indexes correctly without a prebuilt index
	lit := &Tensor{Dims: []int{2, 2}, Values: []float64{1, 2, 3, 4}}
	if v := lit.At(1, 0); v != 3 {
		t.Errorf("literal At(1, 0) = %g, want 3", v)
	}
	if lit.md != nil {
		t.Errorf("At wrote the index of a shared Tensor")
	}
}
