package mfgnet

import (
	"testing"

	"github.com/pkg/errors"
)

func TestConvOutputSize(t *testing.T) {
	tests := []struct {
		in, padding, kernel, stride Pair
		want                        Pair
	}{
		{Square(28), Pair{}, Square(3), Square(1), Square(26)},
		{Square(5), Square(1), Square(3), Square(2), Square(3)},
		{Pair{H: 10, W: 7}, Pair{H: 0, W: 2}, Pair{H: 3, W: 5}, Pair{H: 1, W: 2}, Pair{H: 8, W: 4}},
		{Square(2), Pair{}, Square(3), Square(1), Square(0)},
		// floor, not truncation, for negative numerators
		{Square(1), Pair{}, Square(4), Square(2), Square(-1)},
	}

	for _, test := range tests {
		got := ConvOutputSize(test.in, test.padding, test.kernel, test.stride)
		if got != test.want {
			t.Errorf("ConvOutputSize(%v, %v, %v, %v) = %v, want %v",
				test.in, test.padding, test.kernel, test.stride, got, test.want)
		}
	}

	if got := PoolOutputSize(Square(6), Square(2), Square(2)); got != Square(3) {
		t.Errorf("PoolOutputSize((6, 6), 2, 2) = %v, want (3, 3)", got)
	}
}

func TestLayerShapes(t *testing.T) {
	c := Config{ImageHeight: 8, ImageWidth: 8, Layers: DefaultLayers(4, 8)}

	shapes, err := c.LayerShapes()
	if err != nil {
		t.Fatal(err)
	}

	want := []LayerShape{
		{Conv: Square(6), Pool: Square(6)},
		{Conv: Square(4), Pool: Square(2)},
	}
	for i := range want {
		if shapes[i] != want[i] {
			t.Errorf("layer %d: got %+v, want %+v", i, shapes[i], want[i])
		}
	}

	n, err := c.FlattenedSize()
	if err != nil {
		t.Fatal(err)
	} else if n != 8*2*2 {
		t.Errorf("FlattenedSize() = %d, want 32", n)
	}
}

// the closed form for n unpadded 3x3 unit-stride layers without pooling is in - 2n
func TestLayerShapesIterated(t *testing.T) {
	for n := 1; n <= 6; n++ {
		layers := make([]ConvLayer, n)
		for i := range layers {
			layers[i] = ConvLayer{Channels: 1, Kernel: Square(3), Stride: Square(1)}
		}

		c := Config{ImageHeight: 20, ImageWidth: 16, Layers: layers}
		ps, err := c.Shapes()
		if err != nil {
			t.Fatalf("%d layers: %v", n, err)
		}

		if want := (Pair{H: 20 - 2*n, W: 16 - 2*n}); ps[n-1] != want {
			t.Errorf("%d layers: final size %v, want %v", n, ps[n-1], want)
		}
	}
}

func TestShapeError(t *testing.T) {
	pooled := DefaultLayers(2)

	tests := []struct {
		name  string
		c     Config
		layer int
		stage string
	}{
		{"convolution", Config{ImageHeight: 4, ImageWidth: 4, Layers: DefaultLayers(2, 2, 2)}, 1, "convolution"},
		{"pooling", Config{ImageHeight: 3, ImageWidth: 3, Layers: pooled}, 0, "pooling"},
	}

	for _, test := range tests {
		_, err := test.c.LayerShapes()
		se, ok := errors.Cause(err).(*ShapeError)
		if !ok {
			t.Errorf("%s: expected *ShapeError, got %v", test.name, err)
			continue
		}

		if se.Layer != test.layer || se.Stage != test.stage || se.Size.Positive() {
			t.Errorf("%s: got %+v", test.name, se)
		}
	}

	bad := Config{ImageHeight: 8, ImageWidth: 8, Layers: DefaultLayers(2)}
	bad.Layers[0].Stride = Pair{}
	if _, err := bad.LayerShapes(); err == nil {
		t.Errorf("zero stride: expected error")
	}
}
