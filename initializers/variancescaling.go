package initializers

import (
	"math"
	"math/rand"
)

type varianceScaling struct {
	src *rand.Rand
	// either: "in", "out", "avg"
	mode   string
	factor float64
}

const (
	defaultVarianceMode   string  = "avg"
	defaultVarianceFactor float64 = 1
)

// VarianceScaling returns the variance scaling initializer, which has 3 modes and a scaling
// factor of 1. The three modes can be set by In, Out, and Avg. It defaults to Avg.
func VarianceScaling(src *rand.Rand) *varianceScaling {
	return &varianceScaling{src, defaultVarianceMode, defaultVarianceFactor}
}

// Factor sets the scaling factor to be used for the Initializer.
func (v *varianceScaling) Factor(f float64) *varianceScaling {
	v.factor = f
	return v
}

// In sets the scaling to be based on the number of inputs to each unit.
func (v *varianceScaling) In() *varianceScaling {
	v.mode = "in"
	return v
}

// Out sets the scaling to be based on the number of outputs from each unit.
func (v *varianceScaling) Out() *varianceScaling {
	v.mode = "out"
	return v
}

// Avg sets the scaling to be based on the average of the two.
func (v *varianceScaling) Avg() *varianceScaling {
	v.mode = "avg"
	return v
}

// Set fills ws from a truncated normal distribution with variance factor / scale, where scale
// is fanIn, fanOut, or their average, depending on the mode.
func (v *varianceScaling) Set(ws []float64, fanIn, fanOut int) {
	var scale float64
	if v.mode == "in" {
		scale = float64(fanIn)
	} else if v.mode == "out" {
		scale = float64(fanOut)
	} else { // must be "avg"
		scale = float64(fanIn+fanOut) / 2
	}

	Fill(TruncNormal(v.src).SD(math.Sqrt(v.factor/scale)), ws)
}

// FanIn is the default initialization of convolutional, linear, and recurrent layers: uniform
// on [-1/sqrt(fanIn), 1/sqrt(fanIn)].
func FanIn(src *rand.Rand, fanIn int) *uniform {
	k := 1 / math.Sqrt(float64(fanIn))
	return Uniform(src).Bounds(-k, k)
}
