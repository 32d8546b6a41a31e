package initializers

import "math/rand"

// RNG needs no explanation
type RNG interface {
	Gen() float64
}

type uniform struct {
	src          *rand.Rand
	lower, upper float64
}

// Uniform returns an RNG that gives values uniformly spread between its bounds, which
// default to [-1, 1) and can be set by Bounds. Values are drawn from src.
func Uniform(src *rand.Rand) *uniform {
	return &uniform{src, -1, 1}
}

// Bounds sets the range of a Uniform RNG, returning it.
func (u *uniform) Bounds(lower, upper float64) *uniform {
	if lower > upper {
		lower, upper = upper, lower
	}

	u.lower = lower
	u.upper = upper
	return u
}

// Gen is the implementation of RNG for Uniform. It returns a random number.
func (u *uniform) Gen() float64 {
	return u.src.Float64()*(u.upper-u.lower) + u.lower
}

type truncNormal struct {
	src *rand.Rand
	σ   float64
}

// values further than this many standard deviations from zero are drawn again
const truncAfter float64 = 2.0

// TruncNormal returns an RNG that gives values within a normal distribution centered on zero,
// truncated at 2 standard deviations. The standard deviation is 1 unless set by SD.
func TruncNormal(src *rand.Rand) *truncNormal {
	return &truncNormal{src, 1}
}

// SD sets the standard deviation of the distribution before truncation.
func (t *truncNormal) SD(sd float64) *truncNormal {
	t.σ = sd
	return t
}

// Gen is the implementation of RNG for TruncNormal. It returns a random number.
func (t *truncNormal) Gen() float64 {
	for {
		v := t.src.NormFloat64()
		if v < -truncAfter || v > truncAfter {
			continue
		}

		return v * t.σ
	}
}
