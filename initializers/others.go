package initializers

import "math/rand"

type leCun struct {
	*varianceScaling
}

func LeCun(src *rand.Rand) leCun {
	return leCun{VarianceScaling(src).In()}
}

type he struct {
	*varianceScaling
}

func He(src *rand.Rand) he {
	return he{VarianceScaling(src).In().Factor(2)}
}

// HeFanOut is He initialization scaled by the number of outputs from each unit.
func HeFanOut(src *rand.Rand) he {
	return he{VarianceScaling(src).Out().Factor(2)}
}

type xavier struct {
	*varianceScaling
}

func Xavier(src *rand.Rand) xavier {
	return xavier{VarianceScaling(src).Avg()}
}
