package initializers

// Fill sets every value of ws from the given RNG.
func Fill(g RNG, ws []float64) {
	for i := range ws {
		ws[i] = g.Gen()
	}
}
