package sim

import (
	"math"
	"math/rand"
)

// poissonChunk bounds the mean handed to Knuth's method; exp(-lambda)
// underflows for large lambda, so larger means are split into chunks
// whose independent Poisson draws are summed.
const poissonChunk = 30.0

// SamplePoisson draws a Poisson-distributed count with the given mean.
// Non-positive or non-finite means yield 0.
func SamplePoisson(rng *rand.Rand, lambda float64) int {
	if !(lambda > 0) || math.IsInf(lambda, 0) {
		return 0
	}
	total := 0
	for lambda > poissonChunk {
		total += knuthPoisson(rng, poissonChunk)
		lambda -= poissonChunk
	}
	return total + knuthPoisson(rng, lambda)
}

// knuthPoisson multiplies uniforms until the product drops below exp(-lambda).
func knuthPoisson(rng *rand.Rand, lambda float64) int {
	limit := math.Exp(-lambda)
	k := 0
	p := 1.0
	for {
		k++
		p *= rng.Float64()
		if p <= limit {
			return k - 1
		}
	}
}

// SampleUniform returns a uniform draw from [lo, hi). Swapped bounds are reordered.
func SampleUniform(rng *rand.Rand, lo, hi float64) float64 {
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo + (hi-lo)*rng.Float64()
}

// Clamp01 restricts x to [0, 1]. NaN maps to 0.
func Clamp01(x float64) float64 {
	if math.IsNaN(x) || x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
