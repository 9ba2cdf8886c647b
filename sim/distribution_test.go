package sim

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/stat"
)

func TestSamplePoisson_MeanMatchesLambda(t *testing.T) {
	tests := []struct {
		name   string
		lambda float64
	}{
		{"small mean", 0.5},
		{"moderate mean", 6},
		{"chunked mean", 75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng := rand.New(rand.NewSource(7))
			const n = 20000
			xs := make([]float64, n)
			for i := range xs {
				xs[i] = float64(SamplePoisson(rng, tt.lambda))
			}
			mean, variance := stat.MeanVariance(xs, nil)
			// Poisson: mean == variance == lambda
			assert.InDelta(t, tt.lambda, mean, 0.05*tt.lambda+0.05)
			assert.InDelta(t, tt.lambda, variance, 0.1*tt.lambda+0.1)
		})
	}
}

func TestSamplePoisson_DegenerateMeans_ReturnZero(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, lambda := range []float64{0, -3, math.NaN(), math.Inf(1)} {
		assert.Equal(t, 0, SamplePoisson(rng, lambda), "lambda=%v", lambda)
	}
}

func TestSampleUniform_StaysInBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 1000; i++ {
		v := SampleUniform(rng, 0.3, 0.7)
		assert.GreaterOrEqual(t, v, 0.3)
		assert.Less(t, v, 0.7)

		// reversed bounds are reordered
		w := SampleUniform(rng, 0.9, 0.1)
		assert.GreaterOrEqual(t, w, 0.1)
		assert.Less(t, w, 0.9)
	}
	assert.Equal(t, 0.4, SampleUniform(rng, 0.4, 0.4))
}

func TestClamp01(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.42, 0.42},
		{1, 1},
		{3, 1},
		{math.NaN(), 0},
		{math.Inf(1), 1},
		{math.Inf(-1), 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Clamp01(tt.in), "Clamp01(%v)", tt.in)
	}
}
