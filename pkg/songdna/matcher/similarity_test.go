package matcher

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float64
		expected float64
	}{
		{"identical", []float64{1, 0}, []float64{1, 0}, 1},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"opposite", []float64{1, 2}, []float64{-1, -2}, -1},
		{"pythagorean", []float64{3, 4}, []float64{4, 3}, 0.96},
		{"zero norm", []float64{0, 0}, []float64{1, 1}, 0},
		{"both zero", []float64{0, 0}, []float64{0, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CosineSimilarity(tt.a, tt.b)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, got, 1e-12)
		})
	}
}

func TestCosineSimilarityNegativePassesThrough(t *testing.T) {
	got, err := CosineSimilarity([]float64{1, 0}, []float64{-1, 1})
	require.NoError(t, err)

	if got >= 0 {
		t.Errorf("Expected negative similarity, got %f", got)
	}
	assert.InDelta(t, -1/math.Sqrt2, got, 1e-12)
}

func TestCosineSimilarityBounded(t *testing.T) {
	v := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7}
	got, err := CosineSimilarity(v, v)
	require.NoError(t, err)

	assert.LessOrEqual(t, got, 1.0)
	assert.InDelta(t, 1.0, got, 1e-12)
}

func TestCosineSimilarityErrors(t *testing.T) {
	_, err := CosineSimilarity(make([]float64, 128), make([]float64, 256))
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Expected ErrDimensionMismatch, got %v", err)
	}

	_, err = CosineSimilarity([]float64{1, math.NaN()}, []float64{1, 1})
	if !errors.Is(err, ErrNonFinite) {
		t.Errorf("Expected ErrNonFinite for NaN, got %v", err)
	}

	_, err = CosineSimilarity([]float64{1, 1}, []float64{math.Inf(-1), 1})
	if !errors.Is(err, ErrNonFinite) {
		t.Errorf("Expected ErrNonFinite for Inf, got %v", err)
	}
}

func TestCollapseFrames(t *testing.T) {
	got, err := CollapseFrames([][]float64{
		{1, 2, 3},
		{4, 4, 4},
		{-1, 0, 1},
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 4, 0}, got)
}

func TestCollapseFramesEdgeCases(t *testing.T) {
	got, err := CollapseFrames(nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = CollapseFrames([][]float64{{}, {}})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, got)

	_, err = CollapseFrames([][]float64{{1, 2}, {3}})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = CollapseFrames([][]float64{{1, math.Inf(1)}})
	assert.ErrorIs(t, err, ErrNonFinite)
}
