package matcher

import (
	"fmt"
	"math"
)

// CosineSimilarity calculates (a·b)/(|a||b|).
//
// Vectors of different length return ErrDimensionMismatch and any NaN or Inf
// element returns ErrNonFinite. A zero-magnitude vector has similarity 0 with
// everything. Negative similarities are returned as-is.
func CosineSimilarity(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := a[i], b[i]
		if !isFinite(x) || !isFinite(y) {
			return 0, fmt.Errorf("%w at index %d", ErrNonFinite, i)
		}
		dot += x * y
		normA += x * x
		normB += y * y
	}

	// Avoid division by zero
	if normA == 0 || normB == 0 {
		return 0, nil
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if !isFinite(sim) {
		return 0, fmt.Errorf("%w: similarity overflowed", ErrNonFinite)
	}

	// Rounding can push |sim| a hair past 1.
	return math.Max(-1, math.Min(1, sim)), nil
}

// CollapseFrames reduces a coefficients x frames matrix to one value per
// coefficient by averaging each row. Rows must share a length; a matrix with
// zero frames collapses to zeros.
func CollapseFrames(m [][]float64) ([]float64, error) {
	if len(m) == 0 {
		return nil, nil
	}

	frames := len(m[0])
	out := make([]float64, len(m))
	for i, row := range m {
		if len(row) != frames {
			return nil, fmt.Errorf("%w: row %d has %d frames, row 0 has %d", ErrDimensionMismatch, i, len(row), frames)
		}
		if frames == 0 {
			continue
		}

		var sum float64
		for j, v := range row {
			if !isFinite(v) {
				return nil, fmt.Errorf("%w at [%d][%d]", ErrNonFinite, i, j)
			}
			sum += v
		}
		out[i] = sum / float64(frames)
	}
	return out, nil
}

func checkFinite(v []float64) error {
	for i, x := range v {
		if !isFinite(x) {
			return fmt.Errorf("%w at index %d", ErrNonFinite, i)
		}
	}
	return nil
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
