package core

import (
	"fmt"
	"math"
)

// CosineSimilarity calculates the cosine similarity between two vectors.
// Similarity thresholds throughout the system assume this metric; scores range
// from -1 to 1 and a zero-magnitude vector scores 0 against everything.
func CosineSimilarity(a, b []float32) (float32, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, fmt.Errorf("vectors cannot be empty")
	}
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector dimension mismatch: %d vs %d", len(a), len(b))
	}

	var dot float32
	for i := range a {
		dot += a[i] * b[i]
	}

	magA := magnitude(a)
	magB := magnitude(b)
	if magA == 0 || magB == 0 {
		return 0, nil
	}

	return dot / (magA * magB), nil
}

// magnitude calculates the L2 norm of a vector.
func magnitude(v []float32) float32 {
	var sumOfSquares float32
	for _, val := range v {
		sumOfSquares += val * val
	}
	return float32(math.Sqrt(float64(sumOfSquares)))
}
