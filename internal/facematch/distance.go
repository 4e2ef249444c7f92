package facematch

import "math"

// EuclideanDistance computes sqrt(sum((a_i - b_i)^2)) accumulated in float64.
// Embeddings of different length are rejected rather than truncated.
func EuclideanDistance(a, b Embedding) (float64, error) {
	if len(a) != len(b) {
		return 0, &DimensionMismatchError{Expected: len(b), Actual: len(a)}
	}
	return euclidean(a, b), nil
}

// euclidean assumes len(a) == len(b).
func euclidean(a, b Embedding) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
