package index

import (
	"fmt"
	"math"
)

// Metric names a similarity function. Higher scores are always more similar.
type Metric string

const (
	Cosine Metric = "cosine"
	Dot    Metric = "dot"
)

// Similarity scores a against b with the given metric.
func Similarity(m Metric, a, b []float32) (float64, error) {
	switch m {
	case Cosine, "":
		return CosineSimilarity(a, b)
	case Dot:
		return DotProduct(a, b)
	default:
		return 0, fmt.Errorf("%q: %w", m, ErrUnknownMetric)
	}
}

// CosineSimilarity returns the dot product of a and b divided by the product
// of their Euclidean norms.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%d vs %d: %w", len(a), len(b), ErrDimensionMismatch)
	}
	var dot, na2, nb2 float64
	for i := range a {
		va := float64(a[i])
		vb := float64(b[i])
		dot += va * vb
		na2 += va * va
		nb2 += vb * vb
	}
	if na2 == 0 || nb2 == 0 {
		return 0, ErrZeroVector
	}
	return dot / (math.Sqrt(na2) * math.Sqrt(nb2)), nil
}

// DotProduct returns the plain inner product of a and b.
func DotProduct(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%d vs %d: %w", len(a), len(b), ErrDimensionMismatch)
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot, nil
}
