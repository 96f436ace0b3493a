package index

import "errors"

var (
	// ErrNotImplemented is returned when an Index is asked to embed text but no
	// Embedder was configured.
	ErrNotImplemented = errors.New("index: no embedder configured")

	// ErrZeroVector is returned when cosine similarity is requested for a
	// vector with zero magnitude.
	ErrZeroVector = errors.New("index: zero-magnitude vector")

	// ErrDimensionMismatch is returned when two vectors of different length
	// are compared.
	ErrDimensionMismatch = errors.New("index: vector dimension mismatch")

	// ErrUnknownMetric is returned for a Metric value that is not supported.
	ErrUnknownMetric = errors.New("index: unknown similarity metric")
)
