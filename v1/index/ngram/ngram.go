// Package ngram implements a dependency-free Embedder based on hashed
// character n-grams. It needs no model or network access, which makes it the
// default embedder for local search and for tests.
package ngram

import (
	"context"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

const (
	// DefaultLength is the default vector length.
	DefaultLength = 1000

	// DefaultSize is the default n-gram size (trigrams).
	DefaultSize = 3
)

// Embedder counts the character n-grams of a lower-cased text into a
// fixed-length vector, using xxhash to pick the bucket of each n-gram.
type Embedder struct {
	length int
	size   int
}

// New returns an Embedder producing vectors of the given length. A
// non-positive length falls back to DefaultLength.
func New(length int) *Embedder {
	if length <= 0 {
		length = DefaultLength
	}
	return &Embedder{length: length, size: DefaultSize}
}

// WithSize returns a copy of e using n-grams of size n.
func (e *Embedder) WithSize(n int) *Embedder {
	if n <= 0 {
		n = DefaultSize
	}
	return &Embedder{length: e.length, size: n}
}

func (e *Embedder) Length() int { return e.length }

// Embed never fails; the context is accepted to satisfy index.Embedder.
func (e *Embedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.length)
	for _, gram := range e.grams(text) {
		vec[xxhash.Sum64String(gram)%uint64(e.length)]++
	}
	return vec, nil
}

// EmbedBatch embeds every text in order.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// grams pads the normalised text with spaces so that short words still
// produce at least one n-gram.
func (e *Embedder) grams(text string) []string {
	normalised := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, text)
	words := strings.Fields(normalised)
	if len(words) == 0 {
		return nil
	}

	var grams []string
	for _, w := range words {
		runes := []rune(" " + w + " ")
		if len(runes) < e.size {
			grams = append(grams, string(runes))
			continue
		}
		for i := 0; i+e.size <= len(runes); i++ {
			grams = append(grams, string(runes[i:i+e.size]))
		}
	}
	return grams
}
