package index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"text/template"
)

// Index converts objects and text to vectors and ranks candidates by
// similarity. It holds configuration only; it never stores vectors.
type Index struct {
	name         string
	metric       Metric
	attributes   []string
	keepNulls    bool
	vectorLength int
	indexField   string
	textTemplate string

	embedder Embedder
	tmpl     *template.Template
}

// Option configures an Index created with New.
type Option func(*Index) error

// WithMetric sets the similarity metric.
func WithMetric(m Metric) Option {
	return func(ix *Index) error {
		if m != Cosine && m != Dot {
			return fmt.Errorf("%q: %w", m, ErrUnknownMetric)
		}
		ix.metric = m
		return nil
	}
}

// WithAttributes restricts rendering to the named fields.
func WithAttributes(fields ...string) Option {
	return func(ix *Index) error {
		ix.attributes = append([]string(nil), fields...)
		return nil
	}
}

// WithTextTemplate renders projected objects through a text/template.
func WithTextTemplate(text string) Option {
	return func(ix *Index) error {
		if text == "" {
			ix.tmpl, ix.textTemplate = nil, ""
			return nil
		}
		t, err := template.New(ix.name).Parse(text)
		if err != nil {
			return fmt.Errorf("failed to parse text template for index %s: %w", ix.name, err)
		}
		ix.tmpl, ix.textTemplate = t, text
		return nil
	}
}

// WithKeepNulls keeps null-valued fields when rendering objects.
func WithKeepNulls(keep bool) Option {
	return func(ix *Index) error {
		ix.keepNulls = keep
		return nil
	}
}

// WithVectorLength sets the vector length hint.
func WithVectorLength(n int) Option {
	return func(ix *Index) error {
		if n <= 0 {
			return fmt.Errorf("vector length must be positive, got %d", n)
		}
		ix.vectorLength = n
		return nil
	}
}

// WithIndexField sets the field name used for persisted vectors.
func WithIndexField(field string) Option {
	return func(ix *Index) error {
		ix.indexField = field
		return nil
	}
}

// New creates an Index. A nil embedder is allowed; every embedding operation
// then fails with ErrNotImplemented.
func New(name string, embedder Embedder, opts ...Option) (*Index, error) {
	ix := &Index{
		name:         name,
		metric:       Cosine,
		vectorLength: DefaultVectorLength,
		indexField:   DefaultIndexField,
		embedder:     embedder,
	}
	for _, opt := range opts {
		if err := opt(ix); err != nil {
			return nil, err
		}
	}
	return ix, nil
}

// FromConfig creates an Index from its declarative configuration.
func FromConfig(cfg Config, embedder Embedder) (*Index, error) {
	opts := []Option{
		WithAttributes(cfg.Attributes...),
		WithTextTemplate(cfg.TextTemplate),
		WithKeepNulls(cfg.KeepNulls),
	}
	if cfg.Metric != "" {
		opts = append(opts, WithMetric(cfg.Metric))
	}
	if cfg.VectorLength > 0 {
		opts = append(opts, WithVectorLength(cfg.VectorLength))
	}
	if cfg.IndexField != "" {
		opts = append(opts, WithIndexField(cfg.IndexField))
	}
	return New(cfg.Name, embedder, opts...)
}

func (ix *Index) Name() string { return ix.name }

func (ix *Index) Metric() Metric { return ix.metric }

func (ix *Index) VectorLength() int { return ix.vectorLength }

func (ix *Index) IndexField() string { return ix.indexField }

func (ix *Index) Embedder() Embedder { return ix.embedder }

// Config returns the declarative form of the index.
func (ix *Index) Config() Config {
	return Config{
		Name:         ix.name,
		Metric:       ix.metric,
		Attributes:   append([]string(nil), ix.attributes...),
		TextTemplate: ix.textTemplate,
		KeepNulls:    ix.keepNulls,
		VectorLength: ix.vectorLength,
		IndexField:   ix.indexField,
	}
}

// ObjectToText renders obj as the text that gets embedded.
//
// The object is projected to the configured attributes, null fields are
// dropped unless KeepNulls is set, and the result goes through the text
// template, or is rendered as JSON with sorted keys when there is none.
func (ix *Index) ObjectToText(obj map[string]any) (string, error) {
	projected := make(map[string]any, len(obj))
	if len(ix.attributes) > 0 {
		for _, a := range ix.attributes {
			if v, ok := obj[a]; ok {
				projected[a] = v
			}
		}
	} else {
		for k, v := range obj {
			projected[k] = v
		}
	}
	if !ix.keepNulls {
		for k, v := range projected {
			if v == nil {
				delete(projected, k)
			}
		}
	}

	if ix.tmpl != nil {
		var buf bytes.Buffer
		if err := ix.tmpl.Execute(&buf, projected); err != nil {
			return "", fmt.Errorf("failed to render index %s template: %w", ix.name, err)
		}
		return buf.String(), nil
	}

	b, err := json.Marshal(projected)
	if err != nil {
		return "", fmt.Errorf("failed to render object for index %s: %w", ix.name, err)
	}
	return string(b), nil
}

// TextToVector embeds a single text.
func (ix *Index) TextToVector(ctx context.Context, text string) ([]float32, error) {
	if ix.embedder == nil {
		return nil, ErrNotImplemented
	}
	return ix.embedder.Embed(ctx, text)
}

// TextsToVectors embeds texts in order, in one batch when the embedder
// supports it.
func (ix *Index) TextsToVectors(ctx context.Context, texts []string) ([][]float32, error) {
	if ix.embedder == nil {
		return nil, ErrNotImplemented
	}
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if be, ok := ix.embedder.(BatchEmbedder); ok {
		vecs, err := be.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, err
		}
		if len(vecs) != len(texts) {
			return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), len(texts))
		}
		return vecs, nil
	}
	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := ix.embedder.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vecs[i] = v
	}
	return vecs, nil
}

// ObjectToVector is TextToVector(ObjectToText(obj)).
func (ix *Index) ObjectToVector(ctx context.Context, obj map[string]any) ([]float32, error) {
	if ix.embedder == nil {
		return nil, ErrNotImplemented
	}
	text, err := ix.ObjectToText(obj)
	if err != nil {
		return nil, err
	}
	return ix.TextToVector(ctx, text)
}

// ObjectsToVectors embeds every object, preserving order.
func (ix *Index) ObjectsToVectors(ctx context.Context, objs []map[string]any) ([][]float32, error) {
	if ix.embedder == nil {
		return nil, ErrNotImplemented
	}
	texts := make([]string, len(objs))
	for i, obj := range objs {
		text, err := ix.ObjectToText(obj)
		if err != nil {
			return nil, err
		}
		texts[i] = text
	}
	return ix.TextsToVectors(ctx, texts)
}

// Candidate is one (id, vector) pair to be ranked by Search.
type Candidate struct {
	ID     string
	Vector []float32
}

// Scored is a ranked search hit.
type Scored struct {
	Score float64
	ID    string
}

// Search embeds text and ranks candidates by descending similarity. Ties keep
// the candidates' input order. A positive limit truncates the result.
func (ix *Index) Search(ctx context.Context, text string, candidates []Candidate, limit int) ([]Scored, error) {
	qv, err := ix.TextToVector(ctx, text)
	if err != nil {
		return nil, err
	}
	return ix.Rank(qv, candidates, limit)
}

// Rank orders candidates by similarity to an already embedded query vector.
func (ix *Index) Rank(queryVector []float32, candidates []Candidate, limit int) ([]Scored, error) {
	out := make([]Scored, len(candidates))
	for i, c := range candidates {
		s, err := Similarity(ix.metric, queryVector, c.Vector)
		if err != nil {
			return nil, fmt.Errorf("failed to score candidate %s: %w", c.ID, err)
		}
		out[i] = Scored{Score: s, ID: c.ID}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}
