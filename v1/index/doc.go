// Package index provides engine-agnostic semantic search over objects.
//
// An Index turns objects into text (ObjectToText), text into vectors through
// an injected Embedder, and ranks a caller-supplied candidate set of
// (id, vector) pairs by similarity to a query text (Search). Vectors are not
// persisted here: callers obtain them from a vector-capable store or compute
// them on the fly.
//
// Basic usage:
//
//	ix, err := index.New("simple", ngram.New(ngram.DefaultLength))
//	if err != nil {
//	    return err
//	}
//	vecs, err := ix.ObjectsToVectors(ctx, objects)
//	if err != nil {
//	    return err
//	}
//	candidates := make([]index.Candidate, len(objects))
//	for i, obj := range objects {
//	    candidates[i] = index.Candidate{ID: obj["id"].(string), Vector: vecs[i]}
//	}
//	hits, err := ix.Search(ctx, "tall person living in Berlin", candidates, 5)
//
// # Text Rendering
//
// ObjectToText decides what gets embedded. By default the object is
// rendered as canonical JSON with sorted keys and null fields dropped.
// WithAttributes restricts the rendering to some fields and WithTextTemplate
// renders a text/template instead:
//
//	ix, err := index.New("people", emb,
//	    index.WithAttributes("name", "city"),
//	    index.WithTextTemplate("{{.name}} lives in {{.city}}"),
//	)
//
// # Embedders
//
// Any function can serve as an Embedder through EmbedderFunc. Embedders that
// also implement BatchEmbedder are handed whole batches by TextsToVectors and
// ObjectsToVectors. The n-gram embedder in package ngram needs no service
// and is the default of every database; package embedding calls an
// inference service.
//
// VectorLength is a hint for embedders with a configurable output size. The
// vectors an embedder actually returns are authoritative.
//
// # Scoring
//
// Scores are cosine similarities in [-1, 1], or plain dot products with
// WithMetric(Dot). Ranking is stable: candidates with equal scores keep
// their input order. A candidate or query vector with zero magnitude is a
// domain error (ErrZeroVector) rather than a score of zero under cosine
// similarity; vectors of different lengths fail with ErrDimensionMismatch.
//
// # Configuration
//
// Config is the declarative form used in database configuration documents:
//
//	index:
//	  name: people-ix
//	  metric: cosine
//	  attributes: [name, city]
//	  text_template: "{{.name}} lives in {{.city}}"
//	  index_field: __index__
package index
