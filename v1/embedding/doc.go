// Package embedding computes text embeddings through an OpenAI-compatible
// inference service and plugs them into polystore's search index.
//
// # Overview
//
// A client is constructed from a Config, usually read from the environment:
//
//	client, err := embedding.NewClient(embedding.NewConfig())
//
// *Client implements index.BatchEmbedder. Pass it to the polystore client so
// that every attached database builds its index with it:
//
//	c := client.New(client.WithEmbedder(emb))
//
// Environment:
//
//	EMBEDDING_ENDPOINT             base URL, "/embeddings" is appended
//	EMBEDDING_SERVICE_TOKEN        optional bearer token
//	EMBEDDING_MODEL                model name sent with every request
//	EMBEDDING_HTTP_TIMEOUT_SECONDS request timeout, default 30
//	EMBEDDING_BATCH_SIZE           texts per request, default unlimited
//
// Stores that size their vectors up front, such as Qdrant, take the
// dimension from a vector the model returns, so no vector length needs to be
// configured for the model.
//
// # Fx
//
// FXModule provides *Config, *Client and index.Embedder and closes the client
// on shutdown.
package embedding
