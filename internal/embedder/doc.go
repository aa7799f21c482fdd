// Package embedder generates vector embeddings for document chunks.
//
// Two providers are available:
//   - openai: OpenAI embeddings API (text-embedding-3-small, 1536 dims)
//   - local: deterministic offline vectors (384 dims), for development
//     and tests
//
// # Provider Selection
//
// NewFromEnv picks a provider from the environment:
//
//	DOCCHUNK_EMBEDDING_PROVIDER=openai|local  explicit choice
//	OPENAI_API_KEY                            enables openai auto-detection
//
// With neither set, the local provider is used.
//
// # Caching
//
// Providers share an LRU cache keyed by the SHA-256 hash of the chunk
// text, so re-ingesting unchanged documents never re-calls the API.
//
// # Retry
//
// API calls retry with exponential backoff (3 attempts, 100ms base,
// 5s cap). Context cancellation aborts the retry loop immediately.
//
// # Basic Usage
//
//	emb, err := embedder.NewFromEnv()
//	if err != nil {
//	    return err
//	}
//	defer emb.Close()
//
//	resp, err := emb.GenerateBatch(ctx, embedder.BatchEmbeddingRequest{
//	    Texts: []string{"chunk one", "chunk two"},
//	})
package embedder
