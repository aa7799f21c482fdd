// Package pipeline coordinates document ingestion.
//
// An ingestion run walks a file or directory tree, chunks each document,
// generates embeddings, and persists everything through the storage layer:
//
//	read -> chunk -> embed -> store
//
// Documents are processed concurrently by a bounded worker pool and
// committed in transactional batches. A content hash comparison skips
// documents that have not changed since the last run; ForceReindex
// overrides the skip.
//
// Only one run may execute per Pipeline at a time. Each run is tagged
// with a UUID that appears in its log lines and Statistics.
//
// # Basic Usage
//
//	p := pipeline.New(chunker.New(chunker.DefaultConfig(), logger), emb, store, logger)
//	stats, err := p.IngestPath(ctx, "plans/", nil)
package pipeline
