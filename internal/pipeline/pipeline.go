package pipeline

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ragkit/docchunk/internal/chunker"
	"github.com/ragkit/docchunk/internal/embedder"
	"github.com/ragkit/docchunk/internal/storage"
)

// Document file extensions accepted by the walker
var chunkableExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".json": true,
}

// Pipeline coordinates ingestion: read -> chunk -> embed -> store
type Pipeline struct {
	chunker *chunker.Chunker
	embed   embedder.Embedder
	storage storage.Storage
	logger  *slog.Logger

	workers int
	lock    IngestLock
}

// Config contains configuration for an ingestion run
type Config struct {
	Workers      int  // Number of concurrent workers (default: runtime.NumCPU())
	BatchSize    int  // Number of documents to commit per transaction (default: 20)
	SkipEmbed    bool // Persist chunks without generating embeddings
	ForceReindex bool // Re-chunk documents whose content hash is unchanged
}

// Statistics contains statistics about one ingestion run
type Statistics struct {
	RunID             string
	DocumentsIngested int
	DocumentsSkipped  int
	DocumentsFailed   int
	ChunksCreated     int
	EmbeddingsCreated int
	Duration          time.Duration
	ErrorMessages     []string
}

// New creates a new Pipeline instance
func New(ch *chunker.Chunker, embed embedder.Embedder, store storage.Storage, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		chunker: ch,
		embed:   embed,
		storage: store,
		logger:  logger,
		workers: runtime.NumCPU(),
	}
}

// IngestPath ingests a file or a directory tree of documents
func (p *Pipeline) IngestPath(ctx context.Context, rootPath string, config *Config) (*Statistics, error) {
	if config == nil {
		config = &Config{}
	}
	if config.Workers <= 0 {
		config.Workers = runtime.NumCPU()
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 20
	}
	p.workers = config.Workers

	// One ingestion run at a time per pipeline
	if !p.lock.TryAcquire() {
		return nil, fmt.Errorf("ingestion already in progress")
	}
	defer p.lock.Release()

	startTime := time.Now()
	stats := &Statistics{
		RunID:         uuid.NewString(),
		ErrorMessages: make([]string, 0),
	}
	p.logger.Info("starting ingestion run", "run_id", stats.RunID, "path", rootPath)

	files, err := discoverDocuments(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to discover documents: %w", err)
	}

	if err := p.ingestFiles(ctx, files, config, stats); err != nil {
		return nil, fmt.Errorf("failed to ingest documents: %w", err)
	}

	stats.Duration = time.Since(startTime)
	p.logger.Info("ingestion run complete",
		"run_id", stats.RunID,
		"ingested", stats.DocumentsIngested,
		"skipped", stats.DocumentsSkipped,
		"failed", stats.DocumentsFailed,
		"chunks", stats.ChunksCreated,
		"duration", stats.Duration)
	return stats, nil
}

// discoverDocuments finds all chunkable files under rootPath. A direct file
// path is accepted as a single-document run.
func discoverDocuments(rootPath string) ([]string, error) {
	info, err := os.Stat(rootPath)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{rootPath}, nil
	}

	var files []string
	err = filepath.Walk(rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			// Skip hidden directories
			if strings.HasPrefix(info.Name(), ".") && path != rootPath {
				return filepath.SkipDir
			}
			return nil
		}

		if chunkableExtensions[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}

// ingestFiles processes documents concurrently in transactional batches
func (p *Pipeline) ingestFiles(ctx context.Context, files []string, config *Config, stats *Statistics) error {
	semaphore := make(chan struct{}, p.workers)

	var (
		ingested   int32
		skipped    int32
		failed     int32
		chunks     int32
		embeddings int32
	)

	g, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex // Protect stats.ErrorMessages

	for i := 0; i < len(files); i += config.BatchSize {
		end := i + config.BatchSize
		if end > len(files) {
			end = len(files)
		}
		batch := files[i:end]

		g.Go(func() error {
			return p.ingestBatch(gctx, batch, config, semaphore,
				&ingested, &skipped, &failed, &chunks, &embeddings, &mu, stats)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	stats.DocumentsIngested = int(ingested)
	stats.DocumentsSkipped = int(skipped)
	stats.DocumentsFailed = int(failed)
	stats.ChunksCreated = int(chunks)
	stats.EmbeddingsCreated = int(embeddings)
	return nil
}

// ingestBatch ingests a batch of documents within a transaction
func (p *Pipeline) ingestBatch(ctx context.Context, files []string, config *Config,
	semaphore chan struct{}, ingested, skipped, failed, chunks, embeddings *int32,
	mu *sync.Mutex, stats *Statistics) error {

	tx, err := p.storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, filePath := range files {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case semaphore <- struct{}{}:
		}

		err := p.ingestFile(ctx, tx, filePath, config, ingested, skipped, chunks, embeddings)
		<-semaphore

		if err != nil {
			atomic.AddInt32(failed, 1)
			p.logger.Warn("document ingestion failed", "path", filePath, "error", err)
			mu.Lock()
			stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %v", filePath, err))
			mu.Unlock()
			continue
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ingestFile chunks, embeds, and stores a single document
func (p *Pipeline) ingestFile(ctx context.Context, store storage.Storage, filePath string,
	config *Config, ingested, skipped, chunks, embeddings *int32) error {

	content, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	hash := sha256.Sum256(content)

	documentID := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))

	// Skip unchanged documents unless forced
	if !config.ForceReindex {
		existing, err := store.GetDocument(ctx, documentID)
		if err == nil && existing.ContentHash == hash {
			atomic.AddInt32(skipped, 1)
			return nil
		}
		if err != nil && err != storage.ErrNotFound {
			return err
		}
	}

	records, err := p.chunker.ChunkFile(filePath, documentID)
	if err != nil {
		return err
	}

	doc := &storage.Document{
		ID:          documentID,
		SourcePath:  filePath,
		ContentHash: hash,
		TotalChunks: len(records),
		IngestedAt:  time.Now(),
	}
	if err := store.UpsertDocument(ctx, doc); err != nil {
		return err
	}

	// Replace any chunks from a previous version of the document
	if err := store.DeleteChunksByDocument(ctx, documentID); err != nil {
		return err
	}

	stored := make([]*storage.Chunk, 0, len(records))
	for _, record := range records {
		chunk := storage.FromTypesChunk(record)
		if err := store.InsertChunk(ctx, chunk); err != nil {
			return fmt.Errorf("failed to store chunk %s: %w", chunk.ChunkID, err)
		}
		stored = append(stored, chunk)
	}
	atomic.AddInt32(chunks, int32(len(stored)))

	if !config.SkipEmbed && p.embed != nil && len(stored) > 0 {
		count, err := p.embedChunks(ctx, store, stored)
		if err != nil {
			return err
		}
		atomic.AddInt32(embeddings, int32(count))
	}

	atomic.AddInt32(ingested, 1)
	return nil
}

// embedChunks generates and stores embeddings for a document's chunks in
// provider-sized batches
func (p *Pipeline) embedChunks(ctx context.Context, store storage.Storage, chunks []*storage.Chunk) (int, error) {
	count := 0
	for i := 0; i < len(chunks); i += embedder.DefaultBatchSize {
		end := i + embedder.DefaultBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[i:end]

		texts := make([]string, len(batch))
		for j, chunk := range batch {
			texts[j] = chunk.Content
		}

		resp, err := p.embed.GenerateBatch(ctx, embedder.BatchEmbeddingRequest{Texts: texts})
		if err != nil {
			return count, fmt.Errorf("failed to embed chunks: %w", err)
		}

		for j, emb := range resp.Embeddings {
			record := &storage.Embedding{
				ChunkRowID: batch[j].RowID,
				Vector:     storage.SerializeVector(emb.Vector),
				Dimension:  emb.Dimension,
				Provider:   resp.Provider,
				Model:      resp.Model,
			}
			if err := store.UpsertEmbedding(ctx, record); err != nil {
				return count, fmt.Errorf("failed to store embedding: %w", err)
			}
			count++
		}
	}
	return count, nil
}
