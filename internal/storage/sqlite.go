package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, storage: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

// marshalMeta serializes a metadata map for the TEXT column. Nil maps store
// as NULL.
func marshalMeta(meta map[string]any) (any, error) {
	if meta == nil {
		return nil, nil
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return string(data), nil
}

// unmarshalMeta deserializes the TEXT metadata column.
func unmarshalMeta(raw sql.NullString) (map[string]any, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var meta map[string]any
	if err := json.Unmarshal([]byte(raw.String), &meta); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return meta, nil
}

// Document operations

func upsertDocument(ctx context.Context, q querier, doc *Document) error {
	meta, err := marshalMeta(doc.Metadata)
	if err != nil {
		return err
	}

	now := time.Now()
	query := `
		INSERT INTO documents (id, source_path, content_hash, metadata, total_chunks, ingested_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source_path = excluded.source_path,
			content_hash = excluded.content_hash,
			metadata = excluded.metadata,
			total_chunks = excluded.total_chunks,
			ingested_at = excluded.ingested_at,
			updated_at = excluded.updated_at
	`
	_, err = q.ExecContext(ctx, query,
		doc.ID, doc.SourcePath, doc.ContentHash[:], meta,
		doc.TotalChunks, doc.IngestedAt, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}
	doc.UpdatedAt = now
	return nil
}

func getDocument(ctx context.Context, q querier, id string) (*Document, error) {
	query := `
		SELECT id, source_path, content_hash, metadata, total_chunks, ingested_at, created_at, updated_at
		FROM documents WHERE id = ?
	`
	row := q.QueryRowContext(ctx, query, id)
	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return doc, err
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row rowScanner) (*Document, error) {
	var (
		doc        Document
		sourcePath sql.NullString
		hash       []byte
		meta       sql.NullString
		ingestedAt sql.NullTime
	)
	err := row.Scan(&doc.ID, &sourcePath, &hash, &meta,
		&doc.TotalChunks, &ingestedAt, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return nil, err
	}

	doc.SourcePath = sourcePath.String
	copy(doc.ContentHash[:], hash)
	if ingestedAt.Valid {
		doc.IngestedAt = ingestedAt.Time
	}
	if doc.Metadata, err = unmarshalMeta(meta); err != nil {
		return nil, err
	}
	return &doc, nil
}

func listDocuments(ctx context.Context, q querier) ([]*Document, error) {
	query := `
		SELECT id, source_path, content_hash, metadata, total_chunks, ingested_at, created_at, updated_at
		FROM documents ORDER BY id
	`
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var docs []*Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func deleteDocument(ctx context.Context, q querier, id string) error {
	result, err := q.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStorage) UpsertDocument(ctx context.Context, doc *Document) error {
	return upsertDocument(ctx, s.db, doc)
}

func (s *SQLiteStorage) GetDocument(ctx context.Context, id string) (*Document, error) {
	return getDocument(ctx, s.db, id)
}

func (s *SQLiteStorage) ListDocuments(ctx context.Context) ([]*Document, error) {
	return listDocuments(ctx, s.db)
}

func (s *SQLiteStorage) DeleteDocument(ctx context.Context, id string) error {
	return deleteDocument(ctx, s.db, id)
}

func (t *sqliteTx) UpsertDocument(ctx context.Context, doc *Document) error {
	return upsertDocument(ctx, t.tx, doc)
}

func (t *sqliteTx) GetDocument(ctx context.Context, id string) (*Document, error) {
	return getDocument(ctx, t.tx, id)
}

func (t *sqliteTx) ListDocuments(ctx context.Context) ([]*Document, error) {
	return listDocuments(ctx, t.tx)
}

func (t *sqliteTx) DeleteDocument(ctx context.Context, id string) error {
	return deleteDocument(ctx, t.tx, id)
}

// Chunk operations

func insertChunk(ctx context.Context, q querier, chunk *Chunk) error {
	meta, err := marshalMeta(chunk.Metadata)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO chunks (chunk_id, document_id, chunk_index, total_chunks, content, tokens, density, chunk_type, position, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	result, err := q.ExecContext(ctx, query,
		chunk.ChunkID, chunk.DocumentID, chunk.ChunkIndex, chunk.TotalChunks,
		chunk.Content, chunk.Tokens, chunk.Density, chunk.ChunkType,
		chunk.Position, meta, now)
	if err != nil {
		return fmt.Errorf("failed to insert chunk: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	chunk.RowID = id
	chunk.CreatedAt = now
	return nil
}

func getChunk(ctx context.Context, q querier, chunkID string) (*Chunk, error) {
	query := `
		SELECT id, chunk_id, document_id, chunk_index, total_chunks, content, tokens, density, chunk_type, position, metadata, created_at
		FROM chunks WHERE chunk_id = ?
	`
	row := q.QueryRowContext(ctx, query, chunkID)
	chunk, err := scanChunk(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return chunk, err
}

func scanChunk(row rowScanner) (*Chunk, error) {
	var (
		chunk Chunk
		meta  sql.NullString
	)
	err := row.Scan(&chunk.RowID, &chunk.ChunkID, &chunk.DocumentID,
		&chunk.ChunkIndex, &chunk.TotalChunks, &chunk.Content,
		&chunk.Tokens, &chunk.Density, &chunk.ChunkType,
		&chunk.Position, &meta, &chunk.CreatedAt)
	if err != nil {
		return nil, err
	}
	if chunk.Metadata, err = unmarshalMeta(meta); err != nil {
		return nil, err
	}
	return &chunk, nil
}

func listChunksByDocument(ctx context.Context, q querier, documentID string) ([]*Chunk, error) {
	query := `
		SELECT id, chunk_id, document_id, chunk_index, total_chunks, content, tokens, density, chunk_type, position, metadata, created_at
		FROM chunks WHERE document_id = ? ORDER BY chunk_index
	`
	rows, err := q.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var chunks []*Chunk
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

func deleteChunksByDocument(ctx context.Context, q querier, documentID string) error {
	_, err := q.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", documentID)
	if err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) InsertChunk(ctx context.Context, chunk *Chunk) error {
	return insertChunk(ctx, s.db, chunk)
}

func (s *SQLiteStorage) GetChunk(ctx context.Context, chunkID string) (*Chunk, error) {
	return getChunk(ctx, s.db, chunkID)
}

func (s *SQLiteStorage) ListChunksByDocument(ctx context.Context, documentID string) ([]*Chunk, error) {
	return listChunksByDocument(ctx, s.db, documentID)
}

func (s *SQLiteStorage) DeleteChunksByDocument(ctx context.Context, documentID string) error {
	return deleteChunksByDocument(ctx, s.db, documentID)
}

func (t *sqliteTx) InsertChunk(ctx context.Context, chunk *Chunk) error {
	return insertChunk(ctx, t.tx, chunk)
}

func (t *sqliteTx) GetChunk(ctx context.Context, chunkID string) (*Chunk, error) {
	return getChunk(ctx, t.tx, chunkID)
}

func (t *sqliteTx) ListChunksByDocument(ctx context.Context, documentID string) ([]*Chunk, error) {
	return listChunksByDocument(ctx, t.tx, documentID)
}

func (t *sqliteTx) DeleteChunksByDocument(ctx context.Context, documentID string) error {
	return deleteChunksByDocument(ctx, t.tx, documentID)
}

// Embedding operations

func upsertEmbedding(ctx context.Context, q querier, embedding *Embedding) error {
	query := `
		INSERT INTO embeddings (chunk_row_id, vector, dimension, provider, model, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(chunk_row_id) DO UPDATE SET
			vector = excluded.vector,
			dimension = excluded.dimension,
			provider = excluded.provider,
			model = excluded.model
	`
	now := time.Now()
	result, err := q.ExecContext(ctx, query,
		embedding.ChunkRowID, embedding.Vector, embedding.Dimension,
		embedding.Provider, embedding.Model, now)
	if err != nil {
		return fmt.Errorf("failed to upsert embedding: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		embedding.ID = id
	}
	embedding.CreatedAt = now
	return nil
}

func getEmbedding(ctx context.Context, q querier, chunkRowID int64) (*Embedding, error) {
	query := `
		SELECT id, chunk_row_id, vector, dimension, provider, model, created_at
		FROM embeddings WHERE chunk_row_id = ?
	`
	var emb Embedding
	err := q.QueryRowContext(ctx, query, chunkRowID).Scan(
		&emb.ID, &emb.ChunkRowID, &emb.Vector, &emb.Dimension,
		&emb.Provider, &emb.Model, &emb.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &emb, nil
}

func (s *SQLiteStorage) UpsertEmbedding(ctx context.Context, embedding *Embedding) error {
	return upsertEmbedding(ctx, s.db, embedding)
}

func (s *SQLiteStorage) GetEmbedding(ctx context.Context, chunkRowID int64) (*Embedding, error) {
	return getEmbedding(ctx, s.db, chunkRowID)
}

func (t *sqliteTx) UpsertEmbedding(ctx context.Context, embedding *Embedding) error {
	return upsertEmbedding(ctx, t.tx, embedding)
}

func (t *sqliteTx) GetEmbedding(ctx context.Context, chunkRowID int64) (*Embedding, error) {
	return getEmbedding(ctx, t.tx, chunkRowID)
}

// Status operations

func getStatus(ctx context.Context, q querier) (*Status, error) {
	status := &Status{}

	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&status.DocumentsCount); err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&status.ChunksCount); err != nil {
		return nil, fmt.Errorf("failed to count chunks: %w", err)
	}
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM embeddings").Scan(&status.EmbeddingsCount); err != nil {
		return nil, fmt.Errorf("failed to count embeddings: %w", err)
	}

	// page_count * page_size approximates the on-disk size
	var pageCount, pageSize int64
	if err := q.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err == nil {
		if err := q.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize); err == nil {
			status.DBSizeBytes = pageCount * pageSize
		}
	}

	return status, nil
}

func (s *SQLiteStorage) GetStatus(ctx context.Context) (*Status, error) {
	return getStatus(ctx, s.db)
}

func (t *sqliteTx) GetStatus(ctx context.Context) (*Status, error) {
	return getStatus(ctx, t.tx)
}

// Nested transactions are not supported; callers already inside a
// transaction reuse it.
func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	return t, nil
}

func (t *sqliteTx) Close() error {
	return nil
}
