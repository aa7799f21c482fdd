// Package storage provides SQLite-based persistence for chunked documents.
//
// The storage layer manages:
//   - Document metadata and content hashes
//   - Chunk records with their density and position metadata
//   - Vector embeddings produced for chunks
//
// It exposes no retrieval or similarity queries; downstream retrieval
// engines read the persisted records through their own indexes.
//
// # Database Schema
//
// Tables:
//   - documents: Document ids, source paths, SHA-256 content hashes
//   - chunks: Chunk records keyed by "{document_id}_chunk_{n}"
//   - embeddings: Serialized float32 vectors keyed by chunk row id
//   - schema_version: Applied migration versions
//
// # Basic Usage
//
//	db, err := storage.NewSQLiteStorage("~/.docchunk/chunks.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	err = db.UpsertDocument(ctx, &storage.Document{
//	    ID:         "comp-plan-2024",
//	    SourcePath: "plans/comp-plan-2024.md",
//	})
//
// # Transactions
//
// Use transactions for atomic multi-row writes:
//
//	tx, err := db.BeginTx(ctx)
//	if err != nil {
//	    return err
//	}
//	defer func() { _ = tx.Rollback() }()
//
//	for _, chunk := range chunks {
//	    if err := tx.InsertChunk(ctx, chunk); err != nil {
//	        return err
//	    }
//	}
//	return tx.Commit()
//
// # Build Modes
//
// Two SQLite drivers are supported via build tags: mattn/go-sqlite3 when
// CGO is available, and modernc.org/sqlite as a pure Go fallback. The
// active driver is reported by the DriverName and BuildMode constants.
package storage
