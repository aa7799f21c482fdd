package chunker

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ragkit/docchunk/pkg/types"
)

// ChunkFile reads a document from disk and chunks its contents. When
// documentID is empty it is derived from the file name without extension.
//
// Files with a .json suffix are treated specially: when the payload is an
// object with a string "content" key, that value becomes the text and the
// remaining keys become document metadata. Malformed JSON never fails the
// call; the raw bytes degrade to plain-text treatment.
func (c *Chunker) ChunkFile(path, documentID string) ([]*types.Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		c.logger.Error("failed to read document",
			"document_id", documentID,
			"path", path,
			"error", err)
		return nil, fmt.Errorf("read document %s: %w", path, err)
	}

	if documentID == "" {
		base := filepath.Base(path)
		documentID = strings.TrimSuffix(base, filepath.Ext(base))
	}

	meta := map[string]any{
		"filename":   filepath.Base(path),
		"path":       path,
		"suffix":     filepath.Ext(path),
		"size_bytes": len(data),
	}

	content := string(data)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		content = c.extractJSONContent(documentID, path, data, meta)
	}

	return c.CreateChunks(documentID, content, meta), nil
}

// extractJSONContent pulls the "content" key out of a JSON document and
// merges the remaining keys into meta. Any shape that doesn't fit (parse
// failure, missing or non-string content) degrades to the raw text.
func (c *Chunker) extractJSONContent(documentID, path string, data []byte, meta map[string]any) string {
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		c.logger.Warn("malformed JSON document, degrading to plain text",
			"document_id", documentID,
			"path", path,
			"error", err)
		return string(data)
	}

	content, ok := payload["content"].(string)
	if !ok {
		return string(data)
	}

	for k, v := range payload {
		if k != "content" {
			meta[k] = v
		}
	}
	return content
}
