package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrDocumentNotFound is returned when no persisted document exists yet.
var ErrDocumentNotFound = errors.New("document: not found")

// Repository persists a document as JSON.
type Repository struct {
	path string
}

// NewRepository creates a repository for the given file path.
func NewRepository(path string) *Repository {
	return &Repository{path: filepath.Clean(path)}
}

// Path returns the backing file.
func (r *Repository) Path() string {
	return r.path
}

// Load reads the persisted document if present.
func (r *Repository) Load() (*Document, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	doc := New()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("document: parse %s: %w", r.path, err)
	}
	doc.normalize()
	return doc, nil
}

// Save writes the document via a temp file then rename.
func (r *Repository) Save(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("document: nil document")
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return err
	}
	encoded, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, append(encoded, '\n'), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, r.path)
}
