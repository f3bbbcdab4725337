// Package file stores every owner's documents and keyword entries in a single
// JSON file that is read and rewritten wholesale on each call.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"mindgraph/domain/core/entities"
	"mindgraph/domain/core/valueobjects"
	pkgerrors "mindgraph/pkg/errors"
)

// blob is the on-disk layout
type blob struct {
	Documents []*entities.Document     `json:"documents"`
	Keywords  []*entities.KeywordEntry `json:"keywords"`
}

// Repository implements ports.DocumentRepository and ports.KeywordRepository
// over one JSON file
type Repository struct {
	path   string
	mu     sync.Mutex
	logger *zap.Logger
}

// NewRepository creates a repository backed by the file at path. The file is
// created on the first write.
func NewRepository(path string, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{path: path, logger: logger}
}

// Put stores doc, replacing any document with the same id
func (r *Repository) Put(ctx context.Context, doc *entities.Document) error {
	return r.update("put document", func(b *blob) {
		for i, existing := range b.Documents {
			if existing.ID.Equals(doc.ID) {
				b.Documents[i] = doc
				return
			}
		}
		b.Documents = append(b.Documents, doc)
	})
}

// GetByID returns the document with the given id
func (r *Repository) GetByID(ctx context.Context, id valueobjects.DocumentID) (*entities.Document, error) {
	b, err := r.read("get document")
	if err != nil {
		return nil, err
	}
	for _, doc := range b.Documents {
		if doc.ID.Equals(id) {
			return doc, nil
		}
	}
	return nil, pkgerrors.NewNotFoundError("document")
}

// ListByOwner returns the owner's documents in file order
func (r *Repository) ListByOwner(ctx context.Context, ownerID string) ([]*entities.Document, error) {
	b, err := r.read("list documents")
	if err != nil {
		return nil, err
	}
	out := []*entities.Document{}
	for _, doc := range b.Documents {
		if doc.Owner() == ownerID {
			out = append(out, doc)
		}
	}
	return out, nil
}

// Delete removes a document
func (r *Repository) Delete(ctx context.Context, id valueobjects.DocumentID) error {
	return r.update("delete document", func(b *blob) {
		kept := b.Documents[:0]
		for _, doc := range b.Documents {
			if !doc.ID.Equals(id) {
				kept = append(kept, doc)
			}
		}
		b.Documents = kept
	})
}

// ListKeywords returns the owner's keyword entries
func (r *Repository) ListKeywords(ctx context.Context, ownerID string) ([]*entities.KeywordEntry, error) {
	b, err := r.read("list keywords")
	if err != nil {
		return nil, err
	}
	out := []*entities.KeywordEntry{}
	for _, e := range b.Keywords {
		if e.OwnerID == ownerID {
			out = append(out, e)
		}
	}
	return out, nil
}

// SaveKeywords applies upserts and removals to the owner's keyword entries
func (r *Repository) SaveKeywords(ctx context.Context, ownerID string, upserts []*entities.KeywordEntry, removals []string) error {
	drop := make(map[string]bool, len(removals)+len(upserts))
	for _, keyword := range removals {
		drop[keyword] = true
	}
	for _, e := range upserts {
		drop[e.Keyword] = true
	}

	return r.update("save keywords", func(b *blob) {
		kept := b.Keywords[:0]
		for _, e := range b.Keywords {
			if e.OwnerID != ownerID || !drop[e.Keyword] {
				kept = append(kept, e)
			}
		}
		for _, e := range upserts {
			entry := *e
			entry.OwnerID = ownerID
			kept = append(kept, &entry)
		}
		b.Keywords = kept
	})
}

// Ping checks that the file is readable
func (r *Repository) Ping(ctx context.Context) error {
	_, err := r.read("ping")
	return err
}

func (r *Repository) read(op string) (*blob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(op)
}

func (r *Repository) update(op string, mutate func(*blob)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, err := r.load(op)
	if err != nil {
		return err
	}
	mutate(b)
	return r.store(op, b)
}

// load reads the blob; a missing file is an empty store
func (r *Repository) load(op string) (*blob, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return &blob{}, nil
	}
	if err != nil {
		return nil, pkgerrors.NewStorageError(op, err)
	}

	var b blob
	if len(data) > 0 {
		if err := json.Unmarshal(data, &b); err != nil {
			r.logger.Error("Data file is corrupt", zap.String("path", r.path), zap.Error(err))
			return nil, pkgerrors.NewStorageError(op, fmt.Errorf("decode %s: %w", r.path, err))
		}
	}
	if err := b.check(); err != nil {
		r.logger.Error("Data file is corrupt", zap.String("path", r.path), zap.Error(err))
		return nil, pkgerrors.NewStorageError(op, fmt.Errorf("decode %s: %w", r.path, err))
	}
	return &b, nil
}

// check rejects blobs that decode but hold null or id-less records
func (b *blob) check() error {
	for i, doc := range b.Documents {
		if doc == nil || doc.ID.IsZero() {
			return fmt.Errorf("documents[%d] is empty", i)
		}
	}
	for i, entry := range b.Keywords {
		if entry == nil || entry.Keyword == "" {
			return fmt.Errorf("keywords[%d] is empty", i)
		}
	}
	return nil
}

// store writes through a temporary file so a crash never leaves a torn blob
func (r *Repository) store(op string, b *blob) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return pkgerrors.NewStorageError(op, err)
	}

	if dir := filepath.Dir(r.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return pkgerrors.NewStorageError(op, err)
		}
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return pkgerrors.NewStorageError(op, err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return pkgerrors.NewStorageError(op, err)
	}
	return nil
}
