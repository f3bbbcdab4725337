// Package memory keeps documents and keyword indexes in process memory.
package memory

import (
	"context"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"

	"mindgraph/domain/core/entities"
	"mindgraph/domain/core/valueobjects"
	pkgerrors "mindgraph/pkg/errors"
)

// Repository implements ports.DocumentRepository and ports.KeywordRepository.
// Stored values are copied on the way in and out.
type Repository struct {
	mu       sync.RWMutex
	docs     map[string]*entities.Document
	byOwner  map[string]mapset.Set[string]
	keywords map[string]map[string]*entities.KeywordEntry
}

// NewRepository creates an empty repository
func NewRepository() *Repository {
	return &Repository{
		docs:     make(map[string]*entities.Document),
		byOwner:  make(map[string]mapset.Set[string]),
		keywords: make(map[string]map[string]*entities.KeywordEntry),
	}
}

// Put stores a copy of doc
func (r *Repository) Put(ctx context.Context, doc *entities.Document) error {
	if err := ctx.Err(); err != nil {
		return pkgerrors.NewStorageError("put document", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := doc.ID.String()
	if previous, ok := r.docs[id]; ok && previous.Owner() != doc.Owner() {
		r.ownerSet(previous.Owner()).Remove(id)
	}
	r.docs[id] = doc.Clone()
	r.ownerSet(doc.Owner()).Add(id)
	return nil
}

// GetByID returns a copy of the document
func (r *Repository) GetByID(ctx context.Context, id valueobjects.DocumentID) (*entities.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, pkgerrors.NewStorageError("get document", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.docs[id.String()]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("document")
	}
	return doc.Clone(), nil
}

// ListByOwner returns copies of the owner's documents
func (r *Repository) ListByOwner(ctx context.Context, ownerID string) ([]*entities.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, pkgerrors.NewStorageError("list documents", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	ids, ok := r.byOwner[ownerID]
	if !ok {
		return []*entities.Document{}, nil
	}
	out := make([]*entities.Document, 0, ids.Cardinality())
	ids.Each(func(id string) bool {
		out = append(out, r.docs[id].Clone())
		return false
	})
	return out, nil
}

// Delete removes a document
func (r *Repository) Delete(ctx context.Context, id valueobjects.DocumentID) error {
	if err := ctx.Err(); err != nil {
		return pkgerrors.NewStorageError("delete document", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[id.String()]
	if !ok {
		return nil
	}
	delete(r.docs, id.String())
	if ids, ok := r.byOwner[doc.Owner()]; ok {
		ids.Remove(id.String())
		if ids.Cardinality() == 0 {
			delete(r.byOwner, doc.Owner())
		}
	}
	return nil
}

// ListKeywords returns copies of the owner's keyword entries
func (r *Repository) ListKeywords(ctx context.Context, ownerID string) ([]*entities.KeywordEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, pkgerrors.NewStorageError("list keywords", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := r.keywords[ownerID]
	out := make([]*entities.KeywordEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, copyEntry(e))
	}
	return out, nil
}

// SaveKeywords applies upserts and removals to the owner's keyword entries
func (r *Repository) SaveKeywords(ctx context.Context, ownerID string, upserts []*entities.KeywordEntry, removals []string) error {
	if err := ctx.Err(); err != nil {
		return pkgerrors.NewStorageError("save keywords", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entries, ok := r.keywords[ownerID]
	if !ok {
		entries = make(map[string]*entities.KeywordEntry)
		r.keywords[ownerID] = entries
	}
	for _, e := range upserts {
		entries[e.Keyword] = copyEntry(e)
	}
	for _, keyword := range removals {
		delete(entries, keyword)
	}
	if len(entries) == 0 {
		delete(r.keywords, ownerID)
	}
	return nil
}

// Ping always succeeds
func (r *Repository) Ping(ctx context.Context) error {
	return nil
}

func (r *Repository) ownerSet(owner string) mapset.Set[string] {
	ids, ok := r.byOwner[owner]
	if !ok {
		ids = mapset.NewThreadUnsafeSet[string]()
		r.byOwner[owner] = ids
	}
	return ids
}

func copyEntry(e *entities.KeywordEntry) *entities.KeywordEntry {
	out := *e
	out.DocumentIDs = append([]string(nil), e.DocumentIDs...)
	return &out
}
