package services

import (
	"context"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"go.uber.org/zap"

	"mindgraph/domain/core/entities"
	"mindgraph/domain/events"
	pkgerrors "mindgraph/pkg/errors"
)

// SnapshotVersion is the format version written by Export
const SnapshotVersion = 1

// Snapshot is the portable form of one owner's data
type Snapshot struct {
	Version    int                      `json:"version"`
	ExportedAt time.Time                `json:"exportedAt"`
	Owner      string                   `json:"owner"`
	Documents  []*entities.Document     `json:"documents"`
	Keywords   []*entities.KeywordEntry `json:"keywords"`
}

// Export returns a snapshot of owner's documents, oldest first, and keyword index
func (s *DocumentStore) Export(ctx context.Context, owner string) (*Snapshot, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveStore("export", start, nil) }()

	if owner == "" {
		return nil, pkgerrors.NewValidationError("owner is required")
	}

	docs := ListFilter{SortBy: SortByCreated, Order: OrderAsc}.apply(s.ownerDocuments(ctx, "export", owner))

	return &Snapshot{
		Version:    SnapshotVersion,
		ExportedAt: s.now(),
		Owner:      owner,
		Documents:  docs,
		Keywords:   s.ownerKeywords(ctx, "export", owner),
	}, nil
}

// Import replaces owner's data with the documents of a snapshot. Documents
// keep their ids, timestamps and versions and are reassigned to owner. The
// keyword index is rebuilt from the imported stories. Nothing is written
// unless every document is valid.
func (s *DocumentStore) Import(ctx context.Context, owner string, snapshot *Snapshot) (n int, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveStore("import", start, err) }()

	if owner == "" {
		return 0, pkgerrors.NewValidationError("owner is required")
	}
	if snapshot == nil {
		return 0, pkgerrors.NewValidationError("snapshot is required")
	}
	if snapshot.Version > SnapshotVersion {
		return 0, pkgerrors.NewValidationErrorf("unsupported snapshot version %d", snapshot.Version)
	}

	docs, err := s.prepareImport(ctx, owner, snapshot.Documents)
	if err != nil {
		return 0, err
	}

	if _, err := s.clear(ctx, owner); err != nil {
		return 0, err
	}

	ix := entities.NewKeywordIndex(owner, nil, s.cfg)
	for i, doc := range docs {
		if err := s.docs.Put(ctx, doc); err != nil {
			return i, storageError("import document", err)
		}
		if doc.IsStory() {
			ix.Record(doc.ID.String(), doc.Keywords)
		}
	}

	s.indexMu.Lock()
	err = s.saveIndex(ctx, owner, ix)
	s.indexMu.Unlock()
	if err != nil {
		return len(docs), err
	}

	s.logger.Info("Owner data imported", zap.String("ownerID", owner), zap.Int("documents", len(docs)))
	s.publish(ctx, events.NewOwnerImported(owner, len(docs), s.now()))

	return len(docs), nil
}

func (s *DocumentStore) prepareImport(ctx context.Context, owner string, incoming []*entities.Document) ([]*entities.Document, error) {
	now := s.now()
	seen := mapset.NewThreadUnsafeSet[string]()
	docs := make([]*entities.Document, 0, len(incoming))

	for i, in := range incoming {
		if in == nil {
			return nil, pkgerrors.NewValidationErrorf("documents[%d]: document is missing", i)
		}

		doc := in.Clone()
		if err := doc.Adopt(owner, now, s.cfg); err != nil {
			return nil, pkgerrors.NewInternalError("failed to prepare document").WithCause(err)
		}
		if err := doc.Validate(s.cfg); err != nil {
			message := err.Error()
			if appErr := pkgerrors.GetAppError(err); appErr != nil {
				message = appErr.Message
			}
			return nil, pkgerrors.NewValidationErrorf("documents[%d]: %s", i, message)
		}
		if !seen.Add(doc.ID.String()) {
			return nil, pkgerrors.NewValidationErrorf("documents[%d]: duplicate document id %q", i, doc.ID.String())
		}

		existing, err := s.docs.GetByID(ctx, doc.ID)
		switch {
		case err == nil && existing.Owner() != owner:
			return nil, pkgerrors.NewConflictError("document id " + doc.ID.String() + " belongs to another owner")
		case err != nil && !pkgerrors.IsNotFound(err):
			return nil, storageError("get document", err)
		}

		docs = append(docs, doc)
	}

	return docs, nil
}
