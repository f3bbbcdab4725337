package services

import (
	"context"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"mindgraph/application/ports"
	"mindgraph/domain/analysis"
	"mindgraph/domain/config"
	"mindgraph/domain/core/entities"
	"mindgraph/domain/core/valueobjects"
	"mindgraph/domain/events"
	pkgerrors "mindgraph/pkg/errors"
	"mindgraph/pkg/observability"
)

// DocumentStore is the owner-scoped store of mindmap and story documents and
// of the story keyword index.
//
// Collection reads never fail because of the backend: a failing medium is
// logged and the read degrades to an empty result. Single-document reads and
// every write report storage failures to the caller.
type DocumentStore struct {
	docs      ports.DocumentRepository
	keywords  ports.KeywordRepository
	publisher ports.EventPublisher
	analyzer  *analysis.Analyzer
	cfg       *config.DomainConfig
	metrics   *observability.Collector
	logger    *zap.Logger
	now       ports.Clock

	// serializes read-modify-write cycles on keyword indexes
	indexMu sync.Mutex
}

// NewDocumentStore creates a new document store
func NewDocumentStore(
	docs ports.DocumentRepository,
	keywords ports.KeywordRepository,
	publisher ports.EventPublisher,
	analyzer *analysis.Analyzer,
	cfg *config.DomainConfig,
	metrics *observability.Collector,
	logger *zap.Logger,
) *DocumentStore {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if analyzer == nil {
		analyzer = analysis.NewAnalyzer(cfg, logger)
	}
	return &DocumentStore{
		docs:      docs,
		keywords:  keywords,
		publisher: publisher,
		analyzer:  analyzer,
		cfg:       cfg,
		metrics:   metrics,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source
func (s *DocumentStore) WithClock(clock ports.Clock) *DocumentStore {
	if clock != nil {
		s.now = clock
	}
	return s
}

// Save stores a new document for owner. The draft is not modified; the
// returned copy carries the assigned id, timestamps and version.
func (s *DocumentStore) Save(ctx context.Context, owner string, draft *entities.Document) (doc *entities.Document, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveStore("save", start, err) }()

	if draft == nil {
		return nil, pkgerrors.NewValidationError("document is required")
	}

	doc = draft.Clone()
	if err := doc.Initialize(valueobjects.NewDocumentID(), owner, s.now(), s.cfg); err != nil {
		return nil, pkgerrors.NewInternalError("failed to prepare document").WithCause(err)
	}
	if err := doc.Validate(s.cfg); err != nil {
		return nil, err
	}

	if err := s.docs.Put(ctx, doc); err != nil {
		return nil, storageError("save document", err)
	}

	if doc.IsStory() {
		if err := s.reindex(ctx, doc.Owner(), doc.ID.String(), false, doc.Keywords); err != nil {
			s.rollback(ctx, doc)
			return nil, err
		}
	}

	s.logger.Info("Document saved",
		zap.String("documentID", doc.ID.String()),
		zap.String("ownerID", doc.Owner()),
		zap.String("kind", string(doc.Kind)),
		zap.Int("nodes", len(doc.Nodes)),
	)

	s.publish(ctx, events.NewDocumentSaved(doc.ID, doc.Owner(), doc.Kind, doc.Metadata.Category, doc.Metadata.Tags, doc.Keywords, doc.Metadata.CreatedAt))

	return doc.Clone(), nil
}

// restore puts back the stored version of a document whose re-indexing failed
func (s *DocumentStore) restore(ctx context.Context, previous *entities.Document) {
	if err := s.docs.Put(ctx, previous); err != nil {
		s.logger.Error("Failed to restore document after indexing failure",
			zap.String("documentID", previous.ID.String()),
			zap.Int("version", previous.Metadata.Version),
			zap.Error(err),
		)
	}
}

// rollback removes a document whose keyword indexing failed
func (s *DocumentStore) rollback(ctx context.Context, doc *entities.Document) {
	if err := s.docs.Delete(ctx, doc.ID); err != nil {
		s.logger.Error("Failed to roll back document after indexing failure",
			zap.String("documentID", doc.ID.String()),
			zap.Error(err),
		)
	}
}

// Get retrieves a document by id regardless of owner
func (s *DocumentStore) Get(ctx context.Context, id valueobjects.DocumentID) (doc *entities.Document, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveStore("get", start, err) }()

	if id.IsZero() {
		return nil, pkgerrors.NewValidationError("document id is required")
	}

	doc, err = s.docs.GetByID(ctx, id)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, err
		}
		return nil, storageError("get document", err)
	}
	return doc, nil
}

// GetOwned retrieves a document only if owner created it. A document of
// another owner is reported as not found.
func (s *DocumentStore) GetOwned(ctx context.Context, owner string, id valueobjects.DocumentID) (*entities.Document, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Owner() != owner {
		return nil, pkgerrors.NewNotFoundError("document")
	}
	return doc, nil
}

// List returns owner's documents matching the filter
func (s *DocumentStore) List(ctx context.Context, owner string, filter ListFilter) ([]*entities.Document, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveStore("list", start, nil) }()

	if owner == "" {
		return nil, pkgerrors.NewValidationError("owner is required")
	}

	return filter.apply(s.ownerDocuments(ctx, "list", owner)), nil
}

// Search returns owner's documents whose title, description, tags or node
// labels contain query, ignoring case. An empty query matches everything.
func (s *DocumentStore) Search(ctx context.Context, owner, query string) ([]*entities.Document, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveStore("search", start, nil) }()

	if owner == "" {
		return nil, pkgerrors.NewValidationError("owner is required")
	}

	docs := s.ownerDocuments(ctx, "search", owner)
	matched := make([]*entities.Document, 0, len(docs))
	for _, doc := range docs {
		if query == "" || matchesSearch(doc, query) {
			matched = append(matched, doc)
		}
	}
	return ListFilter{}.apply(matched), nil
}

// Update merges a partial update into a stored document. The version goes up
// by one and updatedAt never moves backwards.
func (s *DocumentStore) Update(ctx context.Context, id valueobjects.DocumentID, update entities.DocumentUpdate) (doc *entities.Document, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveStore("update", start, err) }()

	if err := update.Validate(); err != nil {
		return nil, err
	}

	doc, err = s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := doc.Clone()
	wasStory := doc.IsStory()

	if err := doc.ApplyUpdate(update, s.now(), s.cfg); err != nil {
		return nil, err
	}
	if err := doc.Validate(s.cfg); err != nil {
		return nil, err
	}

	if err := s.docs.Put(ctx, doc); err != nil {
		return nil, storageError("update document", err)
	}

	if update.TouchesStory() && (wasStory || doc.IsStory()) {
		var keywords []string
		if doc.IsStory() {
			keywords = doc.Keywords
		}
		if err := s.reindex(ctx, doc.Owner(), doc.ID.String(), true, keywords); err != nil {
			s.restore(ctx, previous)
			return nil, err
		}
	}

	s.logger.Info("Document updated",
		zap.String("documentID", doc.ID.String()),
		zap.Int("version", doc.Metadata.Version),
	)

	s.publish(ctx, events.NewDocumentUpdated(doc.ID, doc.Owner(), doc.Metadata.Version, doc.Metadata.UpdatedAt))

	return doc.Clone(), nil
}

// Delete removes a document and prunes it from the keyword index. Deleting an
// absent document succeeds.
func (s *DocumentStore) Delete(ctx context.Context, id valueobjects.DocumentID) (err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveStore("delete", start, err) }()

	doc, err := s.Get(ctx, id)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil
		}
		return err
	}

	// The index is pruned first: a failed prune leaves the document in place
	// so the delete can be retried.
	var pruned []string
	var before []*entities.KeywordEntry
	if doc.IsStory() {
		pruned, before, err = s.prune(ctx, doc.Owner(), doc.ID.String())
		if err != nil {
			return err
		}
	}

	if err := s.docs.Delete(ctx, id); err != nil {
		s.restoreIndex(ctx, doc.Owner(), before)
		return storageError("delete document", err)
	}

	s.logger.Info("Document deleted",
		zap.String("documentID", id.String()),
		zap.Int("prunedKeywords", len(pruned)),
	)

	s.publish(ctx, events.NewDocumentDeleted(id, doc.Owner(), pruned, s.now()))
	return nil
}

// Stats aggregates owner's documents
func (s *DocumentStore) Stats(ctx context.Context, owner string) (*entities.DocumentStats, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveStore("stats", start, nil) }()

	if owner == "" {
		return nil, pkgerrors.NewValidationError("owner is required")
	}
	return computeStats(s.ownerDocuments(ctx, "stats", owner), s.cfg), nil
}

// Keywords returns owner's keyword index, most frequent first
func (s *DocumentStore) Keywords(ctx context.Context, owner string) ([]*entities.KeywordEntry, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveStore("keywords", start, nil) }()

	if owner == "" {
		return nil, pkgerrors.NewValidationError("owner is required")
	}
	return s.ownerKeywords(ctx, "keywords", owner), nil
}

// StoryNetwork is the view of an owner's stories and the links between them
type StoryNetwork struct {
	Stories     []*entities.Document         `json:"stories"`
	Connections []analysis.NetworkConnection `json:"connections"`
	Keywords    []*entities.KeywordEntry     `json:"keywords"`
}

// Network returns owner's story documents, the keyword links derived between
// them and the most frequent index entries
func (s *DocumentStore) Network(ctx context.Context, owner string) (*StoryNetwork, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveStore("network", start, nil) }()

	if owner == "" {
		return nil, pkgerrors.NewValidationError("owner is required")
	}

	oldestFirst := ListFilter{SortBy: SortByCreated, Order: OrderAsc}

	var stories []*entities.Document
	for _, doc := range oldestFirst.apply(s.ownerDocuments(ctx, "network", owner)) {
		if doc.IsStory() {
			stories = append(stories, doc)
		}
	}

	keywords := s.ownerKeywords(ctx, "network", owner)
	if len(keywords) > s.cfg.NetworkKeywordLimit {
		keywords = keywords[:s.cfg.NetworkKeywordLimit]
	}

	connections := s.analyzer.StoryNetwork(stories)
	if connections == nil {
		connections = []analysis.NetworkConnection{}
	}
	if stories == nil {
		stories = []*entities.Document{}
	}

	return &StoryNetwork{Stories: stories, Connections: connections, Keywords: keywords}, nil
}

// Clear removes every document and keyword entry of owner and reports how
// many documents were removed
func (s *DocumentStore) Clear(ctx context.Context, owner string) (n int, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveStore("clear", start, err) }()

	if owner == "" {
		return 0, pkgerrors.NewValidationError("owner is required")
	}

	n, err = s.clear(ctx, owner)
	if err != nil {
		return n, err
	}

	s.logger.Info("Owner data cleared", zap.String("ownerID", owner), zap.Int("documents", n))
	s.publish(ctx, events.NewOwnerCleared(owner, n, s.now()))
	return n, nil
}

func (s *DocumentStore) clear(ctx context.Context, owner string) (int, error) {
	docs, err := s.docs.ListByOwner(ctx, owner)
	if err != nil {
		return 0, storageError("list documents", err)
	}
	for i, doc := range docs {
		if err := s.docs.Delete(ctx, doc.ID); err != nil {
			return i, storageError("delete document", err)
		}
	}

	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	entries, err := s.keywords.ListKeywords(ctx, owner)
	if err != nil {
		return len(docs), storageError("load keyword index", err)
	}
	if len(entries) == 0 {
		return len(docs), nil
	}
	removals := make([]string, len(entries))
	for i, e := range entries {
		removals[i] = e.Keyword
	}
	if err := s.keywords.SaveKeywords(ctx, owner, nil, removals); err != nil {
		return len(docs), storageError("save keyword index", err)
	}
	return len(docs), nil
}

// ownerDocuments lists owner's documents, degrading to an empty list when the
// backend fails
func (s *DocumentStore) ownerDocuments(ctx context.Context, op, owner string) []*entities.Document {
	docs, err := s.docs.ListByOwner(ctx, owner)
	if err != nil {
		s.logger.Error("Failed to list documents, returning empty result",
			zap.String("operation", op),
			zap.String("ownerID", owner),
			zap.Error(err),
		)
		return []*entities.Document{}
	}
	return docs
}

func (s *DocumentStore) ownerKeywords(ctx context.Context, op, owner string) []*entities.KeywordEntry {
	entries, err := s.keywords.ListKeywords(ctx, owner)
	if err != nil {
		s.logger.Error("Failed to load keyword index, returning empty result",
			zap.String("operation", op),
			zap.String("ownerID", owner),
			zap.Error(err),
		)
		return []*entities.KeywordEntry{}
	}
	entities.SortKeywordEntries(entries)
	return entries
}

// reindex records a document's keywords, first dropping its previous
// occurrences when replace is set
func (s *DocumentStore) reindex(ctx context.Context, owner, documentID string, replace bool, keywords []string) error {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	ix, err := s.loadIndex(ctx, owner)
	if err != nil {
		return err
	}
	if replace {
		ix.Replace(documentID, keywords)
	} else {
		ix.Record(documentID, keywords)
	}
	return s.saveIndex(ctx, owner, ix)
}

// prune removes a document from the index. It returns the keywords left
// without documents and the entries that listed the document beforehand.
func (s *DocumentStore) prune(ctx context.Context, owner, documentID string) ([]string, []*entities.KeywordEntry, error) {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	existing, err := s.keywords.ListKeywords(ctx, owner)
	if err != nil {
		return nil, nil, storageError("load keyword index", err)
	}

	var before []*entities.KeywordEntry
	for _, entry := range existing {
		if entry != nil && slices.Contains(entry.DocumentIDs, documentID) {
			before = append(before, entry)
		}
	}

	ix := entities.NewKeywordIndex(owner, existing, s.cfg)
	ix.Remove(documentID)
	if err := s.saveIndex(ctx, owner, ix); err != nil {
		return nil, nil, err
	}
	return ix.Removed(), before, nil
}

// restoreIndex writes back entries pruned for a document that could not be deleted
func (s *DocumentStore) restoreIndex(ctx context.Context, owner string, entries []*entities.KeywordEntry) {
	if len(entries) == 0 {
		return
	}

	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	if err := s.keywords.SaveKeywords(ctx, owner, entries, nil); err != nil {
		s.logger.Error("Failed to restore keyword index after delete failure",
			zap.String("ownerID", owner),
			zap.Int("entries", len(entries)),
			zap.Error(err),
		)
	}
}

func (s *DocumentStore) loadIndex(ctx context.Context, owner string) (*entities.KeywordIndex, error) {
	existing, err := s.keywords.ListKeywords(ctx, owner)
	if err != nil {
		return nil, storageError("load keyword index", err)
	}
	return entities.NewKeywordIndex(owner, existing, s.cfg), nil
}

func (s *DocumentStore) saveIndex(ctx context.Context, owner string, ix *entities.KeywordIndex) error {
	upserts, removals := ix.Changed(), ix.Removed()
	if len(upserts) == 0 && len(removals) == 0 {
		return nil
	}
	if err := s.keywords.SaveKeywords(ctx, owner, upserts, removals); err != nil {
		return storageError("save keyword index", err)
	}
	return nil
}

func (s *DocumentStore) publish(ctx context.Context, event events.DomainEvent) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(ctx, event)
	s.metrics.EventPublished(event.GetEventType(), err)
	if err != nil {
		s.logger.Warn("Failed to publish event",
			zap.String("eventType", event.GetEventType()),
			zap.String("aggregateID", event.GetAggregateID()),
			zap.Error(err),
		)
	}
}

// storageError keeps errors repositories already classified and wraps the rest
func storageError(op string, err error) error {
	if pkgerrors.IsAppError(err) {
		return err
	}
	return pkgerrors.NewStorageError(op, err)
}
