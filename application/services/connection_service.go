package services

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sort"
	"time"

	"go.uber.org/zap"

	"mindgraph/application/ports"
	"mindgraph/domain/analysis"
	"mindgraph/domain/core/entities"
	"mindgraph/domain/core/valueobjects"
	"mindgraph/pkg/observability"
)

const analysisCacheTTL = 5 * time.Minute

// ConnectionService runs the analyzer over an owner's stored documents.
// Unfiltered results are cached per owner under a fingerprint of the documents'
// content, so any write or import naturally invalidates them.
type ConnectionService struct {
	store    *DocumentStore
	analyzer *analysis.Analyzer
	cache    ports.Cache
	metrics  *observability.Collector
	logger   *zap.Logger
}

// NewConnectionService creates a connection service. cache may be nil.
func NewConnectionService(
	store *DocumentStore,
	analyzer *analysis.Analyzer,
	cache ports.Cache,
	metrics *observability.Collector,
	logger *zap.Logger,
) *ConnectionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if analyzer == nil {
		analyzer = store.analyzer
	}
	return &ConnectionService{
		store:    store,
		analyzer: analyzer,
		cache:    cache,
		metrics:  metrics,
		logger:   logger,
	}
}

// Defaults returns the configured post-filter bounds
func (s *ConnectionService) Defaults() (float64, int) {
	return s.analyzer.Defaults()
}

// Analyze derives every connection category across owner's documents and
// applies the post-filter to each category
func (s *ConnectionService) Analyze(ctx context.Context, owner string, minStrength float64, maxCount int) (analysis.Result, error) {
	docs, err := s.analysisInput(ctx, owner)
	if err != nil {
		return analysis.Result{}, err
	}

	key := fmt.Sprintf("analysis:%s:%x", owner, fingerprint(docs))
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, key); ok {
			if result, ok := cached.(analysis.Result); ok {
				s.metrics.CacheHit()
				return s.analyzer.Filtered(result, minStrength, maxCount), nil
			}
		}
		s.metrics.CacheMiss()
	}

	result := s.analyzer.AnalyzeAll(docs)
	s.metrics.AddConnections("keyword", len(result.Keyword))
	s.metrics.AddConnections("temporal", len(result.Temporal))
	s.metrics.AddConnections("category", len(result.Category))
	for _, flow := range result.Flows {
		s.metrics.AddConnections("flow", len(flow))
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, result, analysisCacheTTL); err != nil {
			s.logger.Warn("Failed to cache analysis result", zap.String("ownerID", owner), zap.Error(err))
		}
	}

	filtered := s.analyzer.Filtered(result, minStrength, maxCount)
	s.logger.Debug("Connections analyzed",
		zap.String("ownerID", owner),
		zap.Int("documents", len(docs)),
		zap.Int("connections", filtered.Total()),
	)
	return filtered, nil
}

// Flow returns the process flow through the nodes of one of owner's documents
func (s *ConnectionService) Flow(ctx context.Context, owner string, id valueobjects.DocumentID) ([]entities.Edge, error) {
	doc, err := s.store.GetOwned(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	flow := s.analyzer.ProcessFlow(doc)
	if flow == nil {
		flow = []entities.Edge{}
	}
	return flow, nil
}

// Connected returns owner's documents related to the given one by a shared
// tag or overlapping node labels
func (s *ConnectionService) Connected(ctx context.Context, owner string, id valueobjects.DocumentID) ([]*entities.Document, error) {
	target, err := s.store.GetOwned(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	docs, err := s.analysisInput(ctx, owner)
	if err != nil {
		return nil, err
	}

	related := s.analyzer.ConnectedDocuments(target, docs)
	if related == nil {
		related = []*entities.Document{}
	}
	return related, nil
}

// analysisInput lists owner's documents oldest first with ties broken by id,
// so repeated analyses see the same order
func (s *ConnectionService) analysisInput(ctx context.Context, owner string) ([]*entities.Document, error) {
	docs, err := s.store.List(ctx, owner, ListFilter{})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(docs, func(i, j int) bool {
		a, b := docs[i].Metadata.CreatedAt, docs[j].Metadata.CreatedAt
		if !a.Equal(b) {
			return a.Before(b)
		}
		return docs[i].ID.String() < docs[j].ID.String()
	})
	return docs, nil
}

// fingerprint hashes the JSON form of the documents in their given order.
// Imports keep ids and versions, so those alone cannot identify content.
func fingerprint(docs []*entities.Document) uint64 {
	h := fnv.New64a()
	enc := json.NewEncoder(h)
	for _, doc := range docs {
		if err := enc.Encode(doc); err != nil {
			fmt.Fprintf(h, "%s@%d;", doc.ID.String(), doc.Metadata.Version)
		}
	}
	return h.Sum64()
}
