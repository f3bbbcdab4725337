// Package analysis derives weighted relationships between documents, and
// between the nodes of a single document, without touching storage.
package analysis

import (
	"fmt"

	"go.uber.org/zap"

	"mindgraph/domain/config"
	"mindgraph/domain/core/entities"
)

// Edge styles per connection category
var (
	keywordColor  = "#8B5CF6"
	temporalStyle = entities.EdgeStyle{Color: "#10B981", Width: 3, Animated: true}
	categoryStyle = entities.EdgeStyle{Color: "#F59E0B", Width: 2, DashArray: "10,5"}
	flowStyle     = entities.EdgeStyle{Color: "#3B82F6", Width: 3, Animated: true}
)

// Analyzer runs the connection heuristics. It is stateless and safe for concurrent use.
type Analyzer struct {
	cfg    *config.DomainConfig
	logger *zap.Logger
}

// NewAnalyzer creates an analyzer
func NewAnalyzer(cfg *config.DomainConfig, logger *zap.Logger) *Analyzer {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{cfg: cfg, logger: logger}
}

// Result holds the edges of every heuristic, keyed by category.
// Flows maps a document id to the process flow of its own nodes.
type Result struct {
	Keyword  []entities.Edge            `json:"keyword"`
	Temporal []entities.Edge            `json:"temporal"`
	Category []entities.Edge            `json:"category"`
	Flows    map[string][]entities.Edge `json:"flows"`
}

// Total returns the number of edges across all categories
func (r Result) Total() int {
	total := len(r.Keyword) + len(r.Temporal) + len(r.Category)
	for _, flow := range r.Flows {
		total += len(flow)
	}
	return total
}

// AnalyzeAll runs every heuristic over the documents
func (a *Analyzer) AnalyzeAll(docs []*entities.Document) Result {
	docs = a.usable(docs)

	result := Result{
		Keyword:  a.KeywordConnections(docs),
		Temporal: a.TemporalConnections(docs),
		Category: a.CategoryConnections(docs),
		Flows:    make(map[string][]entities.Edge),
	}

	for _, doc := range docs {
		if flow := a.ProcessFlow(doc); len(flow) > 0 {
			result.Flows[doc.ID.String()] = flow
		}
	}

	a.logger.Debug("Analyzed documents",
		zap.Int("documents", len(docs)),
		zap.Int("keywordEdges", len(result.Keyword)),
		zap.Int("temporalEdges", len(result.Temporal)),
		zap.Int("categoryEdges", len(result.Category)),
		zap.Int("flows", len(result.Flows)),
	)

	return result
}

// Filtered applies the post-filter to each category independently
func (a *Analyzer) Filtered(r Result, minStrength float64, maxCount int) Result {
	out := Result{
		Keyword:  FilterConnections(r.Keyword, minStrength, maxCount),
		Temporal: FilterConnections(r.Temporal, minStrength, maxCount),
		Category: FilterConnections(r.Category, minStrength, maxCount),
		Flows:    make(map[string][]entities.Edge, len(r.Flows)),
	}
	for id, flow := range r.Flows {
		out.Flows[id] = FilterConnections(flow, minStrength, maxCount)
	}
	return out
}

// Defaults returns the configured post-filter bounds
func (a *Analyzer) Defaults() (minStrength float64, maxCount int) {
	return a.cfg.MinConnectionStrength, a.cfg.MaxConnections
}

// usable drops documents that cannot take part in an analysis pass
func (a *Analyzer) usable(docs []*entities.Document) []*entities.Document {
	out := make([]*entities.Document, 0, len(docs))
	for i, doc := range docs {
		if doc == nil || doc.ID.IsZero() {
			a.logger.Warn("Skipping document without identity in analysis", zap.Int("position", i))
			continue
		}
		out = append(out, doc)
	}
	return out
}

func pairID(prefix string, a, b *entities.Document) string {
	return fmt.Sprintf("%s-%s-%s", prefix, a.ID.String(), b.ID.String())
}

func styleOf(s entities.EdgeStyle) *entities.EdgeStyle {
	return &s
}
