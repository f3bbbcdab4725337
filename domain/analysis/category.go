package analysis

import (
	"go.uber.org/zap"

	"mindgraph/domain/core/entities"
	"mindgraph/domain/core/valueobjects"
)

// CategoryConnections links every pair of documents sharing a category.
// Groups are visited in order of first appearance; uncategorized documents are left out.
func (a *Analyzer) CategoryConnections(docs []*entities.Document) []entities.Edge {
	var order []string
	groups := make(map[string][]*entities.Document)
	uncategorized := 0

	for _, doc := range a.usable(docs) {
		category := doc.Metadata.Category
		if category == "" {
			uncategorized++
			continue
		}
		if _, ok := groups[category]; !ok {
			order = append(order, category)
		}
		groups[category] = append(groups[category], doc)
	}

	if uncategorized > 0 {
		a.logger.Debug("Uncategorized documents skipped for category connections", zap.Int("count", uncategorized))
	}

	var edges []entities.Edge
	for _, category := range order {
		members := groups[category]
		if len(members) < 2 {
			continue
		}
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				edges = append(edges, entities.Edge{
					ID:       pairID("category", members[i], members[j]),
					Source:   members[i].ID.String(),
					Target:   members[j].ID.String(),
					Type:     valueobjects.EdgeTypeCategory,
					Label:    category,
					Strength: a.cfg.CategoryStrength,
					Style:    styleOf(categoryStyle),
				})
			}
		}
	}

	return edges
}
