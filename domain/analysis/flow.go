package analysis

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"mindgraph/domain/core/entities"
	"mindgraph/domain/core/valueobjects"
)

// ProcessFlow reads a document's nodes left to right: the first start node,
// every process, decision and action node, and the first end node, sorted by
// x position and linked in sequence. Documents without a start or an end node
// have no flow.
func (a *Analyzer) ProcessFlow(doc *entities.Document) []entities.Edge {
	if doc == nil {
		a.logger.Warn("Process flow requested for missing document")
		return nil
	}

	var start, end *entities.Node
	var steps []*entities.Node
	for i := range doc.Nodes {
		node := &doc.Nodes[i]
		switch {
		case node.Type == valueobjects.NodeTypeStart:
			if start == nil {
				start = node
			}
		case node.Type == valueobjects.NodeTypeEnd:
			if end == nil {
				end = node
			}
		case node.Type.IsFlowStep():
			steps = append(steps, node)
		}
	}

	if start == nil || end == nil {
		return nil
	}

	ordered := make([]*entities.Node, 0, len(steps)+2)
	ordered = append(ordered, start)
	ordered = append(ordered, steps...)
	ordered = append(ordered, end)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Position.X < ordered[j].Position.X
	})

	edges := make([]entities.Edge, 0, len(ordered)-1)
	for i := 0; i+1 < len(ordered); i++ {
		from, to := ordered[i], ordered[i+1]
		edges = append(edges, entities.Edge{
			ID:       fmt.Sprintf("flow-%s-%s", from.ID, to.ID),
			Source:   from.ID,
			Target:   to.ID,
			Type:     valueobjects.EdgeTypeDirect,
			Strength: a.cfg.FlowStrength,
			Style:    styleOf(flowStyle),
		})
	}

	a.logger.Debug("Derived process flow",
		zap.String("documentID", doc.ID.String()),
		zap.Int("edges", len(edges)),
	)

	return edges
}
