package analysis

import (
	"fmt"
	"math"
	"sort"

	"mindgraph/domain/core/entities"
	"mindgraph/domain/core/valueobjects"
)

// TemporalConnections orders documents by creation time and links each
// document to the next one when they were created within the temporal window.
// Only neighbours in time are linked, so the result is a chain.
func (a *Analyzer) TemporalConnections(docs []*entities.Document) []entities.Edge {
	ordered := append([]*entities.Document(nil), a.usable(docs)...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Metadata.CreatedAt.Before(ordered[j].Metadata.CreatedAt)
	})

	window := a.cfg.TemporalWindow.Hours()

	var edges []entities.Edge
	for i := 0; i+1 < len(ordered); i++ {
		current, next := ordered[i], ordered[i+1]
		gap := next.Metadata.CreatedAt.Sub(current.Metadata.CreatedAt).Hours()
		if gap > window {
			continue
		}

		edges = append(edges, entities.Edge{
			ID:       pairID("step", current, next),
			Source:   current.ID.String(),
			Target:   next.ID.String(),
			Type:     valueobjects.EdgeTypeTemporal,
			Label:    fmt.Sprintf("%dh", int(math.Round(gap))),
			Strength: math.Max(a.cfg.MinTemporalStrength, 1-gap/window),
			Style:    styleOf(temporalStyle),
		})
	}

	return edges
}
