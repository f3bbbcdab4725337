package analysis

import (
	"sort"

	"mindgraph/domain/core/entities"
)

// FilterConnections keeps edges at or above minStrength, strongest first,
// and truncates to maxCount. A non-positive maxCount means no limit.
// The input slice is not modified.
func FilterConnections(edges []entities.Edge, minStrength float64, maxCount int) []entities.Edge {
	kept := make([]entities.Edge, 0, len(edges))
	for _, edge := range edges {
		if edge.Strength >= minStrength {
			kept = append(kept, edge)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Strength > kept[j].Strength
	})

	if maxCount > 0 && len(kept) > maxCount {
		kept = kept[:maxCount]
	}
	return kept
}
