package analysis

import (
	"mindgraph/domain/core/entities"
)

// NetworkConnection is a derived link between two story documents
type NetworkConnection struct {
	From           string   `json:"from"`
	To             string   `json:"to"`
	Strength       float64  `json:"strength"`
	SharedKeywords []string `json:"sharedKeywords"`
}

// StoryNetwork links story documents that share extracted keywords. Strength is
// the shared count over the larger keyword list. Links are computed on every
// call and emitted once per unordered pair.
func (a *Analyzer) StoryNetwork(docs []*entities.Document) []NetworkConnection {
	var stories []*entities.Document
	for _, doc := range a.usable(docs) {
		if doc.IsStory() && len(doc.Keywords) > 0 {
			stories = append(stories, doc)
		}
	}

	var connections []NetworkConnection
	for i := 0; i < len(stories); i++ {
		for j := i + 1; j < len(stories); j++ {
			shared := intersect(stories[i].Keywords, stories[j].Keywords)
			if len(shared) == 0 {
				continue
			}
			largest := max(len(stories[i].Keywords), len(stories[j].Keywords))
			connections = append(connections, NetworkConnection{
				From:           stories[i].ID.String(),
				To:             stories[j].ID.String(),
				Strength:       float64(len(shared)) / float64(largest),
				SharedKeywords: shared,
			})
		}
	}

	return connections
}
