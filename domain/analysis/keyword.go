package analysis

import (
	"math"
	"strings"
	"unicode/utf8"

	mapset "github.com/deckarep/golang-set/v2"

	"mindgraph/domain/core/entities"
	"mindgraph/domain/core/valueobjects"
)

// KeywordConnections links every unordered pair of documents that share a tag
// or a node keyword. One edge per pair, source is the earlier document.
func (a *Analyzer) KeywordConnections(docs []*entities.Document) []entities.Edge {
	docs = a.usable(docs)

	keywords := make([][]string, len(docs))
	for i, doc := range docs {
		keywords[i] = a.ExtractKeywords(doc.Nodes)
	}

	var edges []entities.Edge
	for i := 0; i < len(docs); i++ {
		for j := i + 1; j < len(docs); j++ {
			sharedTags := intersect(docs[i].Metadata.Tags, docs[j].Metadata.Tags)
			sharedKeywords := intersect(keywords[i], keywords[j])
			if len(sharedTags) == 0 && len(sharedKeywords) == 0 {
				continue
			}

			strength := math.Min(1,
				a.cfg.SharedTagWeight*float64(len(sharedTags))+
					a.cfg.SharedKeywordWeight*float64(len(sharedKeywords))+
					a.cfg.NodeCountWeight*float64(min(len(docs[i].Nodes), len(docs[j].Nodes))),
			)

			var label string
			if len(sharedTags) > 0 {
				label = sharedTags[0]
			} else {
				label = sharedKeywords[0]
			}

			edges = append(edges, entities.Edge{
				ID:       pairID("keyword", docs[i], docs[j]),
				Source:   docs[i].ID.String(),
				Target:   docs[j].ID.String(),
				Type:     valueobjects.EdgeTypeKeyword,
				Label:    label,
				Strength: strength,
				Style: &entities.EdgeStyle{
					Color:     keywordColor,
					Width:     math.Max(1, strength*4),
					DashArray: "5,5",
					Animated:  strength > 0.7,
				},
			})
		}
	}

	return edges
}

// ExtractKeywords lower-cases node labels and descriptions, splits them on
// whitespace and keeps distinct tokens longer than the configured minimum.
func (a *Analyzer) ExtractKeywords(nodes []entities.Node) []string {
	seen := mapset.NewThreadUnsafeSet[string]()
	var out []string

	add := func(text string) {
		for _, token := range strings.Fields(strings.ToLower(text)) {
			if utf8.RuneCountInString(token) <= a.cfg.MinKeywordLength || !seen.Add(token) {
				continue
			}
			out = append(out, token)
		}
	}

	for _, node := range nodes {
		add(node.Label)
		add(node.Description)
	}

	return out
}

// intersect returns the elements of left that also occur in right, in left's order
func intersect(left, right []string) []string {
	if len(left) == 0 || len(right) == 0 {
		return nil
	}
	rightSet := mapset.NewThreadUnsafeSet(right...)
	emitted := mapset.NewThreadUnsafeSet[string]()

	var out []string
	for _, item := range left {
		if rightSet.Contains(item) && emitted.Add(item) {
			out = append(out, item)
		}
	}
	return out
}
