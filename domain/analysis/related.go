package analysis

import (
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"go.uber.org/zap"

	"mindgraph/domain/core/entities"
)

// ConnectedDocuments returns the documents related to target: those sharing
// at least one tag, or having a node label that contains, or is contained in,
// one of target's node labels (case-insensitive). Empty labels never match.
func (a *Analyzer) ConnectedDocuments(target *entities.Document, docs []*entities.Document) []*entities.Document {
	if target == nil {
		a.logger.Warn("Connected documents requested for missing document")
		return nil
	}

	tags := mapset.NewThreadUnsafeSet(target.Metadata.Tags...)
	labels := lowerAll(target.NodeLabels())

	var related []*entities.Document
	for _, doc := range a.usable(docs) {
		if doc.ID.Equals(target.ID) {
			continue
		}
		if sharesTag(tags, doc.Metadata.Tags) || labelsOverlap(labels, lowerAll(doc.NodeLabels())) {
			related = append(related, doc)
		}
	}

	a.logger.Debug("Resolved connected documents",
		zap.String("documentID", target.ID.String()),
		zap.Int("related", len(related)),
	)

	return related
}

func sharesTag(tags mapset.Set[string], other []string) bool {
	for _, tag := range other {
		if tags.Contains(tag) {
			return true
		}
	}
	return false
}

func labelsOverlap(left, right []string) bool {
	for _, l := range left {
		for _, r := range right {
			if strings.Contains(l, r) || strings.Contains(r, l) {
				return true
			}
		}
	}
	return false
}

func lowerAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}
