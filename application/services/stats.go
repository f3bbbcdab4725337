package services

import (
	"sort"
	"time"

	"mindgraph/domain/config"
	"mindgraph/domain/core/entities"
)

// computeStats aggregates the given documents. Top keywords are the most
// frequent tags; recent activity lists update times newest first.
func computeStats(docs []*entities.Document, cfg *config.DomainConfig) *entities.DocumentStats {
	stats := &entities.DocumentStats{
		TotalDocuments: len(docs),
		Categories:     make(map[string]int),
		TopKeywords:    []entities.KeywordCount{},
		RecentActivity: []time.Time{},
	}

	tagCounts := make(map[string]int)
	for _, doc := range docs {
		stats.TotalNodes += len(doc.Nodes)
		stats.TotalConnections += len(doc.Connections)
		// uncategorized documents count under ""
		stats.Categories[doc.Metadata.Category]++
		for _, tag := range doc.Metadata.Tags {
			tagCounts[tag]++
		}
		stats.RecentActivity = append(stats.RecentActivity, doc.Metadata.UpdatedAt)
	}

	for tag, count := range tagCounts {
		stats.TopKeywords = append(stats.TopKeywords, entities.KeywordCount{Keyword: tag, Count: count})
	}
	sort.Slice(stats.TopKeywords, func(i, j int) bool {
		if stats.TopKeywords[i].Count != stats.TopKeywords[j].Count {
			return stats.TopKeywords[i].Count > stats.TopKeywords[j].Count
		}
		return stats.TopKeywords[i].Keyword < stats.TopKeywords[j].Keyword
	})
	if len(stats.TopKeywords) > cfg.TopKeywords {
		stats.TopKeywords = stats.TopKeywords[:cfg.TopKeywords]
	}

	sort.Slice(stats.RecentActivity, func(i, j int) bool {
		return stats.RecentActivity[i].After(stats.RecentActivity[j])
	})
	if len(stats.RecentActivity) > cfg.RecentActivity {
		stats.RecentActivity = stats.RecentActivity[:cfg.RecentActivity]
	}

	return stats
}
