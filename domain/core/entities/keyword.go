package entities

import (
	"math"
	"slices"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"

	"mindgraph/domain/config"
)

// KeywordEntry records which of an owner's story documents contain a keyword
type KeywordEntry struct {
	OwnerID     string   `json:"ownerId"`
	Keyword     string   `json:"keyword"`
	Frequency   int      `json:"frequency"`
	DocumentIDs []string `json:"documentIds"`
	Importance  float64  `json:"importance"`
	Category    string   `json:"category"`
}

// KeywordIndex is the in-memory working copy of one owner's keyword entries.
// It tracks which entries changed and which were pruned so a repository can
// persist only the difference.
type KeywordIndex struct {
	owner   string
	cfg     *config.DomainConfig
	entries map[string]*KeywordEntry
	changed mapset.Set[string]
	removed mapset.Set[string]
}

// NewKeywordIndex builds an index over the owner's existing entries
func NewKeywordIndex(owner string, existing []*KeywordEntry, cfg *config.DomainConfig) *KeywordIndex {
	ix := &KeywordIndex{
		owner:   owner,
		cfg:     cfg,
		entries: make(map[string]*KeywordEntry, len(existing)),
		changed: mapset.NewThreadUnsafeSet[string](),
		removed: mapset.NewThreadUnsafeSet[string](),
	}
	for _, e := range existing {
		if e == nil || e.OwnerID != owner {
			continue
		}
		entry := *e
		entry.DocumentIDs = append([]string(nil), e.DocumentIDs...)
		ix.entries[e.Keyword] = &entry
	}
	return ix
}

// Record registers a document's keywords. A new keyword starts at frequency 1
// with the default importance; a known keyword gains one occurrence, the
// document id and an importance step capped at 1.
func (ix *KeywordIndex) Record(documentID string, keywords []string) {
	seen := mapset.NewThreadUnsafeSet[string]()
	for _, keyword := range keywords {
		if keyword == "" || !seen.Add(keyword) {
			continue
		}

		if entry, ok := ix.entries[keyword]; ok {
			entry.Frequency++
			entry.DocumentIDs = append(entry.DocumentIDs, documentID)
			entry.Importance = math.Min(entry.Importance+ix.cfg.KeywordImportanceStep, 1)
		} else {
			ix.entries[keyword] = &KeywordEntry{
				OwnerID:     ix.owner,
				Keyword:     keyword,
				Frequency:   1,
				DocumentIDs: []string{documentID},
				Importance:  ix.cfg.NewKeywordImportance,
				Category:    ix.cfg.DefaultKeywordCategory,
			}
		}

		ix.changed.Add(keyword)
		ix.removed.Remove(keyword)
	}
}

// Remove drops a document from every entry. Entries left without documents are pruned.
func (ix *KeywordIndex) Remove(documentID string) {
	for keyword, entry := range ix.entries {
		ix.drop(keyword, entry, documentID)
	}
}

// Replace makes keywords the document's complete set. Keywords the document
// already had are left untouched, so re-indexing unchanged content does not
// raise importance; only newly gained keywords count as occurrences.
func (ix *KeywordIndex) Replace(documentID string, keywords []string) {
	next := mapset.NewThreadUnsafeSet[string]()
	for _, keyword := range keywords {
		if keyword != "" {
			next.Add(keyword)
		}
	}

	for keyword, entry := range ix.entries {
		if !next.Contains(keyword) {
			ix.drop(keyword, entry, documentID)
			continue
		}
		if slices.Contains(entry.DocumentIDs, documentID) {
			next.Remove(keyword)
		}
	}

	gained := next.ToSlice()
	sort.Strings(gained)
	ix.Record(documentID, gained)
}

// drop removes documentID from one entry, pruning the entry once empty
func (ix *KeywordIndex) drop(keyword string, entry *KeywordEntry, documentID string) {
	kept := entry.DocumentIDs[:0]
	dropped := 0
	for _, id := range entry.DocumentIDs {
		if id == documentID {
			dropped++
			continue
		}
		kept = append(kept, id)
	}
	if dropped == 0 {
		return
	}

	entry.DocumentIDs = kept
	entry.Frequency = max(entry.Frequency-dropped, 0)

	if len(kept) == 0 {
		delete(ix.entries, keyword)
		ix.changed.Remove(keyword)
		ix.removed.Add(keyword)
		return
	}
	ix.changed.Add(keyword)
}

// Changed returns the entries created or modified since the index was built, ordered by keyword
func (ix *KeywordIndex) Changed() []*KeywordEntry {
	out := make([]*KeywordEntry, 0, ix.changed.Cardinality())
	for _, keyword := range ix.changed.ToSlice() {
		if entry, ok := ix.entries[keyword]; ok {
			out = append(out, entry)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Keyword < out[j].Keyword })
	return out
}

// Removed returns the keywords pruned since the index was built, sorted
func (ix *KeywordIndex) Removed() []string {
	out := ix.removed.ToSlice()
	sort.Strings(out)
	return out
}

// Entries returns every entry ordered by frequency descending, then keyword
func (ix *KeywordIndex) Entries() []*KeywordEntry {
	out := make([]*KeywordEntry, 0, len(ix.entries))
	for _, entry := range ix.entries {
		out = append(out, entry)
	}
	SortKeywordEntries(out)
	return out
}

// Lookup returns the entry for a keyword
func (ix *KeywordIndex) Lookup(keyword string) (*KeywordEntry, bool) {
	entry, ok := ix.entries[keyword]
	return entry, ok
}

// SortKeywordEntries orders entries by frequency descending, then keyword ascending
func SortKeywordEntries(entries []*KeywordEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Frequency != entries[j].Frequency {
			return entries[i].Frequency > entries[j].Frequency
		}
		return entries[i].Keyword < entries[j].Keyword
	})
}
