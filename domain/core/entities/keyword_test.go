package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindgraph/domain/config"
)

func TestKeywordIndex_Lifecycle(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	ix := NewKeywordIndex("a@x.com", nil, cfg)

	ix.Record("doc-1", []string{"growth", "startup", "growth"})

	entry, ok := ix.Lookup("growth")
	require.True(t, ok)
	assert.Equal(t, 1, entry.Frequency)
	assert.Equal(t, 0.5, entry.Importance)
	assert.Equal(t, "general", entry.Category)
	assert.Equal(t, []string{"doc-1"}, entry.DocumentIDs)

	ix.Record("doc-2", []string{"growth"})

	entry, _ = ix.Lookup("growth")
	assert.Equal(t, 2, entry.Frequency)
	assert.InDelta(t, 0.6, entry.Importance, 1e-9)
	assert.Equal(t, []string{"doc-1", "doc-2"}, entry.DocumentIDs)

	ix.Remove("doc-1")

	_, ok = ix.Lookup("startup")
	assert.False(t, ok, "entry without documents is pruned")
	entry, _ = ix.Lookup("growth")
	assert.Equal(t, []string{"doc-2"}, entry.DocumentIDs)
	assert.Equal(t, []string{"startup"}, ix.Removed())

	changed := ix.Changed()
	require.Len(t, changed, 1)
	assert.Equal(t, "growth", changed[0].Keyword)
}

func TestKeywordIndex_ImportanceCapsAtOne(t *testing.T) {
	ix := NewKeywordIndex("a@x.com", nil, config.DefaultDomainConfig())

	for i := 0; i < 20; i++ {
		ix.Record(string(rune('a'+i)), []string{"plan"})
	}

	entry, _ := ix.Lookup("plan")
	assert.Equal(t, 20, entry.Frequency)
	assert.Equal(t, 1.0, entry.Importance)
}

func TestKeywordIndex_IgnoresOtherOwners(t *testing.T) {
	existing := []*KeywordEntry{
		{OwnerID: "a@x.com", Keyword: "mine", Frequency: 1, DocumentIDs: []string{"d1"}},
		{OwnerID: "b@x.com", Keyword: "theirs", Frequency: 1, DocumentIDs: []string{"d2"}},
	}
	ix := NewKeywordIndex("a@x.com", existing, config.DefaultDomainConfig())

	entries := ix.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "mine", entries[0].Keyword)

	entries[0].DocumentIDs[0] = "mutated"
	assert.Equal(t, "d1", existing[0].DocumentIDs[0], "index works on copies")
}

func TestKeywordIndex_RecordAfterPruneRevivesEntry(t *testing.T) {
	ix := NewKeywordIndex("a@x.com", nil, config.DefaultDomainConfig())
	ix.Record("d1", []string{"plan"})
	ix.Remove("d1")
	ix.Record("d2", []string{"plan"})

	assert.Empty(t, ix.Removed())
	require.Len(t, ix.Changed(), 1)
}

func TestKeywordIndex_ReplaceKeepsImportanceOfUnchangedKeywords(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	ix := NewKeywordIndex("a@x.com", nil, cfg)
	ix.Record("doc-1", []string{"biz", "growth"})
	ix.Record("doc-2", []string{"biz", "growth"})

	for i := 0; i < 5; i++ {
		ix.Replace("doc-2", []string{"biz", "growth"})
	}

	for _, keyword := range []string{"biz", "growth"} {
		entry, ok := ix.Lookup(keyword)
		require.True(t, ok)
		assert.Equal(t, 2, entry.Frequency)
		assert.InDelta(t, 0.6, entry.Importance, 1e-9)
		assert.Equal(t, []string{"doc-1", "doc-2"}, entry.DocumentIDs)
	}
}

func TestKeywordIndex_ReplaceSwapsKeywords(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	ix := NewKeywordIndex("a@x.com", nil, cfg)
	ix.Record("doc-1", []string{"biz", "bread"})
	ix.Record("doc-2", []string{"biz"})

	ix.Replace("doc-1", []string{"biz", "coffee"})

	_, ok := ix.Lookup("bread")
	assert.False(t, ok)
	assert.Equal(t, []string{"bread"}, ix.Removed())

	entry, _ := ix.Lookup("biz")
	assert.Equal(t, 2, entry.Frequency)
	assert.InDelta(t, 0.6, entry.Importance, 1e-9)

	entry, ok = ix.Lookup("coffee")
	require.True(t, ok)
	assert.Equal(t, 1, entry.Frequency)
	assert.Equal(t, []string{"doc-1"}, entry.DocumentIDs)

	ix.Replace("doc-2", nil)
	entry, _ = ix.Lookup("biz")
	assert.Equal(t, []string{"doc-1"}, entry.DocumentIDs)
}

func TestExtractStoryKeywords(t *testing.T) {
	story := StoryData{
		Category: "business",
		Step1:    "grow the business 무엇 성장",
		Step2:    "a b",
	}

	assert.Equal(t, []string{"business", "grow", "the", "성장"}, ExtractStoryKeywords(story, 20))
	assert.Equal(t, []string{"business", "grow"}, ExtractStoryKeywords(story, 2))
}
