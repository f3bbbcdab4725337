package dynamodb

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindgraph/application/ports"
	"mindgraph/domain/core/entities"
	"mindgraph/domain/core/valueobjects"
	"mindgraph/infrastructure/persistence/repotest"
	pkgerrors "mindgraph/pkg/errors"
)

// fakeClient is an in-memory table that understands the key conditions the
// repository builds: an owner partition with a sort key prefix, or an id on
// the secondary index. Query results are paged pageSize items at a time.
type fakeClient struct {
	mu       sync.Mutex
	items    map[string]map[string]types.AttributeValue
	pageSize int
	queries  int
	queryErr error
}

func newFakeClient(pageSize int) *fakeClient {
	return &fakeClient{items: make(map[string]map[string]types.AttributeValue), pageSize: pageSize}
}

func attr(item map[string]types.AttributeValue, name string) string {
	if v, ok := item[name].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func itemKey(item map[string]types.AttributeValue) string {
	return attr(item, "PK") + "|" + attr(item, "SK")
}

func (f *fakeClient) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[itemKey(in.Item)] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeClient) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, itemKey(in.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeClient) BatchWriteItem(ctx context.Context, in *dynamodb.BatchWriteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, requests := range in.RequestItems {
		if len(requests) > maxBatchWrite {
			return nil, errors.New("too many items in batch")
		}
		for _, req := range requests {
			switch {
			case req.PutRequest != nil:
				f.items[itemKey(req.PutRequest.Item)] = req.PutRequest.Item
			case req.DeleteRequest != nil:
				delete(f.items, itemKey(req.DeleteRequest.Key))
			}
		}
	}
	return &dynamodb.BatchWriteItemOutput{}, nil
}

func (f *fakeClient) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries++
	if f.queryErr != nil {
		return nil, f.queryErr
	}

	var values []string
	for _, v := range in.ExpressionAttributeValues {
		if s, ok := v.(*types.AttributeValueMemberS); ok {
			values = append(values, s.Value)
		}
	}

	keys := make([]string, 0, len(f.items))
	for k := range f.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var matched []map[string]types.AttributeValue
	if in.IndexName != nil {
		var id string
		for _, v := range values {
			if strings.HasPrefix(v, "DOCID#") {
				id = v
			}
		}
		for _, k := range keys {
			if attr(f.items[k], "GSI1PK") == id {
				matched = append(matched, f.items[k])
			}
		}
	} else {
		var pk, prefix string
		for _, v := range values {
			if strings.HasPrefix(v, "USER#") {
				pk = v
			} else {
				prefix = v
			}
		}
		for _, k := range keys {
			item := f.items[k]
			if attr(item, "PK") == pk && strings.HasPrefix(attr(item, "SK"), prefix) {
				matched = append(matched, item)
			}
		}
	}

	start := 0
	if in.ExclusiveStartKey != nil {
		after := itemKey(in.ExclusiveStartKey)
		for i, item := range matched {
			if itemKey(item) == after {
				start = i + 1
			}
		}
	}
	matched = matched[start:]

	out := &dynamodb.QueryOutput{}
	limit := len(matched)
	if in.Limit != nil && int(*in.Limit) < limit {
		limit = int(*in.Limit)
	}
	if f.pageSize > 0 && f.pageSize < limit {
		limit = f.pageSize
		last := matched[limit-1]
		out.LastEvaluatedKey = map[string]types.AttributeValue{"PK": last["PK"], "SK": last["SK"]}
	}
	out.Items = matched[:limit]
	out.Count = int32(limit)
	return out, nil
}

func TestDocumentRepository_Contract(t *testing.T) {
	repotest.Run(t, func(t *testing.T) (ports.DocumentRepository, ports.KeywordRepository) {
		repo := NewDocumentRepository(newFakeClient(2), "mindgraph", "", nil)
		return repo, repo
	})
}

func TestDocumentRepository_ListFollowsPages(t *testing.T) {
	client := newFakeClient(1)
	repo := NewDocumentRepository(client, "mindgraph", "GSI1", nil)
	ctx := context.Background()

	for _, title := range []string{"One", "Two", "Three"} {
		require.NoError(t, repo.Put(ctx, repotest.NewDocument(t, "alice", title, valueobjects.KindMindmap)))
	}

	client.queries = 0
	docs, err := repo.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, docs, 3)
	assert.GreaterOrEqual(t, client.queries, 3)
}

func TestDocumentRepository_ItemLayout(t *testing.T) {
	client := newFakeClient(0)
	repo := NewDocumentRepository(client, "mindgraph", "", nil)
	ctx := context.Background()

	doc := repotest.NewDocument(t, "alice", "Layout", valueobjects.KindMindmap)
	require.NoError(t, repo.Put(ctx, doc))
	require.NoError(t, repo.SaveKeywords(ctx, "alice", []*entities.KeywordEntry{{OwnerID: "alice", Keyword: "bread", Frequency: 1}}, nil))

	item, ok := client.items["USER#alice|DOC#"+doc.ID.String()]
	require.True(t, ok)
	assert.Equal(t, "DOCID#"+doc.ID.String(), attr(item, "GSI1PK"))
	assert.Equal(t, "METADATA", attr(item, "GSI1SK"))
	assert.Equal(t, "DOCUMENT", attr(item, "EntityType"))

	_, ok = client.items["USER#alice|KEYWORD#bread"]
	assert.True(t, ok)

	docs, err := repo.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, docs, 1, "keyword items must not be listed as documents")
}

func TestDocumentRepository_SaveKeywordsBatches(t *testing.T) {
	client := newFakeClient(0)
	repo := NewDocumentRepository(client, "mindgraph", "", nil)
	ctx := context.Background()

	var upserts []*entities.KeywordEntry
	for i := 0; i < 60; i++ {
		upserts = append(upserts, &entities.KeywordEntry{OwnerID: "alice", Keyword: strings.Repeat("k", i+1), Frequency: 1})
	}
	require.NoError(t, repo.SaveKeywords(ctx, "alice", upserts, nil))

	entries, err := repo.ListKeywords(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, entries, 60)
}

func TestDocumentRepository_QueryFailure(t *testing.T) {
	client := newFakeClient(0)
	client.queryErr = errors.New("throttled")
	repo := NewDocumentRepository(client, "mindgraph", "", nil)

	_, err := repo.ListByOwner(context.Background(), "alice")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsStorage(err))

	assert.Error(t, repo.Ping(context.Background()))
}
