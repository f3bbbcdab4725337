package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindgraph/application/ports"
	"mindgraph/domain/core/valueobjects"
	"mindgraph/infrastructure/persistence/repotest"
)

func setupTestRedis(t *testing.T) (*Repository, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	client, err := NewClient(context.Background(), "redis://"+s.Addr())
	require.NoError(t, err)

	repo := NewRepository(client, nil)
	t.Cleanup(func() { _ = repo.Close() })
	return repo, s
}

func TestRepository_Contract(t *testing.T) {
	repotest.Run(t, func(t *testing.T) (ports.DocumentRepository, ports.KeywordRepository) {
		repo, _ := setupTestRedis(t)
		return repo, repo
	})
}

func TestRepository_KeyLayout(t *testing.T) {
	repo, s := setupTestRedis(t)
	ctx := context.Background()

	doc := repotest.NewDocument(t, "alice", "Layout", valueobjects.KindMindmap)
	require.NoError(t, repo.Put(ctx, doc))

	assert.True(t, s.Exists("mindgraph:doc:"+doc.ID.String()))
	members, err := s.Members("mindgraph:owner:alice:docs")
	require.NoError(t, err)
	assert.Equal(t, []string{doc.ID.String()}, members)

	require.NoError(t, repo.Delete(ctx, doc.ID))
	assert.False(t, s.Exists("mindgraph:doc:"+doc.ID.String()))
}

func TestRepository_SkipsDanglingOwnerEntries(t *testing.T) {
	repo, s := setupTestRedis(t)
	ctx := context.Background()

	doc := repotest.NewDocument(t, "alice", "Kept", valueobjects.KindMindmap)
	require.NoError(t, repo.Put(ctx, doc))
	_, err := s.SAdd("mindgraph:owner:alice:docs", "vanished")
	require.NoError(t, err)

	docs, err := repo.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Kept", docs[0].Title)
}

func TestRepository_PingFailsWhenServerStops(t *testing.T) {
	repo, s := setupTestRedis(t)
	require.NoError(t, repo.Ping(context.Background()))

	s.Close()
	assert.Error(t, repo.Ping(context.Background()))
}
