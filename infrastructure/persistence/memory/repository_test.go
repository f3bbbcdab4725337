package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindgraph/application/ports"
	"mindgraph/domain/core/valueobjects"
	"mindgraph/infrastructure/persistence/repotest"
	pkgerrors "mindgraph/pkg/errors"
)

func TestRepository_Contract(t *testing.T) {
	repotest.Run(t, func(t *testing.T) (ports.DocumentRepository, ports.KeywordRepository) {
		repo := NewRepository()
		return repo, repo
	})
}

func TestRepository_ReturnsCopies(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()

	doc := repotest.NewDocument(t, "alice", "Original", valueobjects.KindMindmap)
	require.NoError(t, repo.Put(ctx, doc))

	doc.Title = "mutated after put"
	got, err := repo.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Original", got.Title)

	got.Nodes[0].Label = "mutated after get"
	again, err := repo.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Begin", again.Nodes[0].Label)
}

func TestRepository_CancelledContext(t *testing.T) {
	repo := NewRepository()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.ListByOwner(ctx, "alice")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsStorage(err))
}
