package item

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepositoryDeleteByUser(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	drill := &Item{OwnerID: "owner", Name: "Drill", Available: true}
	saw := &Item{OwnerID: "other", Name: "Saw", Available: true}
	require.NoError(t, repo.Create(ctx, drill))
	require.NoError(t, repo.Create(ctx, saw))

	require.NoError(t, repo.AddComment(ctx, &Comment{ItemID: drill.ID, AuthorID: "booker", Text: "on the drill"}))
	require.NoError(t, repo.AddComment(ctx, &Comment{ItemID: saw.ID, AuthorID: "owner", Text: "by the owner"}))
	require.NoError(t, repo.AddComment(ctx, &Comment{ItemID: saw.ID, AuthorID: "booker", Text: "kept"}))

	require.NoError(t, repo.DeleteByUser(ctx, "owner"))

	_, err := repo.GetByID(ctx, drill.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	owned, err := repo.ListByOwner(ctx, "owner")
	require.NoError(t, err)
	assert.Empty(t, owned)

	found, err := repo.SearchAvailable(ctx, "")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, saw.ID, found[0].ID)

	gone, err := repo.ListComments(ctx, drill.ID)
	require.NoError(t, err)
	assert.Empty(t, gone)

	left, err := repo.ListComments(ctx, saw.ID)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "kept", left[0].Text)
}
