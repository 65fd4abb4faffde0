package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/librumreader/librum-core/internal/errors"
	"github.com/librumreader/librum-core/internal/search"
)

func TestTagService_AddTagToBook(t *testing.T) {
	env := setupTestServices(t)
	ctx := context.Background()
	book := addTestBook(t, env, "Tagged", 10)

	tag, created, err := env.tags.AddTagToBook(ctx, book.ID(), "  Slow   Burn ")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Slow Burn", tag.Name)
	assert.Equal(t, "slow-burn", tag.Slug)

	// Same slug, different spelling: reuses the tag and is a no-op on the book.
	again, created, err := env.tags.AddTagToBook(ctx, book.ID(), "slow_burn")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, tag.ID, again.ID)

	stored, err := env.books.GetBook(ctx, book.ID())
	require.NoError(t, err)
	require.Len(t, stored.Tags(), 1)
	assert.Equal(t, "Slow Burn", stored.Tags()[0].Name)

	params := search.DefaultSearchParams()
	params.Tags = []string{"slow-burn"}
	result, err := env.books.Search(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), result.Total)
}

func TestTagService_AddTagToBook_Invalid(t *testing.T) {
	env := setupTestServices(t)
	ctx := context.Background()
	book := addTestBook(t, env, "Tagged", 10)

	_, _, err := env.tags.AddTagToBook(ctx, book.ID(), "   ")
	assert.ErrorIs(t, err, errors.ErrValidation)

	_, _, err = env.tags.AddTagToBook(ctx, book.ID(), "!!!")
	assert.ErrorIs(t, err, errors.ErrValidation, "no usable slug characters")

	_, _, err = env.tags.AddTagToBook(ctx, uuid.New(), "fine")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestTagService_RemoveTagFromBook(t *testing.T) {
	env := setupTestServices(t)
	ctx := context.Background()
	book := addTestBook(t, env, "Tagged", 10)
	tag, _, err := env.tags.AddTagToBook(ctx, book.ID(), "keep")
	require.NoError(t, err)

	require.NoError(t, env.tags.RemoveTagFromBook(ctx, book.ID(), tag.ID))

	stored, err := env.books.GetBook(ctx, book.ID())
	require.NoError(t, err)
	assert.Empty(t, stored.Tags())

	err = env.tags.RemoveTagFromBook(ctx, book.ID(), tag.ID)
	assert.ErrorIs(t, err, errors.ErrNotFound)

	// The tag itself survives with no books.
	tags, err := env.tags.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, 0, tags[0].BookCount)
}

func TestTagService_RenameTag(t *testing.T) {
	env := setupTestServices(t)
	ctx := context.Background()
	first := addTestBook(t, env, "First", 10)
	second := addTestBook(t, env, "Second", 10)

	tag, _, err := env.tags.AddTagToBook(ctx, first.ID(), "scifi")
	require.NoError(t, err)
	_, _, err = env.tags.AddTagToBook(ctx, second.ID(), "scifi")
	require.NoError(t, err)

	renamed, err := env.tags.RenameTag(ctx, tag.ID, "Science Fiction")
	require.NoError(t, err)
	assert.Equal(t, "science-fiction", renamed.Slug)

	for _, id := range []uuid.UUID{first.ID(), second.ID()} {
		data, err := env.books.ExportBook(ctx, id)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"name": "Science Fiction"`, "stored document is rewritten")
	}

	params := search.DefaultSearchParams()
	params.Query = "science fiction"
	result, err := env.books.Search(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), result.Total)
}

func TestTagService_RenameTag_Collision(t *testing.T) {
	env := setupTestServices(t)
	ctx := context.Background()
	book := addTestBook(t, env, "Tagged", 10)

	tag, _, err := env.tags.AddTagToBook(ctx, book.ID(), "one")
	require.NoError(t, err)
	_, _, err = env.tags.AddTagToBook(ctx, book.ID(), "two")
	require.NoError(t, err)

	_, err = env.tags.RenameTag(ctx, tag.ID, "Two")
	assert.ErrorIs(t, err, errors.ErrAlreadyExists)

	_, err = env.tags.RenameTag(ctx, uuid.New(), "three")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestTagService_DeleteTag(t *testing.T) {
	env := setupTestServices(t)
	ctx := context.Background()
	book := addTestBook(t, env, "Tagged", 10)

	tag, _, err := env.tags.AddTagToBook(ctx, book.ID(), "doomed")
	require.NoError(t, err)
	_, _, err = env.tags.AddTagToBook(ctx, book.ID(), "kept")
	require.NoError(t, err)

	require.NoError(t, env.tags.DeleteTag(ctx, tag.ID))

	data, err := env.books.ExportBook(ctx, book.ID())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "doomed")
	assert.Contains(t, string(data), "kept")

	assert.ErrorIs(t, env.tags.DeleteTag(ctx, tag.ID), errors.ErrNotFound)
}
