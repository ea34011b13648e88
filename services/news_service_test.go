package services

import (
	"context"
	"testing"

	"github.com/esportium/esports-arena/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateNews(t *testing.T) {
	svc := NewNewsService(newFakeNewsRepo(), nil)

	post, err := svc.Create(context.Background(), 7, CreateNewsInput{
		Title: "Grand Finals Recap",
		Body:  "What a series.",
	})
	require.NoError(t, err)

	assert.Equal(t, "grand-finals-recap", post.Slug)
	assert.Equal(t, 7, post.AuthorID)
}

func TestCreateNewsDuplicateSlug(t *testing.T) {
	svc := NewNewsService(newFakeNewsRepo(), nil)

	_, err := svc.Create(context.Background(), 7, CreateNewsInput{Title: "Patch Notes", Body: "a"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), 8, CreateNewsInput{Title: "Patch Notes", Body: "b"})
	assert.ErrorIs(t, err, ErrNewsSlugConflict)
}

func TestUpdateNewsReslugsOnTitleChange(t *testing.T) {
	svc := NewNewsService(newFakeNewsRepo(), nil)

	post, err := svc.Create(context.Background(), 7, CreateNewsInput{Title: "Old Title", Body: "text"})
	require.NoError(t, err)

	newTitle := "Brand New Title"
	updated, err := svc.Update(context.Background(), post.ID, 7, models.RolePlayer, UpdateNewsInput{Title: &newTitle})
	require.NoError(t, err)
	assert.Equal(t, "brand-new-title", updated.Slug)
}

func TestUpdateNewsForbidden(t *testing.T) {
	svc := NewNewsService(newFakeNewsRepo(), nil)

	post, err := svc.Create(context.Background(), 7, CreateNewsInput{Title: "Mine", Body: "text"})
	require.NoError(t, err)

	newTitle := "Not Yours"
	_, err = svc.Update(context.Background(), post.ID, 8, models.RolePlayer, UpdateNewsInput{Title: &newTitle})
	assert.ErrorIs(t, err, ErrForbiddenOperation)

	// Admins can edit any post.
	_, err = svc.Update(context.Background(), post.ID, 8, models.RoleAdmin, UpdateNewsInput{Title: &newTitle})
	assert.NoError(t, err)
}

func TestNewsCounters(t *testing.T) {
	svc := NewNewsService(newFakeNewsRepo(), nil)

	post, err := svc.Create(context.Background(), 7, CreateNewsInput{Title: "Counters", Body: "text"})
	require.NoError(t, err)

	for i := int64(1); i <= 3; i++ {
		views, err := svc.RegisterView(context.Background(), post.ID)
		require.NoError(t, err)
		assert.Equal(t, i, views)
	}

	likes, err := svc.RegisterLike(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), likes)

	shares, err := svc.RegisterShare(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), shares)

	_, err = svc.RegisterView(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNewsNotFound)
}
