package service

import (
	"context"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-content-api/internal/dto"
	"github.com/noah-isme/lms-content-api/internal/models"
	appErrors "github.com/noah-isme/lms-content-api/pkg/errors"
)

func newContentServiceFixture() (*ContentService, *mockContentRepo, *recordingInvalidator) {
	topics := &mockTopicRepo{items: []models.Topic{{ID: "bio", Title: "Biology"}}}
	repo := &mockContentRepo{
		items: []models.Content{
			{ID: "c1", Title: "Intro", TopicID: sp("bio")},
			{ID: "c2", Title: "Quiz", ParentID: sp("c1"), TopicID: sp("bio")},
		},
		children: map[string]int{"c1": 1},
	}
	inv := &recordingInvalidator{}
	return NewContentService(repo, topics, inv, nil, zap.NewNop()), repo, inv
}

func TestContentServiceCreateNormalisesSubjects(t *testing.T) {
	svc, repo, inv := newContentServiceFixture()

	item, err := svc.Create(context.Background(), dto.CreateContentRequest{
		Title:       "Cell walls",
		TopicID:     sp("bio"),
		ParentID:    sp("c1"),
		Subjects:    []string{" Biology", "", "Chemistry", "Biology "},
		ShowStudent: true,
	})
	require.NoError(t, err)
	assert.Equal(t, pq.StringArray{"Biology", "Chemistry"}, item.Subjects)
	assert.True(t, item.ShowStudent)
	assert.Len(t, repo.items, 3)
	assert.Equal(t, []string{"content created"}, inv.reasons)
}

func TestContentServiceReferences(t *testing.T) {
	svc, _, inv := newContentServiceFixture()
	ctx := context.Background()

	_, err := svc.Create(ctx, dto.CreateContentRequest{Title: "Lost", TopicID: sp("physics")})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Create(ctx, dto.CreateContentRequest{Title: "Lost", ParentID: sp("c9")})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Update(ctx, "c1", dto.UpdateContentRequest{Title: "Intro", ParentID: sp("c1")})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrHierarchyCycle.Code, appErrors.FromError(err).Code)
	assert.Empty(t, inv.reasons)
}

func TestContentServiceUpdate(t *testing.T) {
	svc, repo, inv := newContentServiceFixture()

	item, err := svc.Update(context.Background(), "c2", dto.UpdateContentRequest{Title: " Final quiz ", TopicID: sp("bio"), DisplayOrder: 4})
	require.NoError(t, err)
	assert.Equal(t, "Final quiz", item.Title)
	assert.Nil(t, item.ParentID)
	assert.Equal(t, "Final quiz", repo.items[1].Title)
	assert.Equal(t, []string{"content updated"}, inv.reasons)
}

func TestContentServiceDelete(t *testing.T) {
	svc, repo, inv := newContentServiceFixture()
	ctx := context.Background()

	err := svc.Delete(ctx, "c1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)

	err = svc.Delete(ctx, "c9")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.Delete(ctx, "c2"))
	assert.Equal(t, []string{"c2"}, repo.deleted)
	assert.Equal(t, []string{"content deleted"}, inv.reasons)
}
