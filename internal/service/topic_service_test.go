package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-content-api/internal/dto"
	"github.com/noah-isme/lms-content-api/internal/models"
	appErrors "github.com/noah-isme/lms-content-api/pkg/errors"
)

type recordingInvalidator struct {
	reasons []string
}

func (r *recordingInvalidator) Invalidate(_ context.Context, reason string) {
	r.reasons = append(r.reasons, reason)
}

func newTopicServiceFixture() (*TopicService, *mockTopicRepo, *recordingInvalidator) {
	repo := &mockTopicRepo{
		items: []models.Topic{
			{ID: "bio", Title: "Biology"},
			{ID: "cells", Title: "Cells", ParentID: sp("bio")},
			{ID: "mito", Title: "Mitochondria", ParentID: sp("cells")},
		},
		ancestors: map[string][]string{
			"cells": {"bio"},
			"mito":  {"cells", "bio"},
		},
		dependents: map[string]int{"bio": 1},
	}
	inv := &recordingInvalidator{}
	return NewTopicService(repo, inv, nil, zap.NewNop()), repo, inv
}

func TestTopicServiceCreate(t *testing.T) {
	svc, repo, inv := newTopicServiceFixture()

	topic, err := svc.Create(context.Background(), dto.CreateTopicRequest{
		Title:    "  Genetics ",
		ParentID: sp(" bio "),
		Subject:  sp("Biology"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Genetics", topic.Title)
	assert.Equal(t, "bio", models.StringValue(topic.ParentID))
	assert.Len(t, repo.items, 4)
	assert.Equal(t, []string{"topic created"}, inv.reasons)
}

func TestTopicServiceCreateValidation(t *testing.T) {
	svc, _, inv := newTopicServiceFixture()

	_, err := svc.Create(context.Background(), dto.CreateTopicRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Create(context.Background(), dto.CreateTopicRequest{Title: "Orphan", ParentID: sp("missing")})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, inv.reasons)
}

func TestTopicServiceUpdateRejectsCycles(t *testing.T) {
	svc, _, inv := newTopicServiceFixture()
	ctx := context.Background()

	_, err := svc.Update(ctx, "bio", dto.UpdateTopicRequest{Title: "Biology", ParentID: sp("bio")})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrHierarchyCycle.Code, appErrors.FromError(err).Code)

	_, err = svc.Update(ctx, "bio", dto.UpdateTopicRequest{Title: "Biology", ParentID: sp("mito")})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrHierarchyCycle)
	details, ok := appErrors.FromError(err).Details.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "mito", details["parent_id"])

	updated, err := svc.Update(ctx, "mito", dto.UpdateTopicRequest{Title: "Mitochondria", ParentID: sp("bio"), DisplayOrder: 3})
	require.NoError(t, err)
	assert.Equal(t, "bio", models.StringValue(updated.ParentID))
	assert.Equal(t, 3, updated.DisplayOrder)
	assert.Equal(t, []string{"topic updated"}, inv.reasons)
}

func TestTopicServiceUpdateNotFound(t *testing.T) {
	svc, _, _ := newTopicServiceFixture()
	_, err := svc.Update(context.Background(), "nope", dto.UpdateTopicRequest{Title: "x"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTopicServiceDelete(t *testing.T) {
	svc, repo, inv := newTopicServiceFixture()
	ctx := context.Background()

	err := svc.Delete(ctx, "bio")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.deleted)

	require.NoError(t, svc.Delete(ctx, "mito"))
	assert.Equal(t, []string{"mito"}, repo.deleted)
	assert.Equal(t, []string{"topic deleted"}, inv.reasons)
}

func TestTopicServiceList(t *testing.T) {
	svc, repo, _ := newTopicServiceFixture()

	items, pagination, err := svc.List(context.Background(), models.TopicFilter{Page: 0, PageSize: 500})
	require.NoError(t, err)
	assert.Len(t, items, 3)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 3, pagination.TotalCount)

	repo.listErr = assert.AnError
	_, _, err = svc.List(context.Background(), models.TopicFilter{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}
