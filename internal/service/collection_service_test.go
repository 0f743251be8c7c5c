package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-content-api/internal/dto"
	"github.com/noah-isme/lms-content-api/internal/models"
	"github.com/noah-isme/lms-content-api/internal/repository"
	appErrors "github.com/noah-isme/lms-content-api/pkg/errors"
)

func newCollectionServiceFixture() (*CollectionService, *mockCollectionRepo, *recordingInvalidator) {
	topics := &mockTopicRepo{items: []models.Topic{{ID: "bio", Title: "Biology"}, {ID: "chem", Title: "Chemistry"}}}
	content := &mockContentRepo{items: []models.Content{{ID: "c1", Title: "Intro", TopicID: sp("bio")}}}
	repo := &mockCollectionRepo{
		items: []models.Collection{
			{ID: "col-1", Name: "Year 7", PageRoute: sp("/year-7"), IsActive: true},
			{ID: "col-old", Name: "Archive", PageRoute: sp("/archive"), IsActive: false},
		},
		mappings: []models.CollectionContentMapping{
			{ID: "m1", CollectionID: "col-1", TopicID: sp("bio"), DisplayOrder: 0},
			{ID: "m2", CollectionID: "col-1", ContentID: sp("c1"), DisplayOrder: 4},
		},
	}
	inv := &recordingInvalidator{}
	return NewCollectionService(repo, topics, content, inv, nil, zap.NewNop()), repo, inv
}

func TestCollectionServiceCreateDefaults(t *testing.T) {
	svc, _, inv := newCollectionServiceFixture()

	collection, err := svc.Create(context.Background(), dto.CreateCollectionRequest{
		Name:           " Year 8 ",
		PageRoute:      sp("/year-8"),
		FilterCriteria: json.RawMessage(` {"showStudent": true} `),
	})
	require.NoError(t, err)
	assert.Equal(t, "Year 8", collection.Name)
	assert.Equal(t, models.DisplayGrid, collection.DisplayType)
	assert.Equal(t, "display_order", collection.SortField)
	assert.Equal(t, models.SortAsc, collection.SortOrder)
	assert.True(t, collection.IsActive)
	assert.JSONEq(t, `{"showStudent": true}`, string(collection.FilterCriteria))
	assert.Equal(t, []string{"collection created"}, inv.reasons)
}

func TestCollectionServiceCreateRejects(t *testing.T) {
	svc, _, _ := newCollectionServiceFixture()
	ctx := context.Background()

	_, err := svc.Create(ctx, dto.CreateCollectionRequest{Name: "Bad", FilterCriteria: json.RawMessage(`["showStudent"]`)})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Create(ctx, dto.CreateCollectionRequest{Name: "Dup", PageRoute: sp(" /year-7 ")})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	// Routes of inactive collections can be reused.
	_, err = svc.Create(ctx, dto.CreateCollectionRequest{Name: "Archive v2", PageRoute: sp("/archive")})
	require.NoError(t, err)

	_, err = svc.Create(ctx, dto.CreateCollectionRequest{Name: "Odd", DisplayType: "carousel"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCollectionServiceUpdateAndDeactivate(t *testing.T) {
	svc, repo, inv := newCollectionServiceFixture()
	ctx := context.Background()

	// Reactivating onto a route that is already live conflicts.
	repo.items = append(repo.items, models.Collection{ID: "col-2", Name: "New archive", PageRoute: sp("/archive"), IsActive: true})
	_, err := svc.Update(ctx, "col-old", dto.UpdateCollectionRequest{Name: "Archive", PageRoute: sp("/archive"), IsActive: models.BoolPtr(true)})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	updated, err := svc.Update(ctx, "col-1", dto.UpdateCollectionRequest{Name: "Year 7", PageRoute: sp("/year-7"), SortOrder: "desc"})
	require.NoError(t, err)
	assert.Equal(t, models.SortDesc, updated.SortOrder)

	require.NoError(t, svc.Deactivate(ctx, "col-1"))
	assert.False(t, repo.items[0].IsActive)
	assert.Equal(t, []string{"collection updated", "collection deactivated"}, inv.reasons)

	err = svc.Deactivate(ctx, "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCollectionServiceAddMapping(t *testing.T) {
	svc, repo, inv := newCollectionServiceFixture()
	ctx := context.Background()

	mapping, err := svc.AddMapping(ctx, "col-1", dto.AddMappingRequest{TopicID: sp("chem"), IsFeatured: true})
	require.NoError(t, err)
	assert.Equal(t, 5, mapping.DisplayOrder)
	assert.True(t, mapping.IsFeatured)
	assert.Len(t, repo.mappings, 3)

	card, err := svc.AddMapping(ctx, "col-1", dto.AddMappingRequest{GroupcardID: sp("card-9"), DisplayOrder: models.IntPtr(1)})
	require.NoError(t, err)
	assert.Equal(t, 1, card.DisplayOrder)
	assert.Equal(t, []string{"collection mapping added", "collection mapping added"}, inv.reasons)
}

func TestCollectionServiceAddMappingRejects(t *testing.T) {
	svc, _, _ := newCollectionServiceFixture()
	ctx := context.Background()

	cases := []struct {
		name string
		req  dto.AddMappingRequest
		code string
	}{
		{name: "no target", req: dto.AddMappingRequest{}, code: appErrors.ErrInvalidMapping.Code},
		{name: "two targets", req: dto.AddMappingRequest{TopicID: sp("chem"), ContentID: sp("c1")}, code: appErrors.ErrInvalidMapping.Code},
		{name: "unknown topic", req: dto.AddMappingRequest{TopicID: sp("physics")}, code: appErrors.ErrValidation.Code},
		{name: "duplicate", req: dto.AddMappingRequest{ContentID: sp("c1")}, code: appErrors.ErrConflict.Code},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.AddMapping(ctx, "col-1", tc.req)
			require.Error(t, err)
			assert.Equal(t, tc.code, appErrors.FromError(err).Code)
		})
	}

	_, err := svc.AddMapping(ctx, "missing", dto.AddMappingRequest{TopicID: sp("chem")})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCollectionServiceRemoveMapping(t *testing.T) {
	svc, repo, _ := newCollectionServiceFixture()
	ctx := context.Background()

	err := svc.RemoveMapping(ctx, "col-old", "m1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.RemoveMapping(ctx, "col-1", "m1"))
	assert.Len(t, repo.mappings, 1)
}

func TestCollectionServiceReorderMappings(t *testing.T) {
	svc, repo, inv := newCollectionServiceFixture()
	ctx := context.Background()

	_, err := svc.ReorderMappings(ctx, "col-1", dto.ReorderMappingsRequest{Items: []dto.MappingOrderItem{
		{MappingID: "m1", DisplayOrder: 1},
		{MappingID: "m1", DisplayOrder: 2},
	}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	mappings, err := svc.ReorderMappings(ctx, "col-1", dto.ReorderMappingsRequest{Items: []dto.MappingOrderItem{
		{MappingID: "m2", DisplayOrder: 0},
		{MappingID: "m1", DisplayOrder: 1},
	}})
	require.NoError(t, err)
	assert.Len(t, mappings, 2)
	assert.Equal(t, []repository.MappingPosition{{MappingID: "m2", DisplayOrder: 0}, {MappingID: "m1", DisplayOrder: 1}}, repo.reordered)
	assert.Equal(t, []string{"collection mappings reordered"}, inv.reasons)

	repo.reorderErr = sql.ErrNoRows
	_, err = svc.ReorderMappings(ctx, "col-1", dto.ReorderMappingsRequest{Items: []dto.MappingOrderItem{{MappingID: "m9"}}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCollectionServiceListMappingsEmpty(t *testing.T) {
	svc, _, _ := newCollectionServiceFixture()
	mappings, err := svc.ListMappings(context.Background(), "col-old")
	require.NoError(t, err)
	assert.NotNil(t, mappings)
	assert.Empty(t, mappings)
}
