package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-content-api/internal/dto"
	"github.com/noah-isme/lms-content-api/internal/models"
	appErrors "github.com/noah-isme/lms-content-api/pkg/errors"
	"github.com/noah-isme/lms-content-api/pkg/response"
)

type collectionService interface {
	List(ctx context.Context, filter models.CollectionFilter) ([]models.Collection, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Collection, error)
	Create(ctx context.Context, req dto.CreateCollectionRequest) (*models.Collection, error)
	Update(ctx context.Context, id string, req dto.UpdateCollectionRequest) (*models.Collection, error)
	Deactivate(ctx context.Context, id string) error
	ListMappings(ctx context.Context, collectionID string) ([]models.CollectionContentMapping, error)
	AddMapping(ctx context.Context, collectionID string, req dto.AddMappingRequest) (*models.CollectionContentMapping, error)
	RemoveMapping(ctx context.Context, collectionID, mappingID string) error
	ReorderMappings(ctx context.Context, collectionID string, req dto.ReorderMappingsRequest) ([]models.CollectionContentMapping, error)
}

// CollectionHandler manages collections and their mappings.
type CollectionHandler struct {
	collections collectionService
}

// NewCollectionHandler constructs a collection handler.
func NewCollectionHandler(collections collectionService) *CollectionHandler {
	return &CollectionHandler{collections: collections}
}

// List godoc
// @Summary List collections
// @Tags Collections
// @Produce json
// @Param include_inactive query bool false "Include soft deleted collections"
// @Param route query string false "Page route"
// @Param search query string false "Search by name"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /collections [get]
func (h *CollectionHandler) List(c *gin.Context) {
	filter := models.CollectionFilter{
		IncludeInactive: queryBool(c, "include_inactive"),
		PageRoute:       strings.TrimSpace(c.Query("route")),
		Search:          strings.TrimSpace(c.Query("search")),
	}
	filter.Page, filter.PageSize = pageParams(c)

	collections, pagination, err := h.collections.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, collections, pagination)
}

// Get godoc
// @Summary Get collection
// @Tags Collections
// @Produce json
// @Param id path string true "Collection ID"
// @Success 200 {object} response.Envelope
// @Router /collections/{id} [get]
func (h *CollectionHandler) Get(c *gin.Context) {
	collection, err := h.collections.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, collection, nil)
}

// Create godoc
// @Summary Create collection
// @Tags Collections
// @Accept json
// @Produce json
// @Param payload body dto.CreateCollectionRequest true "Collection payload"
// @Success 201 {object} response.Envelope
// @Router /collections [post]
func (h *CollectionHandler) Create(c *gin.Context) {
	var req dto.CreateCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	collection, err := h.collections.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, collection)
}

// Update godoc
// @Summary Update collection
// @Tags Collections
// @Accept json
// @Produce json
// @Param id path string true "Collection ID"
// @Param payload body dto.UpdateCollectionRequest true "Collection payload"
// @Success 200 {object} response.Envelope
// @Router /collections/{id} [put]
func (h *CollectionHandler) Update(c *gin.Context) {
	var req dto.UpdateCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	collection, err := h.collections.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, collection, nil)
}

// Delete godoc
// @Summary Deactivate collection
// @Tags Collections
// @Param id path string true "Collection ID"
// @Success 204
// @Router /collections/{id} [delete]
func (h *CollectionHandler) Delete(c *gin.Context) {
	if err := h.collections.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListMappings godoc
// @Summary List collection mappings
// @Tags Collections
// @Produce json
// @Param id path string true "Collection ID"
// @Success 200 {object} response.Envelope
// @Router /collections/{id}/mappings [get]
func (h *CollectionHandler) ListMappings(c *gin.Context) {
	mappings, err := h.collections.ListMappings(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, mappings, nil)
}

// AddMapping godoc
// @Summary Place a topic, content item or group card in a collection
// @Tags Collections
// @Accept json
// @Produce json
// @Param id path string true "Collection ID"
// @Param payload body dto.AddMappingRequest true "Mapping payload"
// @Success 201 {object} response.Envelope
// @Router /collections/{id}/mappings [post]
func (h *CollectionHandler) AddMapping(c *gin.Context) {
	var req dto.AddMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	mapping, err := h.collections.AddMapping(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, mapping)
}

// RemoveMapping godoc
// @Summary Remove a collection mapping
// @Tags Collections
// @Param id path string true "Collection ID"
// @Param mappingId path string true "Mapping ID"
// @Success 204
// @Router /collections/{id}/mappings/{mappingId} [delete]
func (h *CollectionHandler) RemoveMapping(c *gin.Context) {
	if err := h.collections.RemoveMapping(c.Request.Context(), c.Param("id"), c.Param("mappingId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ReorderMappings godoc
// @Summary Reorder collection mappings
// @Tags Collections
// @Accept json
// @Produce json
// @Param id path string true "Collection ID"
// @Param payload body dto.ReorderMappingsRequest true "New order"
// @Success 200 {object} response.Envelope
// @Router /collections/{id}/mappings/order [put]
func (h *CollectionHandler) ReorderMappings(c *gin.Context) {
	var req dto.ReorderMappingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	mappings, err := h.collections.ReorderMappings(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, mappings, nil)
}
