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

type contentService interface {
	List(ctx context.Context, filter models.ContentFilter) ([]models.Content, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Content, error)
	Create(ctx context.Context, req dto.CreateContentRequest) (*models.Content, error)
	Update(ctx context.Context, id string, req dto.UpdateContentRequest) (*models.Content, error)
	Delete(ctx context.Context, id string) error
}

// ContentHandler manages content item endpoints.
type ContentHandler struct {
	content contentService
}

// NewContentHandler constructs a content handler.
func NewContentHandler(content contentService) *ContentHandler {
	return &ContentHandler{content: content}
}

// List godoc
// @Summary List content items
// @Tags Content
// @Produce json
// @Param topic query string false "Topic id"
// @Param subject query string false "Subject tag"
// @Param search query string false "Search by title"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /content [get]
func (h *ContentHandler) List(c *gin.Context) {
	filter := models.ContentFilter{
		TopicID:   strings.TrimSpace(c.Query("topic")),
		Subject:   strings.TrimSpace(c.Query("subject")),
		Search:    strings.TrimSpace(c.Query("search")),
		SortBy:    c.Query("sort"),
		SortOrder: c.Query("order"),
	}
	filter.Page, filter.PageSize = pageParams(c)

	items, pagination, err := h.content.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get content item
// @Tags Content
// @Produce json
// @Param id path string true "Content ID"
// @Success 200 {object} response.Envelope
// @Router /content/{id} [get]
func (h *ContentHandler) Get(c *gin.Context) {
	item, err := h.content.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Create content item
// @Tags Content
// @Accept json
// @Produce json
// @Param payload body dto.CreateContentRequest true "Content payload"
// @Success 201 {object} response.Envelope
// @Router /content [post]
func (h *ContentHandler) Create(c *gin.Context) {
	var req dto.CreateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	item, err := h.content.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update content item
// @Tags Content
// @Accept json
// @Produce json
// @Param id path string true "Content ID"
// @Param payload body dto.UpdateContentRequest true "Content payload"
// @Success 200 {object} response.Envelope
// @Router /content/{id} [put]
func (h *ContentHandler) Update(c *gin.Context) {
	var req dto.UpdateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	item, err := h.content.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Delete godoc
// @Summary Delete content item
// @Tags Content
// @Param id path string true "Content ID"
// @Success 204
// @Router /content/{id} [delete]
func (h *ContentHandler) Delete(c *gin.Context) {
	if err := h.content.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
