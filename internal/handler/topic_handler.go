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

type topicService interface {
	List(ctx context.Context, filter models.TopicFilter) ([]models.Topic, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Topic, error)
	Create(ctx context.Context, req dto.CreateTopicRequest) (*models.Topic, error)
	Update(ctx context.Context, id string, req dto.UpdateTopicRequest) (*models.Topic, error)
	Delete(ctx context.Context, id string) error
}

// TopicHandler manages topic endpoints.
type TopicHandler struct {
	topics topicService
}

// NewTopicHandler constructs a topic handler.
func NewTopicHandler(topics topicService) *TopicHandler {
	return &TopicHandler{topics: topics}
}

// List godoc
// @Summary List topics
// @Tags Topics
// @Produce json
// @Param parent query string false "Parent topic id, or root"
// @Param subject query string false "Subject"
// @Param search query string false "Search by title"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /topics [get]
func (h *TopicHandler) List(c *gin.Context) {
	var filter models.TopicFilter
	if parent := strings.TrimSpace(c.Query("parent")); parent == "root" {
		filter.RootsOnly = true
	} else {
		filter.ParentID = parent
	}
	filter.Subject = strings.TrimSpace(c.Query("subject"))
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Page, filter.PageSize = pageParams(c)
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	topics, pagination, err := h.topics.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, topics, pagination)
}

// Get godoc
// @Summary Get topic detail
// @Tags Topics
// @Produce json
// @Param id path string true "Topic ID"
// @Success 200 {object} response.Envelope
// @Router /topics/{id} [get]
func (h *TopicHandler) Get(c *gin.Context) {
	topic, err := h.topics.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, topic, nil)
}

// Create godoc
// @Summary Create topic
// @Tags Topics
// @Accept json
// @Produce json
// @Param payload body dto.CreateTopicRequest true "Topic payload"
// @Success 201 {object} response.Envelope
// @Router /topics [post]
func (h *TopicHandler) Create(c *gin.Context) {
	var req dto.CreateTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	topic, err := h.topics.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, topic)
}

// Update godoc
// @Summary Update topic
// @Tags Topics
// @Accept json
// @Produce json
// @Param id path string true "Topic ID"
// @Param payload body dto.UpdateTopicRequest true "Topic payload"
// @Success 200 {object} response.Envelope
// @Router /topics/{id} [put]
func (h *TopicHandler) Update(c *gin.Context) {
	var req dto.UpdateTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	topic, err := h.topics.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, topic, nil)
}

// Delete godoc
// @Summary Delete topic
// @Tags Topics
// @Param id path string true "Topic ID"
// @Success 204
// @Router /topics/{id} [delete]
func (h *TopicHandler) Delete(c *gin.Context) {
	if err := h.topics.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
