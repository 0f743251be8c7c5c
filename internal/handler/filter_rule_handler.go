package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-content-api/internal/dto"
	"github.com/noah-isme/lms-content-api/internal/models"
	appErrors "github.com/noah-isme/lms-content-api/pkg/errors"
	"github.com/noah-isme/lms-content-api/pkg/response"
)

type filterRuleService interface {
	List(ctx context.Context, level *int, activeOnly bool) ([]models.FilterRule, error)
	Get(ctx context.Context, id string) (*models.FilterRule, error)
	Create(ctx context.Context, req dto.FilterRuleRequest) (*models.FilterRule, error)
	Update(ctx context.Context, id string, req dto.FilterRuleRequest) (*models.FilterRule, error)
	Delete(ctx context.Context, id string) error
}

// FilterRuleHandler manages per-level filter rules.
type FilterRuleHandler struct {
	rules filterRuleService
}

// NewFilterRuleHandler constructs a filter rule handler.
func NewFilterRuleHandler(rules filterRuleService) *FilterRuleHandler {
	return &FilterRuleHandler{rules: rules}
}

// List godoc
// @Summary List filter rules
// @Tags FilterRules
// @Produce json
// @Param level query int false "Hierarchy level"
// @Param active query bool false "Only active rules"
// @Success 200 {object} response.Envelope
// @Router /filter-rules [get]
func (h *FilterRuleHandler) List(c *gin.Context) {
	var level *int
	if raw := c.Query("level"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 8 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "level must be between 1 and 8"))
			return
		}
		level = &v
	}
	rules, err := h.rules.List(c.Request.Context(), level, queryBool(c, "active"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rules, nil)
}

// Get godoc
// @Summary Get filter rule
// @Tags FilterRules
// @Produce json
// @Param id path string true "Rule ID"
// @Success 200 {object} response.Envelope
// @Router /filter-rules/{id} [get]
func (h *FilterRuleHandler) Get(c *gin.Context) {
	rule, err := h.rules.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rule, nil)
}

// Create godoc
// @Summary Create filter rule
// @Tags FilterRules
// @Accept json
// @Produce json
// @Param payload body dto.FilterRuleRequest true "Rule payload"
// @Success 201 {object} response.Envelope
// @Router /filter-rules [post]
func (h *FilterRuleHandler) Create(c *gin.Context) {
	var req dto.FilterRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	rule, err := h.rules.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rule)
}

// Update godoc
// @Summary Update filter rule
// @Tags FilterRules
// @Accept json
// @Produce json
// @Param id path string true "Rule ID"
// @Param payload body dto.FilterRuleRequest true "Rule payload"
// @Success 200 {object} response.Envelope
// @Router /filter-rules/{id} [put]
func (h *FilterRuleHandler) Update(c *gin.Context) {
	var req dto.FilterRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	rule, err := h.rules.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rule, nil)
}

// Delete godoc
// @Summary Delete filter rule
// @Tags FilterRules
// @Param id path string true "Rule ID"
// @Success 204
// @Router /filter-rules/{id} [delete]
func (h *FilterRuleHandler) Delete(c *gin.Context) {
	if err := h.rules.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
