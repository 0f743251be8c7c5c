package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-content-api/internal/dto"
	"github.com/noah-isme/lms-content-api/internal/service"
	appErrors "github.com/noah-isme/lms-content-api/pkg/errors"
	"github.com/noah-isme/lms-content-api/pkg/response"
)

type hierarchyService interface {
	Tree(ctx context.Context, q dto.HierarchyQuery) (*dto.HierarchyResponse, bool, error)
	Subjects(ctx context.Context, q dto.SubjectsQuery) (*dto.SubjectsResponse, bool, error)
	EvaluateRule(ctx context.Context, req dto.EvaluateRuleRequest) (*dto.EvaluateRuleResponse, error)
	Check(ctx context.Context) (*dto.HierarchyCheckReport, error)
}

type outlineExporter interface {
	Outline(ctx context.Context, collectionID string, format service.OutlineFormat) (*service.OutlineFile, error)
}

// HierarchyHandler exposes the tree resolver.
type HierarchyHandler struct {
	hierarchy hierarchyService
	exports   outlineExporter
}

// NewHierarchyHandler constructs the handler. exports may be nil when downloads are disabled.
func NewHierarchyHandler(hierarchy hierarchyService, exports outlineExporter) *HierarchyHandler {
	return &HierarchyHandler{hierarchy: hierarchy, exports: exports}
}

// Tree godoc
// @Summary Resolve the topic and content tree
// @Tags Hierarchy
// @Produce json
// @Param level query int false "Hierarchy level (1-8)"
// @Param parent query string false "Parent id or all"
// @Param collection query string false "Collection id or all"
// @Param expand query bool false "Expand full subtrees in level mode"
// @Param unassigned query bool false "Include unassigned content"
// @Success 200 {object} response.Envelope
// @Router /hierarchy [get]
func (h *HierarchyHandler) Tree(c *gin.Context) {
	var q dto.HierarchyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid hierarchy query"))
		return
	}
	start := time.Now()
	tree, cacheHit, err := h.hierarchy.Tree(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tree, nil, cacheMeta(c, cacheHit, start))
}

// Subjects godoc
// @Summary Group content under virtual subject topics
// @Tags Hierarchy
// @Produce json
// @Param subjects query string false "Comma separated subject order"
// @Param collection query string false "Collection id or all"
// @Success 200 {object} response.Envelope
// @Router /hierarchy/subjects [get]
func (h *HierarchyHandler) Subjects(c *gin.Context) {
	var q dto.SubjectsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid subjects query"))
		return
	}
	start := time.Now()
	groups, cacheHit, err := h.hierarchy.Subjects(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, groups, nil, cacheMeta(c, cacheHit, start))
}

// EvaluateRule godoc
// @Summary Evaluate a filter rule against one entity
// @Tags Hierarchy
// @Accept json
// @Produce json
// @Param payload body dto.EvaluateRuleRequest true "Evaluation payload"
// @Success 200 {object} response.Envelope
// @Router /hierarchy/filter-rules/evaluate [post]
func (h *HierarchyHandler) EvaluateRule(c *gin.Context) {
	var req dto.EvaluateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid evaluation payload"))
		return
	}
	result, err := h.hierarchy.EvaluateRule(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Check godoc
// @Summary Scan stored data for cycles, orphans and malformed mappings
// @Tags Hierarchy
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /hierarchy/check [get]
func (h *HierarchyHandler) Check(c *gin.Context) {
	report, err := h.hierarchy.Check(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil, map[string]interface{}{"healthy": report.Healthy()})
}

// Outline returns a handler streaming the flattened collection tree.
// @Summary Download a collection outline
// @Tags Collections
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Collection ID"
// @Success 200 {file} file
// @Router /collections/{id}/outline.csv [get]
// @Router /collections/{id}/outline.pdf [get]
func (h *HierarchyHandler) Outline(format service.OutlineFormat) gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.exports == nil {
			response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "exports are disabled"))
			return
		}
		file, err := h.exports.Outline(c.Request.Context(), c.Param("id"), format)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.File(c, file.Filename, file.ContentType, file.Data)
	}
}
