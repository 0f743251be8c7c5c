package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-content-api/internal/dto"
	"github.com/noah-isme/lms-content-api/internal/hierarchy"
	"github.com/noah-isme/lms-content-api/internal/middleware"
	"github.com/noah-isme/lms-content-api/internal/service"
	appErrors "github.com/noah-isme/lms-content-api/pkg/errors"
)

type hierarchyServiceMock struct {
	lastTree     dto.HierarchyQuery
	lastSubjects dto.SubjectsQuery
	cacheHit     bool
	treeErr      error
	report       *dto.HierarchyCheckReport
}

func (m *hierarchyServiceMock) Tree(ctx context.Context, q dto.HierarchyQuery) (*dto.HierarchyResponse, bool, error) {
	m.lastTree = q
	if m.treeErr != nil {
		return nil, false, m.treeErr
	}
	return &dto.HierarchyResponse{
		Nodes:     []*hierarchy.Node{{ID: "bio", Title: "Biology", Kind: hierarchy.KindTopic, Level: 1}},
		NodeCount: 1,
	}, m.cacheHit, nil
}

func (m *hierarchyServiceMock) Subjects(ctx context.Context, q dto.SubjectsQuery) (*dto.SubjectsResponse, bool, error) {
	m.lastSubjects = q
	return &dto.SubjectsResponse{Order: q.Subjects}, false, nil
}

func (m *hierarchyServiceMock) EvaluateRule(ctx context.Context, req dto.EvaluateRuleRequest) (*dto.EvaluateRuleResponse, error) {
	return &dto.EvaluateRuleResponse{RuleID: req.RuleID, Matched: req.EntityID == "bio"}, nil
}

func (m *hierarchyServiceMock) Check(ctx context.Context) (*dto.HierarchyCheckReport, error) {
	return m.report, nil
}

type outlineExporterMock struct {
	format service.OutlineFormat
	err    error
}

func (m *outlineExporterMock) Outline(ctx context.Context, collectionID string, format service.OutlineFormat) (*service.OutlineFile, error) {
	m.format = format
	if m.err != nil {
		return nil, m.err
	}
	return &service.OutlineFile{Filename: "year_7_outline.csv", ContentType: "text/csv", Data: []byte("Title\nBiology\n")}, nil
}

func newHierarchyRouter(h *HierarchyHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.WithResponseMeta())
	r.GET("/hierarchy", h.Tree)
	r.GET("/hierarchy/subjects", h.Subjects)
	r.GET("/hierarchy/check", h.Check)
	r.POST("/hierarchy/filter-rules/evaluate", h.EvaluateRule)
	r.GET("/collections/:id/outline.csv", h.Outline(service.OutlineFormatCSV))
	return r
}

func TestHierarchyHandlerTree(t *testing.T) {
	svc := &hierarchyServiceMock{cacheHit: true}
	r := newHierarchyRouter(NewHierarchyHandler(svc, nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/hierarchy?level=2&parent=bio&collection=col-1&expand=true&unassigned=true", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.HierarchyQuery{Level: 2, Parent: "bio", Collection: "col-1", Expand: true, IncludeUnassigned: true}, svc.lastTree)
	assert.Equal(t, "HIT", w.Header().Get(middleware.CacheHeader))

	var body struct {
		Data dto.HierarchyResponse  `json:"data"`
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data.Nodes, 1)
	assert.Equal(t, "bio", body.Data.Nodes[0].ID)
	assert.Equal(t, true, body.Meta["cache_hit"])
}

func TestHierarchyHandlerTreeErrors(t *testing.T) {
	svc := &hierarchyServiceMock{treeErr: appErrors.ErrCollectionInactive}
	r := newHierarchyRouter(NewHierarchyHandler(svc, nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/hierarchy?collection=old", nil))
	assert.Equal(t, http.StatusGone, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/hierarchy?level=abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHierarchyHandlerSubjects(t *testing.T) {
	svc := &hierarchyServiceMock{}
	r := newHierarchyRouter(NewHierarchyHandler(svc, nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/hierarchy/subjects?subjects=Biology,Chemistry&collection=col-1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"Biology,Chemistry"}, svc.lastSubjects.Subjects)
	assert.Equal(t, "col-1", svc.lastSubjects.Collection)
	assert.Equal(t, "MISS", w.Header().Get(middleware.CacheHeader))
}

func TestHierarchyHandlerEvaluateRule(t *testing.T) {
	r := newHierarchyRouter(NewHierarchyHandler(&hierarchyServiceMock{}, nil))

	payload, _ := json.Marshal(dto.EvaluateRuleRequest{RuleID: "r1", EntityKind: hierarchy.KindTopic, EntityID: "bio"})
	req := httptest.NewRequest(http.MethodPost, "/hierarchy/filter-rules/evaluate", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{"rule_id":"r1","matched":true}}`, w.Body.String())

	req = httptest.NewRequest(http.MethodPost, "/hierarchy/filter-rules/evaluate", bytes.NewReader([]byte(`{`)))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHierarchyHandlerCheck(t *testing.T) {
	report := &dto.HierarchyCheckReport{
		Diagnostics: hierarchy.Diagnostics{{Kind: hierarchy.DiagCycle, EntityID: "a"}},
		Summary:     map[hierarchy.DiagnosticKind]int{hierarchy.DiagCycle: 1},
	}
	r := newHierarchyRouter(NewHierarchyHandler(&hierarchyServiceMock{report: report}, nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/hierarchy/check", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body.Meta["healthy"])
}

func TestHierarchyHandlerOutline(t *testing.T) {
	exporter := &outlineExporterMock{}
	r := newHierarchyRouter(NewHierarchyHandler(&hierarchyServiceMock{}, exporter))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/collections/col-1/outline.csv", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.OutlineFormatCSV, exporter.format)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "year_7_outline.csv")
	assert.Equal(t, "Title\nBiology\n", w.Body.String())

	disabled := newHierarchyRouter(NewHierarchyHandler(&hierarchyServiceMock{}, nil))
	w = httptest.NewRecorder()
	disabled.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/collections/col-1/outline.csv", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
