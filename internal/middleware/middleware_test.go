package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-content-api/internal/models"
	appErrors "github.com/noah-isme/lms-content-api/pkg/errors"
)

type tokenStub map[string]*models.JWTClaims

func (s tokenStub) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := s[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

type auditStub struct {
	logs []models.AuditLog
	err  error
}

func (a *auditStub) Create(_ context.Context, log *models.AuditLog) error {
	a.logs = append(a.logs, *log)
	return a.err
}

var testTokens = tokenStub{
	"teacher": {UserID: "u-1", Role: models.RoleTeacher},
	"student": {UserID: "u-2", Role: models.RoleStudent},
}

func newGuardedRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.POST("/topics/:id", handlers...)
	return r
}

func doRequest(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/topics/t-1", nil)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTMiddleware(t *testing.T) {
	r := newGuardedRouter(JWT(testTokens))

	assert.Equal(t, http.StatusUnauthorized, doRequest(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(r, "Basic teacher").Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(r, "Bearer nope").Code)
	assert.Equal(t, http.StatusNoContent, doRequest(r, "bearer teacher").Code)
}

func TestOptionalJWTNeverBlocks(t *testing.T) {
	var seen bool
	r := newGuardedRouter(OptionalJWT(testTokens), func(c *gin.Context) {
		_, seen = CurrentClaims(c)
	})

	assert.Equal(t, http.StatusNoContent, doRequest(r, "Bearer nope").Code)
	assert.False(t, seen)
	assert.Equal(t, http.StatusNoContent, doRequest(r, "Bearer student").Code)
	assert.True(t, seen)
}

func TestRequireContentEditor(t *testing.T) {
	r := newGuardedRouter(JWT(testTokens), RequireContentEditor())

	assert.Equal(t, http.StatusNoContent, doRequest(r, "Bearer teacher").Code)
	assert.Equal(t, http.StatusForbidden, doRequest(r, "Bearer student").Code)

	unauth := newGuardedRouter(RequireContentEditor())
	assert.Equal(t, http.StatusUnauthorized, doRequest(unauth, "Bearer teacher").Code)
}

func TestRequireRoles(t *testing.T) {
	r := newGuardedRouter(JWT(testTokens), RequireRoles(models.RoleAdmin, models.RoleSuperAdmin))
	assert.Equal(t, http.StatusForbidden, doRequest(r, "Bearer teacher").Code)
}

func TestAuditRecordsSuccessfulWrites(t *testing.T) {
	recorder := &auditStub{err: assert.AnError}
	r := newGuardedRouter(JWT(testTokens), Audit(recorder, zap.NewNop(), models.AuditActionUpdate, "topic", "id"))

	require.Equal(t, http.StatusNoContent, doRequest(r, "Bearer teacher").Code)
	require.Len(t, recorder.logs, 1)
	entry := recorder.logs[0]
	assert.Equal(t, "u-1", models.StringValue(entry.UserID))
	assert.Equal(t, "t-1", models.StringValue(entry.ResourceID))
	assert.Equal(t, models.AuditActionUpdate, entry.Action)
	assert.Contains(t, string(entry.NewValues), `"status":204`)

	doRequest(r, "Bearer nope")
	assert.Len(t, recorder.logs, 1)
}

func TestSetCacheHitWritesHeaderAndMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(WithResponseMeta())
	r.GET("/hierarchy", func(c *gin.Context) {
		SetCacheHit(c, true)
		c.JSON(http.StatusOK, ExtractMeta(c))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/hierarchy", nil))
	assert.Equal(t, "HIT", w.Header().Get(CacheHeader))
	assert.JSONEq(t, `{"cache_hit": true}`, w.Body.String())
}
