package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/institute-api/internal/models"
	appErrors "github.com/noah-isme/institute-api/pkg/errors"
)

type authStub map[string]models.SessionScope

func (a authStub) Authenticate(_ context.Context, token string) (*models.Session, error) {
	scope, ok := a[token]
	if !ok {
		return nil, appErrors.ErrLoginRequired
	}
	return &models.Session{ID: token, Scope: scope}, nil
}

func newGatedRouter(t *testing.T, scope models.SessionScope) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	auth := authStub{"site-token": models.SessionScopeSite, "admin-token": models.SessionScopeAdmin}
	r.GET("/protected", RequireSession(auth, "/api/v1/auth/"+string(scope), scope), func(c *gin.Context) {
		session, ok := CurrentSession(c)
		require.True(t, ok)
		c.String(http.StatusOK, string(session.Scope))
	})
	return r
}

func TestRequireSessionPromptsLogin(t *testing.T) {
	r := newGatedRouter(t, models.SessionScopeSite)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "LOGIN_REQUIRED", body.Error.Code)
	assert.Equal(t, "/api/v1/auth/site", body.Meta["login"])
}

func TestRequireSessionAcceptsBearerAndCookie(t *testing.T) {
	r := newGatedRouter(t, models.SessionScopeSite)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer site-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "admin-token"})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin", w.Body.String())
}

func TestRequireSessionAdminScope(t *testing.T) {
	r := newGatedRouter(t, models.SessionScopeAdmin)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer site-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "/api/v1/auth/admin")
}
