package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/institute-api/internal/dto"
	"github.com/noah-isme/institute-api/internal/middleware"
	"github.com/noah-isme/institute-api/internal/models"
	"github.com/noah-isme/institute-api/pkg/response"
)

type sessionGate interface {
	Login(ctx context.Context, scope models.SessionScope, req dto.LoginRequest) (*dto.SessionResponse, error)
	State(ctx context.Context, token string) (*dto.SessionState, error)
	Logout(ctx context.Context, token string) error
}

// AuthHandler exposes the password gate.
type AuthHandler struct {
	sessions     sessionGate
	secureCookie bool
	now          func() time.Time
}

// NewAuthHandler constructs AuthHandler. secureCookie marks the session cookie HTTPS-only.
func NewAuthHandler(sessions sessionGate, secureCookie bool) *AuthHandler {
	return &AuthHandler{sessions: sessions, secureCookie: secureCookie, now: time.Now}
}

// SiteLogin godoc
// @Summary Unlock the site with the shared password
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body dto.LoginRequest true "Site password"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/site [post]
func (h *AuthHandler) SiteLogin(c *gin.Context) {
	h.login(c, models.SessionScopeSite)
}

// AdminLogin godoc
// @Summary Unlock the admin area
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body dto.LoginRequest true "Admin password"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/admin [post]
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	h.login(c, models.SessionScopeAdmin)
}

func (h *AuthHandler) login(c *gin.Context, scope models.SessionScope) {
	var req dto.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	session, err := h.sessions.Login(c.Request.Context(), scope, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	maxAge := int(session.ExpiresAt.Sub(h.now()).Seconds())
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.SessionCookie, session.Token, maxAge, "/", "", h.secureCookie, true)
	response.JSON(c, http.StatusOK, session, nil)
}

// Logout godoc
// @Summary Revoke the current session
// @Tags Auth
// @Success 204
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.sessions.Logout(c.Request.Context(), middleware.SessionToken(c)); err != nil {
		response.Error(c, err)
		return
	}
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", h.secureCookie, true)
	response.NoContent(c)
}

// Session godoc
// @Summary Report whether the caller is logged in
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /auth/session [get]
func (h *AuthHandler) Session(c *gin.Context) {
	state, err := h.sessions.State(c.Request.Context(), middleware.SessionToken(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}
