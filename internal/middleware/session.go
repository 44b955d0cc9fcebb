package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/institute-api/internal/models"
	appErrors "github.com/noah-isme/institute-api/pkg/errors"
	"github.com/noah-isme/institute-api/pkg/logger"
	"github.com/noah-isme/institute-api/pkg/response"
)

const (
	// ContextSessionKey is the gin context key storing the authenticated session.
	ContextSessionKey = "session"
	// SessionCookie carries the session token for browser clients.
	SessionCookie = "institute_session"
)

type sessionAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*models.Session, error)
}

// SessionToken extracts the bearer token, falling back to the session cookie.
func SessionToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return cookie
	}
	return ""
}

// RequireSession blocks requests without a live session covering scope. Rejections carry
// the login endpoint in meta so clients can show the login prompt.
func RequireSession(auth sessionAuthenticator, loginPath string, scope models.SessionScope) gin.HandlerFunc {
	prompt := map[string]interface{}{"login": loginPath, "scope": scope}
	return func(c *gin.Context) {
		session, err := auth.Authenticate(c.Request.Context(), SessionToken(c))
		if err != nil {
			if !errors.Is(err, appErrors.ErrLoginRequired) {
				response.Error(c, err)
				return
			}
			response.Error(c, err, prompt)
			return
		}
		if !session.Scope.Covers(scope) {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, string(scope)+" login required"), prompt)
			return
		}
		c.Set(ContextSessionKey, session)
		c.Set(logger.SessionScopeKey, string(session.Scope))
		c.Next()
	}
}

// CurrentSession returns the session attached by RequireSession.
func CurrentSession(c *gin.Context) (*models.Session, bool) {
	value, ok := c.Get(ContextSessionKey)
	if !ok {
		return nil, false
	}
	session, ok := value.(*models.Session)
	return session, ok
}
