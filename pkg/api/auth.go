package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/openidem/lockdown/pkg/apiresponses"
	"github.com/openidem/lockdown/pkg/storage"
)

const (
	AuthHeaderKey = "Authorization"

	// UserContextKey is the gin context key holding the authenticated user.
	UserContextKey = "user"
)

// AuthHandler authenticates requests against the session store. Callers
// present their session token as a bearer token.
type AuthHandler struct {
	sessions storage.SessionStore
	users    storage.UserStore
	log      *zap.SugaredLogger
}

func NewAuth(sessions storage.SessionStore, users storage.UserStore, log *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{
		sessions: sessions,
		users:    users,
		log:      log.Named("auth"),
	}
}

func (a *AuthHandler) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		authHeader := c.GetHeader(AuthHeaderKey)
		// delete the header to avoid logging it by accident
		c.Request.Header.Del(AuthHeaderKey)
		if !strings.HasPrefix(authHeader, "Bearer ") {
			apiresponses.RespondForbidden(c, "Authentication credentials were not provided.")
			c.Abort()
			return
		}
		token := authHeader[7:]

		session, err := a.sessions.Get(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				apiresponses.RespondForbidden(c, "Invalid token.")
				c.Abort()
				return
			}
			apiresponses.RespondInternalError(c, "resolve session", err, a.log)
			c.Abort()
			return
		}

		user, err := a.users.Get(c.Request.Context(), session.UserID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				a.log.Warnw("Session references unknown user", "userID", session.UserID)
				apiresponses.RespondForbidden(c, "Invalid token.")
				c.Abort()
				return
			}
			apiresponses.RespondInternalError(c, "resolve session user", err, a.log)
			c.Abort()
			return
		}

		if !user.IsActive {
			apiresponses.RespondForbidden(c, "User inactive or deleted.")
			c.Abort()
			return
		}

		c.Set(UserContextKey, user)
		c.Set("username", user.Username)

		c.Next()
	}
}

// CurrentUser returns the authenticated user set by the auth middleware, or
// nil when the request is unauthenticated.
func CurrentUser(c *gin.Context) *storage.User {
	v, ok := c.Get(UserContextKey)
	if !ok {
		return nil
	}
	user, ok := v.(*storage.User)
	if !ok {
		return nil
	}
	return user
}
