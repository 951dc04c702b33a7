package middleware

import (
	"net/http"
	"strings"

	"therapyspace/internal/domain"
	"therapyspace/internal/pkg/jwt"
	"therapyspace/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	// ViewerKey holds the domain.Viewer resolved for the request.
	ViewerKey = "viewer"
	// ClientEmailKey holds the email printed on the caller's pass, for logs.
	ClientEmailKey = "client_email"
)

type TokenValidator interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

// ClientIdentity resolves the viewer from "Authorization: Bearer <pass>".
// Without a pass the request continues as the global viewer only when
// allowGlobal is set.
func ClientIdentity(tokens TokenValidator, allowGlobal bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			if !allowGlobal {
				response.Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
				return
			}
			c.Set(ViewerKey, domain.Viewer{})
			c.Next()
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" || tokens == nil {
			response.Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid authorization header")
			return
		}

		claims, err := tokens.ValidateToken(strings.TrimSpace(token))
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token")
			return
		}

		c.Set(ViewerKey, claims.Viewer())
		c.Set(ClientEmailKey, claims.Email)
		c.Next()
	}
}

// CurrentViewer returns the viewer set by ClientIdentity. ok is false on
// routes the middleware did not run for.
func CurrentViewer(c *gin.Context) (domain.Viewer, bool) {
	v, exists := c.Get(ViewerKey)
	if !exists {
		return domain.Viewer{}, false
	}
	viewer, ok := v.(domain.Viewer)
	return viewer, ok
}

// BearerToken returns the raw pass from the Authorization header, if any.
func BearerToken(c *gin.Context) string {
	token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}
