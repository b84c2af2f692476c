package middleware

import (
	"errors"
	"strings"

	"go_crm/internal/auth"
	"go_crm/internal/httpx"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// AuthRequired is a middleware that validates the JWT token and rejects
// tokens revoked by logout. Pass a nil revoker to skip the revocation check.
func AuthRequired(revoker *auth.RevocationStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httpx.FailErr(c, httpx.ErrUnauthorized("missing authorization header"))
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			httpx.FailErr(c, httpx.ErrUnauthorized("invalid authorization header format"))
			c.Abort()
			return
		}

		claims, err := auth.ParseToken(parts[1])
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				httpx.FailErr(c, httpx.ErrTokenExpired("token expired"))
			} else {
				httpx.FailErr(c, httpx.ErrInvalidToken("invalid token"))
			}
			c.Abort()
			return
		}

		if revoker != nil && claims.ID != "" {
			revoked, err := revoker.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				httpx.FailErr(c, httpx.ErrInternalError("failed to verify token", err))
				c.Abort()
				return
			}
			if revoked {
				httpx.FailErr(c, httpx.ErrInvalidToken("token revoked"))
				c.Abort()
				return
			}
		}

		// Set user info in context
		c.Set("uid", claims.UID)
		c.Set("username", claims.Username)
		c.Set("role", claims.Role)
		c.Set("claims", claims)

		c.Next()
	}
}

// RequireRole restricts a route group to the given roles. It assumes
// AuthRequired already ran.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get("claims")
		if !ok {
			httpx.FailErr(c, httpx.ErrUnauthorized("not authenticated"))
			c.Abort()
			return
		}
		claims, ok := v.(*auth.Claims)
		if !ok || !claims.HasAnyRole(roles...) {
			httpx.FailErr(c, httpx.ErrForbidden("insufficient role"))
			c.Abort()
			return
		}
		c.Next()
	}
}
