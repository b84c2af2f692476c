package ws

import (
	"fmt"
	"net/http"
	"strings"

	"go_crm/internal/auth"
)

// authenticateHandshake validates the JWT carried on the websocket handshake.
// Browser websocket clients cannot set headers, so the token query parameter
// is checked first, then the Authorization header.
func authenticateHandshake(r *http.Request) (*auth.Claims, error) {
	token := extractToken(r)
	if token == "" {
		return nil, fmt.Errorf("no token provided")
	}

	claims, err := auth.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	return claims, nil
}

// extractToken extracts a JWT from the request.
// Priority: 1. token query parameter, 2. Authorization header.
func extractToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		// Format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}

	return ""
}
