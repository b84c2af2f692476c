package ws

import (
	"net/http/httptest"
	"testing"
	"time"

	"go_crm/internal/auth"
)

func TestExtractToken_QueryParameter(t *testing.T) {
	r := httptest.NewRequest("GET", "/ws?token=abc123", nil)
	if got := extractToken(r); got != "abc123" {
		t.Errorf("Expected token abc123, got %q", got)
	}
}

func TestExtractToken_BearerHeader(t *testing.T) {
	r := httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set("Authorization", "Bearer xyz789")
	if got := extractToken(r); got != "xyz789" {
		t.Errorf("Expected token xyz789, got %q", got)
	}
}

func TestExtractToken_QueryWinsOverHeader(t *testing.T) {
	r := httptest.NewRequest("GET", "/ws?token=fromquery", nil)
	r.Header.Set("Authorization", "Bearer fromheader")
	if got := extractToken(r); got != "fromquery" {
		t.Errorf("Expected query token to win, got %q", got)
	}
}

func TestExtractToken_Missing(t *testing.T) {
	r := httptest.NewRequest("GET", "/ws", nil)
	if got := extractToken(r); got != "" {
		t.Errorf("Expected empty token, got %q", got)
	}

	r.Header.Set("Authorization", "Basic abc")
	if got := extractToken(r); got != "" {
		t.Errorf("Expected empty token for non-bearer header, got %q", got)
	}
}

func TestAuthenticateHandshake(t *testing.T) {
	auth.InitJWT("ws-test-secret")
	token, err := auth.GenerateToken(7, "watcher", "viewer", time.Now().Add(time.Hour), "go_crm")
	if err != nil {
		t.Fatalf("GenerateToken() failed: %v", err)
	}

	r := httptest.NewRequest("GET", "/ws?token="+token, nil)
	claims, err := authenticateHandshake(r)
	if err != nil {
		t.Fatalf("authenticateHandshake() failed: %v", err)
	}
	if claims.UID != 7 || claims.Username != "watcher" {
		t.Errorf("Unexpected claims: %+v", claims)
	}

	r = httptest.NewRequest("GET", "/ws", nil)
	if _, err := authenticateHandshake(r); err == nil {
		t.Error("Expected error for missing token")
	}

	r = httptest.NewRequest("GET", "/ws?token=bogus", nil)
	if _, err := authenticateHandshake(r); err == nil {
		t.Error("Expected error for invalid token")
	}
}
