package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go_crm/internal/auth"
	"go_crm/internal/httpx"

	"github.com/gin-gonic/gin"
)

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", AuthRequired(nil), func(c *gin.Context) {
		uid, _ := c.Get("uid")
		httpx.OK(c, gin.H{"uid": uid})
	})
	r.GET("/admin", AuthRequired(nil), RequireRole("admin"), func(c *gin.Context) {
		httpx.OK(c, nil)
	})
	return r
}

func doRequest(t *testing.T, r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired_MissingHeader(t *testing.T) {
	auth.InitJWT("test-secret")
	r := setupRouter()

	w := doRequest(t, r, "/protected", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestAuthRequired_InvalidToken(t *testing.T) {
	auth.InitJWT("test-secret")
	r := setupRouter()

	w := doRequest(t, r, "/protected", "not-a-token")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestAuthRequired_ValidToken(t *testing.T) {
	auth.InitJWT("test-secret")
	r := setupRouter()

	token, err := auth.GenerateToken(1, "alice", "viewer", time.Now().Add(time.Hour), "test")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	w := doRequest(t, r, "/protected", token)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestRequireRole(t *testing.T) {
	auth.InitJWT("test-secret")
	r := setupRouter()

	viewerToken, err := auth.GenerateToken(1, "alice", "viewer", time.Now().Add(time.Hour), "test")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	adminToken, err := auth.GenerateToken(2, "bob", "admin", time.Now().Add(time.Hour), "test")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	if w := doRequest(t, r, "/admin", viewerToken); w.Code != http.StatusForbidden {
		t.Errorf("viewer status = %d, want %d", w.Code, http.StatusForbidden)
	}
	if w := doRequest(t, r, "/admin", adminToken); w.Code != http.StatusOK {
		t.Errorf("admin status = %d, want %d", w.Code, http.StatusOK)
	}
}
