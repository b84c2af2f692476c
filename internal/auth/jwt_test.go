package auth

import (
	"testing"
	"time"
)

func TestGenerateAndParseToken(t *testing.T) {
	InitJWT("test-secret-key")

	uid := 1
	username := "testuser"
	role := "manager"
	expireAt := time.Now().Add(24 * time.Hour)
	issuer := "go_crm"

	token, err := GenerateToken(uid, username, role, expireAt, issuer)
	if err != nil {
		t.Fatalf("GenerateToken() failed: %v", err)
	}

	if token == "" {
		t.Error("Expected non-empty token")
	}

	claims, err := ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken() failed: %v", err)
	}

	if claims.UID != uid {
		t.Errorf("Expected UID %d, got %d", uid, claims.UID)
	}

	if claims.Username != username {
		t.Errorf("Expected username %s, got %s", username, claims.Username)
	}

	if claims.Role != role {
		t.Errorf("Expected role %s, got %s", role, claims.Role)
	}

	if claims.Issuer != issuer {
		t.Errorf("Expected issuer %s, got %s", issuer, claims.Issuer)
	}

	if claims.ID == "" {
		t.Error("Expected non-empty jti")
	}
}

func TestGenerateToken_UniqueJTI(t *testing.T) {
	InitJWT("test-secret-key")
	expireAt := time.Now().Add(time.Hour)

	t1, err := GenerateToken(1, "u", "viewer", expireAt, "go_crm")
	if err != nil {
		t.Fatalf("GenerateToken() failed: %v", err)
	}
	t2, err := GenerateToken(1, "u", "viewer", expireAt, "go_crm")
	if err != nil {
		t.Fatalf("GenerateToken() failed: %v", err)
	}

	c1, _ := ParseToken(t1)
	c2, _ := ParseToken(t2)
	if c1.ID == c2.ID {
		t.Error("Expected distinct jti per token")
	}
}

func TestParseToken_InvalidToken(t *testing.T) {
	InitJWT("test-secret-key")

	_, err := ParseToken("invalid.token.string")
	if err == nil {
		t.Error("ParseToken() should fail for invalid token")
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	InitJWT("secret-one")
	token, err := GenerateToken(1, "u", "viewer", time.Now().Add(time.Hour), "go_crm")
	if err != nil {
		t.Fatalf("GenerateToken() failed: %v", err)
	}

	InitJWT("secret-two")
	if _, err := ParseToken(token); err == nil {
		t.Error("ParseToken() should fail when secret changed")
	}
}

func TestParseToken_Expired(t *testing.T) {
	InitJWT("test-secret-key")
	token, err := GenerateToken(1, "u", "viewer", time.Now().Add(-time.Minute), "go_crm")
	if err != nil {
		t.Fatalf("GenerateToken() failed: %v", err)
	}

	if _, err := ParseToken(token); err == nil {
		t.Error("ParseToken() should fail for expired token")
	}
}
