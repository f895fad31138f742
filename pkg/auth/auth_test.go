package auth

import (
	"strings"
	"testing"
	"time"
)

func TestGenerateAndParseToken(t *testing.T) {
	t.Parallel()

	a, err := New("test-secret-key-32-chars-min!!!", time.Hour)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	token, err := a.GenerateToken("cli")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if parts := strings.Split(token, "."); len(parts) != 3 {
		t.Fatalf("token is not a JWT: %q", token)
	}

	claims, err := a.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	if claims.Client != "cli" {
		t.Errorf("client = %q; want cli", claims.Client)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	t.Parallel()

	a1, _ := New("secret-one-32-characters-long!!!", time.Hour)
	a2, _ := New("secret-two-32-characters-long!!!", time.Hour)

	token, err := a1.GenerateToken("cli")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if _, err := a2.ParseToken(token); err == nil {
		t.Error("expected error parsing token signed with another secret")
	}
}

func TestParseToken_Expired(t *testing.T) {
	t.Parallel()

	a, _ := New("test-secret-key-32-chars-min!!!", -time.Minute)
	// New substitutes the default TTL for non-positive values, so build an
	// already expired authenticator explicitly.
	a.ttl = -time.Minute

	token, err := a.GenerateToken("cli")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if _, err := a.ParseToken(token); err == nil {
		t.Error("expected error for expired token")
	}
}

func TestParseToken_Malformed(t *testing.T) {
	t.Parallel()

	a, _ := New("test-secret-key-32-chars-min!!!", time.Hour)
	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := a.ParseToken(token); err == nil {
			t.Errorf("expected error for token %q", token)
		}
	}
}

func TestNew_EmptySecret(t *testing.T) {
	t.Parallel()

	if _, err := New("", time.Hour); err == nil {
		t.Error("expected error for empty secret")
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if !VerifyPassword(hash, "correct horse battery staple") {
		t.Error("correct password rejected")
	}
	if VerifyPassword(hash, "wrong password") {
		t.Error("wrong password accepted")
	}
	if VerifyPassword("not-a-bcrypt-hash", "anything") {
		t.Error("invalid hash must verify false, not panic")
	}
}
