package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	pkgauth "github.com/avelasco/docqa/pkg/auth"
)

func tokenHandlerForTest(t *testing.T) (*TokenHandler, *pkgauth.Authenticator) {
	t.Helper()
	authn, err := pkgauth.New("test-secret-key-32-chars-min!!!", time.Hour)
	if err != nil {
		t.Fatalf("pkgauth.New: %v", err)
	}
	hash, err := pkgauth.HashPassword("open sesame")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	return NewTokenHandler(authn, hash), authn
}

func postToken(h *TokenHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.Issue(w, req)
	return w
}

func TestTokenIssue_ValidPassword(t *testing.T) {
	t.Parallel()

	h, authn := tokenHandlerForTest(t)
	w := postToken(h, `{"client":"cli","password":"open sesame"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp tokenResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	claims, err := authn.ParseToken(resp.Token)
	if err != nil {
		t.Fatalf("issued token does not validate: %v", err)
	}
	if claims.Client != "cli" {
		t.Errorf("client = %q; want cli", claims.Client)
	}
}

func TestTokenIssue_WrongPassword(t *testing.T) {
	t.Parallel()

	h, _ := tokenHandlerForTest(t)
	if w := postToken(h, `{"client":"cli","password":"nope"}`); w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d; want 401", w.Code)
	}
}

func TestTokenIssue_BadBody(t *testing.T) {
	t.Parallel()

	h, _ := tokenHandlerForTest(t)
	if w := postToken(h, `{`); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d; want 400", w.Code)
	}
}

func TestTokenIssue_DefaultClientName(t *testing.T) {
	t.Parallel()

	h, authn := tokenHandlerForTest(t)
	w := postToken(h, `{"password":"open sesame"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp tokenResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	claims, err := authn.ParseToken(resp.Token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Client != "default" {
		t.Errorf("client = %q; want default", claims.Client)
	}
}
