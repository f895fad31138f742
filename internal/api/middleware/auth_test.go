package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/avelasco/docqa/internal/api/ctxkeys"
	pkgauth "github.com/avelasco/docqa/pkg/auth"
)

func testAuthenticator(t *testing.T) *pkgauth.Authenticator {
	t.Helper()
	a, err := pkgauth.New("test-secret-key-32-chars-min!!!", time.Hour)
	if err != nil {
		t.Fatalf("pkgauth.New: %v", err)
	}
	return a
}

func okHandler(gotClient *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if client, ok := ctxkeys.String(r.Context(), ctxkeys.Client); ok {
			*gotClient = client
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth_ValidToken(t *testing.T) {
	t.Parallel()

	a := testAuthenticator(t)
	token, err := a.GenerateToken("cli")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	var gotClient string
	h := RequireAuth(a)(okHandler(&gotClient))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/anything", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", w.Code)
	}
	if gotClient != "cli" {
		t.Errorf("client in context = %q; want cli", gotClient)
	}
}

func TestRequireAuth_Rejections(t *testing.T) {
	t.Parallel()

	a := testAuthenticator(t)
	other := func() string {
		o, _ := pkgauth.New("another-secret-32-characters!!!!", time.Hour)
		tok, _ := o.GenerateToken("cli")
		return tok
	}()

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic dXNlcjpwYXNz"},
		{"empty token", "Bearer "},
		{"garbage token", "Bearer not.a.jwt"},
		{"wrong secret", "Bearer " + other},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var gotClient string
			h := RequireAuth(a)(okHandler(&gotClient))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/anything", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d; want 401", w.Code)
			}
			if gotClient != "" {
				t.Errorf("handler ran despite rejection, client %q", gotClient)
			}
			if !strings.Contains(w.Header().Get("Content-Type"), "application/json") {
				t.Errorf("error response is not JSON: %q", w.Header().Get("Content-Type"))
			}
		})
	}
}

func TestAccessLog_RecordsStatusAndClient(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	h := AccessLog(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ask", nil)
	req = req.WithContext(ctxkeys.WithValue(req.Context(), ctxkeys.Client, "cli"))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	out := buf.String()
	for _, want := range []string{"status=418", "path=/api/v1/ask", "client=cli", "method=POST"} {
		if !strings.Contains(out, want) {
			t.Errorf("log line missing %q: %s", want, out)
		}
	}
}

func TestAccessLog_NilLoggerPassesThrough(t *testing.T) {
	t.Parallel()

	h := AccessLog(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d; want 204", w.Code)
	}
}
