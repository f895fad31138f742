package handlers

import (
	"net/http"

	pkgauth "github.com/avelasco/docqa/pkg/auth"
)

// TokenHandler issues bearer tokens to clients that know the API password.
// Mounted only when both an auth secret and a password hash are configured.
type TokenHandler struct {
	authn        *pkgauth.Authenticator
	passwordHash string
}

// NewTokenHandler creates a TokenHandler. passwordHash is the bcrypt hash
// of the shared API password.
func NewTokenHandler(authn *pkgauth.Authenticator, passwordHash string) *TokenHandler {
	return &TokenHandler{authn: authn, passwordHash: passwordHash}
}

// tokenRequest is the JSON body for POST /auth/token.
type tokenRequest struct {
	Client   string `json:"client"`
	Password string `json:"password"`
}

// tokenResponse is the JSON body returned on success.
type tokenResponse struct {
	Token string `json:"token"`
}

// Issue handles POST /auth/token.
func (h *TokenHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Client == "" {
		req.Client = "default"
	}

	if !pkgauth.VerifyPassword(h.passwordHash, req.Password) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.authn.GenerateToken(req.Client)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}
