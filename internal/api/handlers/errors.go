package handlers

import (
	"net/http"

	"github.com/avelasco/docqa/internal/domain/qa"
)

// statusForKind maps engine error kinds to HTTP statuses. Caller mistakes
// are 4xx; upstream provider and index failures surface as 502 because the
// gateway itself is healthy.
func statusForKind(kind qa.ErrorKind) int {
	switch kind {
	case qa.KindInvalidRequest, qa.KindUnknownModel:
		return http.StatusBadRequest
	case qa.KindPromptTooLarge:
		return http.StatusRequestEntityTooLarge
	case qa.KindIndexUnavailable, qa.KindEmbeddingFailed, qa.KindGenerationFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeEngineError maps an Ask failure to an HTTP response. The kind is the
// public error message; the cause chain never leaves the server.
func writeEngineError(w http.ResponseWriter, err error) {
	kind, ok := qa.KindOf(err)
	if !ok {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, statusForKind(kind), map[string]string{"error": string(kind)})
}
