package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/angkorcare/hospital-assistant/internal/rag"
	"github.com/angkorcare/hospital-assistant/pkg/logging"
)

// QueryHandler exposes the document Q&A path.
type QueryHandler struct {
	assistant *rag.Assistant
	logger    *logging.Logger
}

// NewQueryHandler creates the Q&A endpoint handler.
func NewQueryHandler(assistant *rag.Assistant, logger *logging.Logger) *QueryHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &QueryHandler{assistant: assistant, logger: logger}
}

type queryRequest struct {
	Question string `json:"question"`
}

// Query answers a patient question from the document corpus.
func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "Missing 'question' in request")
		return
	}

	ans, err := h.assistant.Query(r.Context(), req.Question)
	switch {
	case errors.Is(err, rag.ErrNotReady):
		writeError(w, http.StatusServiceUnavailable, "assistant is not ready")
		return
	case err != nil:
		h.logger.Error("query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, ans)
}

// Health reports service liveness and whether the Q&A path is usable.
func (h *QueryHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "healthy",
		"system_ready": h.assistant.Ready(),
	})
}
