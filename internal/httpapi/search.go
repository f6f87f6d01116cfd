package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/aeo-labs/aeo-search/internal/search"
)

// SearchOrchestrator runs one query through the search pipeline.
type SearchOrchestrator interface {
	Handle(ctx context.Context, query string) (*search.Response, error)
}

// SearchHandler handles search-related HTTP requests
type SearchHandler struct {
	orch   SearchOrchestrator
	logger *zap.Logger
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(orch SearchOrchestrator, logger *zap.Logger) *SearchHandler {
	return &SearchHandler{orch: orch, logger: logger}
}

// SearchRequest is the POST /api/search body
type SearchRequest struct {
	Query string `json:"query"`
}

// Search handles POST /api/search
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, "Query is required.", http.StatusBadRequest)
		return
	}

	resp, err := h.orch.Handle(r.Context(), req.Query)
	if err != nil {
		h.writeSearchError(w, req.Query, err)
		return
	}

	sendJSON(w, http.StatusOK, resp)
}

// writeSearchError maps pipeline errors to HTTP responses. Upstream proxy
// failures pass the upstream status through so callers can distinguish
// rate limiting from outages.
func (h *SearchHandler) writeSearchError(w http.ResponseWriter, query string, err error) {
	var upstream *search.UpstreamError

	switch {
	case errors.Is(err, search.ErrEmptyQuery):
		sendError(w, "Query is required.", http.StatusBadRequest)

	case errors.Is(err, search.ErrMissingCredential):
		h.logger.Error("Search proxy API key is missing")
		sendError(w, "Server configuration error: Missing API key.", http.StatusInternalServerError)

	case errors.As(err, &upstream):
		h.logger.Error("Upstream fetch failed",
			zap.String("query", query),
			zap.Int("upstream_status", upstream.StatusCode),
		)
		status := upstream.StatusCode
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		sendJSON(w, status, map[string]string{
			"error":   "Failed to fetch data from the search API.",
			"details": upstream.Body,
		})

	default:
		h.logger.Error("Unexpected search error", zap.String("query", query), zap.Error(err))
		sendError(w, "An unexpected server error occurred.", http.StatusInternalServerError)
	}
}

func sendJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func sendError(w http.ResponseWriter, message string, status int) {
	sendJSON(w, status, map[string]string{"error": message})
}
