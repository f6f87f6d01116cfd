package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/aeo-labs/aeo-search/internal/db"
)

// HistoryLister reads recent search history.
type HistoryLister interface {
	ListSearchHistory(ctx context.Context, limit int) ([]db.SearchHistory, error)
}

// HistoryHandler serves past searches. The store is nil when the service
// runs without Postgres, in which case history is simply unavailable.
type HistoryHandler struct {
	store  HistoryLister
	logger *zap.Logger
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(store HistoryLister, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{store: store, logger: logger}
}

// List handles GET /api/history
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		sendError(w, "Search history is not enabled.", http.StatusServiceUnavailable)
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	records, err := h.store.ListSearchHistory(r.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list search history", zap.Error(err))
		sendError(w, "Failed to load search history.", http.StatusInternalServerError)
		return
	}

	sendJSON(w, http.StatusOK, map[string]interface{}{"items": records})
}
