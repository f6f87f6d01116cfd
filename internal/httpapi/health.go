package httpapi

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Pinger checks connectivity of a backing service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports liveness plus the state of optional backends.
type HealthHandler struct {
	database Pinger
	cache    Pinger
	logger   *zap.Logger
}

// NewHealthHandler creates a new health handler. Either pinger may be nil
// when the corresponding backend is disabled.
func NewHealthHandler(database, cache Pinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{database: database, cache: cache, logger: logger}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	body := map[string]string{"status": "ok"}
	body["postgres"] = h.check(ctx, h.database)
	body["redis"] = h.check(ctx, h.cache)

	sendJSON(w, http.StatusOK, body)
}

func (h *HealthHandler) check(ctx context.Context, p Pinger) string {
	if p == nil {
		return "disabled"
	}
	if err := p.Ping(ctx); err != nil {
		h.logger.Warn("Health check failed", zap.Error(err))
		return "unavailable"
	}
	return "ok"
}
