package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"crowdpulse-api/pkg/apierror"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db      Pinger
	started time.Time
	now     func() time.Time
}

func NewHealthHandler(db Pinger, started time.Time) *HealthHandler {
	return &HealthHandler{db: db, started: started, now: time.Now}
}

// Live answers the unauthenticated liveness probe.
func (h *HealthHandler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.db.Ping(ctx); err != nil {
			slog.Error("health check database ping failed", "error", err)
			writeError(w, apierror.New("SERVICE_UNAVAILABLE", "Database is unavailable.", http.StatusServiceUnavailable))
			return
		}
	}

	uptime := h.now().Sub(h.started).Seconds()
	writeSuccess(w, http.StatusOK, "Application is healthy.", map[string]float64{"uptime": uptime}, nil)
}
