package handler

import (
	"context"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"time"
)

const version = "1.0.0"

// ReadinessCheck reports whether a dependency is usable.
type ReadinessCheck func(ctx context.Context) error

type HealthHandler struct {
	checks map[string]ReadinessCheck
}

func NewHealthHandler(checks map[string]ReadinessCheck) *HealthHandler {
	return &HealthHandler{checks: checks}
}

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"version":   version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	httpStatus := http.StatusOK
	results := make(map[string]string, len(h.checks))

	for _, name := range slices.Sorted(maps.Keys(h.checks)) {
		if err := h.checks[name](r.Context()); err != nil {
			slog.Warn("readiness check failed", "check", name, "error", err)
			results[name] = "down"
			httpStatus = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	overallStatus := "ok"
	if httpStatus != http.StatusOK {
		overallStatus = "down"
	}

	RespondJSON(w, httpStatus, map[string]any{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    results,
	})
}
