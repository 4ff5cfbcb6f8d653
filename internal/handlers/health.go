package handlers

import (
	"net/http"
	"sort"
	"time"

	"github.com/bosanoga/storefront/internal/platform/httpx"
)

// ReadinessCheck probes a single dependency and returns an error when it is
// not ready to serve traffic.
type ReadinessCheck func(r *http.Request) error

// BuildInfo describes the running binary for health payloads.
type BuildInfo struct {
	Version     string
	CommitSHA   string
	Environment string
	StartedAt   time.Time
}

// HealthHandlers serves liveness and readiness probes.
type HealthHandlers struct {
	build  BuildInfo
	checks map[string]ReadinessCheck
	now    func() time.Time
}

// HealthOption customises HealthHandlers construction.
type HealthOption func(*HealthHandlers)

// WithHealthBuildInfo attaches build metadata to health payloads.
func WithHealthBuildInfo(info BuildInfo) HealthOption {
	return func(h *HealthHandlers) { h.build = info }
}

// WithHealthReadinessCheck registers a named dependency probe for Readyz.
func WithHealthReadinessCheck(name string, check ReadinessCheck) HealthOption {
	return func(h *HealthHandlers) {
		if name == "" || check == nil {
			return
		}
		h.checks[name] = check
	}
}

// WithHealthClock overrides the time source.
func WithHealthClock(now func() time.Time) HealthOption {
	return func(h *HealthHandlers) {
		if now != nil {
			h.now = now
		}
	}
}

// NewHealthHandlers builds health handlers with the provided options.
func NewHealthHandlers(opts ...HealthOption) *HealthHandlers {
	h := &HealthHandlers{
		build:  BuildInfo{StartedAt: time.Now()},
		checks: make(map[string]ReadinessCheck),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Healthz reports process liveness.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	payload := map[string]any{
		"status":    "ok",
		"uptime":    now.Sub(h.build.StartedAt).String(),
		"timestamp": now.UTC().Format(time.RFC3339),
	}
	if h.build.Version != "" {
		payload["version"] = h.build.Version
	}
	if h.build.CommitSHA != "" {
		payload["commitSha"] = h.build.CommitSHA
	}
	if h.build.Environment != "" {
		payload["environment"] = h.build.Environment
	}
	httpx.WriteJSON(w, http.StatusOK, payload)
}

// Readyz runs every registered readiness check and reports 503 when any fails.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	type checkResult struct {
		Status    string `json:"status"`
		Error     string `json:"error,omitempty"`
		CheckedAt string `json:"checkedAt"`
	}

	now := h.now()
	status := "ok"
	checks := make(map[string]checkResult, len(h.checks))
	details := make([]string, 0)

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		result := checkResult{Status: "ok", CheckedAt: now.UTC().Format(time.RFC3339)}
		if err := h.checks[name](r); err != nil {
			status = "degraded"
			result.Status = "degraded"
			result.Error = err.Error()
			details = append(details, name+": "+err.Error())
		}
		checks[name] = result
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}

	httpx.WriteJSON(w, code, map[string]any{
		"status":    status,
		"checks":    checks,
		"details":   details,
		"timestamp": now.UTC().Format(time.RFC3339),
	})
}
