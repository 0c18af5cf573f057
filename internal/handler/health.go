package handler

import (
	"net/http"
	"runtime"
	"time"

	"g2-yoyodex/pkg/apierror"
	"g2-yoyodex/pkg/response"
)

// Readiness reports whether the catalog has data to serve.
type Readiness interface {
	Ready() bool
	LoadFailed() bool
}

// Handler contains the health endpoints.
type Handler struct {
	service   string
	version   string
	readiness Readiness
	startTime time.Time
}

// New creates a new handler. readiness may be nil, in which case the
// service always reports ready.
func New(service, version string, readiness Readiness) *Handler {
	return &Handler{
		service:   service,
		version:   version,
		readiness: readiness,
		startTime: time.Now(),
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

// Health handles GET /api/v1/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   h.version,
	}
	response.OK(w, resp)
}

// ReadyResponse represents the readiness check response.
type ReadyResponse struct {
	Ready      bool      `json:"ready"`
	LoadFailed bool      `json:"load_failed"`
	Timestamp  time.Time `json:"timestamp"`
	Checks     []Check   `json:"checks"`
}

// Check represents an individual readiness check.
type Check struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// Ready handles GET /api/v1/ready
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	checks := []Check{{Name: "api", Status: "ok"}}
	loadFailed := false

	if h.readiness != nil {
		catalog := Check{Name: "catalog", Status: "ok"}
		switch {
		case h.readiness.LoadFailed():
			catalog.Status = "load_failed"
			loadFailed = true
		case !h.readiness.Ready():
			catalog.Status = "loading"
		}
		checks = append(checks, catalog)
	}

	allReady := true
	for _, check := range checks {
		if check.Status != "ok" {
			allReady = false
			break
		}
	}

	resp := ReadyResponse{
		Ready:      allReady,
		LoadFailed: loadFailed,
		Timestamp:  time.Now().UTC(),
		Checks:     checks,
	}

	if loadFailed {
		apierror.ServiceUnavailable("catalog could not be loaded").
			WithDetails(apierror.FieldError{Field: "catalog", Message: "first load failed and no cached copy exists"}).
			Write(w)
		return
	}
	if !allReady {
		response.JSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	response.OK(w, resp)
}

// StatusChecks represents the checks in status response
type StatusChecks struct {
	Catalog  string  `json:"catalog"`
	MemoryMB float64 `json:"memory_mb"`
}

// StatusResponse represents the unified status response for bot monitoring
type StatusResponse struct {
	Service       string       `json:"service"`
	Status        string       `json:"status"`
	Timestamp     string       `json:"timestamp"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	Checks        StatusChecks `json:"checks"`
}

// Status handles GET /api/status
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	memoryMB := float64(memStats.Alloc) / 1024 / 1024

	catalog := "ok"
	if h.readiness != nil {
		switch {
		case h.readiness.LoadFailed():
			catalog = "load_failed"
		case !h.readiness.Ready():
			catalog = "loading"
		}
	}

	resp := StatusResponse{
		Service:       h.service,
		Status:        "ok",
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Checks: StatusChecks{
			Catalog:  catalog,
			MemoryMB: float64(int(memoryMB*100)) / 100,
		},
	}

	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	response.OK(w, resp)
}
