package handler

import (
	"net/http"

	"g2-yoyodex/internal/syncer"
	"g2-yoyodex/pkg/response"
)

// SyncEngine exposes the sync engine's state.
type SyncEngine interface {
	Readiness
	Status() syncer.Status
}

// Trigger schedules a refresh.
type Trigger interface {
	Trigger()
}

// SyncHandler reports and triggers dataset refreshes.
type SyncHandler struct {
	engine  SyncEngine
	trigger Trigger
}

// NewSyncHandler creates a sync handler.
func NewSyncHandler(engine SyncEngine, trigger Trigger) *SyncHandler {
	return &SyncHandler{engine: engine, trigger: trigger}
}

// Status handles GET /api/v1/sync/status
func (h *SyncHandler) Status(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	response.OK(w, h.engine.Status())
}

// Refresh handles POST /api/v1/sync/refresh. Bursts collapse into one
// refresh; the call returns before it runs.
func (h *SyncHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	h.trigger.Trigger()
	response.Accepted(w, map[string]string{"status": "scheduled"})
}
