package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"g2-yoyodex/internal/cache"
	"g2-yoyodex/internal/logger"
	"g2-yoyodex/internal/service"
	"g2-yoyodex/pkg/response"
)

// DatasetAdmin inspects and purges the dataset cache.
type DatasetAdmin interface {
	Entries(ctx context.Context) ([]cache.EntryInfo, error)
	Purge(ctx context.Context) (int, error)
}

// SweepRunner runs every registered sweeper once.
type SweepRunner interface {
	RunNow(ctx context.Context) (map[string]int64, error)
}

// StatsProvider reports storage statistics.
type StatsProvider interface {
	GetStats(ctx context.Context) (map[string]interface{}, error)
}

// AdminConfig holds the admin handler's dependencies. Nil members are
// reported as not configured.
type AdminConfig struct {
	Catalog   *service.Catalog
	Datasets  DatasetAdmin
	Sweeper   SweepRunner
	Store     StatsProvider
	Engine    SyncEngine
	StoreType string
}

// AdminHandler handles admin-related HTTP requests.
type AdminHandler struct {
	cfg       AdminConfig
	log       *logger.Logger
	startTime time.Time
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(cfg AdminConfig, log *logger.Logger) *AdminHandler {
	return &AdminHandler{
		cfg:       cfg,
		log:       logger.OrNop(log).Component("admin"),
		startTime: time.Now(),
	}
}

// GetStats handles GET /api/v1/admin/stats
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats := make(map[string]interface{})

	// System info
	stats["uptime_seconds"] = int64(time.Since(h.startTime).Seconds())
	stats["uptime_human"] = time.Since(h.startTime).Round(time.Second).String()
	stats["server_time"] = time.Now().Format(time.RFC3339)
	stats["store_type"] = h.cfg.StoreType

	// Memory stats
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	stats["memory"] = map[string]interface{}{
		"alloc_mb":      float64(memStats.Alloc) / 1024 / 1024,
		"sys_mb":        float64(memStats.Sys) / 1024 / 1024,
		"heap_inuse_mb": float64(memStats.HeapInuse) / 1024 / 1024,
		"num_gc":        memStats.NumGC,
		"goroutines":    runtime.NumGoroutine(),
	}

	if h.cfg.Catalog != nil {
		stats["catalog"] = h.cfg.Catalog.Stats()
		if counts, err := h.cfg.Catalog.AnnotationCounts(ctx); err == nil {
			stats["annotations"] = counts
		} else {
			stats["annotations"] = errorStatus(err)
		}
	}

	if h.cfg.Engine != nil {
		stats["sync"] = h.cfg.Engine.Status()
	}

	if h.cfg.Datasets != nil {
		if entries, err := h.cfg.Datasets.Entries(ctx); err == nil {
			stats["datasets"] = entries
		} else {
			stats["datasets"] = errorStatus(err)
		}
	}

	if h.cfg.Store != nil {
		storeStats, err := h.cfg.Store.GetStats(ctx)
		if err == nil {
			storeStats["status"] = "connected"
			stats["store"] = storeStats
		} else {
			stats["store"] = errorStatus(err)
		}
	} else {
		stats["store"] = map[string]interface{}{"status": "not_configured"}
	}

	// Runtime info
	stats["runtime"] = map[string]interface{}{
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"cpus":       runtime.NumCPU(),
	}

	response.OK(w, stats)
}

func errorStatus(err error) map[string]interface{} {
	return map[string]interface{}{
		"status": "error",
		"error":  err.Error(),
	}
}

// PurgeCache handles POST /api/v1/admin/cache/purge. Annotations and
// sessions are kept.
func (h *AdminHandler) PurgeCache(w http.ResponseWriter, r *http.Request) {
	n, err := h.cfg.Datasets.Purge(r.Context())
	if err != nil {
		h.log.Error("purge failed", "error", err)
		response.Error(w, err)
		return
	}
	h.log.Info("dataset cache purged", "entries", n)
	response.OK(w, map[string]int{"purged": n})
}

// SweepCache handles POST /api/v1/admin/cache/sweep
func (h *AdminHandler) SweepCache(w http.ResponseWriter, r *http.Request) {
	removed, err := h.cfg.Sweeper.RunNow(r.Context())
	if err != nil {
		h.log.Error("sweep failed", "error", err)
		response.Error(w, err)
		return
	}
	response.OK(w, map[string]interface{}{"removed": removed})
}
