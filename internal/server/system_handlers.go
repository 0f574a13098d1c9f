package server

import (
	"encoding/json"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/tradekeeper/tradekeeper/internal/database"
)

// SystemHandlers handles the health and system monitoring endpoints
type SystemHandlers struct {
	log         zerolog.Logger
	dataDir     string
	db          *database.DB
	startupTime time.Time
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(log zerolog.Logger, dataDir string, db *database.DB) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("component", "system_handlers").Logger(),
		dataDir:     dataDir,
		db:          db,
		startupTime: time.Now(),
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string `json:"status"` // "healthy" or "unhealthy"
	Database string `json:"database"`
	Uptime   string `json:"uptime"`
}

// SystemInfoResponse represents host and process statistics
type SystemInfoResponse struct {
	UptimeHours    float64 `json:"uptime_hours"`
	CPUPercent     float64 `json:"cpu_percent"`
	RAMPercent     float64 `json:"ram_percent"`
	RAMUsedMB      float64 `json:"ram_used_mb"`
	DiskUsedMB     float64 `json:"disk_used_mb"`
	DiskFreeMB     float64 `json:"disk_free_mb"`
	DatabaseSizeMB float64 `json:"database_size_mb"`
	Goroutines     int     `json:"goroutines"`
	GoVersion      string  `json:"go_version"`
}

// HandleHealth handles GET /health
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:   "healthy",
		Database: "ok",
		Uptime:   time.Since(h.startupTime).Round(time.Second).String(),
	}

	status := http.StatusOK
	if err := h.db.QuickCheck(r.Context()); err != nil {
		h.log.Error().Err(err).Msg("Database health check failed")
		response.Status = "unhealthy"
		response.Database = err.Error()
		status = http.StatusServiceUnavailable
	}

	h.writeJSON(w, status, response)
}

// HandleSystemInfo handles GET /api/system/info
func (h *SystemHandlers) HandleSystemInfo(w http.ResponseWriter, r *http.Request) {
	response := SystemInfoResponse{
		UptimeHours: time.Since(h.startupTime).Hours(),
		Goroutines:  runtime.NumGoroutine(),
		GoVersion:   runtime.Version(),
	}

	// Short sampling interval so the endpoint stays responsive.
	if cpuPercent, err := cpu.Percent(100*time.Millisecond, false); err == nil && len(cpuPercent) > 0 {
		response.CPUPercent = cpuPercent[0]
	} else if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
	}

	if memStat, err := mem.VirtualMemory(); err == nil {
		response.RAMPercent = memStat.UsedPercent
		response.RAMUsedMB = float64(memStat.Used) / 1024 / 1024
	} else {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
	}

	if diskStat, err := disk.Usage(h.dataDir); err == nil {
		response.DiskUsedMB = float64(diskStat.Used) / 1024 / 1024
		response.DiskFreeMB = float64(diskStat.Free) / 1024 / 1024
	} else {
		h.log.Warn().Err(err).Msg("Failed to get disk usage")
	}

	if info, err := os.Stat(h.db.Path()); err == nil {
		response.DatabaseSizeMB = float64(info.Size()) / 1024 / 1024
	}

	h.writeJSON(w, http.StatusOK, response)
}

// writeJSON writes a JSON response
func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
