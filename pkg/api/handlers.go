package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/goran-ethernal/ChainDemux/internal/logger"
	"github.com/goran-ethernal/ChainDemux/pkg/watcher"
)

const (
	healthOK    = "ok"
	healthError = "error"
)

// Handler handles HTTP requests for the API.
type Handler struct {
	controller watcher.Controller
	log        *logger.Logger
}

// NewHandler creates a new API handler.
func NewHandler(controller watcher.Controller, log *logger.Logger) *Handler {
	return &Handler{
		controller: controller,
		log:        log,
	}
}

// Info returns the aggregate reader, handler and watcher status.
// @Summary Indexing status
// @Description Get the reader position, handler state and watcher loop status
// @Tags Status
// @Produce json
// @Success 200 {object} watcher.Info "Indexing status"
// @Router /info [get]
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.controller.Info())
}

// Start resumes indexing.
// @Summary Start indexing
// @Description Resume the watcher loop. Success is false if the watcher was already indexing.
// @Tags Control
// @Produce json
// @Success 200 {object} SuccessResponse "Whether the watcher was started"
// @Router /start [post]
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	started := h.controller.Start()
	h.log.Infof("start requested: remote=%s success=%t", r.RemoteAddr, started)

	respondJSON(w, http.StatusOK, SuccessResponse{Success: started})
}

// Pause requests the watcher to pause after the block in flight.
// @Summary Pause indexing
// @Description Pause the watcher loop after the block in flight. Success is false if the watcher was not indexing.
// @Tags Control
// @Produce json
// @Success 200 {object} SuccessResponse "Whether a pause was requested"
// @Router /pause [post]
func (h *Handler) Pause(w http.ResponseWriter, r *http.Request) {
	paused := h.controller.Pause()
	h.log.Infof("pause requested: remote=%s success=%t", r.RemoteAddr, paused)

	respondJSON(w, http.StatusOK, SuccessResponse{Success: paused})
}

// Health reports whether the watcher loop is healthy.
// @Summary Health check
// @Description Check whether the watcher stopped because of an error
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse "Watcher is healthy"
// @Failure 503 {object} HealthResponse "Watcher stopped with an error"
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	info := h.controller.Info()

	response := HealthResponse{
		Status:                   healthOK,
		Timestamp:                time.Now(),
		IndexingStatus:           info.Watcher.IndexingStatus,
		LastProcessedBlockNumber: info.Handler.LastProcessedBlockNumber,
		HeadBlockNumber:          info.Reader.HeadBlockNumber,
		Error:                    info.Watcher.Error,
	}

	status := http.StatusOK
	if info.Watcher.IndexingStatus == watcher.StatusStopped && info.Watcher.Error != "" {
		response.Status = healthError
		status = http.StatusServiceUnavailable
	}

	respondJSON(w, status, response)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")

	// Encode JSON first to catch any errors before writing status
	encoded, err := json.Marshal(data)
	if err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)

	// Headers already sent, a failed write can only be dropped
	_, _ = w.Write(encoded)
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	response := ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	}
	respondJSON(w, status, response)
}
