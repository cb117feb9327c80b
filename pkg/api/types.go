package api

import (
	"time"

	"github.com/goran-ethernal/ChainDemux/pkg/watcher"
)

// SuccessResponse is returned by the control endpoints.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}

// HealthResponse represents a health check response.
type HealthResponse struct {
	Status                   string                 `json:"status"`
	Timestamp                time.Time              `json:"timestamp"`
	IndexingStatus           watcher.IndexingStatus `json:"indexing_status"`
	LastProcessedBlockNumber uint64                 `json:"last_processed_block_number"`
	HeadBlockNumber          uint64                 `json:"head_block_number"`
	Error                    string                 `json:"error,omitempty"`
}
