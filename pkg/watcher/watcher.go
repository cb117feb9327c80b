package watcher

import (
	"github.com/goran-ethernal/ChainDemux/pkg/handler"
	"github.com/goran-ethernal/ChainDemux/pkg/reader"
)

// IndexingStatus is the lifecycle state of the watcher loop.
type IndexingStatus string

const (
	StatusInitial  IndexingStatus = "initial"
	StatusIndexing IndexingStatus = "indexing"
	StatusPausing  IndexingStatus = "pausing"
	StatusPaused   IndexingStatus = "paused"
	StatusStopped  IndexingStatus = "stopped"
)

// String returns the string representation of IndexingStatus.
func (s IndexingStatus) String() string {
	return string(s)
}

// Status is the watcher's own part of Info.
type Status struct {
	IndexingStatus       IndexingStatus `json:"indexingStatus"`
	CurrentBlockVelocity float64        `json:"currentBlockVelocity"`
	CurrentBlockInterval float64        `json:"currentBlockInterval"`
	MaxBlockVelocity     float64        `json:"maxBlockVelocity"`
	Error                string         `json:"error,omitempty"`
}

// Info aggregates the reader, handler and watcher snapshots.
type Info struct {
	Reader  reader.Info  `json:"reader"`
	Handler handler.Info `json:"handler"`
	Watcher Status       `json:"watcher"`
}

// Controller is the surface exposed to status and control transports.
type Controller interface {
	// Info returns the aggregate status snapshot.
	Info() Info

	// Start resumes indexing. It returns false if the watcher was already indexing.
	Start() bool

	// Pause requests the loop to stop after the in-flight block.
	// It returns false if the watcher was not indexing.
	Pause() bool
}
