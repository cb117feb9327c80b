package watcher

import (
	"github.com/goran-ethernal/ChainDemux/internal/common"
	"github.com/goran-ethernal/ChainDemux/internal/metrics"
	"github.com/goran-ethernal/ChainDemux/pkg/watcher"
)

var allStatuses = []string{
	watcher.StatusInitial.String(),
	watcher.StatusIndexing.String(),
	watcher.StatusPausing.String(),
	watcher.StatusPaused.String(),
	watcher.StatusStopped.String(),
}

func statusLog(status watcher.IndexingStatus) {
	metrics.WatcherStatusSet(status.String(), allStatuses)
	metrics.ComponentHealthSet(common.ComponentWatcher, status != watcher.StatusStopped)
}
