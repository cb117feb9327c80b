package metrics

import (
	"maps"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database metrics
	dbQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chaindemux_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"db", "operation"},
	)

	dbQueryTime = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chaindemux_db_query_duration_seconds",
			Help:    "Duration of database queries",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"db", "operation"},
	)

	dbErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chaindemux_db_errors_total",
			Help: "Total number of database errors",
		},
		[]string{"db", "error_type"},
	)

	// Indexing metrics
	LastProcessedBlock = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chaindemux_last_processed_block",
			Help: "The last block number successfully handled",
		},
	)

	BlocksProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chaindemux_blocks_processed_total",
			Help: "Total number of blocks handled",
		},
		[]string{"mode"},
	)

	ActionsProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chaindemux_actions_processed_total",
			Help: "Total number of actions passed through updaters",
		},
	)

	BlockProcessingTime = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chaindemux_block_processing_duration_seconds",
			Help:    "Time taken to read and handle a single block",
			Buckets: prometheus.DefBuckets,
		},
	)

	Rollbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chaindemux_rollbacks_total",
			Help: "Total number of state rollbacks performed by the handler",
		},
	)

	HandlerVersionSwitches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chaindemux_handler_version_switches_total",
			Help: "Total number of handler version switches by target version",
		},
		[]string{"version"},
	)

	BlockVelocity = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chaindemux_block_velocity_blocks_per_second",
			Help: "Current block velocity in blocks per second",
		},
	)

	WatcherStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chaindemux_watcher_status",
			Help: "Watcher indexing status (1 for the active status, 0 otherwise)",
		},
		[]string{"status"},
	)

	// Effect metrics
	Effects = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chaindemux_effects_total",
			Help: "Total number of effects by outcome",
		},
		[]string{"outcome"},
	)

	RunningEffects = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chaindemux_running_effects",
			Help: "Number of effects currently running",
		},
	)

	// System metrics
	Uptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chaindemux_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)

	Errors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chaindemux_errors_total",
			Help: "Total number of errors by component and severity",
		},
		[]string{"component", "severity"},
	)

	ComponentHealth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chaindemux_component_health",
			Help: "Component health status (1=healthy, 0=unhealthy)",
		},
		[]string{"component"},
	)

	Goroutines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chaindemux_goroutines",
			Help: "Number of active goroutines",
		},
	)

	MemoryUsage = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chaindemux_memory_usage_bytes",
			Help: "Memory usage statistics",
		},
		[]string{"type"},
	)

	startTime = time.Now()

	healthMu sync.RWMutex
	health   = make(map[string]bool)
)

// Effect outcomes.
const (
	EffectStarted   = "started"
	EffectSucceeded = "succeeded"
	EffectFailed    = "failed"
	EffectDeferred  = "deferred"
	EffectDiscarded = "discarded"
)

func DBQueryInc(db string, operation string) {
	dbQueries.WithLabelValues(db, operation).Inc()
}

func DBQueryDuration(db string, operation string, duration time.Duration) {
	dbQueryTime.WithLabelValues(db, operation).Observe(duration.Seconds())
}

func DBErrorsInc(db string, errorType string) {
	dbErrors.WithLabelValues(db, errorType).Inc()
}

func BlockProcessingTimeLog(duration time.Duration) {
	BlockProcessingTime.Observe(duration.Seconds())
}

func BlockHandledLog(blockNum uint64, actions int, isReplay bool) {
	mode := "live"
	if isReplay {
		mode = "replay"
	}

	BlocksProcessed.WithLabelValues(mode).Inc()
	ActionsProcessed.Add(float64(actions))
	LastProcessedBlock.Set(float64(blockNum))
}

func RollbackInc() {
	Rollbacks.Inc()
}

func HandlerVersionSwitchInc(version string) {
	HandlerVersionSwitches.WithLabelValues(version).Inc()
}

func EffectsInc(outcome string, count int) {
	Effects.WithLabelValues(outcome).Add(float64(count))
}

func RunningEffectsSet(count int) {
	RunningEffects.Set(float64(count))
}

func BlockVelocityLog(velocity float64) {
	BlockVelocity.Set(velocity)
}

// WatcherStatusSet marks status as the active watcher status.
func WatcherStatusSet(status string, all []string) {
	for _, s := range all {
		value := float64(0)
		if s == status {
			value = 1
		}
		WatcherStatus.WithLabelValues(s).Set(value)
	}
}

func ErrorsInc(component, severity string) {
	Errors.WithLabelValues(component, severity).Inc()
}

func ComponentHealthSet(component string, healthy bool) {
	healthMu.Lock()
	health[component] = healthy
	healthMu.Unlock()

	boolAsFloat := float64(1)
	if !healthy {
		boolAsFloat = 0
	}

	ComponentHealth.WithLabelValues(component).Set(boolAsFloat)
}

// UnhealthyComponents returns the sorted names of the components last reported unhealthy.
func UnhealthyComponents() []string {
	healthMu.RLock()
	defer healthMu.RUnlock()

	unhealthy := maps.Clone(health)
	maps.DeleteFunc(unhealthy, func(_ string, healthy bool) bool { return healthy })

	return slices.Sorted(maps.Keys(unhealthy))
}

// UpdateSystemMetrics updates runtime system metrics.
// This should be called periodically (e.g., every 15 seconds).
func UpdateSystemMetrics() {
	Uptime.Set(time.Since(startTime).Seconds())

	Goroutines.Set(float64(runtime.NumGoroutine()))

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	MemoryUsage.WithLabelValues("alloc").Set(float64(m.Alloc))
	MemoryUsage.WithLabelValues("total_alloc").Set(float64(m.TotalAlloc))
	MemoryUsage.WithLabelValues("sys").Set(float64(m.Sys))
	MemoryUsage.WithLabelValues("heap_inuse").Set(float64(m.HeapInuse))
}
