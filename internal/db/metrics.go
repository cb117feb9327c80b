package db

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeSuccess = "success"
	outcomeError   = "error"
)

var (
	maintenanceRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chaindemux_state_db_maintenance_runs_total",
			Help: "Completed maintenance runs of the state store database by outcome",
		},
		[]string{"outcome"},
	)

	maintenanceDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chaindemux_state_db_maintenance_duration_seconds",
			Help:    "Time spent holding the state store exclusively for maintenance",
			Buckets: prometheus.DefBuckets,
		},
	)

	maintenanceLastRun = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chaindemux_state_db_maintenance_last_run_timestamp",
			Help: "Unix timestamp of the last completed maintenance run",
		},
	)

	reclaimedBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chaindemux_state_db_reclaimed_bytes_total",
			Help: "Bytes freed by maintenance, mostly history rows pruned below the last irreversible block",
		},
	)

	stateDBSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chaindemux_state_db_size_bytes",
			Help: "State store size on disk including WAL and shared memory files",
		},
	)

	walCheckpoints = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chaindemux_state_db_wal_checkpoints_total",
			Help: "WAL checkpoints issued by maintenance by mode",
		},
		[]string{"mode"},
	)

	vacuums = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chaindemux_state_db_vacuums_total",
			Help: "Successful VACUUM runs on the state store",
		},
	)
)

// maintenanceReport is what a completed maintenance run contributes to the metrics.
type maintenanceReport struct {
	finishedAt time.Time
	duration   time.Duration
	sizeBefore int64
	sizeAfter  int64
	err        error
}

func (r maintenanceReport) outcome() string {
	if r.err != nil {
		return outcomeError
	}

	return outcomeSuccess
}

// reclaimed is zero when the size could not be read or the file grew.
func (r maintenanceReport) reclaimed() int64 {
	if r.sizeBefore <= 0 || r.sizeAfter <= 0 || r.sizeAfter >= r.sizeBefore {
		return 0
	}

	return r.sizeBefore - r.sizeAfter
}

func (r maintenanceReport) observe() {
	maintenanceRuns.WithLabelValues(r.outcome()).Inc()
	maintenanceDuration.Observe(r.duration.Seconds())
	maintenanceLastRun.Set(float64(r.finishedAt.Unix()))

	if r.sizeAfter > 0 {
		stateDBSize.Set(float64(r.sizeAfter))
	}

	reclaimedBytes.Add(float64(r.reclaimed()))
}
