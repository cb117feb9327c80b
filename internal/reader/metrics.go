package reader

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	forksDetected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chaindemux_forks_detected_total",
			Help: "Total number of forks detected by the reader",
		},
	)

	forkDepth = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chaindemux_fork_depth_blocks",
			Help:    "Number of blocks rewound to resolve a fork",
			Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
		},
	)

	forkLastDetected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chaindemux_fork_last_detected_timestamp",
			Help: "Unix timestamp of last fork detection",
		},
	)

	historyReloadAttempts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chaindemux_history_reload_attempts_total",
			Help: "Total number of history window reload attempts",
		},
	)

	headBlock = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chaindemux_reader_head_block",
			Help: "Head block number as last seen by the reader",
		},
	)

	lastIrreversibleBlock = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chaindemux_reader_last_irreversible_block",
			Help: "Last irreversible block number as last seen by the reader",
		},
	)

	currentBlock = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chaindemux_reader_current_block",
			Help: "Number of the last block delivered by the reader",
		},
	)
)

func forkResolvedLog(depth uint64) {
	forksDetected.Inc()
	forkDepth.Observe(float64(depth))
	forkLastDetected.Set(float64(time.Now().UTC().Unix()))
}

func positionLog(current, head, lastIrreversible uint64) {
	currentBlock.Set(float64(current))
	headBlock.Set(float64(head))
	lastIrreversibleBlock.Set(float64(lastIrreversible))
}
