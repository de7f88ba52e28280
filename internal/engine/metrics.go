package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "payflow_transfer_queue_depth",
		Help: "Number of transfer requests waiting for a worker",
	})

	transfersExecuted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payflow_transfers_executed_total",
		Help: "Total transfers executed, labeled by terminal state",
	}, []string{"state"})

	executionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "payflow_transfer_execution_duration_seconds",
		Help:    "Latency distribution of transfer executions",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	})

	workersBusy = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "payflow_workers_busy",
		Help: "Workers currently executing a transfer",
	})
)
