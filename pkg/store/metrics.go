package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StoreOperations tracks store operations by operation and result
	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagegen_store_operations_total",
			Help: "Total number of store operations",
		},
		[]string{"operation", "result"}, // result: "ok", "miss", "error"
	)

	// StoreBytes tracks the bytes written to Redis
	StoreBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pagegen_store_written_bytes_total",
			Help: "Total bytes written to Redis by the store",
		},
	)
)
