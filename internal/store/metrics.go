package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RowsUpserted tracks rows touched by upsert batches across both backends.
var RowsUpserted = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "marketpulse_rows_upserted_total",
	Help: "The total number of rows written or refreshed by upserts.",
}, []string{"table"})
