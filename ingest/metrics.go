package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	filesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "demoscope",
		Subsystem: "ingest",
		Name:      "files_total",
		Help:      "Files submitted for normalization, by outcome.",
	}, []string{"status"})

	rowsAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "demoscope",
		Subsystem: "ingest",
		Name:      "rows_accepted_total",
		Help:      "Rows accepted into the unified record set.",
	})

	rowsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "demoscope",
		Subsystem: "ingest",
		Name:      "rows_dropped_total",
		Help:      "Rows silently dropped (blank or missing geography).",
	})
)
