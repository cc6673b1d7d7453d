package telemetry

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	creationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_product_creations_total",
		Help: "Product creation attempts by category and outcome",
	}, []string{"category", "outcome"})

	creationStageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_product_creation_stage_seconds",
		Help:    "Wall-clock duration of each product creation stage",
		Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"stage"})
)

// CreationMetrics is the one record emitted at the end of every creation attempt.
type CreationMetrics struct {
	OperationID         string
	ProductName         string
	SKU                 string
	Category            string
	ValidationDuration  time.Duration
	PersistenceDuration time.Duration
	TotalDuration       time.Duration
	Success             bool
	// ErrorReason is empty on success.
	ErrorReason string
}

// Fields renders the record as an event payload.
func (m CreationMetrics) Fields() Fields {
	f := Fields{
		"operation_id":         m.OperationID,
		"product_name":         m.ProductName,
		"sku":                  m.SKU,
		"category":             m.Category,
		"validation_duration":  m.ValidationDuration,
		"persistence_duration": m.PersistenceDuration,
		"total_duration":       m.TotalDuration,
		"success":              m.Success,
	}
	if !m.Success {
		f["error_reason"] = m.ErrorReason
	}
	return f
}

// Recorder emits MetricsRecorded events and feeds the prometheus collectors.
type Recorder struct {
	sink Sink
}

func NewRecorder(sink Sink) *Recorder {
	return &Recorder{sink: sink}
}

func (r *Recorder) Record(ctx context.Context, m CreationMetrics) {
	outcome := "success"
	if !m.Success {
		outcome = "failure"
	}
	creationTotal.WithLabelValues(m.Category, outcome).Inc()
	creationStageDuration.WithLabelValues("validation").Observe(m.ValidationDuration.Seconds())
	if m.PersistenceDuration > 0 {
		creationStageDuration.WithLabelValues("persistence").Observe(m.PersistenceDuration.Seconds())
	}
	creationStageDuration.WithLabelValues("total").Observe(m.TotalDuration.Seconds())

	r.sink.Emit(ctx, MetricsRecorded, m.Fields())
}
