// Package telemetry defines the creation pipeline's event vocabulary and the
// sinks that receive it: structured logs, the message broker and prometheus.
package telemetry

import "context"

// EventKind names one step of the product creation pipeline.
type EventKind string

const (
	CreationStarted          EventKind = "CreationStarted"
	SKUValidationPerformed   EventKind = "SKUValidationPerformed"
	StockValidationPerformed EventKind = "StockValidationPerformed"
	ValidationFailed         EventKind = "ValidationFailed"
	PersistenceStarted       EventKind = "PersistenceStarted"
	PersistenceCompleted     EventKind = "PersistenceCompleted"
	CacheInvalidated         EventKind = "CacheInvalidated"
	CreationCompleted        EventKind = "CreationCompleted"
	MetricsRecorded          EventKind = "MetricsRecorded"
)

// EventKinds lists the full vocabulary in pipeline order.
var EventKinds = []EventKind{
	CreationStarted,
	SKUValidationPerformed,
	StockValidationPerformed,
	ValidationFailed,
	PersistenceStarted,
	PersistenceCompleted,
	CacheInvalidated,
	CreationCompleted,
	MetricsRecorded,
}

// Fields carries the structured payload of an event.
type Fields map[string]any

// Sink receives pipeline events. Emit must not block the caller for long and never fails the pipeline.
type Sink interface {
	Emit(ctx context.Context, kind EventKind, fields Fields)
}

type multiSink []Sink

// Multi fans every event out to all non-nil sinks in order.
func Multi(sinks ...Sink) Sink {
	var m multiSink
	for _, s := range sinks {
		if s != nil {
			m = append(m, s)
		}
	}
	return m
}

func (m multiSink) Emit(ctx context.Context, kind EventKind, fields Fields) {
	for _, s := range m {
		s.Emit(ctx, kind, fields)
	}
}
