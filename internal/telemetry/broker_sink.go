package telemetry

import (
	"context"
	"encoding/json"
	"time"

	"catalog/internal/logging"

	"go.uber.org/zap"
)

// Publisher sends a message body to the broker under a routing key.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

// BrokerMessage is the JSON envelope published for every event.
type BrokerMessage struct {
	Event      EventKind      `json:"event"`
	OccurredAt time.Time      `json:"occurred_at"`
	Fields     map[string]any `json:"fields"`
}

// BrokerSink publishes events to the message broker. Publish failures are
// logged and never surface to the pipeline.
type BrokerSink struct {
	publisher Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewBrokerSink(publisher Publisher, logger *zap.Logger) *BrokerSink {
	return &BrokerSink{publisher: publisher, logger: logger, now: time.Now}
}

var routingKeys = map[EventKind]string{
	CreationStarted:          "product.creation_started",
	SKUValidationPerformed:   "product.sku_validation_performed",
	StockValidationPerformed: "product.stock_validation_performed",
	ValidationFailed:         "product.validation_failed",
	PersistenceStarted:       "product.persistence_started",
	PersistenceCompleted:     "product.persistence_completed",
	CacheInvalidated:         "product.cache_invalidated",
	CreationCompleted:        "product.creation_completed",
	MetricsRecorded:          "product.metrics_recorded",
}

// RoutingKey maps an event kind to its topic routing key.
func RoutingKey(kind EventKind) string {
	if key, ok := routingKeys[kind]; ok {
		return key
	}
	return "product.unknown"
}

func (s *BrokerSink) Emit(ctx context.Context, kind EventKind, fields Fields) {
	payload := make(map[string]any, len(fields))
	for k, v := range fields {
		if d, ok := v.(time.Duration); ok {
			payload[k+"_ms"] = float64(d) / float64(time.Millisecond)
			continue
		}
		payload[k] = v
	}

	body, err := json.Marshal(BrokerMessage{Event: kind, OccurredAt: s.now().UTC(), Fields: payload})
	if err != nil {
		logging.Warn(ctx, s.logger, "Failed to marshal pipeline event", zap.String("event", string(kind)), zap.Error(err))
		return
	}

	if err := s.publisher.Publish(ctx, RoutingKey(kind), body); err != nil {
		logging.Warn(ctx, s.logger, "Failed to publish pipeline event", zap.String("event", string(kind)), zap.Error(err))
	}
}
