package telemetry

import (
	"context"
	"sort"
	"time"

	"catalog/internal/logging"

	"go.uber.org/zap"
)

// LogSink writes every event as one structured zap line.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Emit(ctx context.Context, kind EventKind, fields Fields) {
	zapFields := make([]zap.Field, 0, len(fields)+1)
	zapFields = append(zapFields, zap.String("event", string(kind)))

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch v := fields[k].(type) {
		case time.Duration:
			zapFields = append(zapFields, zap.Float64(k+"_ms", float64(v)/float64(time.Millisecond)))
		default:
			zapFields = append(zapFields, zap.Any(k, v))
		}
	}

	switch kind {
	case ValidationFailed:
		logging.Warn(ctx, s.logger, "product pipeline event", zapFields...)
	case MetricsRecorded:
		if ok, _ := fields["success"].(bool); !ok {
			logging.Warn(ctx, s.logger, "product pipeline event", zapFields...)
			return
		}
		logging.Info(ctx, s.logger, "product pipeline event", zapFields...)
	default:
		logging.Info(ctx, s.logger, "product pipeline event", zapFields...)
	}
}
