package port

import (
	"context"
	"time"
)

// UsageMetric is a single service counter or gauge observation.
type UsageMetric struct {
	Name       string
	Value      float64
	Unit       string // "count", "bytes", "ms"
	Dimensions map[string]string
	ObservedAt time.Time
}

// MetricsPublisher ships usage metrics to an external observability platform (Port).
type MetricsPublisher interface {
	// PublishBatch publishes multiple metrics in one operation.
	PublishBatch(ctx context.Context, metrics []UsageMetric) error

	// PublishSingle publishes one metric immediately, bypassing the buffer.
	PublishSingle(ctx context.Context, metric UsageMetric) error

	// Flush forces publication of buffered metrics. Called on shutdown.
	Flush(ctx context.Context) error
}
