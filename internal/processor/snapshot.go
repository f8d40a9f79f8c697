// internal/processor/snapshot.go
package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/quotestream/collector/internal/metrics"
	"github.com/quotestream/collector/pkg/invest"
	"github.com/quotestream/collector/pkg/kafka"
	"github.com/quotestream/collector/pkg/logger"
)

var tracer = otel.Tracer("snapshot-processor")

// snapshotProcessor сериализует снимок в JSON и публикует его в Kafka.
// Ключ сообщения — идентификатор инструмента, чтобы все снимки одного
// инструмента попадали в одну партицию и сохраняли порядок.
type snapshotProcessor struct {
	producer kafka.Producer
	topic    string
	log      *logger.Logger
}

// New создаёт процессор снимков с публикацией в заданный топик.
func New(producer kafka.Producer, topic string, log *logger.Logger) (Processor, error) {
	if topic == "" {
		return nil, fmt.Errorf("processor: topic is required")
	}
	return &snapshotProcessor{
		producer: producer,
		topic:    topic,
		log:      log.Named("processor"),
	}, nil
}

func (p *snapshotProcessor) Process(ctx context.Context, snap invest.Snapshot) error {
	ctx, span := tracer.Start(ctx, "Process",
		trace.WithAttributes(attribute.String("pid", snap.PID)))
	defer span.End()
	start := time.Now()

	payload, err := json.Marshal(snap)
	if err != nil {
		metrics.SerializeErrors.Inc()
		span.RecordError(err)
		p.log.Error("snapshot marshal failed", zap.String("pid", snap.PID), zap.Error(err))
		return fmt.Errorf("processor: marshal snapshot: %w", err)
	}

	if err := p.producer.Publish(ctx, p.topic, []byte(snap.PID), payload); err != nil {
		metrics.PublishErrors.Inc()
		span.RecordError(err)
		return fmt.Errorf("processor: publish snapshot: %w", err)
	}

	metrics.PublishLatency.Observe(time.Since(start).Seconds())
	p.log.Debug("snapshot published",
		zap.String("pid", snap.PID),
		zap.Uint64("timestamp", snap.Timestamp),
	)
	return nil
}
