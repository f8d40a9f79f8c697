// internal/transport/invest/stream.go
package invest

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/quotestream/collector/internal/metrics"
	"github.com/quotestream/collector/internal/processor"
	investws "github.com/quotestream/collector/pkg/invest"
)

var tracer = otel.Tracer("invest-transport")

// newHandler оборачивает процессор в обработчик снимков с метриками.
// Ошибка процессора не фатальна для сессии: снимок теряется, потеря
// фиксируется в метриках и логах.
func (m *Manager) newHandler(ctx context.Context, instrumentID string, proc processor.Processor) investws.SnapshotHandler {
	log := m.log.With(zap.String("instrument", instrumentID))
	return func(snap investws.Snapshot) {
		snapshotsTotal.WithLabelValues(instrumentID).Inc()
		metrics.SnapshotsTotal.Inc()
		if err := proc.Process(ctx, snap); err != nil {
			handlerErrors.Inc()
			log.Error("snapshot processing failed", zap.Error(err))
		}
	}
}

// observeResult фиксирует терминальный результат сессии в метриках и спане.
func observeResult(span trace.Span, res investws.SessionResult) {
	sessionsClosedTotal.WithLabelValues(string(res.Reason)).Inc()
	if res.Reason == investws.CloseHandshakeFailed {
		connectsTotal.WithLabelValues("error").Inc()
	} else {
		connectsTotal.WithLabelValues("ok").Inc()
	}
	if res.Err != nil {
		span.RecordError(res.Err)
	}
	span.SetAttributes(attribute.String("close_reason", string(res.Reason)))
}
