// internal/app/collector.go
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/quotestream/collector/internal/config"
	httpserver "github.com/quotestream/collector/internal/http"
	"github.com/quotestream/collector/internal/metrics"
	"github.com/quotestream/collector/internal/processor"
	transport "github.com/quotestream/collector/internal/transport/invest"
	"github.com/quotestream/collector/pkg/backoff"
	"github.com/quotestream/collector/pkg/invest"
	"github.com/quotestream/collector/pkg/kafka"
	"github.com/quotestream/collector/pkg/logger"
	"github.com/quotestream/collector/pkg/telemetry"
)

// Run собирает зависимости и крутит сервис до отмены контекста.
// Каждому инструменту соответствует своя supervisor-горутина, которая
// переподключает сессию с экспоненциальным backoff.
func Run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	backoff.SetServiceLabel(cfg.ServiceName)
	metrics.Register()
	transport.RegisterMetrics()

	// --- Tracing (опционально) ---
	if cfg.Telemetry.OTLPEndpoint != "" {
		tcfg := cfg.Telemetry
		tcfg.ServiceName = cfg.ServiceName
		tcfg.ServiceVersion = cfg.ServiceVersion
		shutdown, err := telemetry.InitTracer(ctx, tcfg, log)
		if err != nil {
			return fmt.Errorf("app: init tracer: %w", err)
		}
		defer shutdownSafe(shutdown, log)
	} else {
		log.Warn("tracing disabled: telemetry.otel_endpoint is empty")
	}

	// --- Kafka ---
	producer, err := kafka.New(ctx, cfg.Kafka.Config, log)
	if err != nil {
		return fmt.Errorf("app: kafka producer: %w", err)
	}
	defer func() {
		if err := producer.Close(); err != nil {
			log.Error("kafka producer close failed", zap.Error(err))
		}
	}()

	proc, err := processor.New(producer, cfg.Kafka.Topic, log)
	if err != nil {
		return fmt.Errorf("app: processor: %w", err)
	}

	// --- Upstream ---
	manager, err := transport.NewManager(cfg.Invest.Config, log)
	if err != nil {
		return fmt.Errorf("app: session manager: %w", err)
	}

	httpSrv := httpserver.NewServer(cfg.HTTP, producer.Ping, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return httpSrv.Start(gctx) })

	for _, id := range cfg.Invest.Instruments {
		id := id
		g.Go(func() error {
			return superviseInstrument(gctx, manager, id, proc, cfg.Invest.Backoff, log)
		})
	}

	err = g.Wait()
	manager.CancelAll()
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// superviseInstrument держит инструмент подключённым: любое терминальное
// закрытие, кроме отмены, приводит к переподключению через backoff.
func superviseInstrument(
	ctx context.Context,
	manager *transport.Manager,
	instrumentID string,
	proc processor.Processor,
	bcfg backoff.Config,
	log *logger.Logger,
) error {
	log = log.Named("supervisor").With(zap.String("instrument", instrumentID))

	op := func(ctx context.Context) error {
		res := manager.Run(ctx, instrumentID, proc)
		switch res.Reason {
		case invest.CloseCancelled:
			return backoff.Permanent(context.Canceled)
		case invest.CloseEndOfStream:
			return fmt.Errorf("upstream closed the stream")
		default:
			if res.Err != nil {
				return res.Err
			}
			return fmt.Errorf("session closed: %s", res.Reason)
		}
	}

	err := backoff.Execute(ctx, bcfg, log, op)
	if ctx.Err() != nil {
		log.Info("supervisor stopped")
		return nil
	}
	if err != nil {
		return fmt.Errorf("app: instrument %s: %w", instrumentID, err)
	}
	return nil
}

func shutdownSafe(shutdown func(context.Context) error, log *logger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		log.Error("telemetry shutdown failed", zap.Error(err))
	}
}
