// internal/transport/invest/metrics.go
package invest

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	metricsOnce sync.Once

	// connectsTotal — попытки установить сессию, по статусу (ok | error).
	connectsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "collector",
		Subsystem: "invest_ws",
		Name:      "connects_total",
		Help:      "Total number of upstream session attempts by status",
	}, []string{"status"})

	// snapshotsTotal — декодированные снимки по инструментам.
	snapshotsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "collector",
		Subsystem: "invest_ws",
		Name:      "snapshots_total",
		Help:      "Total number of decoded snapshots by instrument",
	}, []string{"instrument"})

	// sessionsClosedTotal — терминальные исходы сессий по причинам.
	sessionsClosedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "collector",
		Subsystem: "invest_ws",
		Name:      "sessions_closed_total",
		Help:      "Total number of closed sessions by terminal reason",
	}, []string{"reason"})

	// handlerErrors — ошибки обработчика снимков (downstream-пайплайн).
	handlerErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "collector",
		Subsystem: "invest_ws",
		Name:      "handler_errors_total",
		Help:      "Total number of snapshot handler errors",
	})
)

// RegisterMetrics регистрирует метрики транспортного слоя.
// Без аргументов используется prometheus.DefaultRegisterer.
func RegisterMetrics(registerers ...prometheus.Registerer) {
	metricsOnce.Do(func() {
		var reg prometheus.Registerer
		if len(registerers) > 0 && registerers[0] != nil {
			reg = registerers[0]
		} else {
			reg = prometheus.DefaultRegisterer
		}
		reg.MustRegister(
			connectsTotal,
			snapshotsTotal,
			sessionsClosedTotal,
			handlerErrors,
		)
	})
}
