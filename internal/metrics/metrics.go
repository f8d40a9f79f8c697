package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// SnapshotsTotal — общее число успешно декодированных снимков котировок.
	SnapshotsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "collector",
		Subsystem: "stream",
		Name:      "snapshots_total",
		Help:      "Total number of decoded quote snapshots",
	})

	// SerializeErrors — число ошибок сериализации снимка перед публикацией.
	SerializeErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "collector",
		Subsystem: "pipeline",
		Name:      "serialize_errors_total",
		Help:      "Total number of snapshot serialization errors",
	})

	// PublishErrors — число ошибок при публикации сообщений в Kafka.
	PublishErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "collector",
		Subsystem: "kafka",
		Name:      "publish_errors_total",
		Help:      "Total number of errors when publishing to Kafka",
	})

	// PublishLatency — гистограмма задержек от декодирования снимка до
	// публикации в Kafka.
	PublishLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "collector",
		Subsystem: "pipeline",
		Name:      "publish_latency_seconds",
		Help:      "Latency from decoding a snapshot to publishing to Kafka (seconds)",
		Buckets:   prometheus.DefBuckets,
	})
)

// Register регистрирует все метрики в заданном реестре.
// Можно вызвать без аргументов, чтобы зарегистрировать в DefaultRegisterer.
func Register(registerers ...prometheus.Registerer) {
	once.Do(func() {
		var reg prometheus.Registerer
		if len(registerers) > 0 && registerers[0] != nil {
			reg = registerers[0]
		} else {
			reg = prometheus.DefaultRegisterer
		}
		reg.MustRegister(
			SnapshotsTotal,
			SerializeErrors,
			PublishErrors,
			PublishLatency,
		)
	})
}
