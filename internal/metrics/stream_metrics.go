package metrics

import (
	"github.com/annel0/chunkstream/internal/world"
	"github.com/prometheus/client_golang/prometheus"
)

// StreamMetrics Prometheus-метрики стримера чанков. Реализует world.Observer.
type StreamMetrics struct {
	created   prometheus.Counter
	destroyed prometheus.Counter
	skipped   prometheus.Counter
	failures  prometheus.Counter
	ticks     prometheus.Counter
	active    prometheus.Gauge
	reconcile prometheus.Histogram
	refX      prometheus.Gauge
	refZ      prometheus.Gauge
}

// NewStreamMetrics создаёт и регистрирует метрики в reg.
// nil означает глобальный регистр Prometheus.
func NewStreamMetrics(reg prometheus.Registerer) (*StreamMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &StreamMetrics{
		created: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chunkstream",
			Name:      "chunks_created_total",
			Help:      "Количество созданных чанков.",
		}),
		destroyed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chunkstream",
			Name:      "chunks_destroyed_total",
			Help:      "Количество удалённых чанков.",
		}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chunkstream",
			Name:      "ticks_skipped_total",
			Help:      "Тики без опорной точки.",
		}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chunkstream",
			Name:      "world_errors_total",
			Help:      "Ошибки мира при создании или удалении объектов.",
		}),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chunkstream",
			Name:      "ticks_total",
			Help:      "Все тики стримера, включая пропущенные.",
		}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "chunkstream",
			Name:      "active_chunks",
			Help:      "Текущее число активных чанков.",
		}),
		reconcile: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "chunkstream",
			Name:      "reconcile_duration_seconds",
			Help:      "Длительность сверки активного множества.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		refX: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "chunkstream",
			Name:      "reference_chunk_x",
			Help:      "X опорного чанка.",
		}),
		refZ: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "chunkstream",
			Name:      "reference_chunk_z",
			Help:      "Z опорного чанка.",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.created, m.destroyed, m.skipped, m.failures, m.ticks,
		m.active, m.reconcile, m.refX, m.refZ,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// OnChunkDelta реализует world.Observer
func (m *StreamMetrics) OnChunkDelta(d world.ChunkDelta) {
	m.ticks.Inc()
	if d.Skipped {
		m.skipped.Inc()
		return
	}
	m.created.Add(float64(len(d.Created)))
	m.destroyed.Add(float64(len(d.Destroyed)))
	m.failures.Add(float64(d.Failures))
	m.active.Set(float64(d.Active))
	m.reconcile.Observe(d.Duration.Seconds())
	m.refX.Set(float64(d.Reference.X))
	m.refZ.Set(float64(d.Reference.Z))
}
