package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type ImportMetrics struct {
	rowsTotal  *prometheus.CounterVec
	tasksTotal *prometheus.CounterVec

	taskDuration *prometheus.HistogramVec
}

var importSingleton = sync.OnceValue(func() *ImportMetrics {
	return &ImportMetrics{
		rowsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cargoflow",
			Subsystem: "import",
			Name:      "rows_total",
			Help:      "Total number of import rows by pipeline outcome.",
		}, []string{"variant", "outcome"}),
		tasksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cargoflow",
			Subsystem: "import",
			Name:      "tasks_total",
			Help:      "Total number of import tasks by terminal status.",
		}, []string{"variant", "status"}),
		taskDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cargoflow",
			Subsystem: "import",
			Name:      "task_duration_seconds",
			Help:      "Wall-clock duration of asynchronous import tasks.",
			Buckets: []float64{
				0.1, 0.2, 0.5,
				1, 2, 5,
				10, 30, 60, 120, 300,
			},
		}, []string{"variant"}),
	}
})

func Import() *ImportMetrics {
	return importSingleton()
}

func (m *ImportMetrics) RecordRows(variant, outcome string, n int) {
	if n <= 0 {
		return
	}
	m.rowsTotal.WithLabelValues(variant, outcome).Add(float64(n))
}

func (m *ImportMetrics) RecordTask(variant, status string, started time.Time) {
	m.tasksTotal.WithLabelValues(variant, status).Inc()
	m.taskDuration.WithLabelValues(variant).Observe(time.Since(started).Seconds())
}
