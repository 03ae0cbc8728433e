// Package metrics - счетчики Prometheus для сохранения оборудования и
// каскада мест хранения. Методы безопасны для nil-получателя.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "equipment_manager"

type Metrics struct {
	registry *prometheus.Registry
	records  *prometheus.CounterVec
	cascade  *prometheus.CounterVec
	renamed  prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_records_total",
			Help:      "Записи оборудования по итогу сохранения.",
		}, []string{"result"}),
		cascade: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cascade_assets_total",
			Help:      "Активы, обработанные каскадом места установки.",
		}, []string{"result"}),
		renamed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "identity_renames_total",
			Help:      "Ключи оборудования, измененные при разрешении коллизий.",
		}),
	}
	m.registry.MustRegister(
		m.records, m.cascade, m.renamed,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObservePersist(written, unchanged, skipped, failed, renamed int) {
	if m == nil {
		return
	}
	m.records.WithLabelValues("written").Add(float64(written))
	m.records.WithLabelValues("unchanged").Add(float64(unchanged))
	m.records.WithLabelValues("skipped").Add(float64(skipped))
	m.records.WithLabelValues("failed").Add(float64(failed))
	m.renamed.Add(float64(renamed))
}

func (m *Metrics) ObserveCascade(updated, failed int) {
	if m == nil {
		return
	}
	m.cascade.WithLabelValues("updated").Add(float64(updated))
	m.cascade.WithLabelValues("failed").Add(float64(failed))
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
