package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 结果类别
const (
	outcomeOK    = "ok"
	outcomeError = "error"
	outcomeLost  = "lost"
)

// Metrics 协调器指标
//
// 所有指标只由 EventLoop 更新。
type Metrics struct {
	actions       *prometheus.CounterVec
	results       *prometheus.CounterVec
	pending       prometheus.Gauge
	notifications prometheus.Counter
	stale         prometheus.Counter
}

// NewMetrics 创建协调器指标并注册到 reg
//
// reg 为 nil 时只创建不注册。
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		actions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fileshare",
			Subsystem: "client",
			Name:      "actions_total",
			Help:      "Actions dequeued by the coordinator, by kind.",
		}, []string{"kind"}),
		results: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fileshare",
			Subsystem: "client",
			Name:      "results_total",
			Help:      "Reply slots resolved or abandoned by the coordinator, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		pending: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "fileshare",
			Subsystem: "client",
			Name:      "pending_requests",
			Help:      "Entries currently held in the pending-request tables.",
		}),
		notifications: f.NewCounter(prometheus.CounterOpts{
			Namespace: "fileshare",
			Subsystem: "client",
			Name:      "notifications_total",
			Help:      "Unsolicited engine events forwarded to the notification stream.",
		}),
		stale: f.NewCounter(prometheus.CounterOpts{
			Namespace: "fileshare",
			Subsystem: "client",
			Name:      "stale_events_total",
			Help:      "Completion events discarded because no pending entry matched.",
		}),
	}
}

func (m *Metrics) action(kind string) {
	m.actions.WithLabelValues(kind).Inc()
}

func (m *Metrics) result(kind string, err error) {
	outcome := outcomeOK
	if err != nil {
		outcome = outcomeError
	}
	m.results.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) lost(kind string, n int) {
	if n > 0 {
		m.results.WithLabelValues(kind, outcomeLost).Add(float64(n))
	}
}
