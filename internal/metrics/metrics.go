package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the bot's Prometheus collectors.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	MessagesIngested *prometheus.CounterVec
	PendingCreated   *prometheus.CounterVec
	PendingResolved  *prometheus.CounterVec
	PendingSwept     prometheus.Counter
	Generations      *prometheus.CounterVec
}

// New creates collectors on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		MessagesIngested: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rantbot_messages_ingested_total",
			Help: "Chat messages folded into user context, by platform and result",
		}, []string{"platform", "result"}), // result: "ok" or "error"

		PendingCreated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rantbot_pending_created_total",
			Help: "Pending payment callbacks issued",
		}, []string{"platform", "command"}),

		PendingResolved: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rantbot_pending_resolved_total",
			Help: "Payment completions received, by result",
		}, []string{"result"}), // result: "fulfilled" or "absent"

		PendingSwept: f.NewCounter(prometheus.CounterOpts{
			Name: "rantbot_pending_swept_total",
			Help: "Expired pending callbacks removed by the sweeper",
		}),

		Generations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rantbot_generations_total",
			Help: "Generated replies by command and result",
		}, []string{"command", "result"}), // result: "ok", "fallback" or "error"
	}
}

// RegisterPendingGauge exposes the current pending count via fn
func (m *Metrics) RegisterPendingGauge(fn func() float64) {
	if m == nil {
		return
	}
	m.Registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "rantbot_pending_current",
		Help: "Pending payment callbacks currently stored",
	}, fn))
}

func (m *Metrics) IncIngested(platform, result string) {
	if m == nil {
		return
	}
	m.MessagesIngested.WithLabelValues(platform, result).Inc()
}

func (m *Metrics) IncPendingCreated(platform, command string) {
	if m == nil {
		return
	}
	m.PendingCreated.WithLabelValues(platform, command).Inc()
}

func (m *Metrics) IncPendingResolved(result string) {
	if m == nil {
		return
	}
	m.PendingResolved.WithLabelValues(result).Inc()
}

func (m *Metrics) AddSwept(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.PendingSwept.Add(float64(n))
}

func (m *Metrics) IncGeneration(command, result string) {
	if m == nil {
		return
	}
	m.Generations.WithLabelValues(command, result).Inc()
}
