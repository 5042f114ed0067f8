package app

import (
	"github.com/dkeye/RoomChat/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	connections prometheus.Gauge
	members     prometheus.Gauge
	rooms       prometheus.Gauge
	pending     prometheus.Gauge
	admissions  *prometheus.CounterVec
	denials     prometheus.Counter
	promotions  prometheus.Counter
	relayed     *prometheus.CounterVec
	dropped     prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		connections: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "roomchat", Name: "connections",
			Help: "Live transport sessions.",
		}),
		members: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "roomchat", Name: "members",
			Help: "Admitted room members.",
		}),
		rooms: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "roomchat", Name: "rooms",
			Help: "Rooms with at least one member.",
		}),
		pending: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "roomchat", Name: "pending_requests",
			Help: "Join requests waiting for approval.",
		}),
		admissions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roomchat", Name: "admissions_total",
			Help: "Admitted connections by role.",
		}, []string{"role"}),
		denials: f.NewCounter(prometheus.CounterOpts{
			Namespace: "roomchat", Name: "denials_total",
			Help: "Denied join requests.",
		}),
		promotions: f.NewCounter(prometheus.CounterOpts{
			Namespace: "roomchat", Name: "promotions_total",
			Help: "Admin promotions after the admin left.",
		}),
		relayed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roomchat", Name: "relayed_total",
			Help: "Relayed chat events by kind.",
		}, []string{"kind"}),
		dropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: "roomchat", Name: "dropped_deliveries_total",
			Help: "Deliveries skipped because of a full send buffer.",
		}),
	}
}

func (m *Metrics) ObserveAdmission(role domain.Role) {
	if m == nil {
		return
	}
	m.admissions.WithLabelValues(string(role)).Inc()
}

func (m *Metrics) ObserveDenial() {
	if m == nil {
		return
	}
	m.denials.Inc()
}

func (m *Metrics) ObservePromotion() {
	if m == nil {
		return
	}
	m.promotions.Inc()
}

func (m *Metrics) ObserveRelay(kind string) {
	if m == nil {
		return
	}
	m.relayed.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveDropped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.dropped.Add(float64(n))
}

// SetState refreshes the gauges.
func (m *Metrics) SetState(connections, members, rooms, pending int) {
	if m == nil {
		return
	}
	m.connections.Set(float64(connections))
	m.members.Set(float64(members))
	m.rooms.Set(float64(rooms))
	m.pending.Set(float64(pending))
}
