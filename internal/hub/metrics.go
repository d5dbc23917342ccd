package hub

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the live gateway's Prometheus collectors.
type Metrics struct {
	Connections       prometheus.Gauge
	Rooms             prometheus.Gauge
	Joins             prometheus.Counter
	RoomFull          prometheus.Counter
	EventsPublished   *prometheus.CounterVec
	Deliveries        prometheus.Counter
	DeliveriesDropped prometheus.Counter
}

// NewMetrics registers the hub collectors with reg. A nil reg creates
// unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		Connections: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "giftlist",
			Subsystem: "live",
			Name:      "connections",
			Help:      "Open live connections.",
		}),
		Rooms: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "giftlist",
			Subsystem: "live",
			Name:      "rooms",
			Help:      "Rooms with at least one subscriber.",
		}),
		Joins: f.NewCounter(prometheus.CounterOpts{
			Namespace: "giftlist",
			Subsystem: "live",
			Name:      "room_joins_total",
			Help:      "Room subscriptions created.",
		}),
		RoomFull: f.NewCounter(prometheus.CounterOpts{
			Namespace: "giftlist",
			Subsystem: "live",
			Name:      "room_full_total",
			Help:      "Joins rejected because the room was at capacity.",
		}),
		EventsPublished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "giftlist",
			Subsystem: "live",
			Name:      "events_published_total",
			Help:      "Change events published, by kind.",
		}, []string{"kind"}),
		Deliveries: f.NewCounter(prometheus.CounterOpts{
			Namespace: "giftlist",
			Subsystem: "live",
			Name:      "deliveries_total",
			Help:      "Events queued to a subscriber.",
		}),
		DeliveriesDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: "giftlist",
			Subsystem: "live",
			Name:      "deliveries_dropped_total",
			Help:      "Events dropped because the subscriber queue was full or closed.",
		}),
	}
}
