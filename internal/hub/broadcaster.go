package hub

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Publisher delivers change events to a list's room.
type Publisher interface {
	// Publish sends evt to every subscriber of slug except the connection
	// originConnID (empty for none). It never blocks on a subscriber and
	// never fails the caller.
	Publish(ctx context.Context, slug string, evt Event, originConnID string)
}

// Broadcaster is the Publisher backed by a Registry.
type Broadcaster struct {
	registry *Registry
	metrics  *Metrics
	log      logrus.FieldLogger
}

var _ Publisher = (*Broadcaster)(nil)

// NewBroadcaster creates a broadcaster over registry.
func NewBroadcaster(registry *Registry, metrics *Metrics, log logrus.FieldLogger) *Broadcaster {
	if metrics == nil {
		metrics = registry.metrics
	}
	return &Broadcaster{
		registry: registry,
		metrics:  metrics,
		log:      log.WithField("component", "broadcaster"),
	}
}

// Publish encodes evt once and queues it on each subscriber. A subscriber
// whose queue is full misses the event; the drop is logged and counted.
func (b *Broadcaster) Publish(ctx context.Context, slug string, evt Event, originConnID string) {
	if slug == "" {
		return
	}

	msg, err := evt.Encode()
	if err != nil {
		b.log.WithError(err).WithFields(logrus.Fields{"slug": slug, "event": evt.Kind}).Error("Failed to encode event")
		return
	}
	b.metrics.EventsPublished.WithLabelValues(string(evt.Kind)).Inc()

	subs := b.registry.SubscribersOf(slug)
	delivered := 0
	for _, sub := range subs {
		if sub.ID() == originConnID {
			continue
		}
		if !sub.Enqueue(msg) {
			b.metrics.DeliveriesDropped.Inc()
			b.log.WithFields(logrus.Fields{
				"slug":    slug,
				"event":   evt.Kind,
				"conn_id": sub.ID(),
			}).Warn("Subscriber queue full, event dropped")
			continue
		}
		delivered++
	}
	b.metrics.Deliveries.Add(float64(delivered))

	b.log.WithFields(logrus.Fields{
		"slug":        slug,
		"event":       evt.Kind,
		"subscribers": len(subs),
		"delivered":   delivered,
	}).Debug("Event published")
}
