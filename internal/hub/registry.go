package hub

import (
	"errors"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

// ErrRoomFull is returned by Join when the room is at capacity.
var ErrRoomFull = errors.New("room is full")

// Subscriber is a live connection that can receive encoded frames.
type Subscriber interface {
	// ID returns the connection identifier, unique per process.
	ID() string

	// Enqueue queues msg for delivery without blocking. It reports false
	// when the message was dropped.
	Enqueue(msg []byte) bool
}

// room is the subscriber set of one slug. A room removed from the registry
// is marked dead so that a Join holding a stale pointer retries.
type room struct {
	mu   sync.Mutex
	subs map[string]Subscriber
	dead bool
}

// Registry maps list slugs to the connections subscribed to them. Each room
// has its own lock; operations on different slugs never contend.
type Registry struct {
	rooms      sync.Map // slug -> *room
	maxPerRoom int

	connMu sync.Mutex
	byConn map[string]map[string]struct{} // connID -> slugs

	metrics *Metrics
	log     logrus.FieldLogger
}

// NewRegistry creates an empty registry. maxPerRoom <= 0 means unbounded.
func NewRegistry(maxPerRoom int, metrics *Metrics, log logrus.FieldLogger) *Registry {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Registry{
		maxPerRoom: maxPerRoom,
		byConn:     make(map[string]map[string]struct{}),
		metrics:    metrics,
		log:        log.WithField("component", "registry"),
	}
}

// Join subscribes sub to slug. Joining a room twice is a no-op.
func (r *Registry) Join(sub Subscriber, slug string) error {
	id := sub.ID()

	for {
		v, loaded := r.rooms.LoadOrStore(slug, &room{subs: make(map[string]Subscriber)})
		rm := v.(*room)
		if !loaded {
			r.metrics.Rooms.Inc()
		}

		rm.mu.Lock()
		if rm.dead {
			rm.mu.Unlock()
			continue
		}
		if _, ok := rm.subs[id]; ok {
			rm.mu.Unlock()
			return nil
		}
		if r.maxPerRoom > 0 && len(rm.subs) >= r.maxPerRoom {
			rm.mu.Unlock()
			r.metrics.RoomFull.Inc()
			return ErrRoomFull
		}
		rm.subs[id] = sub
		rm.mu.Unlock()
		break
	}

	r.connMu.Lock()
	slugs, ok := r.byConn[id]
	if !ok {
		slugs = make(map[string]struct{})
		r.byConn[id] = slugs
	}
	slugs[slug] = struct{}{}
	r.connMu.Unlock()

	r.metrics.Joins.Inc()
	r.log.WithFields(logrus.Fields{"conn_id": id, "slug": slug}).Debug("Joined room")
	return nil
}

// Leave unsubscribes connID from slug. Leaving a room the connection is not
// in is a no-op.
func (r *Registry) Leave(connID, slug string) {
	if !r.removeFromRoom(connID, slug) {
		return
	}

	r.connMu.Lock()
	if slugs, ok := r.byConn[connID]; ok {
		delete(slugs, slug)
		if len(slugs) == 0 {
			delete(r.byConn, connID)
		}
	}
	r.connMu.Unlock()

	r.log.WithFields(logrus.Fields{"conn_id": connID, "slug": slug}).Debug("Left room")
}

// DropConnection removes connID from every room it joined. It must not run
// concurrently with a Join of the same connection.
func (r *Registry) DropConnection(connID string) {
	r.connMu.Lock()
	slugs := r.byConn[connID]
	delete(r.byConn, connID)
	r.connMu.Unlock()

	for slug := range slugs {
		r.removeFromRoom(connID, slug)
	}
}

func (r *Registry) removeFromRoom(connID, slug string) bool {
	v, ok := r.rooms.Load(slug)
	if !ok {
		return false
	}
	rm := v.(*room)

	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.dead {
		return false
	}
	if _, ok := rm.subs[connID]; !ok {
		return false
	}
	delete(rm.subs, connID)

	if len(rm.subs) == 0 {
		rm.dead = true
		r.rooms.CompareAndDelete(slug, rm)
		r.metrics.Rooms.Dec()
	}
	return true
}

// SubscribersOf returns a snapshot of the connections subscribed to slug.
func (r *Registry) SubscribersOf(slug string) []Subscriber {
	v, ok := r.rooms.Load(slug)
	if !ok {
		return nil
	}
	rm := v.(*room)

	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.dead {
		return nil
	}
	subs := make([]Subscriber, 0, len(rm.subs))
	for _, s := range rm.subs {
		subs = append(subs, s)
	}
	return subs
}

// Rooms returns the slugs connID is subscribed to, sorted.
func (r *Registry) Rooms(connID string) []string {
	r.connMu.Lock()
	defer r.connMu.Unlock()

	slugs := make([]string, 0, len(r.byConn[connID]))
	for slug := range r.byConn[connID] {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs
}

// RoomCount returns the number of non-empty rooms.
func (r *Registry) RoomCount() int {
	n := 0
	r.rooms.Range(func(_, v any) bool {
		rm := v.(*room)
		rm.mu.Lock()
		if !rm.dead && len(rm.subs) > 0 {
			n++
		}
		rm.mu.Unlock()
		return true
	})
	return n
}
