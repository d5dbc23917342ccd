package hub

import (
	"context"
	"encoding/json"
	"testing"

	"giftlist-api/pkg/logger"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type itemPayload struct {
	ID            string  `json:"id"`
	Status        string  `json:"status"`
	PurchaserName *string `json:"purchaserName"`
}

func TestBroadcaster_FanOutSkipsOriginAndOtherRooms(t *testing.T) {
	r := newTestRegistry(0)
	b := NewBroadcaster(r, nil, logger.Discard())

	a := newFakeSubscriber("A")
	bb := newFakeSubscriber("B")
	c := newFakeSubscriber("C")
	require.NoError(t, r.Join(a, "cha-da-ana"))
	require.NoError(t, r.Join(bb, "cha-da-ana"))
	require.NoError(t, r.Join(c, "casamento-x"))

	name := "Maria"
	b.Publish(context.Background(), "cha-da-ana", Event{
		Kind: KindItemUpdated,
		Data: itemPayload{ID: "item-1", Status: "RESERVED", PurchaserName: &name},
	}, "A")

	assert.Empty(t, a.received())
	assert.Empty(t, c.received())
	require.Len(t, bb.received(), 1)

	var frame struct {
		Event string      `json:"event"`
		Data  itemPayload `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(bb.received()[0]), &frame))
	assert.Equal(t, "item:updated", frame.Event)
	assert.Equal(t, "RESERVED", frame.Data.Status)
	require.NotNil(t, frame.Data.PurchaserName)
	assert.Equal(t, "Maria", *frame.Data.PurchaserName)
}

func TestBroadcaster_EmptyRoomIsNoop(t *testing.T) {
	r := newTestRegistry(0)
	b := NewBroadcaster(r, nil, logger.Discard())

	assert.NotPanics(t, func() {
		b.Publish(context.Background(), "nobody-here", Event{Kind: KindItemDeleted, Data: map[string]string{"id": "x"}}, "")
		b.Publish(context.Background(), "", Event{Kind: KindItemDeleted}, "")
	})
}

func TestBroadcaster_FullQueueDropsOnlyThatSubscriber(t *testing.T) {
	r := newTestRegistry(0)
	metrics := NewMetrics(nil)
	b := NewBroadcaster(r, metrics, logger.Discard())

	slow := newFakeSubscriber("slow")
	slow.capacity = 1
	fast := newFakeSubscriber("fast")
	require.NoError(t, r.Join(slow, "cha-da-ana"))
	require.NoError(t, r.Join(fast, "cha-da-ana"))

	for i := 0; i < 3; i++ {
		b.Publish(context.Background(), "cha-da-ana", Event{Kind: KindItemUpdated, Data: i}, "")
	}

	assert.Len(t, slow.received(), 1)
	assert.Equal(t, []string{
		`{"event":"item:updated","data":0}`,
		`{"event":"item:updated","data":1}`,
		`{"event":"item:updated","data":2}`,
	}, fast.received())
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.DeliveriesDropped))
	assert.Equal(t, float64(4), testutil.ToFloat64(metrics.Deliveries))
	assert.Equal(t, float64(3), testutil.ToFloat64(metrics.EventsPublished.WithLabelValues("item:updated")))
}

func TestEvent_Encode(t *testing.T) {
	msg, err := Event{Kind: KindCategoryDeleted, Data: map[string]string{"id": "cat-1"}}.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"category:deleted","data":{"id":"cat-1"}}`, string(msg))
}
