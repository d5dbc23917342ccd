package hub

import "encoding/json"

// Kind names a change event delivered to list subscribers.
type Kind string

const (
	KindItemCreated     Kind = "item:created"
	KindItemUpdated     Kind = "item:updated"
	KindItemDeleted     Kind = "item:deleted"
	KindCategoryCreated Kind = "category:created"
	KindCategoryUpdated Kind = "category:updated"
	KindCategoryDeleted Kind = "category:deleted"
	KindListUpdated     Kind = "giftlist:updated"

	// KindConnected is sent once to every new connection.
	KindConnected Kind = "connected"
)

// Event is one wire frame: {"event": kind, "data": payload}.
type Event struct {
	Kind Kind `json:"event"`
	Data any  `json:"data"`
}

// Encode marshals the event to its wire form.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Client-to-server frame events.
const (
	joinRoom  = "joinListRoom"
	leaveRoom = "leaveListRoom"
)

type inboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type connectedData struct {
	ConnectionID string `json:"connectionId"`
}
