package handler

import (
	"net/http"
	"strings"

	"giftlist-api/internal/hub"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// LiveHandler upgrades GET /ws to a live connection served by the hub.
type LiveHandler struct {
	hub      *hub.Hub
	upgrader websocket.Upgrader
	log      logrus.FieldLogger
}

// NewLiveHandler creates the live gateway handler. An empty allowedOrigins
// accepts any origin.
func NewLiveHandler(h *hub.Hub, allowedOrigins []string, log logrus.FieldLogger) *LiveHandler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			allowed[o] = struct{}{}
		}
	}

	return &LiveHandler{
		hub: h,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowed) == 0 {
					return true
				}
				_, ok := allowed[r.Header.Get("Origin")]
				return ok
			},
		},
		log: log.WithField("component", "live-handler"),
	}
}

// Serve handles GET /ws
func (h *LiveHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		h.log.WithError(err).WithField("origin", r.Header.Get("Origin")).Debug("Live upgrade rejected")
		return
	}
	h.hub.Serve(conn)
}
