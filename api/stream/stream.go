// Package stream pushes building snapshots to WebSocket clients.
package stream

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kilianp07/liftsim/core/elevator"
	"github.com/kilianp07/liftsim/core/logger"
	"github.com/kilianp07/liftsim/internal/eventbus"
)

const writeWait = 5 * time.Second

// Message is the envelope written to clients.
type Message struct {
	Type    string            `json:"type"`
	Payload elevator.Snapshot `json:"payload"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// NewHandler upgrades requests on /ws and forwards every snapshot published
// on snaps until the client disconnects. A new client first receives the most
// recent snapshot.
func NewHandler(snaps *eventbus.TypedBus[elevator.Snapshot], log logger.Logger) http.Handler {
	log = logger.OrNop(log)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warnf("websocket upgrade failed: %v", err)
			return
		}
		sub := snaps.SubscribeLatest()
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
						log.Warnf("websocket read error: %v", err)
					}
					return
				}
			}
		}()
		defer func() {
			snaps.Unsubscribe(sub)
			_ = conn.Close()
		}()
		log.Debugf("stream client %s connected", r.RemoteAddr)
		for {
			select {
			case <-closed:
				return
			case <-r.Context().Done():
				return
			case snap, ok := <-sub:
				if !ok {
					_ = conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
						time.Now().Add(writeWait))
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(Message{Type: "snapshot", Payload: snap}); err != nil {
					log.Warnf("websocket write failed: %v", err)
					return
				}
			}
		}
	})
}
