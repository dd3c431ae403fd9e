package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"jellyrush/internal/obslog"
	"jellyrush/internal/room"
)

// writeWait bounds a single frame's flush, mirroring the teacher's
// upgrader timeout discipline in internal/api/websocket.go.
const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return IsAllowedOrigin(r.Header.Get("Origin"))
	},
}

// AllowedOrigins mirrors the teacher's bounded origin allowlist.
var AllowedOrigins = []string{
	"http://localhost",
	"http://localhost:3000",
	"http://127.0.0.1:3000",
}

func IsAllowedOrigin(origin string) bool {
	if origin == "" {
		return false
	}
	for _, allowed := range AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

// wsTransport is the gorilla/websocket implementation of room.Transport:
// a single unicast connection per session, not the teacher's broadcast
// hub, since every client needs its own ack-prefixed delta stream
// (spec.md §6.2).
type wsTransport struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (t *wsTransport) Send(frame []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return t.conn.WriteMessage(websocket.BinaryMessage, frame)
}

func (t *wsTransport) Close() error {
	return t.conn.Close()
}

var _ room.Transport = (*wsTransport)(nil)

// servePump reads input frames off the connection until it errors or
// closes, handing each one to the room, and guarantees Leave runs
// exactly once on exit.
func servePump(r *room.Room, sessionID string, conn *websocket.Conn, log *obslog.Logger) {
	defer func() {
		r.Leave(sessionID)
		conn.Close()
	}()
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if err := r.HandleInputMessage(sessionID, message); err != nil && err != room.ErrRateLimited {
			log.Debugf("session %s: input rejected: %v", sessionID, err)
		}
	}
}
