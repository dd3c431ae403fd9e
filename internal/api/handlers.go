package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"jellyrush/internal/room"
)

// handleJoin upgrades to a WebSocket connection, creates or joins the
// requested room, and admits the caller as a new session (spec.md
// §4.9 Join). Query parameters: room (optional; a fresh room is
// created when absent or unknown), name, shape, pigR, pigG, pigB.
func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r, s.cfg.TrustProxy)

	roomID := r.URL.Query().Get("room")
	_, existed := s.rooms.Get(roomID)
	if roomID == "" || !existed {
		if !s.createLimiter.Allow(ip) {
			writeError(w, "room creation rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		if roomID == "" {
			roomID = newRoomID()
		}
	}

	rm, err := s.rooms.GetOrCreate(roomID)
	if err != nil {
		writeError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	opts := room.JoinOptions{
		Name:  r.URL.Query().Get("name"),
		Shape: room.ShapeRound,
		PigR:  queryFloat(r, "pigR", 0.33),
		PigG:  queryFloat(r, "pigG", 0.33),
		PigB:  queryFloat(r, "pigB", 0.33),
	}
	if shapeStr := r.URL.Query().Get("shape"); shapeStr != "" {
		if n, err := strconv.Atoi(shapeStr); err == nil {
			opts.Shape = room.Shape(n)
		}
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnf("websocket upgrade failed: %v", err)
		return
	}

	sessionID := newSessionID()
	transport := &wsTransport{conn: conn}

	if _, err := rm.Join(sessionID, opts, transport); err != nil {
		s.log.Infof("join rejected for %s in room %s: %v", ip, roomID, err)
		_ = transport.Send(encodeJoinError(err))
		conn.Close()
		return
	}

	s.log.Infof("session %s joined room %s from %s", sessionID, roomID, ip)
	go servePump(rm, sessionID, conn, s.log)
}

func queryFloat(r *http.Request, key string, fallback float32) float32 {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 32)
	if err != nil {
		return fallback
	}
	return float32(f)
}

// encodeJoinError builds a minimal JSON frame explaining why Join was
// refused; the binary wire protocol proper (spec.md §6.2) only covers
// in-match traffic, so this is sent once, before the socket closes.
func encodeJoinError(err error) []byte {
	b, _ := json.Marshal(map[string]string{"error": err.Error()})
	return b
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleRoomStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]int{"rooms": s.rooms.Count()})
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
