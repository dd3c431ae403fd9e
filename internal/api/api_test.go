package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"jellyrush/internal/config"
	"jellyrush/internal/obslog"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.DefaultSimConfig()
	level := config.DefaultLevelConfig()
	return NewServer(cfg, level, nil, obslog.New("test "))
}

func TestHealthz(t *testing.T) {
	s := testServer(t)
	defer s.Stop()

	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestRoomCreateRateLimit(t *testing.T) {
	s := testServer(t)
	defer s.Stop()

	ip := "203.0.113.7"
	accepted := 0
	for i := 0; i < s.cfg.RoomCreateRate+3; i++ {
		if s.createLimiter.Allow(ip) {
			accepted++
		}
	}
	if accepted != s.cfg.RoomCreateRate {
		t.Fatalf("accepted = %d, want %d", accepted, s.cfg.RoomCreateRate)
	}
}

func TestRoomManagerGetOrCreateIsIdempotent(t *testing.T) {
	s := testServer(t)
	defer s.Stop()

	r1, err := s.rooms.GetOrCreate("alpha")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	r2, err := s.rooms.GetOrCreate("alpha")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if r1 != r2 {
		t.Fatal("expected the same room instance for the same id")
	}
	if s.rooms.Count() != 1 {
		t.Fatalf("rooms.Count() = %d, want 1", s.rooms.Count())
	}
}

func TestReapEmptyRoomsRemovesSessionlessRoom(t *testing.T) {
	s := testServer(t)
	defer s.Stop()

	if _, err := s.rooms.GetOrCreate("empty-room"); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	s.ReapEmptyRooms()
	if s.rooms.Count() != 0 {
		t.Fatalf("rooms.Count() = %d, want 0 after reaping", s.rooms.Count())
	}
}
