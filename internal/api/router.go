package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"jellyrush/internal/config"
	"jellyrush/internal/obs"
	"jellyrush/internal/obslog"
)

// Server is the HTTP/WebSocket front door onto the RoomManager. Mirrors
// the teacher's Server (HTTP router + connection handling combined),
// generalised from one global Engine to many independently-addressable
// Rooms.
type Server struct {
	cfg           config.SimConfig
	rooms         *RoomManager
	createLimiter *IPRateLimiter
	router        *chi.Mux
	log           *obslog.Logger
}

// NewServer builds the router. Construction opens no listeners and
// starts no room; its only goroutine is the create limiter's cleanup
// loop, released by Stop. The server is usable directly with
// httptest.NewServer in tests.
func NewServer(cfg config.SimConfig, level config.LevelConfig, metrics *obs.Metrics, log *obslog.Logger) *Server {
	s := &Server{
		cfg:           cfg,
		rooms:         NewRoomManager(cfg, level, metrics, log),
		createLimiter: NewIPRateLimiter(DefaultRoomCreateLimiterConfig(cfg.RoomCreateRate)),
		log:           log,
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", s.handleHealthz)
	r.Get("/rooms", s.handleRoomStats)
	r.Get("/ws", s.handleJoin)

	s.router = r
	return s
}

func (s *Server) Router() http.Handler {
	return s.router
}

// ReapEmptyRooms stops and drops every room with no remaining
// sessions; intended to be called periodically from cmd/roomserver.
func (s *Server) ReapEmptyRooms() {
	s.rooms.ReapEmpty()
}

// Stop releases background workers (the create-limiter cleanup
// goroutine and every live room's tick loop).
func (s *Server) Stop() {
	s.createLimiter.Stop()
	s.rooms.mu.Lock()
	rooms := make([]string, 0, len(s.rooms.rooms))
	for id := range s.rooms.rooms {
		rooms = append(rooms, id)
	}
	s.rooms.mu.Unlock()
	for _, id := range rooms {
		s.rooms.Remove(id)
	}
}
