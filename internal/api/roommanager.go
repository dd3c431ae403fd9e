package api

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"

	"jellyrush/internal/config"
	"jellyrush/internal/obs"
	"jellyrush/internal/obslog"
	"jellyrush/internal/room"
)

// RoomManager owns the registry of live rooms, one per match, and is
// the only component allowed to create or start a Room. Grounded on
// the teacher's single-Engine-per-process shape, generalised to many
// rooms since this server hosts concurrent matches rather than one
// global game.
type RoomManager struct {
	cfg     config.SimConfig
	level   config.LevelConfig
	metrics *obs.Metrics
	log     *obslog.Logger

	mu    sync.Mutex
	rooms map[string]*room.Room
}

func NewRoomManager(cfg config.SimConfig, level config.LevelConfig, metrics *obs.Metrics, log *obslog.Logger) *RoomManager {
	return &RoomManager{
		cfg:     cfg,
		level:   level,
		metrics: metrics,
		log:     log,
		rooms:   make(map[string]*room.Room),
	}
}

// GetOrCreate returns the named room, creating and starting it (with a
// freshly drawn seed) if it doesn't yet exist.
func (m *RoomManager) GetOrCreate(id string) (*room.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := m.rooms[id]; ok {
		return r, nil
	}

	seed := randomSeed()
	r, err := room.New(id, m.cfg, m.level, seed, m.metrics, m.log)
	if err != nil {
		return nil, err
	}
	r.Start()
	m.rooms[id] = r
	m.log.Infof("room manager: created room %s (seed=%d, %d rooms total)", id, seed, len(m.rooms))
	return r, nil
}

// Get looks up a room without creating one.
func (m *RoomManager) Get(id string) (*room.Room, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	return r, ok
}

// Remove stops and drops a room once it is empty; callers poll
// SessionCount before calling this from a periodic reaper.
func (m *RoomManager) Remove(id string) {
	m.mu.Lock()
	r, ok := m.rooms[id]
	if ok {
		delete(m.rooms, id)
	}
	m.mu.Unlock()
	if ok {
		r.Stop()
	}
}

// ReapEmpty stops and drops every room with zero sessions. Intended to
// be called periodically from a background ticker in cmd/roomserver.
func (m *RoomManager) ReapEmpty() {
	m.mu.Lock()
	dead := make(map[string]*room.Room)
	for id, r := range m.rooms {
		if r.SessionCount() == 0 {
			dead[id] = r
		}
	}
	for id := range dead {
		delete(m.rooms, id)
	}
	m.mu.Unlock()
	for id, r := range dead {
		r.Stop()
		m.log.Infof("room manager: reaped empty room %s", id)
	}
}

func (m *RoomManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rooms)
}

func randomSeed() uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 1
	}
	var s uint64
	for _, v := range b {
		s = s<<8 | uint64(v)
	}
	if s == 0 {
		s = 1
	}
	return s
}

func newSessionID() string {
	var b [16]byte
	rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

func newRoomID() string {
	return fmt.Sprintf("room-%s", newSessionID()[:8])
}
