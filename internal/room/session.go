package room

import (
	"sync"

	"golang.org/x/time/rate"

	"jellyrush/internal/sim/handle"
)

// Transport decouples Room from the concrete websocket connection, the
// same DI-for-testability pattern the teacher applies to
// EngineInterface/StreamerInterface in internal/api/router.go.
type Transport interface {
	Send(frame []byte) error
	Close() error
}

// InputFrame is the sanitised, internal-bitmask form of the incoming
// `input` message (spec.md §6.1). Dual-format ingestion converts the
// boolean {space,w} form to actions once, at the boundary (spec.md §9).
type InputFrame struct {
	Seq     uint32
	TargetX float32
	TargetY float32
	Actions uint32
}

// Session is the per-connection state of spec.md §3.3: owned handle,
// last-processed sequence, pending input, rate limiter, and child-entity
// count for the DoS cap.
type Session struct {
	ID     string
	Handle handle.Handle
	Conn   Transport

	LastProcessedInput uint32

	Limiter          *rate.Limiter
	ChildEntityCount int

	mu      sync.Mutex
	pending *InputFrame // last-writer-wins; nil once drained
}

func newSession(id string, h handle.Handle, conn Transport, ratePerSecond int) *Session {
	return &Session{
		ID:      id,
		Handle:  h,
		Conn:    conn,
		Limiter: rate.NewLimiter(rate.Limit(ratePerSecond), ratePerSecond),
	}
}

// SetPending overwrites any previously queued input (last-writer-wins,
// spec.md §5 ordering guarantees).
func (s *Session) SetPending(f InputFrame) {
	s.mu.Lock()
	s.pending = &f
	s.mu.Unlock()
}

// TakePending atomically pops and clears the pending input.
func (s *Session) TakePending() (InputFrame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return InputFrame{}, false
	}
	f := *s.pending
	s.pending = nil
	return f, true
}
