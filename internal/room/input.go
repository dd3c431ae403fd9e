package room

import (
	"encoding/json"
	"fmt"

	"jellyrush/internal/sim/skill"
)

// rawInputMessage accepts both wire forms of spec.md §6.1; the bitmask
// form is preferred, the boolean form is converted once at ingest
// (spec.md §9, "Dual-format legacy input").
type rawInputMessage struct {
	Seq     uint32   `json:"seq"`
	TargetX float32  `json:"targetX"`
	TargetY float32  `json:"targetY"`
	Space   *bool    `json:"space,omitempty"`
	W       *bool    `json:"w,omitempty"`
	Actions *uint32  `json:"actions,omitempty"`
}

// HandleInputMessage validates and rate-limits one incoming `input`
// message and, if accepted, stores it as the session's pending input
// (spec.md §4.9 "Input ingestion"). Invalid or rate-limited messages
// are dropped silently, per the error taxonomy in spec.md §7.
func (r *Room) HandleInputMessage(sessionID string, raw []byte) error {
	if len(raw) > r.cfg.MaxMessageSize {
		if r.metrics != nil {
			r.metrics.RateLimitDrops.Inc()
		}
		return fmt.Errorf("room: message of %d bytes exceeds cap %d", len(raw), r.cfg.MaxMessageSize)
	}

	r.sessionsMu.RLock()
	sess, ok := r.sessions[sessionID]
	r.sessionsMu.RUnlock()
	if !ok {
		return ErrSessionUnknown
	}

	if !sess.Limiter.Allow() {
		if r.metrics != nil {
			r.metrics.RateLimitDrops.Inc()
		}
		// Dropped silently from the client's perspective (spec.md §7);
		// the sentinel error lets the transport layer log sparingly
		// and lets tests assert S7's accept/drop split.
		return ErrRateLimited
	}

	var msg rawInputMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return err
	}

	if msg.TargetX < -r.cfg.MapRadius-1 || msg.TargetX > r.cfg.MapRadius+1 ||
		msg.TargetY < -r.cfg.MapRadius-1 || msg.TargetY > r.cfg.MapRadius+1 {
		return fmt.Errorf("room: target out of bounds")
	}

	var actions uint32
	if msg.Actions != nil {
		actions = *msg.Actions
	} else {
		if msg.Space != nil && *msg.Space {
			actions |= skill.ActionPrimary
		}
		if msg.W != nil && *msg.W {
			actions |= skill.ActionSecondary
		}
	}

	sess.SetPending(InputFrame{
		Seq:     msg.Seq,
		TargetX: msg.TargetX,
		TargetY: msg.TargetY,
		Actions: actions,
	})
	return nil
}
