// Package skill implements the SkillSystem of spec.md §4.4: cooldown
// decay and one-shot action-bit consumption.
package skill

import (
	"jellyrush/internal/sim/events"
	"jellyrush/internal/sim/world"
)

// Action bits, per spec.md §6.1 ("bit 0 = primary, bit 1 = secondary").
const (
	ActionPrimary   uint32 = 1 << 0
	ActionSecondary uint32 = 1 << 1
)

type System struct {
	Events *events.Ring

	// OnFire, if set, is called with the firing entity's slot whenever a
	// primary skill actually fires (cooldown was ready), so the caller
	// can spawn the skill's projectile/effect entity without Skill
	// importing World allocation or the per-owner entity cap (spec.md
	// §4.9 "Entity-pool DoS cap").
	OnFire func(slot uint16)
}

func New(ring *events.Ring) *System {
	return &System{Events: ring}
}

// Update decrements cooldown/activeTimer by dt (floor 0) for all active
// entities and fires skills whose action bit is set and off cooldown.
func (s *System) Update(w *world.World, dt float32, tick uint64) {
	for _, i := range w.ActiveSlots() {
		if w.Cooldown[i] > 0 {
			w.Cooldown[i] -= dt
			if w.Cooldown[i] < 0 {
				w.Cooldown[i] = 0
			}
		}
		if w.ActiveTimer[i] > 0 {
			w.ActiveTimer[i] -= dt
			if w.ActiveTimer[i] < 0 {
				w.ActiveTimer[i] = 0
			}
		}

		bits := w.ActionBits[i]
		if bits&ActionPrimary != 0 {
			w.ActionBits[i] &^= ActionPrimary
			if w.Cooldown[i] <= 0 {
				w.Cooldown[i] = w.MaxCooldown[i]
				w.ActiveTimer[i] = w.MaxCooldown[i] * 0.25
				if s.Events != nil {
					s.Events.Push(events.Event{Kind: events.KindSkillFired, Tick: tick, Primary: i})
				}
				if s.OnFire != nil {
					s.OnFire(i)
				}
			}
			// else: silently cleared without firing, per spec.md §4.4.
		}
	}
}
