// Package movement implements the MovementSystem of spec.md §4.3: seek
// acceleration toward an input target, clamped to the entity's
// effective max speed.
package movement

import "jellyrush/internal/sim/world"

// Acceleration is the ACC constant from spec.md §4.3 ("ACC ≈ 2000").
const Acceleration float32 = 2000

// Deadzone is the squared-distance threshold below which an entity
// is considered to already be at its target (spec.md: "dx²+dy² < 1").
const Deadzone float32 = 1

type System struct{}

func New() *System { return &System{} }

// Update iterates all active entities and applies seek acceleration.
func (s *System) Update(w *world.World, dt float32) {
	for _, i := range w.ActiveSlots() {
		dx := w.TargetX[i] - w.X[i]
		dy := w.TargetY[i] - w.Y[i]
		distSq := dx*dx + dy*dy
		if distSq < Deadzone {
			continue
		}
		dist := sqrtf32(distSq)
		ax := (dx / dist) * Acceleration * dt
		ay := (dy / dist) * Acceleration * dt

		vx := w.VX[i] + ax
		vy := w.VY[i] + ay

		effectiveMax := w.MaxSpeed[i] * w.SpeedMult[i] * w.BuffSpeedMult[i]
		speedSq := vx*vx + vy*vy
		if effectiveMax > 0 && speedSq > effectiveMax*effectiveMax {
			scale := effectiveMax / sqrtf32(speedSq)
			vx *= scale
			vy *= scale
		}

		w.VX[i], w.VY[i] = vx, vy
	}
}
