// Package physics implements the PhysicsSystem of spec.md §4.2:
// friction, velocity integration, map-boundary reflection, and the
// anti-cheat speed clamp. It is allocation-free and deterministic
// (spec.md §5, invariant #6): identical (World, dt) sequences must
// produce bit-identical Transform rows.
package physics

import "jellyrush/internal/sim/world"

// TickHz is the nominal simulation rate used by the friction
// fast-path check (spec.md §4.2 step 2).
const TickHz = 60

// Config holds the tunables spec.md §9 leaves as configuration rather
// than constants (friction base, map radii ratio).
type Config struct {
	FrictionBase     float32 // default 0.92, see SPEC_FULL.md §9
	TimeScale        float32 // small integer multiplier, velocity units/s
	MapRadiusPhy     float32 // exceeds the visible MAP_RADIUS; prevents pop-in
	SpeedTolerance   float32 // anti-cheat ceiling multiplier, default 1.15
	BoundaryElastic  float32 // elastic bounce factor, default ~1.5
}

// DefaultConfig matches the constants named in spec.md §6.5.
func DefaultConfig() Config {
	return Config{
		FrictionBase:    0.92,
		TimeScale:       1,
		MapRadiusPhy:    1000,
		SpeedTolerance:  1.15,
		BoundaryElastic: 1.5,
	}
}

// System runs PhysicsSystem.update over every active entity.
type System struct {
	Cfg Config

	// OnQuarantine, if set, is called for an entity whose integrated
	// state went NaN/Inf (spec.md §7: "NaN/Inf detected in physics").
	// The system deactivates the slot regardless of whether a hook is
	// set; the hook exists purely so Room can log/count it.
	OnQuarantine func(slot uint16)

	// OnMoved, if set, is called for every entity whose transform
	// actually changed this tick, so the caller can feed the
	// DirtyTracker (spec.md §4.7) without Physics importing it.
	OnMoved func(slot uint16)
}

func New(cfg Config) *System {
	return &System{Cfg: cfg}
}

// Update integrates all active entities by dt seconds.
func (s *System) Update(w *world.World, dt float32) {
	cfg := s.Cfg
	// Step 2: friction_effective = frictionBase^(dt*TICK_HZ), skipped at
	// the 60Hz nominal step as a hot-path optimisation.
	var frictionEffective float32
	ticksElapsed := dt * TickHz
	skipPow := ticksElapsed-1 < 0.01 && ticksElapsed-1 > -0.01
	if skipPow {
		frictionEffective = cfg.FrictionBase
	} else {
		frictionEffective = powf32(cfg.FrictionBase, ticksElapsed)
	}

	for _, i := range w.ActiveSlots() {
		vx := w.VX[i] * frictionEffective
		vy := w.VY[i] * frictionEffective

		// Step 3: snapshot previous transform for interpolation.
		w.PrevX[i] = w.X[i]
		w.PrevY[i] = w.Y[i]
		w.PrevRotation[i] = w.Rotation[i]

		// Step 4: integrate.
		x := w.X[i] + vx*dt*cfg.TimeScale
		y := w.Y[i] + vy*dt*cfg.TimeScale

		// Step 5: map-boundary reflection.
		limit := cfg.MapRadiusPhy - w.Radius[i]
		distSq := x*x + y*y
		if distSq > limit*limit && distSq > 0 {
			dist := sqrtf32(distSq)
			nx, ny := x/dist, y/dist
			x, y = nx*limit, ny*limit
			vDotN := vx*nx + vy*ny
			if vDotN > 0 {
				factor := (1 + cfg.BoundaryElastic) * vDotN
				vx -= factor * nx
				vy -= factor * ny
			}
		}

		// Step 6: anti-cheat speed clamp.
		effectiveMax := w.MaxSpeed[i] * w.SpeedMult[i] * w.BuffSpeedMult[i]
		ceiling := effectiveMax * cfg.SpeedTolerance
		speedSq := vx*vx + vy*vy
		if ceiling > 0 && speedSq > ceiling*ceiling {
			scale := ceiling / sqrtf32(speedSq)
			vx *= scale
			vy *= scale
		}

		if isBadf32(x) || isBadf32(y) || isBadf32(vx) || isBadf32(vy) {
			w.Deactivate(i)
			w.State[i] |= world.FlagDead
			if s.OnQuarantine != nil {
				s.OnQuarantine(i)
			}
			continue
		}

		// Step 7: write back.
		moved := x != w.X[i] || y != w.Y[i]
		w.X[i], w.Y[i] = x, y
		w.VX[i], w.VY[i] = vx, vy

		if moved && s.OnMoved != nil {
			s.OnMoved(i)
		}
	}
}
