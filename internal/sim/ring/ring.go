// Package ring implements the RingSystem gameplay state machine of
// spec.md §4.5: one-way ring commits gated by a matchPercent threshold,
// with an elastic spring/damper applied to entities that haven't
// committed yet and try to cross a boundary.
package ring

import (
	"math"

	"jellyrush/internal/sim/events"
	"jellyrush/internal/sim/world"
)

// Config holds the per-match thresholds and radii consumed from
// LevelConfig (spec.md §6.3).
type Config struct {
	R1, R2, R3        float32
	T2, T3, TWin      float32
	SpringK           float32 // ≈ 5.0
	DampingC          float32 // ≈ 0.2
	FixedDt           float32 // Δfixed, 1/60
	MembraneThickness float32 // ≈ 50

	BuffDurationRing2 float32
	BuffDurationRing3 float32
	SpeedBuffRing2    float32
	SpeedBuffRing3    float32
}

func DefaultConfig() Config {
	return Config{
		R1: 1000, R2: 600, R3: 250,
		T2: 0.5, T3: 0.8, TWin: 0.95,
		SpringK: 5.0, DampingC: 0.2, FixedDt: 1.0 / 60,
		MembraneThickness: 50,
		BuffDurationRing2: 4, BuffDurationRing3: 6,
		SpeedBuffRing2: 1.15, SpeedBuffRing3: 1.3,
	}
}

type System struct {
	Cfg    Config
	Events *events.Ring

	// OnRingChanged, if set, is called for every entity whose Ring/buff
	// state actually changed this tick (commit or buff expiry), so the
	// caller can feed the DirtyTracker (spec.md §4.7) without Ring
	// importing it.
	OnRingChanged func(slot uint16)
}

func New(cfg Config, ring *events.Ring) *System {
	return &System{Cfg: cfg, Events: ring}
}

// Update evaluates ring transitions for every active, ring-engaged
// entity (Ring != 0). Entities not participating in the ring mechanic
// (e.g. inert pickups) have Ring == 0 and are skipped.
func (s *System) Update(w *world.World, dt float32, tick uint64) {
	cfg := s.Cfg

	for _, i := range w.ActiveSlots() {
		if w.Ring[i] == 0 {
			continue
		}

		if w.BuffTimer[i] > 0 {
			w.BuffTimer[i] -= dt
			if w.BuffTimer[i] <= 0 {
				w.BuffTimer[i] = 0
				w.BuffSpeedMult[i] = 1
				w.State[i] &^= world.FlagShielded
				if s.OnRingChanged != nil {
					s.OnRingChanged(i)
				}
			}
		}

		distSq := w.X[i]*w.X[i] + w.Y[i]*w.Y[i]

		switch w.Ring[i] {
		case 1:
			if distSq < cfg.R2*cfg.R2 {
				if w.MatchPercent[i] >= cfg.T2 {
					s.commit(w, i, 2, cfg.SpeedBuffRing2, cfg.BuffDurationRing2, true, tick)
				} else {
					s.elasticRejection(w, i, cfg.R2)
				}
			}
		case 2:
			if distSq < cfg.R3*cfg.R3 {
				if w.MatchPercent[i] >= cfg.T3 {
					s.commit(w, i, 3, cfg.SpeedBuffRing3, cfg.BuffDurationRing3, false, tick)
				} else {
					s.elasticRejection(w, i, cfg.R3)
				}
			} else if distSq > cfg.R2*cfg.R2 {
				s.clampOutward(w, i, cfg.R2)
			}
		case 3:
			// Ring 3 is one-way (spec.md §4.5 invariant): never re-checks
			// commitment, only enforces containment.
			if distSq > cfg.R3*cfg.R3 {
				s.clampOutward(w, i, cfg.R3)
			}
		}
	}
}

func (s *System) commit(w *world.World, i uint16, newRing uint8, speedBuff, duration float32, shield bool, tick uint64) {
	w.Ring[i] = newRing
	w.BuffSpeedMult[i] = speedBuff
	w.BuffTimer[i] = duration
	if shield {
		w.State[i] |= world.FlagShielded
	}
	if s.Events != nil {
		s.Events.Push(events.Event{Kind: events.KindRingCommit, Tick: tick, Primary: i, Aux: uint16(newRing)})
	}
	if s.OnRingChanged != nil {
		s.OnRingChanged(i)
	}
}

// elasticRejection applies the penetration spring+damper described in
// spec.md §4.5, or a hard clamp if penetration exceeds the membrane
// thickness.
func (s *System) elasticRejection(w *world.World, i uint16, radiusLimit float32) {
	cfg := s.Cfg
	d := sqrtf32(w.X[i]*w.X[i] + w.Y[i]*w.Y[i])
	if d < 1e-6 {
		// Degenerate: entity sits on the origin. Push it a fixed
		// direction out so the normal is well-defined next tick.
		w.X[i] = 0.01
		return
	}
	nx, ny := w.X[i]/d, w.Y[i]/d
	pen := radiusLimit - d

	if pen > cfg.MembraneThickness {
		w.X[i], w.Y[i] = nx*radiusLimit, ny*radiusLimit
		vDotN := w.VX[i]*nx + w.VY[i]*ny
		if vDotN < 0 {
			w.VX[i] -= vDotN * nx
			w.VY[i] -= vDotN * ny
		}
		return
	}

	w.VX[i] += nx * pen * cfg.SpringK * cfg.FixedDt
	w.VY[i] += ny * pen * cfg.SpringK * cfg.FixedDt
	w.VX[i] *= 1 - cfg.DampingC
	w.VY[i] *= 1 - cfg.DampingC
}

// clampOutward hard-clamps a committed entity to radiusLimit and zeroes
// the outward-normal velocity component (spec.md §4.5: ring=2 past R2,
// ring=3 past R3).
func (s *System) clampOutward(w *world.World, i uint16, radiusLimit float32) {
	d := sqrtf32(w.X[i]*w.X[i] + w.Y[i]*w.Y[i])
	if d < 1e-6 {
		return
	}
	nx, ny := w.X[i]/d, w.Y[i]/d
	w.X[i], w.Y[i] = nx*radiusLimit, ny*radiusLimit
	vDotN := w.VX[i]*nx + w.VY[i]*ny
	if vDotN > 0 {
		w.VX[i] -= vDotN * nx
		w.VY[i] -= vDotN * ny
	}
}

func sqrtf32(v float32) float32 {
	return float32(math.Sqrt(float64(v)))
}
