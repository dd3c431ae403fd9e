// Package wave implements the WaveSpawner of spec.md §4.6: timer-driven
// pickup bursts placed in annular bands using a seeded PRNG.
package wave

import (
	"math"

	"jellyrush/internal/sim/prng"
)

// RingIndex identifies which of the three annular bands a timer feeds.
type RingIndex int

const (
	Ring1 RingIndex = iota
	Ring2
	Ring3
	ringCount
)

// Kind is the pickup kind rolled per spec.md §4.6's "kind mix".
type Kind uint8

const (
	KindPigmentRed Kind = iota
	KindPigmentGreen
	KindPigmentBlue
	KindNeutral
	KindSolvent
	KindShield
)

// Timers holds the three independent wave timers (spec.md §3.4,
// "spawn timers"), one per ring band.
type Timers struct {
	Remaining [ringCount]float32
	Interval  [ringCount]float32 // seconds, per SPEC_FULL.md §9 resolution
	BurstSize [ringCount]int
}

// AnnulusBounds returns the [minR, maxR] placement band for a ring
// index. minR(r)/maxR(r) come from the ring radii of LevelConfig.
type AnnulusBounds struct {
	MinR, MaxR float32
}

// Config is the WaveSpawner's view of LevelConfig (spec.md §6.3):
// per-ring placement annuli and the kind-mix weights, which must sum
// to 1±0.01 (spec.md invariant #8).
type Config struct {
	Bounds        [ringCount]AnnulusBounds
	PigmentWeight float32 // spawnWeights.pigment
	NeutralWeight float32 // spawnWeights.neutral
	SpecialWeight float32 // spawnWeights.special
}

// Epsilon keeps rolled positions off the exact inner/outer edge.
const Epsilon = 1

// SpawnFunc is called once per spawned pickup; it must write directly
// into World with no intermediate allocation (spec.md §4.6 contract).
type SpawnFunc func(x, y float32, kind Kind)

type System struct {
	Cfg Config
	Rng *prng.Source
}

func New(cfg Config, rng *prng.Source) *System {
	return &System{Cfg: cfg, Rng: rng}
}

// Update subtracts dt from every timer and, on expiry, spawns a burst
// and resets the timer.
func (s *System) Update(t *Timers, dt float32, onSpawn SpawnFunc) {
	for r := RingIndex(0); r < ringCount; r++ {
		t.Remaining[r] -= dt
		if t.Remaining[r] > 0 {
			continue
		}
		t.Remaining[r] = t.Interval[r]
		for n := 0; n < t.BurstSize[r]; n++ {
			x, y := s.placement(r)
			kind := s.rollKind()
			onSpawn(x, y, kind)
		}
	}
}

func (s *System) placement(r RingIndex) (float32, float32) {
	b := s.Cfg.Bounds[r]
	angle := s.Rng.Next() * 2 * math.Pi
	radius := s.Rng.Range(b.MinR+Epsilon, b.MaxR-Epsilon)
	return radius * cosf32(angle), radius * sinf32(angle)
}

func (s *System) rollKind() Kind {
	u := s.Rng.Next()
	switch {
	case u < s.Cfg.PigmentWeight:
		sub := s.Rng.Next()
		switch {
		case sub < 1.0/3:
			return KindPigmentRed
		case sub < 2.0/3:
			return KindPigmentGreen
		default:
			return KindPigmentBlue
		}
	case u < s.Cfg.PigmentWeight+s.Cfg.NeutralWeight:
		return KindNeutral
	default:
		if s.Rng.Next() < 0.5 {
			return KindSolvent
		}
		return KindShield
	}
}

func cosf32(v float32) float32 { return float32(math.Cos(float64(v))) }
func sinf32(v float32) float32 { return float32(math.Sin(float64(v))) }
