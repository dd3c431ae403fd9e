package ring

import (
	"testing"

	"jellyrush/internal/sim/events"
	"jellyrush/internal/sim/world"
)

func TestRingCommitGating(t *testing.T) {
	cfg := DefaultConfig()
	w := world.New(4)
	i, _, _ := w.Allocate()
	w.Activate(i)
	w.Ring[i] = 1
	// Sitting just inside R2, moving inward.
	w.X[i], w.Y[i] = cfg.R2-1, 0
	w.VX[i], w.VY[i] = -50, 0
	w.MatchPercent[i] = cfg.T2 - 0.01

	sys := New(cfg, nil)
	sys.Update(w, 1.0/60, 1)

	if w.Ring[i] != 1 {
		t.Fatalf("expected no commit below threshold, ring=%d", w.Ring[i])
	}
	dist := sqrtf32(w.X[i]*w.X[i] + w.Y[i]*w.Y[i])
	if dist < cfg.R2-2 {
		t.Fatalf("elastic rejection let entity cross too far: dist=%v", dist)
	}

	w.MatchPercent[i] = cfg.T2 + 0.01
	sys.Update(w, 1.0/60, 2)
	if w.Ring[i] != 2 {
		t.Fatalf("expected commit to ring 2, got ring=%d", w.Ring[i])
	}
	if w.BuffSpeedMult[i] <= 1 {
		t.Fatal("expected a speed buff on commit")
	}
}

func TestRing3OneWayContainment(t *testing.T) {
	cfg := DefaultConfig()
	w := world.New(4)
	i, _, _ := w.Allocate()
	w.Activate(i)
	w.Ring[i] = 3
	w.X[i], w.Y[i] = cfg.R3-5, 0
	w.VX[i], w.VY[i] = 1000, 0

	sys := New(cfg, events.NewRing())
	for tick := 0; tick < 10; tick++ {
		// advance position manually (no physics system in this test) then
		// run ring containment, as Room would after PhysicsSystem.
		w.X[i] += w.VX[i] * (1.0 / 60)
		sys.Update(w, 1.0/60, uint64(tick))
		dist := sqrtf32(w.X[i]*w.X[i] + w.Y[i]*w.Y[i])
		if dist > cfg.R3+0.5 {
			t.Fatalf("tick %d: entity escaped ring 3: dist=%v", tick, dist)
		}
		if w.Ring[i] != 3 {
			t.Fatalf("ring must never revert from 3, got %d", w.Ring[i])
		}
	}
}
