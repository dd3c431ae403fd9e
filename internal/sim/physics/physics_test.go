package physics

import (
	"testing"

	"jellyrush/internal/sim/world"
)

func spawnEntity(w *world.World, x, y, vx, vy, maxSpeed, friction float32) uint16 {
	i, _, _ := w.Allocate()
	w.Activate(i)
	w.X[i], w.Y[i] = x, y
	w.VX[i], w.VY[i] = vx, vy
	w.Radius[i] = 10
	w.MaxSpeed[i] = maxSpeed
	w.SpeedMult[i] = 1
	w.BuffSpeedMult[i] = 1
	w.Friction[i] = friction
	return i
}

func TestFixedStepAdvance(t *testing.T) {
	w := world.New(8)
	i := spawnEntity(w, 0, 0, 10, 0, 1000, 1)

	cfg := DefaultConfig()
	cfg.FrictionBase = 1 // disable friction per S1's test harness assumption
	cfg.TimeScale = 1
	sys := New(cfg)

	const dt = 16.6 / 1000.0
	for tick := 0; tick < 60; tick++ {
		beforeX := w.X[i]
		sys.Update(w, dt)
		if w.PrevX[i] != beforeX {
			t.Fatalf("tick %d: prevX = %v, want %v", tick, w.PrevX[i], beforeX)
		}
	}
	got := w.X[i]
	if got < 9.9 || got > 10.1 {
		t.Fatalf("x after 60 ticks = %v, want ~10", got)
	}
}

func TestAntiCheatSpeedClamp(t *testing.T) {
	w := world.New(8)
	i := spawnEntity(w, 0, 0, 100000, 0, 150, 1)
	cfg := DefaultConfig()
	cfg.FrictionBase = 1
	sys := New(cfg)
	sys.Update(w, 1.0/60)

	ceiling := 150 * cfg.SpeedTolerance
	speed := sqrtf32(w.VX[i]*w.VX[i] + w.VY[i]*w.VY[i])
	if speed > ceiling+0.01 {
		t.Fatalf("speed %v exceeds ceiling %v", speed, ceiling)
	}
}

func TestBoundaryReflection(t *testing.T) {
	w := world.New(8)
	cfg := DefaultConfig()
	cfg.MapRadiusPhy = 100
	cfg.FrictionBase = 1
	i := spawnEntity(w, 95, 0, 1000, 0, 100000, 1)
	w.Radius[i] = 0
	sys := New(cfg)
	sys.Update(w, 1.0/60)

	limit := cfg.MapRadiusPhy
	distSq := w.X[i]*w.X[i] + w.Y[i]*w.Y[i]
	if distSq > limit*limit+1 {
		t.Fatalf("entity escaped boundary: dist=%v limit=%v", sqrtf32(distSq), limit)
	}
	if w.VX[i] > 0 {
		t.Fatalf("expected outward velocity to be reflected, got vx=%v", w.VX[i])
	}
}
