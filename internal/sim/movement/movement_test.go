package movement

import (
	"testing"

	"jellyrush/internal/sim/world"
)

func TestSeekTowardTargetClampsSpeed(t *testing.T) {
	w := world.New(4)
	i, _, _ := w.Allocate()
	w.Activate(i)
	w.X[i], w.Y[i] = 0, 0
	w.TargetX[i], w.TargetY[i] = 1000, 0
	w.MaxSpeed[i] = 150
	w.SpeedMult[i] = 1
	w.BuffSpeedMult[i] = 1

	sys := New()
	for tick := 0; tick < 120; tick++ {
		sys.Update(w, 1.0/60)
	}
	speed := sqrtf32(w.VX[i]*w.VX[i] + w.VY[i]*w.VY[i])
	if speed > 150.01 {
		t.Fatalf("speed %v exceeds maxSpeed 150", speed)
	}
}

func TestDeadzoneNoOp(t *testing.T) {
	w := world.New(4)
	i, _, _ := w.Allocate()
	w.Activate(i)
	w.TargetX[i], w.TargetY[i] = 0.5, 0
	w.MaxSpeed[i] = 150
	w.SpeedMult[i] = 1

	sys := New()
	sys.Update(w, 1.0/60)
	if w.VX[i] != 0 || w.VY[i] != 0 {
		t.Fatalf("expected no-op inside deadzone, got vx=%v vy=%v", w.VX[i], w.VY[i])
	}
}
