package skill

import (
	"testing"

	"jellyrush/internal/sim/events"
	"jellyrush/internal/sim/world"
)

func TestFireOnlyWhenOffCooldown(t *testing.T) {
	w := world.New(4)
	i, _, _ := w.Allocate()
	w.Activate(i)
	w.MaxCooldown[i] = 1.0

	ring := events.NewRing()
	sys := New(ring)

	w.ActionBits[i] = ActionPrimary
	sys.Update(w, 1.0/60, 1)
	if w.Cooldown[i] != 1.0 {
		t.Fatalf("expected skill to fire and reset cooldown, got %v", w.Cooldown[i])
	}
	out := ring.Drain(nil)
	if len(out) != 1 || out[0].Kind != events.KindSkillFired {
		t.Fatalf("expected one SkillFired event, got %+v", out)
	}

	w.ActionBits[i] = ActionPrimary
	sys.Update(w, 1.0/60, 2)
	if len(ring.Drain(nil)) != 0 {
		t.Fatal("skill on cooldown must not fire again")
	}
}

func TestActionBitClearedEvenWithoutFiring(t *testing.T) {
	w := world.New(4)
	i, _, _ := w.Allocate()
	w.Activate(i)
	w.Cooldown[i] = 5
	w.ActionBits[i] = ActionPrimary

	sys := New(nil)
	sys.Update(w, 1.0/60, 1)
	if w.ActionBits[i]&ActionPrimary != 0 {
		t.Fatal("action bit must be cleared even when the skill doesn't fire")
	}
}
