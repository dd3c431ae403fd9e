package pickup

import (
	"testing"

	"jellyrush/internal/sim/events"
	"jellyrush/internal/sim/world"
)

func newPlayer(w *world.World, x, y, magnet float32) uint16 {
	i, _, _ := w.Allocate()
	w.Activate(i)
	w.State[i] |= world.FlagPlayer
	w.X[i], w.Y[i] = x, y
	w.Radius[i] = 10
	w.MagnetRadius[i] = magnet
	w.PigR[i], w.PigG[i], w.PigB[i] = 0, 0, 0
	return i
}

func newFood(w *world.World, x, y float32, kind world.StateFlags) uint16 {
	i, _, _ := w.Allocate()
	w.Activate(i)
	w.State[i] = world.FlagFood | kind
	w.X[i], w.Y[i] = x, y
	w.Radius[i] = 6
	return i
}

func TestConsumeWithinMagnetRadius(t *testing.T) {
	w := world.New(8)
	pi := newPlayer(w, 0, 0, 40)
	fi := newFood(w, 30, 0, world.FlagKindPigmentR)

	sys := New(events.NewRing())
	var released []uint16
	sys.Update(w, 1, func(i uint16) { released = append(released, i) })

	if len(released) != 1 || released[0] != fi {
		t.Fatalf("expected food %d released, got %v", fi, released)
	}
	if w.Score[pi] != ScoreFood {
		t.Fatalf("score = %v, want %v", w.Score[pi], ScoreFood)
	}
	if w.PigR[pi] <= 0 {
		t.Fatalf("expected red pigment mixed in, got PigR=%v", w.PigR[pi])
	}
}

func TestNoConsumeOutsideMagnetRadius(t *testing.T) {
	w := world.New(8)
	pi := newPlayer(w, 0, 0, 20)
	newFood(w, 100, 0, world.FlagKindNeutral)

	sys := New(events.NewRing())
	var released []uint16
	sys.Update(w, 1, func(i uint16) { released = append(released, i) })

	if len(released) != 0 {
		t.Fatalf("expected no consumption, released=%v", released)
	}
	if w.Score[pi] != 0 {
		t.Fatalf("score = %v, want 0", w.Score[pi])
	}
}

func TestShieldPickupGrantsBuffAndBonusScore(t *testing.T) {
	w := world.New(8)
	pi := newPlayer(w, 0, 0, 40)
	newFood(w, 5, 0, world.FlagKindShield)

	sys := New(events.NewRing())
	sys.Update(w, 1, func(i uint16) {})

	if !w.State[pi].Has(world.FlagShielded) {
		t.Fatal("expected FlagShielded set after consuming shield pickup")
	}
	if w.BuffTimer[pi] != 3 {
		t.Fatalf("BuffTimer = %v, want 3", w.BuffTimer[pi])
	}
	if w.Score[pi] != ScoreSpecial {
		t.Fatalf("score = %v, want %v", w.Score[pi], ScoreSpecial)
	}
}

func TestDeadPlayerDoesNotConsume(t *testing.T) {
	w := world.New(8)
	pi := newPlayer(w, 0, 0, 40)
	w.State[pi] |= world.FlagDead
	newFood(w, 5, 0, world.FlagKindNeutral)

	sys := New(events.NewRing())
	var released []uint16
	sys.Update(w, 1, func(i uint16) { released = append(released, i) })

	if len(released) != 0 {
		t.Fatalf("expected dead player to consume nothing, released=%v", released)
	}
}

func TestEachPickupConsumedAtMostOnce(t *testing.T) {
	w := world.New(8)
	newPlayer(w, 0, 0, 50)
	newPlayer(w, 1, 0, 50)
	fi := newFood(w, 5, 0, world.FlagKindNeutral)

	sys := New(events.NewRing())
	var released []uint16
	sys.Update(w, 1, func(i uint16) { released = append(released, i) })

	if len(released) != 1 || released[0] != fi {
		t.Fatalf("expected exactly one release of %d, got %v", fi, released)
	}
}
