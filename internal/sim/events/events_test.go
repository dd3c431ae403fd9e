package events

import "testing"

func TestPushDrainOrder(t *testing.T) {
	r := NewRing()
	r.Push(Event{Kind: KindSkillFired, Primary: 1})
	r.Push(Event{Kind: KindEntityDeath, Primary: 2})

	out := r.Drain(nil)
	if len(out) != 2 || out[0].Kind != KindSkillFired || out[1].Kind != KindEntityDeath {
		t.Fatalf("unexpected drain order: %+v", out)
	}
	if len(r.Drain(nil)) != 0 {
		t.Fatal("expected empty drain after full drain")
	}
}

func TestOverflowCounted(t *testing.T) {
	r := NewRing()
	for i := 0; i < BufferSize+5; i++ {
		r.Push(Event{Kind: KindEntitySpawn})
	}
	if r.Overflowed() != 5 {
		t.Fatalf("overflowed = %d, want 5", r.Overflowed())
	}
}
