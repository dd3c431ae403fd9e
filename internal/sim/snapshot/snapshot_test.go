package snapshot

import (
	"testing"

	"jellyrush/internal/sim/dirty"
	"jellyrush/internal/sim/world"
)

func TestTransformUpdateRoundTrip(t *testing.T) {
	w := world.New(8)
	i, _, _ := w.Allocate()
	w.Activate(i)
	w.X[i], w.Y[i] = 123.5, -67.25

	buf := EncodeTransformUpdate(nil, 1.5, []uint16{i}, w)
	if Tag(buf[0]) != TagTransformUpdate {
		t.Fatalf("wrong tag byte: %x", buf[0])
	}
	ts, entries := DecodeTransformUpdate(buf[1:])
	if ts != 1.5 {
		t.Fatalf("timestamp mismatch: %v", ts)
	}
	if len(entries) != 1 || entries[0].ID != i || entries[0].X != w.X[i] || entries[0].Y != w.Y[i] {
		t.Fatalf("round trip mismatch: %+v", entries)
	}
}

func TestComponentDeltaRoundTrip(t *testing.T) {
	w := world.New(8)
	i, _, _ := w.Allocate()
	w.Activate(i)
	w.HP[i], w.MaxHP[i], w.Score[i], w.MatchPercent[i] = 80, 100, 42, 0.33

	buf := EncodeComponentDelta(nil, 2.0, StatsSchema, []uint16{i}, w)
	ts, compID, entries := DecodeComponentDelta(buf[1:])
	if ts != 2.0 || compID != "stats" {
		t.Fatalf("header mismatch: ts=%v compID=%v", ts, compID)
	}
	if len(entries) != 1 || entries[0].ID != i {
		t.Fatalf("entry mismatch: %+v", entries)
	}
	want := []float32{80, 100, 42, 0.33}
	for idx, v := range want {
		if entries[0].Values[idx] != v {
			t.Fatalf("field %d mismatch: got %v want %v", idx, entries[0].Values[idx], v)
		}
	}
}

func TestSpawnDestroyRoundTripEmptiesCache(t *testing.T) {
	cache := map[uint16]string{}

	spawnBuf := EncodeEntitySpawn(nil, 9, "pickup:pigment_red")
	id, tmpl := DecodeEntitySpawn(spawnBuf[1:])
	cache[id] = tmpl
	if len(cache) != 1 {
		t.Fatal("expected one cached entity after spawn")
	}

	destroyBuf := EncodeEntityDestroy(nil, 9)
	gone := DecodeEntityDestroy(destroyBuf[1:])
	delete(cache, gone)
	if len(cache) != 0 {
		t.Fatal("expected empty cache after destroy")
	}
}

func TestSnapshotCadence(t *testing.T) {
	w := world.New(8)
	tracker := dirty.New(8)
	a, _, _ := w.Allocate()
	b, _, _ := w.Allocate()
	w.Activate(a)
	w.Activate(b)

	pool := NewPool()
	enc := NewEncoder(pool, 60)

	fullCount := 0
	deltaCount := 0
	for tick := 1; tick <= 120; tick++ {
		tracker.MarkDirty(a, dirty.MaskTransform)
		tracker.MarkDirty(b, dirty.MaskTransform)

		res := enc.Encode(w, tracker, float32(tick))
		if res.IsFull {
			fullCount++
			if res.Entries != w.ActiveCount() {
				t.Fatalf("tick %d: full snapshot entries = %d, want %d", tick, res.Entries, w.ActiveCount())
			}
		} else {
			deltaCount++
			if res.Entries != 2 {
				t.Fatalf("tick %d: delta entries = %d, want 2", tick, res.Entries)
			}
		}
		pool.Release(res.Buffer)
		tracker.ClearDirty(a)
		tracker.ClearDirty(b)
		tracker.Tick()
	}

	if fullCount != 2 {
		t.Fatalf("expected 2 full snapshots over 120 ticks, got %d", fullCount)
	}
	if deltaCount != 118 {
		t.Fatalf("expected 118 delta frames over 120 ticks, got %d", deltaCount)
	}
}

func TestAckFraming(t *testing.T) {
	payload := EncodeEntityDestroy(nil, 4)
	frame := PrependAck(0xDEADBEEF, payload)
	ack, body := DecodeAck(frame)
	if ack != 0xDEADBEEF {
		t.Fatalf("ack mismatch: %x", ack)
	}
	if string(body) != string(payload) {
		t.Fatal("payload mismatch after ack framing round trip")
	}
}
