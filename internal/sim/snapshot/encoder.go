package snapshot

import (
	"jellyrush/internal/sim/dirty"
	"jellyrush/internal/sim/world"
)

// Encoder builds the per-tick TRANSFORM_UPDATE payload described in
// spec.md §4.8: a delta of dirty entities by default, or a full
// snapshot of every active entity every Interval ticks.
type Encoder struct {
	Pool     *Pool
	Interval uint64 // SNAPSHOT_INTERVAL, spec.md §6.5 default 60

	framesSinceSnapshot uint64
}

func NewEncoder(pool *Pool, interval uint64) *Encoder {
	return &Encoder{Pool: pool, Interval: interval}
}

// EncodeResult carries the encoded payload, the mask and entity ids it
// actually covers, and whether it was a full snapshot. The caller uses
// Mask/IDs to clear exactly the dirty state that was encoded — not the
// tracker's entire dirty set, which may carry bits from a different
// packet type still pending its own drain this tick.
type EncodeResult struct {
	Buffer  *Buffer
	IsFull  bool
	Entries int
	Mask    dirty.ComponentMask
	IDs     []uint16
}

// Encode drains the dirty tracker (or, on a full-snapshot tick, the
// active list) and encodes a single TRANSFORM_UPDATE packet. The
// caller must call Pool.Release(result.Buffer) once the payload has
// been sent.
func (e *Encoder) Encode(w *world.World, tracker *dirty.Tracker, timestamp float32) EncodeResult {
	e.framesSinceSnapshot++
	full := e.framesSinceSnapshot >= e.Interval
	var ids []uint16
	if full {
		ids = w.ActiveSlots()
		e.framesSinceSnapshot = 0
	} else {
		// DirtyEntities(mask) returns a slice aliasing the tracker's shared
		// scratch buffer, which a later schema-delta call on a different
		// mask will overwrite, so copy before it can be invalidated.
		ids = append([]uint16(nil), tracker.DirtyEntities(dirty.MaskTransform)...)
	}

	buf := e.Pool.Checkout()
	buf.Bytes = EncodeTransformUpdate(buf.Bytes, timestamp, ids, w)
	return EncodeResult{Buffer: buf, IsFull: full, Entries: len(ids), Mask: dirty.MaskTransform, IDs: ids}
}

// EncodeSchemaDelta builds a COMPONENT_DELTA packet for schema's ids —
// every active entity on a full-snapshot tick, or the subset dirty
// under mask otherwise — mirroring Encode's full/delta split so both
// packet types advance and reset together. Returns nil if there is
// nothing to send on a delta tick.
func (e *Encoder) EncodeSchemaDelta(w *world.World, tracker *dirty.Tracker, timestamp float32, schema Schema, mask dirty.ComponentMask, full bool) *EncodeResult {
	var ids []uint16
	if full {
		ids = w.ActiveSlots()
	} else {
		ids = append([]uint16(nil), tracker.DirtyEntities(mask)...)
	}
	if len(ids) == 0 {
		return nil
	}

	buf := e.Pool.Checkout()
	buf.Bytes = EncodeComponentDelta(buf.Bytes, timestamp, schema, ids, w)
	return &EncodeResult{Buffer: buf, IsFull: full, Entries: len(ids), Mask: mask, IDs: ids}
}

// FramesSinceSnapshot exposes the counter for tests/metrics.
func (e *Encoder) FramesSinceSnapshot() uint64 {
	return e.framesSinceSnapshot
}
