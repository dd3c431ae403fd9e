package snapshot

import "jellyrush/internal/sim/world"

// TransformEntry is a decoded row of a TRANSFORM_UPDATE packet.
type TransformEntry struct {
	ID   uint16
	X, Y float32
}

// EncodeTransformUpdate appends a 0x01 TRANSFORM_UPDATE packet to buf
// for the given entities and returns the grown slice.
func EncodeTransformUpdate(buf []byte, timestamp float32, ids []uint16, w *world.World) []byte {
	buf = append(buf, byte(TagTransformUpdate))
	buf = putFloat32(buf, timestamp)
	buf = putUint16(buf, uint16(len(ids)))
	for _, id := range ids {
		buf = putUint16(buf, id)
		buf = putFloat32(buf, w.X[id])
		buf = putFloat32(buf, w.Y[id])
	}
	return buf
}

// DecodeTransformUpdate parses a 0x01 packet body (tag already
// consumed) into entries.
func DecodeTransformUpdate(buf []byte) (timestamp float32, entries []TransformEntry) {
	timestamp, buf = getFloat32(buf)
	count, buf := getUint16(buf)
	entries = make([]TransformEntry, 0, count)
	for n := uint16(0); n < count; n++ {
		var e TransformEntry
		e.ID, buf = getUint16(buf)
		e.X, buf = getFloat32(buf)
		e.Y, buf = getFloat32(buf)
		entries = append(entries, e)
	}
	return timestamp, entries
}

// PhysicsEntry is a decoded row of a PHYSICS_UPDATE packet.
type PhysicsEntry struct {
	ID           uint16
	VX, VY       float32
	Radius       float32
}

func EncodePhysicsUpdate(buf []byte, timestamp float32, ids []uint16, w *world.World) []byte {
	buf = append(buf, byte(TagPhysicsUpdate))
	buf = putFloat32(buf, timestamp)
	buf = putUint16(buf, uint16(len(ids)))
	for _, id := range ids {
		buf = putUint16(buf, id)
		buf = putFloat32(buf, w.VX[id])
		buf = putFloat32(buf, w.VY[id])
		buf = putFloat32(buf, w.Radius[id])
	}
	return buf
}

func DecodePhysicsUpdate(buf []byte) (timestamp float32, entries []PhysicsEntry) {
	timestamp, buf = getFloat32(buf)
	count, buf := getUint16(buf)
	entries = make([]PhysicsEntry, 0, count)
	for n := uint16(0); n < count; n++ {
		var e PhysicsEntry
		e.ID, buf = getUint16(buf)
		e.VX, buf = getFloat32(buf)
		e.VY, buf = getFloat32(buf)
		e.Radius, buf = getFloat32(buf)
		entries = append(entries, e)
	}
	return timestamp, entries
}

// FieldGetter reads one schema field for entity id out of World.
type FieldGetter func(w *world.World, id uint16) float32

// Schema names a COMPONENT_DELTA body: an ASCII component id plus the
// ordered list of fields encoded per entity.
type Schema struct {
	CompID string
	Fields []FieldGetter
}

// StatsSchema is the reference COMPONENT_DELTA schema for the Stats
// row (hp, maxHp, score, matchPercent).
var StatsSchema = Schema{
	CompID: "stats",
	Fields: []FieldGetter{
		func(w *world.World, id uint16) float32 { return w.HP[id] },
		func(w *world.World, id uint16) float32 { return w.MaxHP[id] },
		func(w *world.World, id uint16) float32 { return w.Score[id] },
		func(w *world.World, id uint16) float32 { return w.MatchPercent[id] },
	},
}

// StateSchema carries the engine state bitmask (DEAD, SHIELDED, kind
// flags, …) and the gameplay Ring value, the two non-Transform,
// non-Stats fields that change on death/respawn/ring-commit and would
// otherwise never reach a client outside a full-snapshot refresh.
var StateSchema = Schema{
	CompID: "state",
	Fields: []FieldGetter{
		func(w *world.World, id uint16) float32 { return float32(w.State[id]) },
		func(w *world.World, id uint16) float32 { return float32(w.Ring[id]) },
	},
}

func EncodeComponentDelta(buf []byte, timestamp float32, schema Schema, ids []uint16, w *world.World) []byte {
	buf = append(buf, byte(TagComponentDelta))
	buf = putFloat32(buf, timestamp)
	buf = append(buf, byte(len(schema.CompID)))
	buf = append(buf, schema.CompID...)
	buf = putUint16(buf, uint16(len(ids)))
	for _, id := range ids {
		buf = putUint16(buf, id)
		for _, f := range schema.Fields {
			buf = putFloat32(buf, f(w, id))
		}
	}
	return buf
}

// ComponentDeltaEntry is a decoded row; Values follows the schema's
// field order exactly.
type ComponentDeltaEntry struct {
	ID     uint16
	Values []float32
}

func DecodeComponentDelta(buf []byte) (timestamp float32, compID string, entries []ComponentDeltaEntry) {
	timestamp, buf = getFloat32(buf)
	idLen := int(buf[0])
	buf = buf[1:]
	compID = string(buf[:idLen])
	buf = buf[idLen:]
	count, buf := getUint16(buf)
	entries = make([]ComponentDeltaEntry, 0, count)
	fieldCount := 0
	switch compID {
	case StatsSchema.CompID:
		fieldCount = len(StatsSchema.Fields)
	case StateSchema.CompID:
		fieldCount = len(StateSchema.Fields)
	}
	for n := uint16(0); n < count; n++ {
		var e ComponentDeltaEntry
		e.ID, buf = getUint16(buf)
		e.Values = make([]float32, fieldCount)
		for i := 0; i < fieldCount; i++ {
			e.Values[i], buf = getFloat32(buf)
		}
		entries = append(entries, e)
	}
	return timestamp, compID, entries
}

func EncodeEntitySpawn(buf []byte, id uint16, template string) []byte {
	buf = append(buf, byte(TagEntitySpawn))
	buf = putUint16(buf, id)
	buf = append(buf, byte(len(template)))
	buf = append(buf, template...)
	return buf
}

func DecodeEntitySpawn(buf []byte) (id uint16, template string) {
	id, buf = getUint16(buf)
	tmplLen := int(buf[0])
	buf = buf[1:]
	template = string(buf[:tmplLen])
	return id, template
}

func EncodeEntityDestroy(buf []byte, id uint16) []byte {
	buf = append(buf, byte(TagEntityDestroy))
	buf = putUint16(buf, id)
	return buf
}

func DecodeEntityDestroy(buf []byte) (id uint16) {
	id, _ = getUint16(buf)
	return id
}
