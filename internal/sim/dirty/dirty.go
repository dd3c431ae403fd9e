// Package dirty implements the DirtyTracker of spec.md §4.7: a
// per-entity dirty-component bitmap plus a frame counter. The periodic
// full-snapshot refresh is counted by the snapshot Encoder, not here.
package dirty

// ComponentMask bits, per spec.md §4.7 ("TRANSFORM, PHYSICS, STATS,
// STATE, SKILLS, CUSTOM…").
type ComponentMask uint16

const (
	MaskTransform ComponentMask = 1 << iota
	MaskPhysics
	MaskStats
	MaskState
	MaskSkills
	MaskPigment
	MaskCustom
)

// Tracker holds one dirty bitmap per entity slot, sized to the World's
// capacity so marking/clearing never allocates.
type Tracker struct {
	dirty   []ComponentMask
	dense   []uint16 // entities with a non-zero bitmap, for fast iteration
	inSet   []bool
	scratch []uint16 // reused by DirtyEntities(mask) to stay allocation-free
	frame   uint64
}

func New(capacity int) *Tracker {
	return &Tracker{
		dirty:   make([]ComponentMask, capacity),
		dense:   make([]uint16, 0, capacity),
		inSet:   make([]bool, capacity),
		scratch: make([]uint16, 0, capacity),
	}
}

// MarkDirty ORs mask into entity i's bitmap and tracks it for
// iteration.
func (t *Tracker) MarkDirty(i uint16, mask ComponentMask) {
	if t.dirty[i] == 0 && !t.inSet[i] {
		t.dense = append(t.dense, i)
		t.inSet[i] = true
	}
	t.dirty[i] |= mask
}

// Tick increments the internal frame counter, read back through
// Frame(). Called once per simulation tick; the snapshot Encoder keeps
// its own frame count to decide when a full snapshot is due.
func (t *Tracker) Tick() {
	t.frame++
}

func (t *Tracker) Frame() uint64 {
	return t.frame
}

// DirtyEntities returns entity ids whose bitmap intersects mask (or all
// dirty entities if mask is 0). The returned slice aliases Tracker
// state and is valid only until the next Clear* call.
func (t *Tracker) DirtyEntities(mask ComponentMask) []uint16 {
	if mask == 0 {
		return t.dense
	}
	t.scratch = t.scratch[:0]
	for _, i := range t.dense {
		if t.dirty[i]&mask != 0 {
			t.scratch = append(t.scratch, i)
		}
	}
	return t.scratch
}

// DirtyMask returns the raw bitmap for entity i.
func (t *Tracker) DirtyMask(i uint16) ComponentMask {
	return t.dirty[i]
}

// ClearDirty clears entity i's entire bitmap and removes it from the
// dense iteration set.
func (t *Tracker) ClearDirty(i uint16) {
	if !t.inSet[i] {
		return
	}
	t.dirty[i] = 0
	t.inSet[i] = false
	for pos, v := range t.dense {
		if v == i {
			last := len(t.dense) - 1
			t.dense[pos] = t.dense[last]
			t.dense = t.dense[:last]
			break
		}
	}
}

func (t *Tracker) ClearComponentDirty(i uint16, mask ComponentMask) {
	t.dirty[i] &^= mask
	if t.dirty[i] == 0 {
		t.ClearDirty(i)
	}
}

// ClearAll resets every tracked entity's bitmap in one pass.
func (t *Tracker) ClearAll() {
	for _, i := range t.dense {
		t.dirty[i] = 0
		t.inSet[i] = false
	}
	t.dense = t.dense[:0]
}
