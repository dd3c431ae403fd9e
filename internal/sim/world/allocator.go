package world

import (
	"errors"

	"jellyrush/internal/sim/handle"
)

// ErrPoolExhausted is returned by Allocate when the watermark has
// reached Capacity and the free list is empty (spec.md §4.1).
var ErrPoolExhausted = errors.New("world: entity pool exhausted")

// Allocate reserves a slot, preferring the LIFO free list and otherwise
// bumping the watermark. The slot's generation is incremented on every
// allocation (including the very first use of a watermark slot, which
// starts at generation 0 and is bumped to 1 so handle.None, generation
// 0, is never valid).
func (w *World) Allocate() (uint16, handle.Handle, error) {
	var i uint16
	if n := len(w.free); n > 0 {
		i = w.free[n-1]
		w.free = w.free[:n-1]
		w.freed[i] = false
	} else {
		if int(w.watermark) >= w.Capacity {
			return 0, handle.None, ErrPoolExhausted
		}
		i = w.watermark
		w.watermark++
	}
	w.Generation[i]++
	return i, handle.New(i, w.Generation[i]), nil
}

// Release resets every component row for i (see zeroSlot), clears all state flags,
// removes it from the active set, and returns it to the free list.
// Idempotent: releasing an already-free slot is a no-op (spec.md
// invariant #7), guarded directly by the freed[] membership flag rather
// than inferred from active/generation state, so a double Release can
// never push a duplicate index onto the free list.
func (w *World) Release(i uint16) {
	if w.freed[i] {
		return
	}
	w.active.remove(i)
	w.zeroSlot(i)
	w.free = append(w.free, i)
	w.freed[i] = true
}

// IsValid reports whether h still refers to the slot it was issued for:
// the slot is not sitting in the free list and its generation matches.
func (w *World) IsValid(h handle.Handle) bool {
	i := h.Index()
	if int(i) >= w.Capacity {
		return false
	}
	return !w.freed[i] && w.Generation[i] == h.Generation()
}

// IndexOf returns the live slot index for a valid handle, or (0, false).
func (w *World) IndexOf(h handle.Handle) (uint16, bool) {
	if !w.IsValid(h) {
		return 0, false
	}
	return h.Index(), true
}

// Activate adds i to the active dense list and sets the ACTIVE flag.
func (w *World) Activate(i uint16) {
	w.State[i] |= FlagActive
	w.active.add(i)
}

// Deactivate swap-removes i from the active dense list and clears ACTIVE.
func (w *World) Deactivate(i uint16) {
	w.State[i] &^= FlagActive
	w.active.remove(i)
}

func (w *World) IsActive(i uint16) bool {
	return w.active.contains(i)
}

// ActiveSlots returns the live backing dense array of active slot
// indices; valid only for the duration of the current tick.
func (w *World) ActiveSlots() []uint16 {
	return w.active.Dense()
}

func (w *World) ActiveCount() int {
	return w.active.Count()
}

// HandleOf builds the current handle for a live slot index.
func (w *World) HandleOf(i uint16) handle.Handle {
	return handle.New(i, w.Generation[i])
}
