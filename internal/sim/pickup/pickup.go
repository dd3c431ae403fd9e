// Package pickup implements consumption of food/special entities by
// players: an O(n*m) proximity sweep (player count is small and the
// overall pool is bounded by the World's fixed capacity) grounded on the teacher's distance-based
// Hitbox.CheckHit in internal/game/hitbox.go, generalised from a
// directional weapon-range test to a symmetric magnet-radius test.
package pickup

import (
	"jellyrush/internal/sim/events"
	"jellyrush/internal/sim/world"
)

// System consumes pickups within a player's magnet radius each tick,
// mixing the pickup's pigment into the player's and releasing the
// pickup entity (spec.md §3.5 "Pickup entity: ... released on
// consumption").
type System struct {
	Events *events.Ring

	// OnPlayerChanged, if set, is called with the consuming player's slot
	// after each consumption updates their stats/pigment/state, so the caller
	// can feed the DirtyTracker (spec.md §4.7) without Pickup importing
	// it.
	OnPlayerChanged func(playerIdx uint16)
}

func New(ring *events.Ring) *System {
	return &System{Events: ring}
}

// ScoreFood and ScoreSpecial are the flat score awards per consumed
// pickup kind; there is no per-pickup value field in the component
// table, so kind alone determines reward.
const (
	ScoreFood    = 1
	ScoreSpecial = 3
)

// Update scans every active player against every active food entity
// and consumes the ones within magnet (or body) range. release is
// called for each consumed pickup's slot index so the caller can
// return it to the World's free list after this pass finishes
// iterating (releasing mid-scan would disturb the active dense array).
func (s *System) Update(w *world.World, tick uint64, release func(i uint16)) {
	active := w.ActiveSlots()

	var players, pickups []uint16
	for _, i := range active {
		switch {
		case w.State[i].Has(world.FlagPlayer) && !w.State[i].Has(world.FlagDead):
			players = append(players, i)
		case w.State[i].Has(world.FlagFood):
			pickups = append(pickups, i)
		}
	}

	consumed := make(map[uint16]bool, len(pickups))
	for _, pi := range players {
		radius := w.MagnetRadius[pi]
		for _, fi := range pickups {
			if consumed[fi] {
				continue
			}
			dx := w.X[fi] - w.X[pi]
			dy := w.Y[fi] - w.Y[pi]
			reach := radius + w.Radius[fi]
			if dx*dx+dy*dy > reach*reach {
				continue
			}
			s.consume(w, pi, fi, tick)
			consumed[fi] = true
		}
	}

	for _, fi := range pickups {
		if consumed[fi] {
			release(fi)
		}
	}
}

func (s *System) consume(w *world.World, playerIdx, pickupIdx uint16, tick uint64) {
	mixPigment(w, playerIdx, pickupIdx)

	score := float32(ScoreFood)
	if w.State[pickupIdx].Has(world.FlagKindShield) {
		w.State[playerIdx] |= world.FlagShielded
		w.BuffTimer[playerIdx] = 3
		score = ScoreSpecial
	}
	w.Score[playerIdx] += score

	if s.Events != nil {
		s.Events.Push(events.Event{Kind: events.KindEntityDeath, Tick: tick, Primary: pickupIdx, Aux: playerIdx})
	}
	if s.OnPlayerChanged != nil {
		s.OnPlayerChanged(playerIdx)
	}
}

// mixPigment blends 15% of the pickup's pigment contribution into
// the player's, then recomputes matchPercent the same way Join does
// (distance to fully-mixed white, clamped to [0,1]).
func mixPigment(w *world.World, playerIdx, pickupIdx uint16) {
	const blend = 0.15

	pr, pg, pb := pickupPigment(w.State[pickupIdx])
	w.PigR[playerIdx] += (pr - w.PigR[playerIdx]) * blend
	w.PigG[playerIdx] += (pg - w.PigG[playerIdx]) * blend
	w.PigB[playerIdx] += (pb - w.PigB[playerIdx]) * blend

	dr, dg, db := 1-w.PigR[playerIdx], 1-w.PigG[playerIdx], 1-w.PigB[playerIdx]
	distSq := dr*dr + dg*dg + db*db
	pct := 1 - distSq/3
	if pct < 0 {
		pct = 0
	}
	if pct > 1 {
		pct = 1
	}
	w.MatchPercent[playerIdx] = pct
}

func pickupPigment(s world.StateFlags) (r, g, b float32) {
	switch {
	case s.Has(world.FlagKindPigmentR):
		return 1, 0, 0
	case s.Has(world.FlagKindPigmentG):
		return 0, 1, 0
	case s.Has(world.FlagKindPigmentB):
		return 0, 0, 1
	case s.Has(world.FlagKindNeutral):
		return 0.5, 0.5, 0.5
	default:
		return 1, 1, 1 // solvent/shield: push toward full mix
	}
}
