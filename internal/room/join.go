package room

import (
	"math"

	"jellyrush/internal/sim/dirty"
	"jellyrush/internal/sim/handle"
	"jellyrush/internal/sim/world"
)

// Shape enumerates the jelly shapes a client may pick at join time.
// The exact set is a presentation concern (out of scope); the core
// only needs to validate membership (spec.md §4.9 step 1).
type Shape int

const (
	ShapeRound Shape = iota
	ShapeSquare
	ShapeStar
	shapeCount
)

// JoinOptions is the validated client payload for joining a room.
type JoinOptions struct {
	Name      string
	Shape     Shape
	PigR      float32
	PigG      float32
	PigB      float32
}

func (o JoinOptions) validate() error {
	if len(o.Name) > 32 {
		return ErrNameTooLong
	}
	if o.Shape < 0 || o.Shape >= shapeCount {
		return ErrInvalidShape
	}
	for _, c := range [3]float32{o.PigR, o.PigG, o.PigB} {
		if c < 0 || c > 1 {
			return ErrInvalidPigment
		}
	}
	return nil
}

const defaultSpawnRadius float32 = 20

// Join admits a new session: validates options, allocates an entity,
// places it, and initialises every component row the Room's systems
// read (spec.md §4.9 Join steps 1-6).
func (r *Room) Join(sessionID string, opts JoinOptions, conn Transport) (handle.Handle, error) {
	if err := opts.validate(); err != nil {
		return handle.None, err
	}

	i, h, err := r.World.Allocate()
	if err != nil {
		r.log.Infof("join refused for session %s: pool exhausted", sessionID)
		if r.metrics != nil {
			r.metrics.PoolExhaustions.Inc()
		}
		return handle.None, err
	}

	x, y := r.randomSpawnPosition()
	radius := defaultSpawnRadius

	w := r.World
	w.X[i], w.Y[i] = x, y
	w.PrevX[i], w.PrevY[i] = x, y
	w.Rotation[i], w.Scale[i] = 0, 1

	w.VX[i], w.VY[i] = 0, 0
	w.Mass[i] = float32(math.Pi) * radius * radius
	w.Radius[i] = radius
	w.Restitution[i] = 0.3
	w.Friction[i] = r.cfg.FrictionBase

	w.HP[i], w.MaxHP[i] = 100, 100
	w.Score[i] = 0
	w.PigR[i], w.PigG[i], w.PigB[i] = opts.PigR, opts.PigG, opts.PigB
	w.MatchPercent[i] = matchPercent(opts.PigR, opts.PigG, opts.PigB)
	w.DamageMult[i] = 1
	w.Defense[i] = 0

	w.TargetX[i], w.TargetY[i] = x, y

	w.MaxSpeed[i] = r.cfg.MaxSpeedBase
	w.SpeedMult[i] = 1
	w.MagnetRadius[i] = 40
	w.BuffSpeedMult[i] = 1
	w.BuffTimer[i] = 0

	w.Cooldown[i], w.MaxCooldown[i] = 0, 1.5
	w.Ring[i] = 1

	w.State[i] = world.FlagPlayer

	w.Activate(i)
	r.dirty.MarkDirty(i, dirty.MaskTransform|dirty.MaskPhysics|dirty.MaskStats|dirty.MaskState|dirty.MaskPigment)

	sess := newSession(sessionID, h, conn, r.cfg.RateLimitMax)
	r.sessionsMu.Lock()
	r.sessions[sessionID] = sess
	r.sessionsMu.Unlock()

	return h, nil
}

// matchPercent measures similarity between the entity's current
// pigment and the "fully mixed" target (1,1,1), per the glossary's
// "a [0,1] scalar measuring similarity".
func matchPercent(r, g, b float32) float32 {
	dr, dg, db := 1-r, 1-g, 1-b
	distSq := dr*dr + dg*dg + db*db
	maxDistSq := float32(3)
	pct := 1 - distSq/maxDistSq
	if pct < 0 {
		pct = 0
	}
	if pct > 1 {
		pct = 1
	}
	return pct
}

// Leave releases the session's entity, its auxiliary entities, and all
// session-scoped state (spec.md §4.9 Leave).
func (r *Room) Leave(sessionID string) {
	r.sessionsMu.Lock()
	sess, ok := r.sessions[sessionID]
	if ok {
		delete(r.sessions, sessionID)
	}
	r.sessionsMu.Unlock()
	if !ok {
		return
	}

	idx, valid := r.World.IndexOf(sess.Handle)
	if valid {
		r.releaseOwnedChildren(sess.Handle)
		r.World.Release(idx)
	}
}

// releaseOwnedChildren frees every active entity owned by owner
// (bots/projectiles), enforcing the reverse of the DoS cap on leave.
func (r *Room) releaseOwnedChildren(owner handle.Handle) {
	for _, i := range append([]uint16(nil), r.World.ActiveSlots()...) {
		if r.World.OwnerHandle[i] == owner {
			r.World.Release(i)
		}
	}
}
