// Package room implements the per-match supervisor: it owns the World,
// every system, the dirty tracker, the encoder, and per-connection
// session state; runs the fixed-tick accumulator loop; and enforces
// rate limits, entity-pool caps, input sanitisation, and handle (ABA)
// validation. Construction takes no side effects; Start() launches the
// tick goroutine, and a ticker-driven loop applies a clamped dt with
// anti-cheat validation before input is ever applied to the world.
package room

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"jellyrush/internal/config"
	"jellyrush/internal/obs"
	"jellyrush/internal/obslog"
	"jellyrush/internal/sim/dirty"
	"jellyrush/internal/sim/events"
	"jellyrush/internal/sim/movement"
	"jellyrush/internal/sim/physics"
	"jellyrush/internal/sim/pickup"
	"jellyrush/internal/sim/prng"
	"jellyrush/internal/sim/ring"
	"jellyrush/internal/sim/skill"
	"jellyrush/internal/sim/snapshot"
	"jellyrush/internal/sim/wave"
	"jellyrush/internal/sim/world"
)

// RespawnDelay is the fixed delay from death to respawn (spec.md §4.9
// step 4: "~1.5 s later").
const RespawnDelay = 1.5 * time.Second

// Room is the single logical executor owning one match's entire
// simulation state (spec.md §5). Every exported mutator except
// HandleInputMessage and the Join/Leave pair is expected to run on the
// Room's own goroutine; network-facing methods stage their effect into
// per-session state guarded by its own mutex rather than touching World
// directly.
type Room struct {
	ID string

	cfg   config.SimConfig
	level config.LevelConfig

	World    *world.World
	movement *movement.System
	physics  *physics.System
	skill    *skill.System
	ring     *ring.System
	wave     *wave.System
	pickup   *pickup.System
	waveTimers wave.Timers
	dirty    *dirty.Tracker
	encoder  *snapshot.Encoder
	pool     *snapshot.Pool
	events   *events.Ring
	rng      *prng.Source

	metrics *obs.Metrics
	log     *obslog.Logger

	sessionsMu sync.RWMutex
	sessions   map[string]*Session

	deaths        []pendingRespawn
	eventsScratch []events.Event

	accumulator float64
	tickCount   uint64
	gameTime    float64

	running atomic.Bool
	stopCh  chan struct{}
}

type pendingRespawn struct {
	slot uint16
	at   float64 // game time seconds at which respawn fires
}

// New constructs a Room without starting any goroutine (teacher pattern:
// construction has no side effects; Start() launches the loop).
func New(id string, cfg config.SimConfig, level config.LevelConfig, seed uint64, metrics *obs.Metrics, log *obslog.Logger) (*Room, error) {
	if err := level.Validate(); err != nil {
		return nil, err
	}

	w := world.New(cfg.MaxEntities)
	evRing := events.NewRing()
	rng := prng.New(seed)

	pCfg := physics.DefaultConfig()
	pCfg.FrictionBase = cfg.FrictionBase
	pCfg.MapRadiusPhy = cfg.MapRadiusPhy
	pCfg.SpeedTolerance = cfg.SpeedValidationTolerance
	physSys := physics.New(pCfg)
	physSys.OnQuarantine = func(slot uint16) {
		log.Errorf("entity %d quarantined: NaN/Inf detected in physics", slot)
	}

	ringCfg := ring.DefaultConfig()
	ringCfg.R1, ringCfg.R2, ringCfg.R3 = cfg.RingR1, cfg.RingR2, cfg.RingR3
	ringCfg.T2, ringCfg.T3, ringCfg.TWin = level.ThresholdRing2, level.ThresholdRing3, level.ThresholdWin

	waveCfg := wave.Config{
		Bounds: [3]wave.AnnulusBounds{
			{MinR: cfg.RingR2, MaxR: cfg.RingR1},
			{MinR: cfg.RingR3, MaxR: cfg.RingR2},
			{MinR: 0, MaxR: cfg.RingR3},
		},
		PigmentWeight: level.SpawnWeightPigment,
		NeutralWeight: level.SpawnWeightNeutral,
		SpecialWeight: level.SpawnWeightSpecial,
	}

	r := &Room{
		ID:      id,
		cfg:     cfg,
		level:   level,
		World:   w,
		movement: movement.New(),
		physics: physSys,
		skill:   skill.New(evRing),
		ring:    ring.New(ringCfg, evRing),
		wave:    wave.New(waveCfg, rng),
		pickup:  pickup.New(evRing),
		waveTimers: wave.Timers{
			Interval:  [3]float32{level.WaveIntervalRing1, level.WaveIntervalRing2, level.WaveIntervalRing3},
			BurstSize: [3]int{level.BurstSizeRing1, level.BurstSizeRing2, level.BurstSizeRing3},
		},
		dirty:    dirty.New(cfg.MaxEntities),
		pool:     snapshot.NewPool(),
		events:   evRing,
		rng:      rng,
		metrics:  metrics,
		log:      log,
		sessions: make(map[string]*Session),
		stopCh:   make(chan struct{}),
	}
	r.encoder = snapshot.NewEncoder(r.pool, uint64(cfg.SnapshotInterval))
	r.waveTimers.Remaining = r.waveTimers.Interval

	// Physics integrates every active entity's position each tick; any
	// slot whose transform actually changed must re-enter the dirty set
	// so it reaches the next delta snapshot (spec.md §4.7/§4.8).
	physSys.OnMoved = func(slot uint16) {
		r.dirty.MarkDirty(slot, dirty.MaskTransform)
	}
	// Pickup consumption touches score/pigment/matchPercent (Stats) and
	// possibly the shielded flag (State); Ring commit/expiry touches
	// Ring and the shielded flag (State). Neither system imports dirty,
	// so they report back through these hooks (spec.md §4.7/§4.8).
	r.pickup.OnPlayerChanged = func(slot uint16) {
		// MaskPigment is intentionally not set here: pigment mix is
		// carried inside the Stats schema's matchPercent field, and no
		// packet type currently encodes raw PigR/G/B, so that bit is
		// only cleared by the next full-snapshot ClearAll and the
		// entity would sit in the dirty set until then.
		r.dirty.MarkDirty(slot, dirty.MaskStats|dirty.MaskState)
	}
	r.ring.OnRingChanged = func(slot uint16) {
		r.dirty.MarkDirty(slot, dirty.MaskState)
	}
	r.skill.OnFire = r.spawnProjectile

	log.Infof("room %s created: frictionBase=%.3f tickHz=%d seed=%d", id, cfg.FrictionBase, cfg.TickHz, seed)
	return r, nil
}

// Start launches the Room's tick goroutine. Safe to call once;
// subsequent calls are no-ops, matching the teacher's atomic-swap
// idempotency pattern.
func (r *Room) Start() {
	if r.running.Swap(true) {
		return
	}
	go r.runLoop()
}

// Stop ends the tick loop. Safe to call multiple times.
func (r *Room) Stop() {
	if !r.running.Swap(false) {
		return
	}
	close(r.stopCh)
}

func (r *Room) runLoop() {
	ticker := time.NewTicker(time.Second / time.Duration(r.cfg.TickHz))
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-r.stopCh:
			r.shutdownFinalTick()
			return
		case now := <-ticker.C:
			dtMs := float64(now.Sub(last).Milliseconds())
			last = now
			r.Update(dtMs)
		}
	}
}

// Update feeds dtMs into the fixed-step accumulator and runs zero or
// more whole FIXED_DT ticks, capped at MAX_ACCUMULATOR (spec.md §6.5,
// §7 "Clock regression or huge dt", and scenario S2). It returns the
// number of ticks executed, which test code (and S1/S2) asserts on.
func (r *Room) Update(dtMs float64) int {
	r.accumulator += dtMs / 1000.0
	if r.accumulator > float64(r.cfg.MaxAccumulator) {
		r.accumulator = float64(r.cfg.MaxAccumulator)
	}

	fixedDt := float64(r.cfg.FixedDt)
	ticks := 0
	for r.accumulator >= fixedDt {
		start := time.Now()
		r.tick(float32(fixedDt))
		if r.metrics != nil {
			r.metrics.TickDuration.Observe(time.Since(start).Seconds())
		}
		r.accumulator -= fixedDt
		ticks++
	}
	return ticks
}

// tick runs exactly one fixed step: spec.md §4.9 steps 2-7.
func (r *Room) tick(dt float32) {
	r.tickCount++

	r.sessionsMu.RLock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.sessionsMu.RUnlock()

	for _, sess := range sessions {
		r.ingestSessionInput(sess)
	}

	r.movement.Update(r.World, dt)
	r.physics.Update(r.World, dt)
	r.skill.Update(r.World, dt, r.tickCount)
	r.ring.Update(r.World, dt, r.tickCount)
	r.wave.Update(&r.waveTimers, dt, r.spawnPickup)
	r.pickup.Update(r.World, r.tickCount, r.releaseConsumedPickup)

	r.sweepDeaths()
	r.processRespawns()
	r.sweepExpiredProjectiles()

	r.gameTime += float64(dt)
	r.broadcastSnapshots()
	r.drainEvents()
	r.dirty.Tick()

	if r.metrics != nil {
		r.metrics.ActiveEntities.Set(float64(r.World.ActiveCount()))
		r.metrics.EventsOverflowed.Add(float64(r.events.Overflowed()))
	}
}

// ingestSessionInput performs the handle ABA check and applies at most
// one pending input frame, per spec.md §4.9 step 2.
func (r *Room) ingestSessionInput(sess *Session) {
	if !r.World.IsValid(sess.Handle) {
		r.log.Debugf("session %s: handle updated after ABA mismatch", sess.ID)
		// The session's own respawn path already refreshes the stored
		// handle synchronously; reaching here with a still-stale handle
		// means there is nothing live to apply this tick's input to.
		sess.TakePending()
		if r.metrics != nil {
			r.metrics.ABAMismatches.Inc()
		}
		return
	}
	frame, ok := sess.TakePending()
	if !ok {
		return
	}
	idx := sess.Handle.Index()

	seq := frame.Seq % 0x7FFFFFFF
	tx := clampf32(frame.TargetX, -r.cfg.MapRadius, r.cfg.MapRadius)
	ty := clampf32(frame.TargetY, -r.cfg.MapRadius, r.cfg.MapRadius)

	r.World.TargetX[idx] = tx
	r.World.TargetY[idx] = ty
	if frame.Actions&skill.ActionPrimary != 0 && r.World.Cooldown[idx] <= 0 {
		r.World.ActionBits[idx] |= skill.ActionPrimary
	}
	if frame.Actions&skill.ActionSecondary != 0 {
		r.World.ActionBits[idx] |= skill.ActionSecondary
	}
	r.dirty.MarkDirty(idx, dirty.MaskTransform|dirty.MaskState)

	sess.LastProcessedInput = seq
}

func clampf32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// spawnPickup is the WaveSpawner onSpawn callback: it writes directly
// into World with no intermediate allocation (spec.md §4.6 contract).
func (r *Room) spawnPickup(x, y float32, kind wave.Kind) {
	i, h, err := r.World.Allocate()
	if err != nil {
		r.log.Warnf("pickup spawn refused: pool exhausted")
		return
	}
	r.World.X[i], r.World.Y[i] = x, y
	r.World.Radius[i] = 6
	r.World.Mass[i] = 1
	r.World.State[i] = world.FlagFood | flagForKind(kind)
	r.World.Activate(i)
	r.dirty.MarkDirty(i, dirty.MaskTransform|dirty.MaskState)
	if r.events != nil {
		r.events.Push(events.Event{Kind: events.KindEntitySpawn, Tick: r.tickCount, Primary: i, Aux: uint16(kind)})
	}
	_ = h
}

// releaseConsumedPickup is the pickup system's release callback: it
// tells already-connected clients the pickup entity is gone, then
// returns its slot to the World's free list (spec.md §3.5 "Pickup
// entity: ... released on consumption").
func (r *Room) releaseConsumedPickup(i uint16) {
	payload := snapshot.EncodeEntityDestroy(nil, i)
	r.sessionsMu.RLock()
	for _, sess := range r.sessions {
		_ = sess.Conn.Send(snapshot.PrependAck(sess.LastProcessedInput, payload))
	}
	r.sessionsMu.RUnlock()
	r.dirty.ClearDirty(i)
	r.World.Release(i)
}

// projectileSpeed and projectileLifetime are fixed per-shot constants;
// spec.md leaves skill shape/damage data-driven but out of scope for
// the core (§4.4 only specifies cooldown/activeTimer consumption).
const (
	projectileSpeed    float32 = 400
	projectileLifetime float32 = 1.2
)

// spawnProjectile is the SkillSystem OnFire callback: it allocates an
// owned auxiliary entity in front of the firing player, enforcing the
// per-session entity-pool DoS cap (spec.md §4.9 "Entity-pool DoS cap":
// "Exceeding the cap causes a quiet rejection").
func (r *Room) spawnProjectile(ownerSlot uint16) {
	ownerHandle := r.World.HandleOf(ownerSlot)

	r.sessionsMu.Lock()
	var owner *Session
	for _, sess := range r.sessions {
		if sess.Handle == ownerHandle {
			owner = sess
			break
		}
	}
	if owner == nil {
		r.sessionsMu.Unlock()
		return
	}
	if owner.ChildEntityCount >= r.cfg.MaxEntitiesPerClient {
		r.sessionsMu.Unlock()
		return
	}
	owner.ChildEntityCount++
	r.sessionsMu.Unlock()

	w := r.World
	i, _, err := w.Allocate()
	if err != nil {
		r.sessionsMu.Lock()
		owner.ChildEntityCount--
		r.sessionsMu.Unlock()
		return
	}

	dx, dy := w.TargetX[ownerSlot]-w.X[ownerSlot], w.TargetY[ownerSlot]-w.Y[ownerSlot]
	dist := sqrtf32(dx*dx + dy*dy)
	if dist < 1e-6 {
		dx, dy, dist = 1, 0, 1
	}
	nx, ny := dx/dist, dy/dist

	w.X[i], w.Y[i] = w.X[ownerSlot]+nx*w.Radius[ownerSlot], w.Y[ownerSlot]+ny*w.Radius[ownerSlot]
	w.PrevX[i], w.PrevY[i] = w.X[i], w.Y[i]
	w.VX[i], w.VY[i] = nx*projectileSpeed, ny*projectileSpeed
	w.Radius[i] = 4
	w.Mass[i] = 1
	w.MaxSpeed[i] = projectileSpeed
	w.SpeedMult[i] = 1
	w.BuffSpeedMult[i] = 1
	w.ActiveTimer[i] = projectileLifetime
	w.OwnerHandle[i] = ownerHandle
	w.State[i] = world.FlagProjectile

	w.Activate(i)
	r.dirty.MarkDirty(i, dirty.MaskTransform|dirty.MaskState)
	if r.events != nil {
		r.events.Push(events.Event{Kind: events.KindEntitySpawn, Tick: r.tickCount, Primary: i, Aux: uint16(world.FlagProjectile)})
	}
}

func sqrtf32(v float32) float32 {
	return float32(math.Sqrt(float64(v)))
}

// sweepExpiredProjectiles releases projectile entities whose lifetime
// (borrowed from the Skill component's activeTimer field, which
// SkillSystem already decrements every tick) has elapsed, and gives
// their slot back to their owner's entity-pool DoS cap. Every connected
// client is sent an ENTITY_DESTROY for the released projectile.
func (r *Room) sweepExpiredProjectiles() {
	for _, i := range append([]uint16(nil), r.World.ActiveSlots()...) {
		if !r.World.State[i].Has(world.FlagProjectile) {
			continue
		}
		if r.World.ActiveTimer[i] > 0 {
			continue
		}
		owner := r.World.OwnerHandle[i]
		r.World.Release(i)
		r.dirty.ClearDirty(i)

		payload := snapshot.EncodeEntityDestroy(nil, i)
		r.sessionsMu.RLock()
		for _, sess := range r.sessions {
			_ = sess.Conn.Send(snapshot.PrependAck(sess.LastProcessedInput, payload))
			if sess.Handle == owner {
				sess.ChildEntityCount--
				if sess.ChildEntityCount < 0 {
					sess.ChildEntityCount = 0
				}
			}
		}
		r.sessionsMu.RUnlock()
	}
}

func flagForKind(k wave.Kind) world.StateFlags {
	switch k {
	case wave.KindPigmentRed:
		return world.FlagKindPigmentR
	case wave.KindPigmentGreen:
		return world.FlagKindPigmentG
	case wave.KindPigmentBlue:
		return world.FlagKindPigmentB
	case wave.KindNeutral:
		return world.FlagKindNeutral
	case wave.KindSolvent:
		return world.FlagKindSolvent
	default:
		return world.FlagKindShield
	}
}

// sweepDeaths sets DEAD on any active player whose hp has reached zero
// and schedules a respawn (spec.md §4.9 step 4).
func (r *Room) sweepDeaths() {
	for _, i := range r.World.ActiveSlots() {
		if !r.World.State[i].Has(world.FlagPlayer) {
			continue
		}
		if r.World.State[i].Has(world.FlagDead) {
			continue
		}
		if r.World.HP[i] <= 0 {
			r.World.State[i] |= world.FlagDead
			r.dirty.MarkDirty(i, dirty.MaskState)
			r.deaths = append(r.deaths, pendingRespawn{slot: i, at: r.gameTime + RespawnDelay.Seconds()})
			if r.events != nil {
				r.events.Push(events.Event{Kind: events.KindEntityDeath, Tick: r.tickCount, Primary: i})
			}
		}
	}
}

func (r *Room) processRespawns() {
	remaining := r.deaths[:0]
	for _, d := range r.deaths {
		if r.gameTime < d.at {
			remaining = append(remaining, d)
			continue
		}
		r.respawnSlot(d.slot)
	}
	r.deaths = remaining
}

func (r *Room) respawnSlot(i uint16) {
	x, y := r.randomSpawnPosition()
	r.World.X[i], r.World.Y[i] = x, y
	r.World.PrevX[i], r.World.PrevY[i] = x, y
	r.World.VX[i], r.World.VY[i] = 0, 0
	r.World.HP[i] = r.World.MaxHP[i]
	r.World.State[i] &^= world.FlagDead
	r.World.Ring[i] = 1
	r.World.BuffSpeedMult[i] = 1
	r.World.BuffTimer[i] = 0
	r.dirty.MarkDirty(i, dirty.MaskTransform|dirty.MaskStats|dirty.MaskState)

	r.sessionsMu.RLock()
	for _, sess := range r.sessions {
		if sess.Handle.Index() == i {
			sess.Handle = r.World.HandleOf(i)
			break
		}
	}
	r.sessionsMu.RUnlock()
}

func (r *Room) randomSpawnPosition() (float32, float32) {
	angle := r.rng.Next() * 2 * math.Pi
	radius := r.rng.Range(0, 0.8*r.cfg.MapRadius)
	return radius * float32(math.Cos(float64(angle))), radius * float32(math.Sin(float64(angle)))
}

// broadcastSnapshots drains the dirty tracker into one TRANSFORM_UPDATE
// packet plus, when there is anything to report, a Stats and a State
// COMPONENT_DELTA packet, and unicasts each, prefixed with every
// session's ack, to every connected client (spec.md §4.9 step 6, §6.2,
// §4.8). Each packet's own mask/entity set is cleared after it is
// built, not the tracker's entire dirty set — a Stats-only change (say,
// a pickup score award) must not be discarded just because no entity
// moved this tick.
func (r *Room) broadcastSnapshots() {
	ts := float32(r.gameTime)
	transform := r.encoder.Encode(r.World, r.dirty, ts)
	stats := r.encoder.EncodeSchemaDelta(r.World, r.dirty, ts, snapshot.StatsSchema, dirty.MaskStats, transform.IsFull)
	state := r.encoder.EncodeSchemaDelta(r.World, r.dirty, ts, snapshot.StateSchema, dirty.MaskState, transform.IsFull)

	packets := make([]snapshot.EncodeResult, 0, 3)
	packets = append(packets, transform)
	if stats != nil {
		packets = append(packets, *stats)
	}
	if state != nil {
		packets = append(packets, *state)
	}
	defer func() {
		for _, p := range packets {
			r.pool.Release(p.Buffer)
		}
	}()

	r.sessionsMu.RLock()
	for _, sess := range r.sessions {
		for _, p := range packets {
			frame := snapshot.PrependAck(sess.LastProcessedInput, p.Buffer.Bytes)
			if err := sess.Conn.Send(frame); err != nil {
				// Transport backpressure: drop this client's remaining
				// frames for the tick; the next full-snapshot interval
				// re-syncs them (spec.md §7).
				break
			}
			if r.metrics != nil {
				r.metrics.SnapshotBytesSent.Add(float64(len(frame)))
			}
		}
	}
	r.sessionsMu.RUnlock()

	if transform.IsFull {
		r.dirty.ClearAll()
		return
	}
	for _, p := range packets {
		for _, i := range p.IDs {
			r.dirty.ClearComponentDirty(i, p.Mask)
		}
	}
}

// drainEvents empties the engine event ring every tick so it never
// silently overflows under sustained play (spec.md §6.4: "Drained once
// per tick by the transport bridge"). ENTITY_SPAWN and ENTITY_DEATH
// events are not logged, since their effect already reaches clients
// (spawns and deaths through dirty-tracked snapshots;
// releaseConsumedPickup sends an explicit ENTITY_DESTROY); RING_COMMIT, SKILL_FIRED, FLOATING_TEXT,
// GAME_START and GAME_OVER have no slot in spec.md §4.8's fixed 5-tag
// wire protocol, so for those kinds this drain only logs and frees ring
// space — see DESIGN.md for why client delivery of those kinds is
// deferred rather than wired to a new packet type.
func (r *Room) drainEvents() {
	r.eventsScratch = r.events.Drain(r.eventsScratch)
	for _, ev := range r.eventsScratch {
		switch ev.Kind {
		case events.KindEntitySpawn, events.KindEntityDeath:
			// Already reflected on the wire via dirty-tracked snapshots
			// or an explicit ENTITY_DESTROY send.
		default:
			r.log.Debugf("room %s: event kind=%d tick=%d primary=%d aux=%d", r.ID, ev.Kind, ev.Tick, ev.Primary, ev.Aux)
		}
	}
}

func (r *Room) shutdownFinalTick() {
	r.tick(float32(r.cfg.FixedDt))
	r.sessionsMu.RLock()
	defer r.sessionsMu.RUnlock()
	for _, i := range r.World.ActiveSlots() {
		payload := snapshot.EncodeEntityDestroy(nil, i)
		for _, sess := range r.sessions {
			_ = sess.Conn.Send(snapshot.PrependAck(sess.LastProcessedInput, payload))
		}
	}
}

// SessionCount reports the number of currently joined sessions.
func (r *Room) SessionCount() int {
	r.sessionsMu.RLock()
	defer r.sessionsMu.RUnlock()
	return len(r.sessions)
}
