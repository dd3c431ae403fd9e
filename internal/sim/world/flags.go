package world

// StateFlags is the per-slot bitmask describing what an entity currently
// is. Bits 0-7 are reserved for the engine; bits 8+ are game-specific
// (food subtypes, pigment kind, etc).
type StateFlags uint16

const (
	FlagActive     StateFlags = 1 << 0
	FlagPlayer     StateFlags = 1 << 1
	FlagBot        StateFlags = 1 << 2
	FlagFood       StateFlags = 1 << 3
	FlagProjectile StateFlags = 1 << 4
	FlagDead       StateFlags = 1 << 5
	FlagObstacle   StateFlags = 1 << 6
	FlagBoss       StateFlags = 1 << 7
)

// Game-specific flags, bit 8 and above. These describe the pickup kind
// produced by WaveSpawner (spec.md §4.6's "kind mix").
const (
	FlagKindPigmentR StateFlags = 1 << 8
	FlagKindPigmentG StateFlags = 1 << 9
	FlagKindPigmentB StateFlags = 1 << 10
	FlagKindNeutral  StateFlags = 1 << 11
	FlagKindSolvent  StateFlags = 1 << 12
	FlagKindShield   StateFlags = 1 << 13

	// FlagShielded marks an entity under an active ring-commit shield
	// buff (spec.md §4.5), distinct from the FlagKindShield pickup kind.
	FlagShielded StateFlags = 1 << 14
)

const engineFlagMask StateFlags = 0x00FF

func (s StateFlags) Has(f StateFlags) bool { return s&f != 0 }

// PigmentFaction is the small enum replacing "Fire extends Bot extends
// Player"-style subtype hierarchies: behaviour variance is data, not
// inheritance (see SPEC_FULL.md Supplemented Features).
type PigmentFaction uint8

const (
	FactionNone PigmentFaction = iota
	FactionRed
	FactionGreen
	FactionBlue
)

// FactionStats is one row of a small per-faction tuning table
// (Factions, a static map keyed by faction), the same shape as a
// per-weapon stats table, rather than a type hierarchy.
type FactionStats struct {
	Name           string
	SpeedMult      float32
	DamageMult     float32
	MagnetRadius   float32
}

var Factions = map[PigmentFaction]FactionStats{
	FactionRed:   {Name: "red", SpeedMult: 1.05, DamageMult: 1.10, MagnetRadius: 60},
	FactionGreen: {Name: "green", SpeedMult: 1.10, DamageMult: 0.95, MagnetRadius: 80},
	FactionBlue:  {Name: "blue", SpeedMult: 0.95, DamageMult: 1.00, MagnetRadius: 70},
}
