// Package config is the single source of truth for the room server's
// tunables, loaded from the environment. Adapted from the teacher's
// internal/config/config.go *FromEnv()/Load() pattern.
package config

import (
	"os"
	"strconv"
)

// SimConfig carries every key spec.md §6.5 names.
type SimConfig struct {
	MaxEntities int

	TickHz         int
	FixedDt        float32
	MaxAccumulator float32

	MapRadiusPhy float32
	MapRadius    float32
	CenterRadius float32

	RingR1, RingR2, RingR3 float32

	MaxSpeedBase           float32
	SpeedValidationTolerance float32
	FrictionBase           float32

	SnapshotInterval int

	RateLimitMax         int
	MaxEntitiesPerClient int
	MaxMessageSize       int
	RoomCreateRate       int
	TrustProxy           bool
}

// DefaultSimConfig matches the literal defaults named in spec.md §6.5.
func DefaultSimConfig() SimConfig {
	return SimConfig{
		MaxEntities:              4096,
		TickHz:                   60,
		FixedDt:                  1.0 / 60,
		MaxAccumulator:           0.25,
		MapRadiusPhy:             1040,
		MapRadius:                1000,
		CenterRadius:             250,
		RingR1:                   1000,
		RingR2:                   600,
		RingR3:                   250,
		MaxSpeedBase:             150,
		SpeedValidationTolerance: 1.15,
		FrictionBase:             0.92,
		SnapshotInterval:         60,
		RateLimitMax:             60,
		MaxEntitiesPerClient:     5,
		MaxMessageSize:           256,
		RoomCreateRate:           5,
		TrustProxy:               false,
	}
}

// SimConfigFromEnv overlays environment variables on DefaultSimConfig,
// mirroring the teacher's VideoConfigFromEnv/ResourceLimitsFromEnv
// helpers.
func SimConfigFromEnv() SimConfig {
	c := DefaultSimConfig()
	c.MaxEntities = getEnvInt("SIM_MAX_ENTITIES", c.MaxEntities)
	c.TickHz = getEnvInt("SIM_TICK_HZ", c.TickHz)
	c.FixedDt = 1.0 / float32(c.TickHz)
	c.MaxAccumulator = getEnvFloat("SIM_MAX_ACCUMULATOR", c.MaxAccumulator)
	c.MapRadiusPhy = getEnvFloat("SIM_MAP_RADIUS_PHY", c.MapRadiusPhy)
	c.MapRadius = getEnvFloat("SIM_MAP_RADIUS", c.MapRadius)
	c.CenterRadius = getEnvFloat("SIM_CENTER_RADIUS", c.CenterRadius)
	c.RingR1 = getEnvFloat("SIM_RING_R1", c.RingR1)
	c.RingR2 = getEnvFloat("SIM_RING_R2", c.RingR2)
	c.RingR3 = getEnvFloat("SIM_RING_R3", c.RingR3)
	c.MaxSpeedBase = getEnvFloat("SIM_MAX_SPEED_BASE", c.MaxSpeedBase)
	c.SpeedValidationTolerance = getEnvFloat("SIM_SPEED_VALIDATION_TOLERANCE", c.SpeedValidationTolerance)
	c.FrictionBase = getEnvFloat("SIM_FRICTION_BASE", c.FrictionBase)
	c.SnapshotInterval = getEnvInt("SIM_SNAPSHOT_INTERVAL", c.SnapshotInterval)
	c.RateLimitMax = getEnvInt("SIM_RATE_LIMIT_MAX", c.RateLimitMax)
	c.MaxEntitiesPerClient = getEnvInt("SIM_MAX_ENTITIES_PER_CLIENT", c.MaxEntitiesPerClient)
	c.MaxMessageSize = getEnvInt("SIM_MAX_MESSAGE_SIZE", c.MaxMessageSize)
	c.RoomCreateRate = getEnvInt("SIM_ROOM_CREATE_RATE", c.RoomCreateRate)
	c.TrustProxy = getEnvBool("SIM_TRUST_PROXY", c.TrustProxy)
	return c
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float32) float32 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil {
			return float32(f)
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
