package config

import "fmt"

// LevelConfig is the match-specific configuration record of spec.md
// §6.3, consumed (not defined) by the simulation core — the level
// editor and its blueprint JSON schema are explicitly out of scope.
type LevelConfig struct {
	ThresholdRing2 float32
	ThresholdRing3 float32
	ThresholdWin   float32
	WinHoldSeconds float32
	TimeLimit      float32

	WaveIntervalRing1 float32 // seconds, per SPEC_FULL.md §9 resolution
	WaveIntervalRing2 float32
	WaveIntervalRing3 float32

	BurstSizeRing1 int
	BurstSizeRing2 int
	BurstSizeRing3 int

	SpawnWeightPigment float32
	SpawnWeightNeutral float32
	SpawnWeightSpecial float32

	BotCount int

	Boss struct {
		Enabled  bool
		HP       float32
		SpawnAt  float32 // seconds into the match
	}

	Pity struct {
		StuckThreshold float32
		Duration       float32
		Multiplier     float32
	}

	Ring3Debuff struct {
		SpeedMult float32
		Duration  float32
	}

	RushWindowDuration float32
	WinCondition       string
}

// DefaultLevelConfig matches the ring thresholds/radii defaults used
// across the simulation packages.
func DefaultLevelConfig() LevelConfig {
	var lc LevelConfig
	lc.ThresholdRing2 = 0.5
	lc.ThresholdRing3 = 0.8
	lc.ThresholdWin = 0.95
	lc.WinHoldSeconds = 5
	lc.TimeLimit = 300
	lc.WaveIntervalRing1 = 8
	lc.WaveIntervalRing2 = 6
	lc.WaveIntervalRing3 = 4
	lc.BurstSizeRing1 = 4
	lc.BurstSizeRing2 = 3
	lc.BurstSizeRing3 = 2
	lc.SpawnWeightPigment = 0.6
	lc.SpawnWeightNeutral = 0.25
	lc.SpawnWeightSpecial = 0.15
	lc.BotCount = 0
	lc.Pity.StuckThreshold = 60
	lc.Pity.Duration = 10
	lc.Pity.Multiplier = 1.5
	lc.Ring3Debuff.SpeedMult = 0.9
	lc.Ring3Debuff.Duration = 3
	lc.RushWindowDuration = 20
	lc.WinCondition = "ring3_hold"
	return lc
}

// Validate enforces invariant #8 ("spawnWeights sum to 1±0.01 or the
// config is rejected") plus basic threshold ordering sanity.
func (lc LevelConfig) Validate() error {
	sum := lc.SpawnWeightPigment + lc.SpawnWeightNeutral + lc.SpawnWeightSpecial
	if sum < 0.99 || sum > 1.01 {
		return fmt.Errorf("config: spawnWeights sum to %.4f, want 1±0.01", sum)
	}
	if !(lc.ThresholdRing2 < lc.ThresholdRing3 && lc.ThresholdRing3 <= lc.ThresholdWin) {
		return fmt.Errorf("config: thresholds must satisfy ring2 < ring3 <= win, got %v/%v/%v",
			lc.ThresholdRing2, lc.ThresholdRing3, lc.ThresholdWin)
	}
	return nil
}
