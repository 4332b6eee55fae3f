package services

import (
	"math"

	"battle-scoring-system/models"
)

// Scoring constants (tunable via config later if product asks)
const (
	BasePoints    int64 = 500
	MaxScoreBonus int64 = 1000

	// ConsolationFloor is the guaranteed minimum grant to the losing side of
	// any resolved, non-cancelled battle.
	ConsolationFloor int64 = 50

	// PenaltyLive applies to client-reported resolutions, PenaltyExpired to
	// sweeper-forced ones — a 30% haircut discouraging timeouts.
	PenaltyLive    = 1.0
	PenaltyExpired = 0.7
)

var typeMultipliers = map[models.BattleType]float64{
	models.BattleTypeRandom:       1.0,
	models.BattleTypeFriend:       1.0,
	models.BattleTypeRevenge:      2.0,
	models.BattleTypeChampionship: 5.0,
}

// TypeMultiplier returns the point multiplier for a battle type.
// Unknown types fall back to 1.0 rather than zeroing out a grant.
func TypeMultiplier(t models.BattleType) float64 {
	if m, ok := typeMultipliers[t]; ok {
		return m
	}
	return 1.0
}

// ComputePoints is the pure scoring formula. It returns the winner's and
// loser's point grants for a resolved battle. On an exact tie there is no
// winner; the caller grants loserPoints to both sides.
func ComputePoints(battleType models.BattleType, scoreA, scoreB int64, penalty float64) (winnerPoints, loserPoints int64) {
	diff := scoreA - scoreB
	if diff < 0 {
		diff = -diff
	}
	scoreBonus := diff * 10
	if scoreBonus > MaxScoreBonus {
		scoreBonus = MaxScoreBonus
	}

	winnerPoints = int64(math.Floor(float64(BasePoints+scoreBonus) * TypeMultiplier(battleType) * penalty))
	if winnerPoints < 0 {
		winnerPoints = 0
	}

	loserPoints = int64(math.Floor(float64(winnerPoints) * 0.1))
	if loserPoints < ConsolationFloor {
		loserPoints = ConsolationFloor
	}
	return winnerPoints, loserPoints
}
