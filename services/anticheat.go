package services

import (
	"fmt"
	"time"

	"battle-scoring-system/models"
)

// Anti-cheat thresholds
const (
	// MaxScore is the hard cap any single reported score may reach; beyond
	// it the report is rejected outright.
	MaxScore int64 = 10000

	// MinBattleDuration below which a finished battle is flagged for review
	// (logged, not blocked).
	MinBattleDuration = 1 * time.Minute
)

// CheatCheck is the validator's verdict for one reported result.
// Rejected means the battle must be cancelled with no points; Flags are
// audit-only observations that never block resolution.
type CheatCheck struct {
	Rejected bool
	Reason   string
	Details  string
	Flags    []string
}

// ValidateBattleReport sanity-checks a client-reported result. It only runs
// on the live-resolution path — expired battles resolve from last-known
// scores by definition, there is nothing new to distrust.
func ValidateBattleReport(battle *models.Battle, finishedAt time.Time) CheatCheck {
	check := CheatCheck{}

	if battle.Player1Score > MaxScore || battle.Player2Score > MaxScore {
		check.Rejected = true
		check.Reason = "score_exceeds_max"
		check.Details = fmt.Sprintf("scores %d/%d exceed cap %d", battle.Player1Score, battle.Player2Score, MaxScore)
		return check
	}

	if finishedAt.Sub(battle.CreatedAt) < MinBattleDuration {
		check.Flags = append(check.Flags, "suspicious_duration")
	}

	return check
}

// RecomputeWinner derives the winner strictly from scores. The client's
// claimed winner is never trusted. Returns nil on an exact tie.
func RecomputeWinner(battle *models.Battle) *string {
	switch {
	case battle.Player1Score > battle.Player2Score:
		id := battle.Player1ID
		return &id
	case battle.Player2Score > battle.Player1Score:
		id := battle.Player2ID
		return &id
	default:
		return nil
	}
}
