package services

import (
	"testing"
	"time"

	"battle-scoring-system/models"

	"github.com/stretchr/testify/assert"
)

func TestValidateBattleReportRejectsExcessiveScore(t *testing.T) {
	battle := &models.Battle{
		Player1Score: MaxScore + 1,
		Player2Score: 10,
		CreatedAt:    time.Now().Add(-time.Hour),
	}
	check := ValidateBattleReport(battle, time.Now())
	assert.True(t, check.Rejected)
	assert.Equal(t, "score_exceeds_max", check.Reason)
}

func TestValidateBattleReportAcceptsScoreAtCap(t *testing.T) {
	battle := &models.Battle{
		Player1Score: MaxScore,
		Player2Score: MaxScore,
		CreatedAt:    time.Now().Add(-time.Hour),
	}
	check := ValidateBattleReport(battle, time.Now())
	assert.False(t, check.Rejected)
	assert.Empty(t, check.Flags)
}

func TestValidateBattleReportFlagsShortBattle(t *testing.T) {
	created := time.Now()
	battle := &models.Battle{
		Player1Score: 10,
		Player2Score: 4,
		CreatedAt:    created,
	}
	check := ValidateBattleReport(battle, created.Add(20*time.Second))
	assert.False(t, check.Rejected, "a short battle is flagged, never blocked")
	assert.Contains(t, check.Flags, "suspicious_duration")
}

func TestRecomputeWinner(t *testing.T) {
	battle := &models.Battle{Player1ID: "p1", Player2ID: "p2"}

	battle.Player1Score, battle.Player2Score = 10, 4
	winner := RecomputeWinner(battle)
	if assert.NotNil(t, winner) {
		assert.Equal(t, "p1", *winner)
	}

	battle.Player1Score, battle.Player2Score = 4, 10
	winner = RecomputeWinner(battle)
	if assert.NotNil(t, winner) {
		assert.Equal(t, "p2", *winner)
	}

	battle.Player1Score, battle.Player2Score = 7, 7
	assert.Nil(t, RecomputeWinner(battle))
}
