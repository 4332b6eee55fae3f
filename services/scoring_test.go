package services

import (
	"testing"

	"battle-scoring-system/models"

	"github.com/stretchr/testify/assert"
)

func TestComputePoints(t *testing.T) {
	tests := []struct {
		name       string
		battleType models.BattleType
		scoreA     int64
		scoreB     int64
		penalty    float64
		wantWinner int64
		wantLoser  int64
	}{
		{
			name:       "random live 10 vs 4",
			battleType: models.BattleTypeRandom,
			scoreA:     10, scoreB: 4, penalty: PenaltyLive,
			wantWinner: 560, wantLoser: 56,
		},
		{
			name:       "random expired 10 vs 4 takes the 30% haircut",
			battleType: models.BattleTypeRandom,
			scoreA:     10, scoreB: 4, penalty: PenaltyExpired,
			wantWinner: 392, wantLoser: 50,
		},
		{
			name:       "championship 50 vs 48",
			battleType: models.BattleTypeChampionship,
			scoreA:     50, scoreB: 48, penalty: PenaltyLive,
			wantWinner: 2600, wantLoser: 260,
		},
		{
			name:       "revenge doubles the grant",
			battleType: models.BattleTypeRevenge,
			scoreA:     10, scoreB: 4, penalty: PenaltyLive,
			wantWinner: 1120, wantLoser: 112,
		},
		{
			name:       "score bonus caps at 1000",
			battleType: models.BattleTypeRandom,
			scoreA:     5000, scoreB: 0, penalty: PenaltyLive,
			wantWinner: 1500, wantLoser: 150,
		},
		{
			name:       "exact tie still produces a consolation share",
			battleType: models.BattleTypeRandom,
			scoreA:     7, scoreB: 7, penalty: PenaltyLive,
			wantWinner: 500, wantLoser: 50,
		},
		{
			name:       "order of scores does not matter",
			battleType: models.BattleTypeRandom,
			scoreA:     4, scoreB: 10, penalty: PenaltyLive,
			wantWinner: 560, wantLoser: 56,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			winner, loser := ComputePoints(tt.battleType, tt.scoreA, tt.scoreB, tt.penalty)
			assert.Equal(t, tt.wantWinner, winner)
			assert.Equal(t, tt.wantLoser, loser)
		})
	}
}

func TestComputePointsDeterministic(t *testing.T) {
	w1, l1 := ComputePoints(models.BattleTypeChampionship, 123, 77, PenaltyExpired)
	w2, l2 := ComputePoints(models.BattleTypeChampionship, 123, 77, PenaltyExpired)
	assert.Equal(t, w1, w2)
	assert.Equal(t, l1, l2)
}

func TestComputePointsConsolationFloor(t *testing.T) {
	// The loser never walks away with less than the floor, whatever the
	// type, margin or penalty.
	for _, battleType := range []models.BattleType{
		models.BattleTypeRandom, models.BattleTypeFriend,
		models.BattleTypeRevenge, models.BattleTypeChampionship,
	} {
		for _, penalty := range []float64{PenaltyLive, PenaltyExpired} {
			for scoreA := int64(0); scoreA <= 200; scoreA += 17 {
				_, loser := ComputePoints(battleType, scoreA, 3, penalty)
				assert.GreaterOrEqual(t, loser, ConsolationFloor)
			}
		}
	}
}

func TestTypeMultiplierUnknownDefaultsToOne(t *testing.T) {
	assert.Equal(t, 1.0, TypeMultiplier(models.BattleType("ladder")))
	assert.Equal(t, 5.0, TypeMultiplier(models.BattleTypeChampionship))
}
