package services

import (
	"fmt"
	"testing"
	"time"

	"battle-scoring-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedStats(t *testing.T, db *gorm.DB, playerID string, points int64) {
	t.Helper()
	require.NoError(t, db.Create(&models.PlayerStats{
		PlayerID:    playerID,
		TotalPoints: points,
	}).Error)
}

func TestDistributeLeaderboardRewards(t *testing.T) {
	db := newTestDB(t)
	svc := NewRewardService(db)

	// Five players, descending points; ranks follow insertion order here.
	for i := 0; i < 5; i++ {
		seedStats(t, db, fmt.Sprintf("player-%d", i+1), int64(5000-i*1000))
	}

	season := "2026-W35"
	granted, err := svc.DistributeLeaderboardRewards(season)
	require.NoError(t, err)
	assert.Equal(t, 5, granted)

	var first models.RewardRecord
	require.NoError(t, db.First(&first, "id = ?", models.RewardRecordID(season, "player-1", 1)).Error)
	assert.Equal(t, int64(1000), first.Gems)
	assert.Equal(t, int64(5000), first.Points)
	assert.Equal(t, "Season Champion", first.Title)
	assert.Equal(t, models.RewardSourceLeaderboard, first.Source)

	var second models.RewardRecord
	require.NoError(t, db.First(&second, "id = ?", models.RewardRecordID(season, "player-2", 2)).Error)
	assert.Equal(t, int64(750), second.Gems)

	var third models.RewardRecord
	require.NoError(t, db.First(&third, "id = ?", models.RewardRecordID(season, "player-3", 3)).Error)
	assert.Equal(t, int64(500), third.Gems)

	// Ranks 4 and 5 fall into the top_10 bucket, no badge.
	var fourth models.RewardRecord
	require.NoError(t, db.First(&fourth, "id = ?", models.RewardRecordID(season, "player-4", 4)).Error)
	assert.Equal(t, int64(250), fourth.Gems)
	assert.Equal(t, "top_10", fourth.Title)
	assert.Empty(t, fourth.Badge)

	champion := getStats(t, db, "player-1")
	assert.Equal(t, int64(1000), champion.TotalGems)
	assert.Equal(t, int64(5000+5000), champion.TotalPoints)
	assert.NotNil(t, champion.LastRewardAt)

	var badges []models.PlayerBadge
	require.NoError(t, db.Order("code ASC").Find(&badges).Error)
	require.Len(t, badges, 3)
	assert.Equal(t, "season-champion", badges[0].Code)
	assert.Equal(t, "player-1", badges[0].PlayerID)

	var notifications int64
	db.Model(&models.Notification{}).Where("type = ?", "reward_granted").Count(&notifications)
	assert.Equal(t, int64(5), notifications)

	// A season distribution belongs to no battle and no tournament.
	var event models.AnalyticsEvent
	require.NoError(t, db.First(&event, "type = ?", "rewards_distributed").Error)
	assert.Nil(t, event.BattleID)
	assert.Nil(t, event.TournamentID)
}

func TestDistributeLeaderboardRewardsIdempotentPerSeason(t *testing.T) {
	db := newTestDB(t)
	svc := NewRewardService(db)

	seedStats(t, db, "player-a", 3000)
	seedStats(t, db, "player-b", 2000)

	season := "2026-W30"
	granted, err := svc.DistributeLeaderboardRewards(season)
	require.NoError(t, err)
	assert.Equal(t, 2, granted)

	gemsBefore := getStats(t, db, "player-a").TotalGems

	// Same season fired twice: record ids collide, nothing is re-granted.
	granted, err = svc.DistributeLeaderboardRewards(season)
	require.NoError(t, err)
	assert.Equal(t, 0, granted)

	assert.Equal(t, gemsBefore, getStats(t, db, "player-a").TotalGems)

	var records int64
	db.Model(&models.RewardRecord{}).Count(&records)
	assert.Equal(t, int64(2), records)

	// A different season is a fresh distribution.
	granted, err = svc.DistributeLeaderboardRewards("2026-W31")
	require.NoError(t, err)
	assert.Equal(t, 2, granted)
}

func TestDistributeLeaderboardTieBreaksByPlayerID(t *testing.T) {
	db := newTestDB(t)
	svc := NewRewardService(db)

	seedStats(t, db, "zed", 1000)
	seedStats(t, db, "amy", 1000)

	season := "2026-W20"
	_, err := svc.DistributeLeaderboardRewards(season)
	require.NoError(t, err)

	// Equal points: the lexicographically smaller id ranks first.
	var first models.RewardRecord
	require.NoError(t, db.First(&first, "id = ?", models.RewardRecordID(season, "amy", 1)).Error)
	var second models.RewardRecord
	require.NoError(t, db.First(&second, "id = ?", models.RewardRecordID(season, "zed", 2)).Error)
}

func TestTierForRank(t *testing.T) {
	cases := []struct {
		rank int
		gems int64
	}{
		{1, 1000},
		{2, 750},
		{3, 500},
		{4, 250},
		{10, 250},
		{11, 100},
		{100, 100},
		{101, 50},
		{500, 50},
	}
	for _, tc := range cases {
		tier := tierForRank(tc.rank)
		require.NotNil(t, tier, "rank %d", tc.rank)
		assert.Equal(t, tc.gems, tier.Gems, "rank %d", tc.rank)
	}
	assert.Nil(t, tierForRank(501))
}

func TestSeasonIDs(t *testing.T) {
	ts := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-W35", WeeklySeasonID(ts))
	assert.Equal(t, "2026-08", MonthlySeasonID(ts))
}

func TestRewardRecordID(t *testing.T) {
	assert.Equal(t, "2026-W35_player-1_1", models.RewardRecordID("2026-W35", "player-1", 1))
}
