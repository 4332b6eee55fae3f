package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"battle-scoring-system/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Battle{},
		&models.PlayerStats{},
		&models.PlayerBadge{},
		&models.Tournament{},
		&models.RewardRecord{},
		&models.Notification{},
		&models.AnalyticsEvent{},
		&models.SecurityLog{},
		&models.EngagementSnapshot{},
	))
	return db
}

func createBattle(t *testing.T, db *gorm.DB, battleType models.BattleType, endTime time.Time) *models.Battle {
	t.Helper()

	battle := &models.Battle{
		ID:        uuid.NewString(),
		Type:      battleType,
		Status:    models.BattleStatusActive,
		Player1ID: uuid.NewString(),
		Player2ID: uuid.NewString(),
		EndTime:   endTime,
		CreatedAt: time.Now().Add(-2 * time.Hour),
	}
	require.NoError(t, db.Create(battle).Error)
	return battle
}

func getStats(t *testing.T, db *gorm.DB, playerID string) models.PlayerStats {
	t.Helper()

	var stats models.PlayerStats
	require.NoError(t, db.First(&stats, "player_id = ?", playerID).Error)
	return stats
}
