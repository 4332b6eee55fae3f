package models

import (
	"time"

	"gorm.io/gorm"
)

// PlayerStats accumulates a player's lifetime battle record. Rows are created
// lazily on the first mutation (merge-on-write upsert) and are never deleted.
// Every persisted field is only ever touched through commutative SQL
// increments — never a whole-row save — so concurrent battles sharing a
// player contend at single-column granularity only.
type PlayerStats struct {
	PlayerID string `json:"player_id" gorm:"primaryKey;type:uuid"`

	BattlesPlayed int64 `json:"battles_played" gorm:"default:0"`
	BattlesWon    int64 `json:"battles_won" gorm:"default:0"`
	BattlesLost   int64 `json:"battles_lost" gorm:"default:0"`

	TotalPoints int64 `json:"total_points" gorm:"default:0;index"`
	TotalGems   int64 `json:"total_gems" gorm:"default:0"`

	CurrentStreak int64 `json:"current_streak" gorm:"default:0"`

	LastBattleAt *time.Time `json:"last_battle_at,omitempty"`
	LastRewardAt *time.Time `json:"last_reward_at,omitempty"`

	// Populated from player_badges for API responses, not stored here
	EarnedBadges []string `json:"earned_badges,omitempty" gorm:"-"`

	Timestamps
}

// PlayerBadge is an awarded badge instance. Insert-only with a unique
// (player, code) pair, so re-granting the same badge is a no-op.
type PlayerBadge struct {
	ID       string `json:"id" gorm:"primaryKey;type:uuid"`
	PlayerID string `json:"player_id" gorm:"type:uuid;not null;uniqueIndex:idx_player_badge_code"`
	Code     string `json:"code" gorm:"not null;uniqueIndex:idx_player_badge_code"` // e.g. "season-champion"
	Source   string `json:"source"`                                                 // tournament or season id that granted it

	AwardedAt time.Time `json:"awarded_at" gorm:"autoCreateTime"`
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
