package models

import (
	"fmt"
	"time"
)

// RewardSource marks which distributor produced a record
type RewardSource string

const (
	RewardSourceTournament  RewardSource = "tournament"
	RewardSourceLeaderboard RewardSource = "leaderboard"
)

// RewardRecord is one grant to one player for one ranked event. The ID is
// deterministic (season, player, rank), which makes a re-run of the same
// season upsert the same row instead of minting a duplicate.
type RewardRecord struct {
	ID       string       `json:"id" gorm:"primaryKey"` // {seasonID}_{playerID}_{rank}
	PlayerID string       `json:"player_id" gorm:"type:uuid;not null;index"`
	SeasonID string       `json:"season_id" gorm:"not null;index"`
	Rank     int          `json:"rank" gorm:"not null"`
	Source   RewardSource `json:"source" gorm:"type:varchar(16);not null"`

	// Prize breakdown
	Gems   int64  `json:"gems" gorm:"default:0"`
	Points int64  `json:"points" gorm:"default:0"`
	Badge  string `json:"badge,omitempty"`
	Title  string `json:"title,omitempty"`

	Claimed bool `json:"claimed" gorm:"default:false"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// RewardRecordID builds the idempotency key for a season grant.
func RewardRecordID(seasonID, playerID string, rank int) string {
	return fmt.Sprintf("%s_%s_%d", seasonID, playerID, rank)
}
