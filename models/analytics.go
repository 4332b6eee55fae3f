package models

import (
	"time"
)

// AnalyticsEvent is an append-only fact row. One event is written inside
// each resolution/transition batch; counting them later is how the analytics
// pipeline rebuilds aggregates.
type AnalyticsEvent struct {
	ID   string `json:"id" gorm:"primaryKey;type:uuid"`
	Type string `json:"type" gorm:"not null;index"` // battle_resolved, battle_expired, tournament_phase_advanced, rewards_distributed

	// Reference columns are NULL when the event has no such subject — a
	// uuid column rejects the empty string.
	BattleID     *string `json:"battle_id,omitempty" gorm:"type:uuid;index"`
	TournamentID *string `json:"tournament_id,omitempty" gorm:"type:uuid;index"`

	Payload map[string]interface{} `json:"payload,omitempty" gorm:"serializer:json"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// SecurityLog records anti-cheat trips and audit flags. Write-only.
type SecurityLog struct {
	ID       string  `json:"id" gorm:"primaryKey;type:uuid"`
	BattleID string  `json:"battle_id" gorm:"type:uuid;not null;index"`
	PlayerID *string `json:"player_id,omitempty" gorm:"type:uuid"` // NULL unless a specific player is implicated
	Reason   string  `json:"reason" gorm:"not null"`               // score_exceeds_max, suspicious_duration, winner_mismatch
	Details  string  `json:"details"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// EngagementSnapshot is a derived daily aggregate. Fully recomputed on each
// worker run over a point-in-time read; safe to discard and rebuild, and
// explicitly outside the atomic mutation contract.
type EngagementSnapshot struct {
	ID  string `json:"id" gorm:"primaryKey;type:uuid"`
	Day string `json:"day" gorm:"uniqueIndex;not null"` // YYYY-MM-DD

	ActivePlayers   int64 `json:"active_players"`
	BattlesFinished int64 `json:"battles_finished"`
	BattlesExpired  int64 `json:"battles_expired"`
	PointsGranted   int64 `json:"points_granted"`

	ArchiveURL string `json:"archive_url,omitempty"` // R2 location when archival is configured

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
