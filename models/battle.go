package models

import (
	"time"
)

// BattleType determines the point multiplier applied at resolution
type BattleType string

const (
	BattleTypeRandom       BattleType = "random"
	BattleTypeFriend       BattleType = "friend"
	BattleTypeRevenge      BattleType = "revenge"
	BattleTypeChampionship BattleType = "championship"
)

// BattleStatus — 'active' is the only non-terminal state
type BattleStatus string

const (
	BattleStatusActive    BattleStatus = "active"
	BattleStatusFinished  BattleStatus = "finished"
	BattleStatusExpired   BattleStatus = "expired"
	BattleStatusCancelled BattleStatus = "cancelled"
)

// Terminal reports whether no further transitions are accepted from this status.
func (s BattleStatus) Terminal() bool {
	return s == BattleStatusFinished || s == BattleStatusExpired || s == BattleStatusCancelled
}

// Battle is a 1v1 timed match. Created by the matchmaking service — this
// subsystem only resolves it. Once the status is terminal, scores and
// winner_id are immutable.
type Battle struct {
	ID     string       `json:"id" gorm:"primaryKey;type:uuid"`
	Type   BattleType   `json:"type" gorm:"type:varchar(16);not null;default:'random'"`
	Status BattleStatus `json:"status" gorm:"type:varchar(16);not null;default:'active';index:idx_battles_status_end_time"`

	Player1ID    string `json:"player1_id" gorm:"type:uuid;not null;index"`
	Player2ID    string `json:"player2_id" gorm:"type:uuid;not null;index"`
	Player1Score int64  `json:"player1_score" gorm:"default:0"`
	Player2Score int64  `json:"player2_score" gorm:"default:0"`

	// WinnerID is always recomputed from scores; nil on an exact tie.
	WinnerID           *string `json:"winner_id,omitempty" gorm:"type:uuid"`
	WinnerRecalculated bool    `json:"winner_recalculated" gorm:"default:false"`

	// ExpiredAutomatically marks battles resolved by the sweeper rather than
	// by a client report.
	ExpiredAutomatically bool `json:"expired_automatically" gorm:"default:false"`

	EndTime    time.Time  `json:"end_time" gorm:"not null;index:idx_battles_status_end_time"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
