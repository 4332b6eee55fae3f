package models

import (
	"time"
)

// TournamentPhase — fixed forward order, 'finished' is terminal
type TournamentPhase string

const (
	PhaseRegistration   TournamentPhase = "registration"
	PhaseQualifications TournamentPhase = "qualifications"
	PhaseGroups         TournamentPhase = "groups"
	PhasePlayoffs       TournamentPhase = "playoffs"
	PhaseFinal          TournamentPhase = "final"
	PhaseFinished       TournamentPhase = "finished"
)

// PhaseOrder is the only legal progression.
var PhaseOrder = []TournamentPhase{
	PhaseRegistration,
	PhaseQualifications,
	PhaseGroups,
	PhasePlayoffs,
	PhaseFinal,
	PhaseFinished,
}

// Next returns the phase that follows p, or "" when p is terminal (or unknown).
func (p TournamentPhase) Next() TournamentPhase {
	for i, phase := range PhaseOrder {
		if phase == p && i+1 < len(PhaseOrder) {
			return PhaseOrder[i+1]
		}
	}
	return ""
}

func (p TournamentPhase) Terminal() bool {
	return p == PhaseFinished
}

// Standing is one player's position in a tournament
type Standing struct {
	Score int64 `json:"score"`
	Rank  int   `json:"rank"`
}

// Prize maps a final standing position to its grant
type Prize struct {
	Position int    `json:"position"`
	Gems     int64  `json:"gems"`
	Points   int64  `json:"points"`
	Badge    string `json:"badge,omitempty"`
	Title    string `json:"title,omitempty"`
}

// Tournament represents a multi-week bracket competition. Created and
// populated by the tournament management surface — this subsystem only
// advances its phase and distributes prizes when it finishes.
type Tournament struct {
	ID   string `json:"id" gorm:"primaryKey;type:uuid"`
	Name string `json:"name"`

	Phase         TournamentPhase `json:"phase" gorm:"type:varchar(16);not null;default:'registration';index"`
	PreviousPhase TournamentPhase `json:"previous_phase" gorm:"type:varchar(16)"`

	RegistrationEndDate time.Time `json:"registration_end_date" gorm:"not null"`
	EndDate             time.Time `json:"end_date" gorm:"not null"`
	PhaseChangedAt      time.Time `json:"phase_changed_at"`

	MaxParticipants     int `json:"max_participants" gorm:"default:0"`
	CurrentParticipants int `json:"current_participants" gorm:"default:0"`

	ParticipantIDs []string            `json:"participant_ids" gorm:"serializer:json"`
	Standings      map[string]Standing `json:"standings" gorm:"serializer:json"`
	Prizes         []Prize             `json:"prizes" gorm:"serializer:json"`

	// PrizesDistributed guards exactly-once distribution at tournament
	// granularity. Once true, re-running the finish handler is a no-op.
	PrizesDistributed bool `json:"prizes_distributed" gorm:"default:false"`

	PopularityScore float64 `json:"popularity_score" gorm:"default:0"`
	EngagementScore float64 `json:"engagement_score" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
