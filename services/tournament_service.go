package services

import (
	"errors"
	"log"
	"sort"
	"time"

	"battle-scoring-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Phase durations driving the advancement predicates. registration and
// final are deadline-driven instead (registration_end_date / end_date).
const (
	QualificationsDuration = 3 * 24 * time.Hour
	GroupsDuration         = 5 * 24 * time.Hour
	PlayoffsDuration       = 3 * 24 * time.Hour
)

// ErrPhaseAlreadyAdvanced signals the conditional phase update found the
// tournament no longer in the expected phase — another sweep got there
// first. Treated as a no-op.
var ErrPhaseAlreadyAdvanced = errors.New("tournament phase already advanced")

type TournamentService struct {
	DB      *gorm.DB
	Rewards *RewardService
}

func NewTournamentService(db *gorm.DB, rewards *RewardService) *TournamentService {
	return &TournamentService{DB: db, Rewards: rewards}
}

// phaseDue evaluates the advancement predicate for the tournament's current
// phase. phase_changed_at is the duration origin for the timed phases.
func phaseDue(t *models.Tournament, now time.Time) bool {
	switch t.Phase {
	case models.PhaseRegistration:
		return now.After(t.RegistrationEndDate)
	case models.PhaseQualifications:
		return now.Sub(t.PhaseChangedAt) > QualificationsDuration
	case models.PhaseGroups:
		return now.Sub(t.PhaseChangedAt) > GroupsDuration
	case models.PhasePlayoffs:
		return now.Sub(t.PhaseChangedAt) > PlayoffsDuration
	case models.PhaseFinal:
		return now.After(t.EndDate)
	default:
		return false
	}
}

// AdvancePhases is the coarse sweep: every non-terminal tournament advances
// at most one phase if its predicate is due. It also self-heals finished
// tournaments whose prize distribution never ran (crash between the phase
// commit and the handoff). Per-tournament failures are isolated.
func (s *TournamentService) AdvancePhases(now time.Time) (int, error) {
	var tournaments []models.Tournament
	err := s.DB.Where("phase <> ?", models.PhaseFinished).Find(&tournaments).Error
	if err != nil {
		return 0, err
	}

	advanced := 0
	for _, t := range tournaments {
		ok, err := s.advanceOne(&t, now)
		if err != nil {
			log.Printf("❌ [PHASE_SWEEP] tournament %s: %v", t.ID, err)
			continue
		}
		if ok {
			advanced++
		}
	}

	// Self-heal: distribution is triggered by the phase flip, but a crash in
	// between would otherwise strand the prizes forever.
	var stranded []models.Tournament
	if err := s.DB.Where("phase = ? AND prizes_distributed = ?", models.PhaseFinished, false).
		Find(&stranded).Error; err == nil {
		for _, t := range stranded {
			if err := s.Rewards.DistributeTournamentPrizes(t.ID); err != nil && !errors.Is(err, ErrPrizesAlreadyDistributed) {
				log.Printf("❌ [PHASE_SWEEP] prize distribution for %s: %v", t.ID, err)
			}
		}
	}

	return advanced, nil
}

// SweepRegistrationDeadlines is the fine sweep. Registration phase only:
// it bounds the worst-case delay between a registration deadline and the
// transition to ~1 hour instead of the coarse sweep's ~6.
func (s *TournamentService) SweepRegistrationDeadlines(now time.Time) (int, error) {
	var tournaments []models.Tournament
	err := s.DB.
		Where("phase = ? AND registration_end_date < ?", models.PhaseRegistration, now).
		Find(&tournaments).Error
	if err != nil {
		return 0, err
	}

	advanced := 0
	for _, t := range tournaments {
		ok, err := s.advanceOne(&t, now)
		if err != nil {
			log.Printf("❌ [REG_SWEEP] tournament %s: %v", t.ID, err)
			continue
		}
		if ok {
			advanced++
		}
	}
	return advanced, nil
}

// advanceOne moves a tournament exactly one step forward when due. The
// update is conditional on the phase it was read in, so concurrent sweeps
// cannot double-advance; the next step waits for the next sweep.
func (s *TournamentService) advanceOne(t *models.Tournament, now time.Time) (bool, error) {
	if t.Phase.Terminal() || !phaseDue(t, now) {
		return false, nil
	}
	next := t.Phase.Next()
	if next == "" {
		return false, nil
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Tournament{}).
			Where("id = ? AND phase = ?", t.ID, t.Phase).
			Updates(map[string]interface{}{
				"phase":            next,
				"previous_phase":   t.Phase,
				"phase_changed_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrPhaseAlreadyAdvanced
		}

		return tx.Create(&models.AnalyticsEvent{
			ID:           uuid.NewString(),
			Type:         "tournament_phase_advanced",
			TournamentID: &t.ID,
			Payload: map[string]interface{}{
				"from": t.Phase,
				"to":   next,
			},
		}).Error
	})
	if err != nil {
		if errors.Is(err, ErrPhaseAlreadyAdvanced) {
			return false, nil
		}
		return false, err
	}

	log.Printf("🏆 Tournament %s advanced: %s → %s", t.ID, t.Phase, next)
	t.PreviousPhase = t.Phase
	t.Phase = next
	t.PhaseChangedAt = now

	// Reaching finished hands off to prize distribution. The guard inside
	// makes a duplicate handoff harmless.
	if next == models.PhaseFinished {
		if err := s.Rewards.DistributeTournamentPrizes(t.ID); err != nil && !errors.Is(err, ErrPrizesAlreadyDistributed) {
			// The phase flip stands; the coarse sweep self-heals the prizes.
			log.Printf("⚠️ Prize distribution for tournament %s failed, will retry on next sweep: %v", t.ID, err)
		}
	}
	return true, nil
}

// --- HTTP handlers ---

func (s *TournamentService) GetTournament(c *fiber.Ctx) error {
	var t models.Tournament
	if err := s.DB.First(&t, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "tournament not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(t)
}

// GetTournamentStandings returns the standings sorted by rank.
func (s *TournamentService) GetTournamentStandings(c *fiber.Ctx) error {
	var t models.Tournament
	if err := s.DB.First(&t, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "tournament not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	type rankedEntry struct {
		PlayerID string `json:"player_id"`
		Score    int64  `json:"score"`
		Rank     int    `json:"rank"`
	}
	entries := make([]rankedEntry, 0, len(t.Standings))
	for playerID, st := range t.Standings {
		entries = append(entries, rankedEntry{PlayerID: playerID, Score: st.Score, Rank: st.Rank})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Rank < entries[j].Rank })

	return c.JSON(fiber.Map{
		"tournament_id": t.ID,
		"phase":         t.Phase,
		"standings":     entries,
	})
}

// FinishTournament is the state-change trigger endpoint: the tournament
// surface calls it when a tournament record transitions into finished.
// Safe to re-deliver.
func (s *TournamentService) FinishTournament(c *fiber.Ctx) error {
	id := c.Params("id")

	var t models.Tournament
	if err := s.DB.First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "tournament not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if t.Phase != models.PhaseFinished {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "tournament is not finished", "phase": t.Phase})
	}

	if err := s.Rewards.DistributeTournamentPrizes(id); err != nil {
		if errors.Is(err, ErrPrizesAlreadyDistributed) {
			return c.JSON(fiber.Map{"message": "prizes already distributed"})
		}
		log.Printf("❌ Prize distribution for tournament %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "prize distribution failed"})
	}
	return c.JSON(fiber.Map{"message": "prizes distributed"})
}
