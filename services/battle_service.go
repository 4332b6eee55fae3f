package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"battle-scoring-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ExpirationBatchSize bounds how many stale battles one sweep tick may
// process; the remainder is picked up on the next tick.
const ExpirationBatchSize = 20

// ErrBattleAlreadyResolved signals a re-delivered trigger for a battle that
// already reached a terminal state. Callers treat it as a no-op, never a
// failure — this is what makes resolution idempotent.
var ErrBattleAlreadyResolved = errors.New("battle already resolved")

type BattleService struct {
	DB *gorm.DB
}

func NewBattleService(db *gorm.DB) *BattleService {
	return &BattleService{DB: db}
}

// BattleReport is the client-submitted outcome for a battle. The claimed
// winner is advisory only; the server always recomputes it from scores.
type BattleReport struct {
	Player1Score    int64  `json:"player1_score"`
	Player2Score    int64  `json:"player2_score"`
	ClaimedWinnerID string `json:"winner_id,omitempty"`
}

// statsDelta describes one player's share of a resolution batch.
type statsDelta struct {
	points      int64
	won         bool
	lost        bool
	resetStreak bool
}

// ResolveBattle drives active → finished for a client-reported result.
// The validator verdict, winner recomputation, point grants, notifications
// and the analytics event are committed as one transaction; the conditional
// status update doubles as the terminal-state guard.
func (s *BattleService) ResolveBattle(battleID string, report BattleReport) (*models.Battle, error) {
	now := time.Now()
	var resolved models.Battle

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var battle models.Battle
		if err := tx.First(&battle, "id = ?", battleID).Error; err != nil {
			return err
		}
		if battle.Status.Terminal() {
			return ErrBattleAlreadyResolved
		}

		battle.Player1Score = report.Player1Score
		battle.Player2Score = report.Player2Score

		check := ValidateBattleReport(&battle, now)
		if check.Rejected {
			res := tx.Model(&models.Battle{}).
				Where("id = ? AND status = ?", battle.ID, models.BattleStatusActive).
				Updates(map[string]interface{}{
					"status":        models.BattleStatusCancelled,
					"player1_score": battle.Player1Score,
					"player2_score": battle.Player2Score,
					"finished_at":   now,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrBattleAlreadyResolved
			}
			if err := tx.Create(&models.SecurityLog{
				ID:       uuid.NewString(),
				BattleID: battle.ID,
				Reason:   check.Reason,
				Details:  check.Details,
			}).Error; err != nil {
				return err
			}
			battle.Status = models.BattleStatusCancelled
			battle.FinishedAt = &now
			resolved = battle
			return nil
		}

		// Audit-only flags never block the resolution
		for _, flag := range check.Flags {
			if err := tx.Create(&models.SecurityLog{
				ID:       uuid.NewString(),
				BattleID: battle.ID,
				Reason:   flag,
				Details:  fmt.Sprintf("battle created %s, reported finished %s", battle.CreatedAt.Format(time.RFC3339), now.Format(time.RFC3339)),
			}).Error; err != nil {
				return err
			}
		}

		winner := RecomputeWinner(&battle)
		recalculated := false
		if report.ClaimedWinnerID != "" {
			if winner == nil || *winner != report.ClaimedWinnerID {
				recalculated = true
			}
		}
		if recalculated {
			if err := tx.Create(&models.SecurityLog{
				ID:       uuid.NewString(),
				BattleID: battle.ID,
				PlayerID: &report.ClaimedWinnerID,
				Reason:   "winner_mismatch",
				Details:  fmt.Sprintf("client claimed %s, scores %d/%d", report.ClaimedWinnerID, battle.Player1Score, battle.Player2Score),
			}).Error; err != nil {
				return err
			}
		}

		if err := s.settle(tx, &battle, winner, recalculated, PenaltyLive, models.BattleStatusFinished, now); err != nil {
			return err
		}
		resolved = battle
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resolved, nil
}

// ExpireBattle drives active → expired with the timeout haircut. It runs the
// same settlement pipeline on the battle's last-known scores; the validator
// is skipped because nothing new was reported.
func (s *BattleService) ExpireBattle(battleID string) (*models.Battle, error) {
	now := time.Now()
	var resolved models.Battle

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var battle models.Battle
		if err := tx.First(&battle, "id = ?", battleID).Error; err != nil {
			return err
		}
		if battle.Status.Terminal() {
			return ErrBattleAlreadyResolved
		}

		winner := RecomputeWinner(&battle)
		if err := s.settle(tx, &battle, winner, false, PenaltyExpired, models.BattleStatusExpired, now); err != nil {
			return err
		}
		resolved = battle
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resolved, nil
}

// settle applies the full mutation batch for one resolution: the conditional
// terminal-state flip, both players' stat increments, one notification per
// player, and one analytics event. Must run inside an open transaction.
func (s *BattleService) settle(tx *gorm.DB, battle *models.Battle, winner *string, recalculated bool, penalty float64, status models.BattleStatus, now time.Time) error {
	winnerPoints, loserPoints := ComputePoints(battle.Type, battle.Player1Score, battle.Player2Score, penalty)

	updates := map[string]interface{}{
		"status":              status,
		"player1_score":       battle.Player1Score,
		"player2_score":       battle.Player2Score,
		"winner_id":           winner,
		"winner_recalculated": recalculated,
		"finished_at":         now,
	}
	if status == models.BattleStatusExpired {
		updates["expired_automatically"] = true
		battle.ExpiredAutomatically = true
	}

	res := tx.Model(&models.Battle{}).
		Where("id = ? AND status = ?", battle.ID, models.BattleStatusActive).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Lost the race against a concurrent resolution — drop the batch.
		return ErrBattleAlreadyResolved
	}

	deltas := map[string]statsDelta{}
	switch {
	case winner == nil:
		// Tie: both sides get the consolation share; streaks untouched.
		deltas[battle.Player1ID] = statsDelta{points: loserPoints}
		deltas[battle.Player2ID] = statsDelta{points: loserPoints}
	case *winner == battle.Player1ID:
		deltas[battle.Player1ID] = statsDelta{points: winnerPoints, won: true}
		deltas[battle.Player2ID] = statsDelta{points: loserPoints, lost: true, resetStreak: true}
	default:
		deltas[battle.Player2ID] = statsDelta{points: winnerPoints, won: true}
		deltas[battle.Player1ID] = statsDelta{points: loserPoints, lost: true, resetStreak: true}
	}

	for playerID, delta := range deltas {
		if err := incrementBattleStats(tx, playerID, delta, now); err != nil {
			return err
		}
		if err := tx.Create(battleNotification(battle, playerID, winner, delta.points, status)).Error; err != nil {
			return err
		}
	}

	eventType := "battle_resolved"
	if status == models.BattleStatusExpired {
		eventType = "battle_expired"
	}
	if err := tx.Create(&models.AnalyticsEvent{
		ID:       uuid.NewString(),
		Type:     eventType,
		BattleID: &battle.ID,
		Payload: map[string]interface{}{
			"type":          battle.Type,
			"winner_points": winnerPoints,
			"loser_points":  loserPoints,
			"penalty":       penalty,
			"tie":           winner == nil,
		},
	}).Error; err != nil {
		return err
	}

	battle.Status = status
	battle.WinnerID = winner
	battle.WinnerRecalculated = recalculated
	battle.FinishedAt = &now
	return nil
}

// incrementBattleStats upserts one player's stats row with commutative
// increments only. The insert branch covers lazy creation on first contact.
func incrementBattleStats(tx *gorm.DB, playerID string, d statsDelta, now time.Time) error {
	assignments := map[string]interface{}{
		"battles_played": gorm.Expr("player_stats.battles_played + 1"),
		"total_points":   gorm.Expr("player_stats.total_points + ?", d.points),
		"last_battle_at": now,
		"updated_at":     now,
	}

	row := models.PlayerStats{
		PlayerID:      playerID,
		BattlesPlayed: 1,
		TotalPoints:   d.points,
		LastBattleAt:  &now,
	}

	if d.won {
		assignments["battles_won"] = gorm.Expr("player_stats.battles_won + 1")
		assignments["current_streak"] = gorm.Expr("player_stats.current_streak + 1")
		row.BattlesWon = 1
		row.CurrentStreak = 1
	}
	if d.lost {
		assignments["battles_lost"] = gorm.Expr("player_stats.battles_lost + 1")
		row.BattlesLost = 1
	}
	if d.resetStreak {
		assignments["current_streak"] = 0
	}

	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "player_id"}},
		DoUpdates: clause.Assignments(assignments),
	}).Create(&row).Error
}

func battleNotification(battle *models.Battle, playerID string, winner *string, points int64, status models.BattleStatus) *models.Notification {
	nType := "battle_draw"
	title := "Battle ended in a draw"
	switch {
	case winner != nil && *winner == playerID:
		nType = "battle_won"
		title = "You won the battle!"
	case winner != nil:
		nType = "battle_lost"
		title = "Battle lost"
	}
	if status == models.BattleStatusExpired {
		nType = "battle_expired"
		title = "Battle expired"
	}
	return &models.Notification{
		ID:       uuid.NewString(),
		PlayerID: playerID,
		Type:     nType,
		Title:    title,
		Body:     fmt.Sprintf("You earned %d points", points),
		Data: map[string]interface{}{
			"battle_id": battle.ID,
			"points":    points,
		},
	}
}

// SweepExpiredBattles forces resolution of battles whose deadline passed
// while still active. At most ExpirationBatchSize battles per call; a
// failure on one battle never blocks its siblings.
func (s *BattleService) SweepExpiredBattles(now time.Time) (int, error) {
	var battles []models.Battle
	err := s.DB.
		Where("status = ? AND end_time < ?", models.BattleStatusActive, now).
		Order("end_time ASC").
		Limit(ExpirationBatchSize).
		Find(&battles).Error
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, battle := range battles {
		if _, err := s.ExpireBattle(battle.ID); err != nil {
			if errors.Is(err, ErrBattleAlreadyResolved) {
				continue
			}
			log.Printf("❌ [SWEEP] failed to expire battle %s: %v", battle.ID, err)
			continue
		}
		processed++
	}
	return processed, nil
}

// --- HTTP handlers (called by the gateway) ---

// ReportBattleResult is the trigger endpoint for a client marking a battle
// finished. Re-delivery of the same event returns 200 with the stored state.
func (s *BattleService) ReportBattleResult(c *fiber.Ctx) error {
	battleID := c.Params("id")

	var report BattleReport
	if err := c.BodyParser(&report); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
	}

	battle, err := s.ResolveBattle(battleID, report)
	if err != nil {
		if errors.Is(err, ErrBattleAlreadyResolved) {
			var existing models.Battle
			if dbErr := s.DB.First(&existing, "id = ?", battleID).Error; dbErr == nil {
				return c.JSON(fiber.Map{"message": "battle already resolved", "battle": existing})
			}
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "battle already resolved"})
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "battle not found"})
		}
		log.Printf("❌ Failed to resolve battle %s: %v", battleID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to resolve battle"})
	}

	if battle.Status == models.BattleStatusCancelled {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"message": "result rejected by validation",
			"battle":  battle,
		})
	}
	return c.JSON(fiber.Map{"message": "battle resolved", "battle": battle})
}

// CancelBattle aborts an active battle with no points granted.
func (s *BattleService) CancelBattle(c *fiber.Ctx) error {
	battleID := c.Params("id")
	now := time.Now()

	res := s.DB.Model(&models.Battle{}).
		Where("id = ? AND status = ?", battleID, models.BattleStatusActive).
		Updates(map[string]interface{}{
			"status":      models.BattleStatusCancelled,
			"finished_at": now,
		})
	if res.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "battle not active"})
	}
	return c.JSON(fiber.Map{"message": "battle cancelled"})
}

func (s *BattleService) GetBattle(c *fiber.Ctx) error {
	var battle models.Battle
	if err := s.DB.First(&battle, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "battle not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(battle)
}

// GetPlayerStats returns a player's lifetime record with earned badges.
// A player with no battles yet gets a zeroed record, not a 404.
func (s *BattleService) GetPlayerStats(c *fiber.Ctx) error {
	playerID := c.Params("id")

	var stats models.PlayerStats
	if err := s.DB.First(&stats, "player_id = ?", playerID).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
		}
		stats = models.PlayerStats{PlayerID: playerID}
	}

	var badges []models.PlayerBadge
	if err := s.DB.Where("player_id = ?", playerID).Order("awarded_at ASC").Find(&badges).Error; err != nil {
		log.Printf("❌ Failed to load badges for player %s: %v", playerID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	for _, b := range badges {
		stats.EarnedBadges = append(stats.EarnedBadges, b.Code)
	}
	return c.JSON(stats)
}
