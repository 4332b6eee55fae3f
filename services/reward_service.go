package services

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"battle-scoring-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LeaderboardTopN is how deep a season distribution reaches.
const LeaderboardTopN = 500

// ErrPrizesAlreadyDistributed — the tournament-granularity guard tripped;
// the caller treats this as a successful no-op.
var ErrPrizesAlreadyDistributed = errors.New("prizes already distributed")

// leaderboardTier maps a rank range (up to and including MaxRank) to its
// season prize. Ranks 1-3 get named prizes and a badge, the rest fall into
// the top_10 / top_100 / top_500 buckets.
type leaderboardTier struct {
	MaxRank int
	Gems    int64
	Points  int64
	Title   string
	Badge   string
}

var leaderboardTiers = []leaderboardTier{
	{MaxRank: 1, Gems: 1000, Points: 5000, Title: "Season Champion", Badge: "Season Champion"},
	{MaxRank: 2, Gems: 750, Points: 3000, Title: "Season Runner-Up", Badge: "Season Runner-Up"},
	{MaxRank: 3, Gems: 500, Points: 2000, Title: "Season Third Place", Badge: "Season Third Place"},
	{MaxRank: 10, Gems: 250, Points: 1000, Title: "top_10"},
	{MaxRank: 100, Gems: 100, Points: 500, Title: "top_100"},
	{MaxRank: LeaderboardTopN, Gems: 50, Points: 250, Title: "top_500"},
}

func tierForRank(rank int) *leaderboardTier {
	for i := range leaderboardTiers {
		if rank <= leaderboardTiers[i].MaxRank {
			return &leaderboardTiers[i]
		}
	}
	return nil
}

// WeeklySeasonID returns the season key for the weekly distribution, e.g.
// "2026-W35". MonthlySeasonID returns e.g. "2026-08".
func WeeklySeasonID(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

func MonthlySeasonID(t time.Time) string {
	return t.Format("2006-01")
}

type RewardService struct {
	DB *gorm.DB
}

func NewRewardService(db *gorm.DB) *RewardService {
	return &RewardService{DB: db}
}

// rewardGrant is one prize heading for one player, from either producer.
type rewardGrant struct {
	SeasonID string
	Rank     int
	Source   models.RewardSource
	Gems     int64
	Points   int64
	Badge    string
	Title    string
}

// DistributeTournamentPrizes converts a finished tournament's standings into
// prize grants, exactly once. The prizes_distributed flip, every grant and
// the analytics event commit together.
func (s *RewardService) DistributeTournamentPrizes(tournamentID string) error {
	now := time.Now()

	return s.DB.Transaction(func(tx *gorm.DB) error {
		var t models.Tournament
		if err := tx.First(&t, "id = ?", tournamentID).Error; err != nil {
			return err
		}
		if t.Phase != models.PhaseFinished {
			return fmt.Errorf("tournament %s is not finished (phase %s)", tournamentID, t.Phase)
		}

		res := tx.Model(&models.Tournament{}).
			Where("id = ? AND prizes_distributed = ?", tournamentID, false).
			Update("prizes_distributed", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrPrizesAlreadyDistributed
		}

		byRank := make(map[int]string, len(t.Standings))
		for playerID, standing := range t.Standings {
			byRank[standing.Rank] = playerID
		}

		granted := 0
		for _, prize := range t.Prizes {
			playerID, ok := byRank[prize.Position]
			if !ok {
				// Nobody placed at this position (short field); skip.
				continue
			}
			created, err := s.grant(tx, playerID, rewardGrant{
				SeasonID: t.ID,
				Rank:     prize.Position,
				Source:   models.RewardSourceTournament,
				Gems:     prize.Gems,
				Points:   prize.Points,
				Badge:    prize.Badge,
				Title:    prize.Title,
			}, now)
			if err != nil {
				return err
			}
			if created {
				granted++
			}
		}

		log.Printf("🎁 Tournament %s: distributed %d prizes", tournamentID, granted)
		return tx.Create(&models.AnalyticsEvent{
			ID:           uuid.NewString(),
			Type:         "rewards_distributed",
			TournamentID: &tournamentID,
			Payload: map[string]interface{}{
				"source":  models.RewardSourceTournament,
				"granted": granted,
			},
		}).Error
	})
}

// DistributeLeaderboardRewards ranks all player stats by total points and
// grants tiered season prizes to the top 500. The deterministic record id
// makes a season re-run upsert the same rows; the stat increment is gated
// behind the record insert, so a double-fired scheduler cannot double-grant.
func (s *RewardService) DistributeLeaderboardRewards(seasonID string) (int, error) {
	now := time.Now()
	granted := 0

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var standings []models.PlayerStats
		err := tx.Order("total_points DESC, player_id ASC").
			Limit(LeaderboardTopN).
			Find(&standings).Error
		if err != nil {
			return err
		}

		for i, stats := range standings {
			rank := i + 1
			tier := tierForRank(rank)
			if tier == nil {
				break
			}
			created, err := s.grant(tx, stats.PlayerID, rewardGrant{
				SeasonID: seasonID,
				Rank:     rank,
				Source:   models.RewardSourceLeaderboard,
				Gems:     tier.Gems,
				Points:   tier.Points,
				Badge:    tier.Badge,
				Title:    tier.Title,
			}, now)
			if err != nil {
				return err
			}
			if created {
				granted++
			}
		}

		return tx.Create(&models.AnalyticsEvent{
			ID:   uuid.NewString(),
			Type: "rewards_distributed",
			Payload: map[string]interface{}{
				"source":  models.RewardSourceLeaderboard,
				"season":  seasonID,
				"granted": granted,
			},
		}).Error
	})
	if err != nil {
		return 0, err
	}

	log.Printf("🏅 Season %s: distributed %d leaderboard rewards", seasonID, granted)
	return granted, nil
}

// grant writes the reward record, and only when that insert actually created
// a row applies the gem/point increments, the badge and the notification.
// Returns whether the grant was new.
func (s *RewardService) grant(tx *gorm.DB, playerID string, g rewardGrant, now time.Time) (bool, error) {
	record := models.RewardRecord{
		ID:       models.RewardRecordID(g.SeasonID, playerID, g.Rank),
		PlayerID: playerID,
		SeasonID: g.SeasonID,
		Rank:     g.Rank,
		Source:   g.Source,
		Gems:     g.Gems,
		Points:   g.Points,
		Badge:    g.Badge,
		Title:    g.Title,
	}

	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&record)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		// Record already exists from a prior run — the increment must not
		// repeat either.
		return false, nil
	}

	if err := incrementRewardStats(tx, playerID, g.Points, g.Gems, now); err != nil {
		return false, err
	}

	if g.Badge != "" {
		badge := models.PlayerBadge{
			ID:       uuid.NewString(),
			PlayerID: playerID,
			Code:     slug.Make(g.Badge),
			Source:   g.SeasonID,
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&badge).Error; err != nil {
			return false, err
		}
	}

	notification := models.Notification{
		ID:       uuid.NewString(),
		PlayerID: playerID,
		Type:     "reward_granted",
		Title:    fmt.Sprintf("You placed #%d!", g.Rank),
		Body:     fmt.Sprintf("You earned %d points and %d gems", g.Points, g.Gems),
		Data: map[string]interface{}{
			"season_id": g.SeasonID,
			"rank":      g.Rank,
			"source":    g.Source,
		},
	}
	if err := tx.Create(&notification).Error; err != nil {
		return false, err
	}
	return true, nil
}

func incrementRewardStats(tx *gorm.DB, playerID string, points, gems int64, now time.Time) error {
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "player_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total_points":   gorm.Expr("player_stats.total_points + ?", points),
			"total_gems":     gorm.Expr("player_stats.total_gems + ?", gems),
			"last_reward_at": now,
			"updated_at":     now,
		}),
	}).Create(&models.PlayerStats{
		PlayerID:     playerID,
		TotalPoints:  points,
		TotalGems:    gems,
		LastRewardAt: &now,
	}).Error
}

// --- HTTP handlers ---

// GetLeaderboard returns the current standings by total points.
func (s *RewardService) GetLeaderboard(c *fiber.Ctx) error {
	limit := 100
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= LeaderboardTopN {
			limit = n
		}
	}

	var standings []models.PlayerStats
	if err := s.DB.Order("total_points DESC, player_id ASC").Limit(limit).Find(&standings).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch leaderboard"})
	}

	type entry struct {
		Rank        int    `json:"rank"`
		PlayerID    string `json:"player_id"`
		TotalPoints int64  `json:"total_points"`
		BattlesWon  int64  `json:"battles_won"`
	}
	entries := make([]entry, 0, len(standings))
	for i, st := range standings {
		entries = append(entries, entry{Rank: i + 1, PlayerID: st.PlayerID, TotalPoints: st.TotalPoints, BattlesWon: st.BattlesWon})
	}
	return c.JSON(fiber.Map{"leaderboard": entries})
}

// GetPlayerRewards lists a player's reward records, newest first.
func (s *RewardService) GetPlayerRewards(c *fiber.Ctx) error {
	var records []models.RewardRecord
	err := s.DB.Where("player_id = ?", c.Params("id")).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch rewards"})
	}
	return c.JSON(records)
}

// RunLeaderboardDistribution is the internal re-run hook. Defaults to the
// current weekly season; idempotent for any season id.
func (s *RewardService) RunLeaderboardDistribution(c *fiber.Ctx) error {
	seasonID := c.Query("season")
	if seasonID == "" {
		seasonID = WeeklySeasonID(time.Now())
	}

	granted, err := s.DistributeLeaderboardRewards(seasonID)
	if err != nil {
		log.Printf("❌ Leaderboard distribution for season %s: %v", seasonID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "distribution failed"})
	}
	return c.JSON(fiber.Map{"season": seasonID, "granted": granted})
}
