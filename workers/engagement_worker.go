// workers/engagement_worker.go
package workers

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"battle-scoring-system/models"
	"battle-scoring-system/services"
	"battle-scoring-system/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EngagementWorker recomputes the daily engagement snapshot and per-
// tournament popularity/engagement scores from a point-in-time read.
// Everything here is derived data: it runs outside the atomic mutation
// contract and a skipped or failed run just gets rebuilt on the next one.
type EngagementWorker struct {
	DB       *gorm.DB
	Interval time.Duration
}

func NewEngagementWorker(db *gorm.DB) *EngagementWorker {
	return &EngagementWorker{
		DB:       db,
		Interval: 24 * time.Hour,
	}
}

func (w *EngagementWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting Engagement Worker (daily recompute)…")
	go w.run(ctx)
}

func (w *EngagementWorker) run(ctx context.Context) {
	if err := w.Recompute(time.Now()); err != nil {
		log.Printf("⚠️ Initial engagement recompute failed: %v", err)
	}

	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.Recompute(time.Now()); err != nil {
				log.Printf("❌ Engagement recompute failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("⏹️ Engagement Worker stopped")
			return
		}
	}
}

// Recompute rebuilds the snapshot for the 24h window ending at now and
// refreshes tournament scores. Full recomputation every run — no
// incremental state to corrupt.
func (w *EngagementWorker) Recompute(now time.Time) error {
	since := now.Add(-24 * time.Hour)

	var battlesFinished, battlesExpired int64
	if err := w.DB.Model(&models.Battle{}).
		Where("status = ? AND finished_at >= ?", models.BattleStatusFinished, since).
		Count(&battlesFinished).Error; err != nil {
		return err
	}
	if err := w.DB.Model(&models.Battle{}).
		Where("status = ? AND finished_at >= ?", models.BattleStatusExpired, since).
		Count(&battlesExpired).Error; err != nil {
		return err
	}

	var activePlayers int64
	err := w.DB.Raw(`
		SELECT COUNT(DISTINCT player_id) FROM (
			SELECT player1_id AS player_id FROM battles WHERE finished_at >= ?
			UNION
			SELECT player2_id AS player_id FROM battles WHERE finished_at >= ?
		) active`, since, since).Scan(&activePlayers).Error
	if err != nil {
		return err
	}

	pointsGranted, err := w.pointsGrantedSince(since)
	if err != nil {
		return err
	}

	snapshot := models.EngagementSnapshot{
		ID:              uuid.NewString(),
		Day:             now.Format("2006-01-02"),
		ActivePlayers:   activePlayers,
		BattlesFinished: battlesFinished,
		BattlesExpired:  battlesExpired,
		PointsGranted:   pointsGranted,
	}

	if utils.R2Configured() {
		if data, jsonErr := json.Marshal(snapshot); jsonErr == nil {
			key := "snapshots/" + snapshot.Day + ".json"
			if url, upErr := utils.UploadBytesToR2(data, key, "application/json"); upErr == nil {
				snapshot.ArchiveURL = url
			} else {
				log.Printf("⚠️ Snapshot archive upload failed: %v", upErr)
			}
		}
	}

	err = w.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "day"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"active_players":   snapshot.ActivePlayers,
			"battles_finished": snapshot.BattlesFinished,
			"battles_expired":  snapshot.BattlesExpired,
			"points_granted":   snapshot.PointsGranted,
			"archive_url":      snapshot.ArchiveURL,
			"updated_at":       now,
		}),
	}).Create(&snapshot).Error
	if err != nil {
		return err
	}

	if err := w.recomputeTournamentScores(since); err != nil {
		return err
	}

	log.Printf("📊 Engagement snapshot %s: %d players, %d battles, %d points",
		snapshot.Day, activePlayers, battlesFinished+battlesExpired, pointsGranted)
	return nil
}

// pointsGrantedSince replays the scoring formula over the window's resolved
// battles. Cheaper than keeping a running counter, and always consistent
// with what resolution actually granted.
func (w *EngagementWorker) pointsGrantedSince(since time.Time) (int64, error) {
	var battles []models.Battle
	err := w.DB.
		Where("status IN ? AND finished_at >= ?",
			[]models.BattleStatus{models.BattleStatusFinished, models.BattleStatusExpired}, since).
		Find(&battles).Error
	if err != nil {
		return 0, err
	}

	var total int64
	for _, b := range battles {
		penalty := services.PenaltyLive
		if b.Status == models.BattleStatusExpired {
			penalty = services.PenaltyExpired
		}
		winnerPoints, loserPoints := services.ComputePoints(b.Type, b.Player1Score, b.Player2Score, penalty)
		if b.WinnerID == nil {
			total += 2 * loserPoints
		} else {
			total += winnerPoints + loserPoints
		}
	}
	return total, nil
}

// recomputeTournamentScores overwrites popularity/engagement on every
// non-terminal tournament. Popularity reflects fill rate; engagement counts
// recent analytics activity around the tournament.
func (w *EngagementWorker) recomputeTournamentScores(since time.Time) error {
	var tournaments []models.Tournament
	if err := w.DB.Where("phase <> ?", models.PhaseFinished).Find(&tournaments).Error; err != nil {
		return err
	}

	for _, t := range tournaments {
		popularity := 0.0
		if t.MaxParticipants > 0 {
			popularity = float64(t.CurrentParticipants) / float64(t.MaxParticipants) * 100
		}

		var recentEvents int64
		w.DB.Model(&models.AnalyticsEvent{}).
			Where("tournament_id = ? AND created_at >= ?", t.ID, since).
			Count(&recentEvents)

		err := w.DB.Model(&models.Tournament{}).
			Where("id = ?", t.ID).
			Updates(map[string]interface{}{
				"popularity_score": popularity,
				"engagement_score": float64(recentEvents),
			}).Error
		if err != nil {
			log.Printf("⚠️ Failed to update scores for tournament %s: %v", t.ID, err)
		}
	}
	return nil
}
