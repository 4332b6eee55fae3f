// services/scheduler.go
package services

import (
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Sweep cadences. The sweeps are the timeout mechanism — there is no
// per-entity timer — so these intervals bound how stale a missed deadline
// can get.
const (
	BattleSweepInterval       = 5 * time.Minute
	PhaseSweepInterval        = 6 * time.Hour
	RegistrationSweepInterval = 1 * time.Hour
)

// StartSweepScheduler wires every fixed-interval job: battle expiration,
// tournament phase advancement (coarse + fine), and the weekly/monthly
// leaderboard distributions.
func StartSweepScheduler(battles *BattleService, tournaments *TournamentService, rewards *RewardService) {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	// Every 5 minutes: force-expire battles whose deadline passed
	_, _ = sched.NewJob(
		gocron.DurationJob(BattleSweepInterval),
		gocron.NewTask(func() {
			processed, err := battles.SweepExpiredBattles(time.Now())
			if err != nil {
				log.Printf("[Scheduler] battle sweep failed: %v", err)
				return
			}
			if processed > 0 {
				log.Printf("⏰ Expired %d overdue battles", processed)
			}
		}),
	)

	// Every 6 hours: advance tournament phases
	_, _ = sched.NewJob(
		gocron.DurationJob(PhaseSweepInterval),
		gocron.NewTask(func() {
			advanced, err := tournaments.AdvancePhases(time.Now())
			if err != nil {
				log.Printf("[Scheduler] phase sweep failed: %v", err)
				return
			}
			if advanced > 0 {
				log.Printf("🏆 Advanced %d tournament phases", advanced)
			}
		}),
	)

	// Every hour: precision pass for registration deadlines only
	_, _ = sched.NewJob(
		gocron.DurationJob(RegistrationSweepInterval),
		gocron.NewTask(func() {
			if _, err := tournaments.SweepRegistrationDeadlines(time.Now()); err != nil {
				log.Printf("[Scheduler] registration sweep failed: %v", err)
			}
		}),
	)

	// Monday 03:00: weekly leaderboard season
	_, _ = sched.NewJob(
		gocron.CronJob("0 3 * * 1", false),
		gocron.NewTask(func() {
			season := WeeklySeasonID(time.Now())
			if _, err := rewards.DistributeLeaderboardRewards(season); err != nil {
				log.Printf("[Scheduler] weekly distribution %s failed: %v", season, err)
			}
		}),
	)

	// 1st of the month 04:00: monthly leaderboard season
	_, _ = sched.NewJob(
		gocron.CronJob("0 4 1 * *", false),
		gocron.NewTask(func() {
			season := MonthlySeasonID(time.Now())
			if _, err := rewards.DistributeLeaderboardRewards(season); err != nil {
				log.Printf("[Scheduler] monthly distribution %s failed: %v", season, err)
			}
		}),
	)
}
