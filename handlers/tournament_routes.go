package handlers

import (
	"battle-scoring-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupTournamentRoutes(app *fiber.App, tournamentService *services.TournamentService, rewardService *services.RewardService) {
	// Reads
	app.Get("/tournaments/:id", tournamentService.GetTournament)
	app.Get("/tournaments/:id/standings", tournamentService.GetTournamentStandings)
	app.Get("/leaderboard", rewardService.GetLeaderboard)
	app.Get("/players/:id/rewards", rewardService.GetPlayerRewards)

	// State-change trigger: tournament record transitioned into finished.
	// Safe to re-deliver; distribution is guarded.
	app.Post("/tournaments/:id/finish", tournamentService.FinishTournament)

	// Internal re-run hook for a missed/failed season distribution
	app.Post("/internal/leaderboard/distribute", rewardService.RunLeaderboardDistribution)
}
