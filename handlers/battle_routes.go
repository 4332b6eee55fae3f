package handlers

import (
	"battle-scoring-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupBattleRoutes(app *fiber.App, battleService *services.BattleService) {
	// State-change triggers from the client (via Gateway)
	app.Post("/battles/:id/result", battleService.ReportBattleResult)
	app.Post("/battles/:id/cancel", battleService.CancelBattle)

	// Reads
	app.Get("/battles/:id", battleService.GetBattle)
	app.Get("/players/:id/stats", battleService.GetPlayerStats)
}
