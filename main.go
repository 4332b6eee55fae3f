package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"battle-scoring-system/handlers"
	"battle-scoring-system/middleware"
	"battle-scoring-system/models"
	"battle-scoring-system/services"
	"battle-scoring-system/utils"
	"battle-scoring-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		AppName: "battle-scoring-system",
	})

	// 🔐 GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Battle{},
		&models.PlayerStats{},
		&models.PlayerBadge{},
		&models.Tournament{},
		&models.RewardRecord{},
		&models.Notification{},
		&models.AnalyticsEvent{},
		&models.SecurityLog{},
		&models.EngagementSnapshot{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	// Snapshot archival is optional — only wire R2 when configured
	if utils.R2Configured() {
		if err := utils.InitR2(); err != nil {
			log.Fatal("failed to initialize R2 client:", err)
		}
	} else {
		log.Println("⚠️  R2_BUCKET_NAME not set, snapshot archival disabled")
	}

	battleService := services.NewBattleService(db)
	rewardService := services.NewRewardService(db)
	tournamentService := services.NewTournamentService(db, rewardService)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engagementWorker := workers.NewEngagementWorker(db)
	engagementWorker.Start(ctx)

	services.StartSweepScheduler(battleService, tournamentService, rewardService)

	handlers.SetupBattleRoutes(app, battleService)
	handlers.SetupTournamentRoutes(app, tournamentService, rewardService)

	port := os.Getenv("PORT")
	if port == "" {
		port = "5300"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", port)
	log.Println("✅ Battle expiration sweep every 5m, phase sweeps every 6h/1h")
	log.Println("✅ Engagement worker running (daily)")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")

	<-ctx.Done()
	log.Println("Shutting down server...")
	_ = app.Shutdown()
}
