package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/yeremiapane/restaurant-pos/config"
	"github.com/yeremiapane/restaurant-pos/database"
	"github.com/yeremiapane/restaurant-pos/live"
	"github.com/yeremiapane/restaurant-pos/router"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/session"
	"github.com/yeremiapane/restaurant-pos/utils"
)

func main() {
	utils.InitLogger()

	// Load .env
	if err := godotenv.Load(); err != nil {
		utils.InfoLogger.Info("No .env file found, using environment only")
	}

	cfg, err := config.Load()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to load config: %v", err)
	}

	if cfg.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}
	utils.SetDebug(cfg.GinMode == gin.DebugMode)

	// Initialize DB
	db, err := config.InitDB(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to migrate: %v", err)
	}
	if err := database.Seed(db, database.SeedOptions{
		AdminUsername: cfg.AdminUsername,
		AdminPassword: cfg.AdminPassword,
	}); err != nil {
		utils.ErrorLogger.Fatalf("Failed to seed: %v", err)
	}

	sessions, err := openSessionStore(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to open session store: %v", err)
	}
	defer sessions.Close()

	utils.RegisterValidators()

	r := router.SetupRouter(router.Deps{
		DB:                 db,
		Sessions:           sessions,
		Signer:             session.NewSigner(cfg.SessionSecret, 0),
		Hub:                live.NewHub(),
		Forecast:           services.NewForecastClient(cfg.AIBaseURL, cfg.AITimeout()),
		CORSOrigin:         cfg.CORSOrigin,
		SecureCookie:       cfg.GinMode == gin.ReleaseMode,
		LowStockThreshold:  cfg.LowStockThreshold,
		RateLimitRPS:       cfg.RateLimitRPS,
		LoginRatePerMinute: cfg.LoginRatePerMinute,
	})

	utils.InfoLogger.Infof("Listening on %s", cfg.Addr())
	if err := r.Run(cfg.Addr()); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}

func openSessionStore(cfg *config.Config) (session.Store, error) {
	if cfg.SessionStore == "redis" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		rdb, err := session.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		utils.InfoLogger.Info("Sessions stored in redis")
		return session.NewRedisStore(rdb, cfg.SessionIdle()), nil
	}

	store := session.NewMemoryStore(cfg.SessionIdle())
	store.StartSweeper(time.Minute)
	return store, nil
}
