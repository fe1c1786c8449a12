package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/playsevenate9/backend/internal/ai"
	"github.com/playsevenate9/backend/internal/api"
	"github.com/playsevenate9/backend/internal/config"
	"github.com/playsevenate9/backend/internal/database"
	"github.com/playsevenate9/backend/internal/middleware"
	"github.com/playsevenate9/backend/internal/migrations"
	"github.com/playsevenate9/backend/internal/redis"
	"github.com/playsevenate9/backend/internal/room"
	"github.com/playsevenate9/backend/internal/scoring"
	"github.com/playsevenate9/backend/internal/session"
	"github.com/playsevenate9/backend/internal/ws"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if cfg.MigrateOnStart {
		log.Println("↗ Running DB migrations on startup...")
		if err := migrations.RunMigrations(cfg.DatabaseURL); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	rdb, err := redis.Connect(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer rdb.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	issuer := session.NewIssuer(cfg)
	driver := ai.NewDriverFromConfig(cfg)
	recorder := scoring.NewRecorder(db)
	rooms := room.NewService(room.NewPGRepository(db), rdb, issuer, driver, recorder, cfg)

	// Expire abandoned lobbies
	rooms.StartJanitor(ctx, time.Duration(cfg.JanitorIntervalSecs)*time.Second)

	hub := ws.NewHub(rooms)
	go hub.Run(ctx)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	router.Use(middleware.CORSMiddleware(cfg), middleware.WebSocketCORSCheck(cfg))

	api.SetupRoutes(router, api.Deps{
		Rooms:       rooms,
		Leaderboard: recorder,
		Strategy:    driver.Fallback(),
		Issuer:      issuer,
		Hub:         hub,
	}, cfg)

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting 7-ate-9 server on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
