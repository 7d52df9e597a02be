package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/Ivan200915/discipline-engine/internal/adapters/cache"
	adapterHTTP "github.com/Ivan200915/discipline-engine/internal/adapters/handler/http"
	"github.com/Ivan200915/discipline-engine/internal/adapters/repository"
	"github.com/Ivan200915/discipline-engine/internal/core/domain"
	"github.com/Ivan200915/discipline-engine/internal/core/services"
	"github.com/Ivan200915/discipline-engine/internal/core/workers"
)

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	startTime := time.Now()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading configuration from the environment")
	}

	dbUser := os.Getenv("DB_USER")
	dbPass := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbHost := getEnv("DB_HOST", "localhost")
	dbPort := getEnv("DB_PORT", "5432")
	serverPort := getEnv("PORT", "8080")

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("Critical: JWT_SECRET is not set")
	}
	jwtIssuer := getEnv("JWT_ISSUER", "discipline-engine")

	tokenTTL := 24 * time.Hour
	if raw := os.Getenv("TOKEN_TTL"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			log.Fatalf("Critical: invalid TOKEN_TTL %q: %v", raw, err)
		}
		tokenTTL = parsed
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		dbUser, dbPass, dbHost, dbPort, dbName)

	log.Println("Connecting to database...")

	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		log.Fatalf("Critical: Failed to connect to database: %v", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	log.Println("Database connected successfully.")

	var redisClient *redis.Client
	if redisHost := os.Getenv("REDIS_HOST"); redisHost != "" {
		redisClient, err = cache.NewRedisClient(
			redisHost,
			getEnv("REDIS_PORT", "6379"),
			os.Getenv("REDIS_PASSWORD"),
			0,
		)
		if err != nil {
			log.Printf("Redis unreachable, running without cache and rate limiting: %v", err)
			redisClient = nil
		} else {
			log.Println("Redis connected successfully.")
		}
	}

	userRepo := repository.NewPostgresUserRepository(db)
	stateRepo := repository.NewPostgresStateRepository(db)

	var ledgerRepo domain.LedgerRepository = repository.NewPostgresLogRepository(db)
	if redisClient != nil {
		ledgerRepo = repository.NewCachedLogRepository(ledgerRepo, redisClient)
	}

	streakService := services.NewStreakService(ledgerRepo, stateRepo)
	streakWorker := workers.NewStreakWorker(streakService, stateRepo)

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	streakWorker.Start(workerCtx)

	ledgerService := services.NewLedgerService(ledgerRepo, streakWorker)
	protectionService := services.NewProtectionService(stateRepo)
	correlationService := services.NewCorrelationService(ledgerRepo)
	moodService := services.NewMoodService(ledgerRepo)
	seasonService := services.NewSeasonService(ledgerRepo, stateRepo, streakService)

	authService := services.NewAuthService(userRepo)
	tokenService := services.NewTokenService(jwtSecret, jwtIssuer, tokenTTL, userRepo)

	router := adapterHTTP.NewRouter(adapterHTTP.RouterDependencies{
		AuthHandler:       adapterHTTP.NewAuthHandler(authService, tokenService),
		LogHandler:        adapterHTTP.NewLogHandler(ledgerService),
		StreakHandler:     adapterHTTP.NewStreakHandler(streakService, protectionService),
		ProtectionHandler: adapterHTTP.NewProtectionHandler(protectionService, streakService),
		InsightsHandler:   adapterHTTP.NewInsightsHandler(correlationService, moodService),
		SeasonHandler:     adapterHTTP.NewSeasonHandler(seasonService, &domain.DefaultSeason),
		TokenService:      tokenService,
		DB:                db,
		Redis:             redisClient,
		StartTime:         startTime,
	})

	srv := &http.Server{
		Addr:         ":" + serverPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Discipline Engine running on http://localhost:%s", serverPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Critical server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Stop signal received. Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Forced shutdown error:", err)
	}

	stopWorker()

	log.Println("Server stopped gracefully.")
}
