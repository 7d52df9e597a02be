package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adapterHTTP "github.com/Ivan200915/discipline-engine/internal/adapters/handler/http"
	"github.com/Ivan200915/discipline-engine/internal/adapters/repository"
	"github.com/Ivan200915/discipline-engine/internal/core/domain"
	"github.com/Ivan200915/discipline-engine/internal/core/services"
	"github.com/Ivan200915/discipline-engine/internal/core/workers"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func setupTestDB(t *testing.T) *sqlx.DB {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		envOr("DB_USER", "discipline_user"),
		envOr("DB_PASSWORD", "secret"),
		envOr("DB_HOST", "localhost"),
		envOr("DB_PORT", "5432"),
		envOr("DB_NAME", "discipline_db"),
	)

	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		t.Skipf("Skipping e2e test: database unavailable: %v", err)
	}
	return db
}

func setupRouter(db *sqlx.DB) *gin.Engine {
	userRepo := repository.NewPostgresUserRepository(db)
	stateRepo := repository.NewPostgresStateRepository(db)
	ledgerRepo := repository.NewPostgresLogRepository(db)

	streakService := services.NewStreakService(ledgerRepo, stateRepo)
	streakWorker := workers.NewStreakWorker(streakService, stateRepo)
	ledgerService := services.NewLedgerService(ledgerRepo, streakWorker)
	protectionService := services.NewProtectionService(stateRepo)
	correlationService := services.NewCorrelationService(ledgerRepo)
	moodService := services.NewMoodService(ledgerRepo)
	seasonService := services.NewSeasonService(ledgerRepo, stateRepo, streakService)

	authService := services.NewAuthService(userRepo)
	tokenService := services.NewTokenService("e2e-secret", "discipline-e2e", time.Hour, userRepo)

	return adapterHTTP.NewRouter(adapterHTTP.RouterDependencies{
		AuthHandler:       adapterHTTP.NewAuthHandler(authService, tokenService),
		LogHandler:        adapterHTTP.NewLogHandler(ledgerService),
		StreakHandler:     adapterHTTP.NewStreakHandler(streakService, protectionService),
		ProtectionHandler: adapterHTTP.NewProtectionHandler(protectionService, streakService),
		InsightsHandler:   adapterHTTP.NewInsightsHandler(correlationService, moodService),
		SeasonHandler:     adapterHTTP.NewSeasonHandler(seasonService, &domain.DefaultSeason),
		TokenService:      tokenService,
		DB:                db,
		StartTime:         time.Now(),
	})
}

func TestEndToEnd_LedgerLifecycle(t *testing.T) {
	gin.SetMode(gin.TestMode)

	db := setupTestDB(t)
	defer db.Close()

	_, err := db.Exec("TRUNCATE TABLE daily_logs, user_states, users CASCADE")
	require.NoError(t, err, "Failed to truncate tables")

	router := setupRouter(db)

	var token string

	send := func(method, path, body string) *httptest.ResponseRecorder {
		req, _ := http.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("1. Register", func(t *testing.T) {
		w := send(http.MethodPost, "/api/v1/auth/register",
			`{"email": "e2e@discipline.app", "password": "supersecret"}`)
		assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	})

	t.Run("2. Login", func(t *testing.T) {
		w := send(http.MethodPost, "/api/v1/auth/login",
			`{"email": "e2e@discipline.app", "password": "supersecret"}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp struct {
			Token string `json:"token"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotEmpty(t, resp.Token)
		token = resp.Token
	})

	t.Run("3. Log and close three days", func(t *testing.T) {
		require.NotEmpty(t, token, "Login step failed, cannot continue")

		for _, date := range []string{"2024-01-03", "2024-01-04", "2024-01-05"} {
			w := send(http.MethodPut, "/api/v1/logs/"+date,
				`{"habits": [{"habit_id": "workout", "completed": true}], "metrics": {"sleep_hours": 7.5}, "check_in": {"mood": 4, "energy": 7}}`)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			w = send(http.MethodPost, "/api/v1/logs/"+date+"/close", "")
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		}
	})

	t.Run("4. Streak reflects the closed run", func(t *testing.T) {
		w := send(http.MethodGet, "/api/v1/streak?as_of=2024-01-05", "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var report domain.StreakReport
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
		assert.Equal(t, 3, report.CurrentStreak)
		assert.Equal(t, 3, report.LongestStreak)
	})

	t.Run("5. Closed days refuse in-place edits", func(t *testing.T) {
		w := send(http.MethodPut, "/api/v1/logs/2024-01-05", `{"meals_logged": 2}`)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("6. Supersede corrects a closed day", func(t *testing.T) {
		w := send(http.MethodPost, "/api/v1/logs/2024-01-05/supersede",
			`{"habits": [{"habit_id": "workout", "completed": false}], "meals_logged": 3}`)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		w = send(http.MethodGet, "/api/v1/logs/2024-01-05", "")
		require.Equal(t, http.StatusOK, w.Code)

		var entry domain.DailyLog
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entry))
		assert.Equal(t, 3, entry.MealsLogged)
		assert.True(t, entry.Closed)
	})

	t.Run("7. Correlation over the logged window", func(t *testing.T) {
		w := send(http.MethodGet, "/api/v1/insights/correlation?x=sleep&y=mood&from=2024-01-01&to=2024-01-31", "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var result domain.CorrelationResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.Equal(t, 2, result.SampleSize, "The superseded day lost its check-in, only two days still pair up")
	})

	t.Run("8. Protection inventory is reachable", func(t *testing.T) {
		w := send(http.MethodGet, "/api/v1/protection", "")
		require.Equal(t, http.StatusOK, w.Code)

		var inv domain.ProtectionInventory
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &inv))
		assert.Equal(t, 0, inv.FreezesAvailable)
	})

	t.Run("9. Auth error without a token", func(t *testing.T) {
		saved := token
		token = ""
		defer func() { token = saved }()

		w := send(http.MethodGet, "/api/v1/logs?from=2024-01-01&to=2024-01-31", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
