package http_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ivan200915/discipline-engine/internal/core/domain"
)

func logCheckInDay(t *testing.T, env *testEnv, userID string, offset int, sleep float64, mood int, workout bool) {
	t.Helper()
	env.logAndClose(t, userID, day(offset), map[string]any{
		"habits":   []map[string]any{{"habit_id": "workout", "completed": workout}},
		"metrics":  map[string]any{"sleep_hours": sleep},
		"check_in": map[string]any{"mood": mood, "energy": 5},
	})
}

func TestInsightsHandler_Correlation(t *testing.T) {
	t.Run("Sleep and mood move together", func(t *testing.T) {
		env := setupEngineRouter()

		sleeps := []float64{6, 7, 8, 5, 9}
		moods := []int{2, 3, 4, 2, 5}
		for i := range sleeps {
			logCheckInDay(t, env, "user-1", i-len(sleeps), sleeps[i], moods[i], false)
		}

		w := env.do(t, http.MethodGet, "/api/v1/insights/correlation?x=sleep&y=mood", "user-1", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var result domain.CorrelationResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		require.NotNil(t, result.Coefficient)
		assert.Greater(t, *result.Coefficient, 0.8)
		assert.Equal(t, 5, result.SampleSize)
		assert.Equal(t, "strong", result.Strength)
	})

	t.Run("Too few samples yields a nil coefficient", func(t *testing.T) {
		env := setupEngineRouter()

		logCheckInDay(t, env, "user-1", -2, 7, 3, false)
		logCheckInDay(t, env, "user-1", -1, 8, 4, false)

		w := env.do(t, http.MethodGet, "/api/v1/insights/correlation?x=sleep&y=mood", "user-1", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var result domain.CorrelationResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.Nil(t, result.Coefficient)
		assert.Equal(t, 2, result.SampleSize)
	})

	t.Run("Unknown metric is a 400", func(t *testing.T) {
		env := setupEngineRouter()

		w := env.do(t, http.MethodGet, "/api/v1/insights/correlation?x=sleep&y=altitude", "user-1", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Missing metrics are a 400", func(t *testing.T) {
		env := setupEngineRouter()

		w := env.do(t, http.MethodGet, "/api/v1/insights/correlation?x=sleep", "user-1", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestInsightsHandler_MoodForecast(t *testing.T) {
	t.Run("Forecast stays within mood bounds", func(t *testing.T) {
		env := setupEngineRouter()

		for i := 1; i <= 10; i++ {
			logCheckInDay(t, env, "user-1", -i, 8, 4, true)
		}

		path := "/api/v1/insights/mood?workout=true&meditation=true&sleep_hours=9&steps=12000"
		w := env.do(t, http.MethodGet, path, "user-1", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var prediction domain.MoodPrediction
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &prediction))
		assert.GreaterOrEqual(t, prediction.PredictedMood, 1)
		assert.LessOrEqual(t, prediction.PredictedMood, 5)
		assert.LessOrEqual(t, prediction.Confidence, 95)
		assert.NotEmpty(t, prediction.Factors)
		assert.NotEmpty(t, prediction.Recommendation)
	})

	t.Run("Thin history falls back to a low-confidence baseline", func(t *testing.T) {
		env := setupEngineRouter()

		w := env.do(t, http.MethodGet, "/api/v1/insights/mood", "user-1", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var prediction domain.MoodPrediction
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &prediction))
		assert.Equal(t, 3, prediction.PredictedMood)
		assert.Equal(t, 20, prediction.Confidence)
	})

	t.Run("Invalid numeric inputs are a 400", func(t *testing.T) {
		env := setupEngineRouter()

		for _, q := range []string{"sleep_hours=minus", "steps=-12"} {
			w := env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/insights/mood?%s", q), "user-1", nil)
			assert.Equal(t, http.StatusBadRequest, w.Code, q)
		}
	})
}
