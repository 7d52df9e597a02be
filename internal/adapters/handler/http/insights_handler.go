package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Ivan200915/discipline-engine/internal/adapters/handler/http/middleware"
	"github.com/Ivan200915/discipline-engine/internal/core/domain"
	"github.com/Ivan200915/discipline-engine/internal/core/services"
)

type InsightsHandler struct {
	correlations *services.CorrelationService
	moods        *services.MoodService
}

func NewInsightsHandler(correlations *services.CorrelationService, moods *services.MoodService) *InsightsHandler {
	return &InsightsHandler{
		correlations: correlations,
		moods:        moods,
	}
}

func (h *InsightsHandler) RegisterRoutes(router *gin.RouterGroup) {
	insights := router.Group("/insights")
	{
		insights.GET("/correlation", h.Correlation)
		insights.GET("/mood", h.MoodForecast)
	}
}

func (h *InsightsHandler) Correlation(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	x := c.Query("x")
	y := c.Query("y")
	if x == "" || y == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "x and y metrics are required"})
		return
	}

	today := time.Now().UTC()
	to := c.DefaultQuery("to", domain.FormatDay(today))
	from := c.DefaultQuery("from", domain.FormatDay(today.AddDate(0, 0, -30)))

	result, err := h.correlations.Correlate(c.Request.Context(), userID, x, y, from, to)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// MoodForecast predicts tomorrow's mood from history plus today's habits,
// passed as query parameters.
func (h *InsightsHandler) MoodForecast(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	today := domain.TodayHabits{
		Workout:    c.Query("workout") == "true",
		Meditation: c.Query("meditation") == "true",
	}

	if raw := c.Query("sleep_hours"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sleep_hours"})
			return
		}
		today.SleepHours = v
	}
	if raw := c.Query("steps"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid steps"})
			return
		}
		today.Steps = v
	}

	prediction, err := h.moods.Predict(c.Request.Context(), userID, today)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, prediction)
}
