package http

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Ivan200915/discipline-engine/internal/adapters/handler/http/middleware"
	"github.com/Ivan200915/discipline-engine/internal/core/domain"
	"github.com/Ivan200915/discipline-engine/internal/core/services"
)

type LogHandler struct {
	svc *services.LedgerService
}

func NewLogHandler(svc *services.LedgerService) *LogHandler {
	return &LogHandler{
		svc: svc,
	}
}

type logDayRequest struct {
	Habits      []domain.HabitCompletion `json:"habits"`
	Metrics     domain.DayMetrics        `json:"metrics"`
	CheckIn     *domain.CheckIn          `json:"check_in"`
	MealsLogged int                      `json:"meals_logged"`
}

func (h *LogHandler) RegisterRoutes(router *gin.RouterGroup) {
	logs := router.Group("/logs")
	{
		logs.GET("", h.ListRange)
		logs.GET("/sync", h.Sync)
		logs.GET("/:date", h.GetDay)
		logs.PUT("/:date", h.LogDay)
		logs.POST("/:date/close", h.CloseDay)
		logs.POST("/:date/supersede", h.Supersede)
	}
}

func (h *LogHandler) LogDay(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req logDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	entry, err := h.svc.LogDay(c.Request.Context(), services.LogDayInput{
		UserID:      userID,
		Date:        c.Param("date"),
		Habits:      req.Habits,
		Metrics:     req.Metrics,
		CheckIn:     req.CheckIn,
		MealsLogged: req.MealsLogged,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}

func (h *LogHandler) CloseDay(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	entry, err := h.svc.CloseDay(c.Request.Context(), userID, c.Param("date"))
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}

func (h *LogHandler) Supersede(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req logDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	correction, err := h.svc.Supersede(c.Request.Context(), services.LogDayInput{
		UserID:      userID,
		Date:        c.Param("date"),
		Habits:      req.Habits,
		Metrics:     req.Metrics,
		CheckIn:     req.CheckIn,
		MealsLogged: req.MealsLogged,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, correction)
}

func (h *LogHandler) GetDay(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	entry, err := h.svc.GetDay(c.Request.Context(), userID, c.Param("date"))
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}

func (h *LogHandler) ListRange(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	today := time.Now().UTC()
	to := c.DefaultQuery("to", domain.FormatDay(today))
	from := c.DefaultQuery("from", domain.FormatDay(today.AddDate(0, 0, -30)))

	if from > to {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from cannot be after to"})
		return
	}

	logs, err := h.svc.ListRange(c.Request.Context(), userID, from, to)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, logs)
}

func (h *LogHandler) Sync(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	sinceStr := c.Query("since")
	var since time.Time

	if sinceStr != "" {
		var err error
		since, err = time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date format (use RFC3339)"})
			return
		}
	}

	changes, err := h.svc.GetDelta(c.Request.Context(), userID, since)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"changes":   changes,
		"timestamp": time.Now().UTC(),
	})
}

func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "unauthorized access"})

	case errors.Is(err, domain.ErrLogNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})

	case errors.Is(err, domain.ErrLogClosed):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "day is closed",
			"message": "closed entries are immutable, use supersede to correct them",
		})

	case errors.Is(err, domain.ErrLogConflict):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "version conflict",
			"message": "data has been modified elsewhere, please sync",
		})

	case errors.Is(err, domain.ErrLogNotClosed),
		errors.Is(err, domain.ErrInvalidDate),
		errors.Is(err, domain.ErrInvalidMood),
		errors.Is(err, domain.ErrInvalidEnergy),
		errors.Is(err, domain.ErrNegativeMetric),
		errors.Is(err, domain.ErrInvalidHabitID),
		errors.Is(err, domain.ErrUnknownMetric),
		errors.Is(err, domain.ErrUnknownShieldTier),
		errors.Is(err, domain.ErrNegativeFreezes),
		errors.Is(err, domain.ErrInvalidSeason),
		errors.Is(err, domain.ErrInvalidChallengeType),
		errors.Is(err, domain.ErrNegativePoints):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	default:
		log.Printf("[ERROR] Request %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)

		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
