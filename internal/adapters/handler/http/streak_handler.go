package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Ivan200915/discipline-engine/internal/adapters/handler/http/middleware"
	"github.com/Ivan200915/discipline-engine/internal/core/domain"
	"github.com/Ivan200915/discipline-engine/internal/core/services"
)

type StreakHandler struct {
	streaks    *services.StreakService
	protection *services.ProtectionService
}

func NewStreakHandler(streaks *services.StreakService, protection *services.ProtectionService) *StreakHandler {
	return &StreakHandler{
		streaks:    streaks,
		protection: protection,
	}
}

func (h *StreakHandler) RegisterRoutes(router *gin.RouterGroup) {
	streak := router.Group("/streak")
	{
		streak.GET("", h.Get)
		streak.POST("/protect", h.Protect)
	}
}

func (h *StreakHandler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	asOf := c.Query("as_of")
	if asOf != "" {
		if _, err := domain.ParseDay(asOf); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid as_of format, expected YYYY-MM-DD"})
			return
		}
	}

	report, err := h.streaks.Compute(c.Request.Context(), userID, asOf)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

type protectRequest struct {
	Dates []string `json:"dates"`
}

// Protect spends freezes and shield uses on gap days. Without an explicit
// date list it covers the gaps of the current streak report.
func (h *StreakHandler) Protect(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req protectRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
			return
		}
	}

	dates := req.Dates
	if len(dates) == 0 {
		report, err := h.streaks.Compute(c.Request.Context(), userID, "")
		if err != nil {
			handleError(c, err)
			return
		}
		dates = report.GapDates
	}

	inventory, result, err := h.protection.Apply(c.Request.Context(), userID, dates)
	if err != nil {
		handleError(c, err)
		return
	}

	report, err := h.streaks.Compute(c.Request.Context(), userID, "")
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"result":    result,
		"inventory": inventory,
		"streak":    report,
	})
}
