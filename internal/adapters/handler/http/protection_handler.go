package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Ivan200915/discipline-engine/internal/adapters/handler/http/middleware"
	"github.com/Ivan200915/discipline-engine/internal/core/domain"
	"github.com/Ivan200915/discipline-engine/internal/core/services"
)

type ProtectionHandler struct {
	protection *services.ProtectionService
	streaks    *services.StreakService
}

func NewProtectionHandler(protection *services.ProtectionService, streaks *services.StreakService) *ProtectionHandler {
	return &ProtectionHandler{
		protection: protection,
		streaks:    streaks,
	}
}

type purchaseShieldRequest struct {
	Tier string `json:"tier" binding:"required"`
}

type purchaseFreezesRequest struct {
	Count int `json:"count" binding:"required"`
}

func (h *ProtectionHandler) RegisterRoutes(router *gin.RouterGroup) {
	protection := router.Group("/protection")
	{
		protection.GET("", h.Status)
		protection.GET("/tiers", h.Tiers)
		protection.POST("/shield", h.PurchaseShield)
		protection.POST("/freezes", h.PurchaseFreezes)
		protection.POST("/earn", h.EarnFreeze)
	}
}

func (h *ProtectionHandler) Status(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	inventory, err := h.protection.Status(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, inventory)
}

func (h *ProtectionHandler) Tiers(c *gin.Context) {
	c.JSON(http.StatusOK, domain.ShieldTiers)
}

func (h *ProtectionHandler) PurchaseShield(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req purchaseShieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	inventory, err := h.protection.PurchaseShield(c.Request.Context(), userID, req.Tier)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, inventory)
}

func (h *ProtectionHandler) PurchaseFreezes(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req purchaseFreezesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	inventory, err := h.protection.PurchaseFreezes(c.Request.Context(), userID, req.Count)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, inventory)
}

// EarnFreeze awards a milestone freeze when the current streak sits exactly
// on a multiple of the earn interval.
func (h *ProtectionHandler) EarnFreeze(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	report, err := h.streaks.Compute(c.Request.Context(), userID, "")
	if err != nil {
		handleError(c, err)
		return
	}

	earned, err := h.protection.EarnFreeze(c.Request.Context(), userID, report.CurrentStreak)
	if err != nil {
		handleError(c, err)
		return
	}

	inventory, err := h.protection.Status(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"earned":    earned,
		"streak":    report.CurrentStreak,
		"inventory": inventory,
	})
}
