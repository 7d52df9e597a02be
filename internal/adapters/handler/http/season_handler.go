package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Ivan200915/discipline-engine/internal/adapters/handler/http/middleware"
	"github.com/Ivan200915/discipline-engine/internal/core/domain"
	"github.com/Ivan200915/discipline-engine/internal/core/services"
)

type SeasonHandler struct {
	svc    *services.SeasonService
	season *domain.Season
}

func NewSeasonHandler(svc *services.SeasonService, season *domain.Season) *SeasonHandler {
	return &SeasonHandler{
		svc:    svc,
		season: season,
	}
}

type addPointsRequest struct {
	Points int `json:"points" binding:"required"`
}

func (h *SeasonHandler) RegisterRoutes(router *gin.RouterGroup) {
	season := router.Group("/season")
	{
		season.GET("", h.Get)
		season.POST("/evaluate", h.Evaluate)
		season.POST("/points", h.AddPoints)
	}
}

func (h *SeasonHandler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	progress, err := h.svc.Progress(c.Request.Context(), userID, h.season)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"season":   h.season,
		"progress": progress,
	})
}

func (h *SeasonHandler) Evaluate(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.svc.Evaluate(c.Request.Context(), userID, h.season)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *SeasonHandler) AddPoints(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req addPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	if req.Points < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "points cannot be negative"})
		return
	}

	result, err := h.svc.AddPoints(c.Request.Context(), userID, h.season, req.Points)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
