package http

import (
	"net/http"
	"strconv"

	leaderboardService "anoa.com/contentscore/internal/modules/leaderboard/service"
	"anoa.com/contentscore/pkg/response"
	"github.com/gin-gonic/gin"
)

type LeaderboardHandler struct {
	service leaderboardService.LeaderboardService
}

func NewLeaderboardHandler(service leaderboardService.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{service: service}
}

func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", strconv.Itoa(leaderboardService.DefaultLimit))
	limit, _ := strconv.Atoi(limitStr)

	leaderboard, err := h.service.GetLeaderboard(c.Request.Context(), leaderboardService.ClampLimit(limit))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": leaderboard})
}
