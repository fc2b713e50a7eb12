package http

import (
	"net/http"
	"strconv"

	scoringDto "anoa.com/contentscore/internal/modules/scoring/dto"
	scoringService "anoa.com/contentscore/internal/modules/scoring/service"
	"anoa.com/contentscore/pkg/response"
	"anoa.com/contentscore/pkg/validator"
	"github.com/gin-gonic/gin"
)

type ScoringHandler struct {
	service scoringService.ScoringService
}

func NewScoringHandler(service scoringService.ScoringService) *ScoringHandler {
	return &ScoringHandler{service: service}
}

// PublishEvent is called by the posting subsystem once a post is live.
func (h *ScoringHandler) PublishEvent(c *gin.Context) {
	var req scoringDto.PublishEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	result, err := h.service.HandlePublishEvent(c.Request.Context(), req.UserID, req.PostID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (h *ScoringHandler) GetMyScore(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	score, err := h.service.GetUserScore(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": score})
}

func (h *ScoringHandler) GetMyAchievements(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	achievements, err := h.service.GetUserAchievements(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": achievements})
}

func (h *ScoringHandler) GetMyPointHistory(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(scoringService.DefaultHistoryLimit)))

	history, err := h.service.GetPointHistory(c.Request.Context(), userID, limit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": history})
}

func (h *ScoringHandler) AdjustPoints(c *gin.Context) {
	var req scoringDto.AdjustPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	score, err := h.service.AdjustPoints(c.Request.Context(), req.UserID, req.Points, req.Note)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": score})
}

func (h *ScoringHandler) Recompute(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	snapshot, err := h.service.Recompute(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": snapshot})
}
