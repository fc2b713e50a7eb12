package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"anoa.com/contentscore/internal/entity"
	scoringDto "anoa.com/contentscore/internal/modules/scoring/dto"
	"anoa.com/contentscore/pkg/apperror"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubService struct {
	publishErr   error
	historyLimit int
	adjusted     int
}

func (s *stubService) HandlePublishEvent(_ context.Context, userID, postID int64) (*scoringDto.ScoringResult, error) {
	if s.publishErr != nil {
		return nil, s.publishErr
	}
	return &scoringDto.ScoringResult{PointsAwarded: 35, CurrentStreak: 1}, nil
}

func (s *stubService) AdjustPoints(_ context.Context, userID int64, points int, note string) (*scoringDto.UserScoreResponse, error) {
	s.adjusted = points
	return &scoringDto.UserScoreResponse{UserID: userID, TotalPoints: int64(points)}, nil
}

func (s *stubService) Recompute(_ context.Context, userID int64) (*entity.UserScore, error) {
	return &entity.UserScore{UserID: userID}, nil
}

func (s *stubService) RecomputeAll(context.Context) (int, error) { return 0, nil }

func (s *stubService) GetUserScore(_ context.Context, userID int64) (*scoringDto.UserScoreResponse, error) {
	return &scoringDto.UserScoreResponse{UserID: userID}, nil
}

func (s *stubService) GetUserAchievements(context.Context, int64) ([]scoringDto.AchievementResponse, error) {
	return []scoringDto.AchievementResponse{}, nil
}

func (s *stubService) GetPointHistory(_ context.Context, _ int64, limit int) ([]scoringDto.PointTransactionResponse, error) {
	s.historyLimit = limit
	return []scoringDto.PointTransactionResponse{}, nil
}

func newRouter(svc *stubService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewScoringHandler(svc)

	r := gin.New()
	r.POST("/events/publish", h.PublishEvent)
	r.POST("/adjustments", h.AdjustPoints)
	r.POST("/recompute/:user_id", h.Recompute)

	authed := r.Group("/", func(c *gin.Context) {
		c.Set("user_id", "7")
		c.Next()
	})
	authed.GET("/score", h.GetMyScore)
	authed.GET("/achievements", h.GetMyAchievements)
	authed.GET("/point-history", h.GetMyPointHistory)
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestPublishEvent(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		publishErr error
		wantStatus int
		wantBody   string
	}{
		{"scored", `{"user_id":1,"post_id":2}`, nil, http.StatusOK, `"points_awarded":35`},
		{"missing post", `{"user_id":1}`, nil, http.StatusBadRequest, "post_id is required"},
		{"negative user", `{"user_id":-1,"post_id":2}`, nil, http.StatusBadRequest, "user_id must be greater than 0"},
		{"already scored", `{"user_id":1,"post_id":2}`, apperror.Conflict("post 2 was already scored"), http.StatusConflict, "already scored"},
		{"unknown post", `{"user_id":1,"post_id":2}`, apperror.NotFound("post 2 not found"), http.StatusNotFound, "not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(&stubService{publishErr: tt.publishErr})
			w := do(r, http.MethodPost, "/events/publish", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}

func TestPointHistoryLimit(t *testing.T) {
	svc := &stubService{}
	r := newRouter(svc)

	w := do(r, http.MethodGet, "/point-history", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 50, svc.historyLimit)

	do(r, http.MethodGet, "/point-history?limit=5", "")
	assert.Equal(t, 5, svc.historyLimit)
}

func TestAuthenticatedReads(t *testing.T) {
	r := newRouter(&stubService{})

	w := do(r, http.MethodGet, "/score", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":7`)

	w = do(r, http.MethodGet, "/achievements", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[]}`, w.Body.String())
}

func TestAdjustPointsAndRecompute(t *testing.T) {
	svc := &stubService{}
	r := newRouter(svc)

	w := do(r, http.MethodPost, "/adjustments", `{"user_id":3,"points":-20,"note":"spam"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, -20, svc.adjusted)

	w = do(r, http.MethodPost, "/adjustments", `{"user_id":3,"points":0,"note":"noop"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/recompute/3", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPost, "/recompute/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
