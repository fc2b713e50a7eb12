package jobs

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJobsRouter(t *testing.T, rec *fakeRecomputer) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := NewScheduler(time.UTC, time.Minute)
	require.NoError(t, s.Register(NewRecomputeJob(rec, "")))

	h := NewHandler(s)
	router := gin.New()
	router.GET("/jobs", h.List)
	router.POST("/jobs/:name/run", h.Run)
	return router
}

func TestHandler_List(t *testing.T) {
	router := newJobsRouter(t, &fakeRecomputer{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/jobs", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":["snapshot-recompute"]}`, w.Body.String())
}

func TestHandler_Run(t *testing.T) {
	tests := []struct {
		name     string
		job      string
		jobErr   error
		wantCode int
		wantRuns int
	}{
		{name: "runs registered job", job: "snapshot-recompute", wantCode: http.StatusOK, wantRuns: 1},
		{name: "unknown job", job: "missing", wantCode: http.StatusNotFound},
		{name: "job failure", job: "snapshot-recompute", jobErr: errors.New("db down"), wantCode: http.StatusInternalServerError, wantRuns: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &fakeRecomputer{err: tt.jobErr}
			router := newJobsRouter(t, rec)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/jobs/"+tt.job+"/run", nil))
			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantRuns, rec.calls)
		})
	}
}
