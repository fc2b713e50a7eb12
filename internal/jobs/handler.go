package jobs

import (
	"context"
	"net/http"

	"anoa.com/contentscore/pkg/response"
	"github.com/gin-gonic/gin"
)

// Runner is the part of Scheduler the admin API needs.
type Runner interface {
	RunByName(ctx context.Context, name string) error
	Names() []string
}

type Handler struct {
	runner Runner
}

func NewHandler(runner Runner) *Handler {
	return &Handler{runner: runner}
}

func (h *Handler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.runner.Names()})
}

// Run executes a job by name and waits for it to finish.
func (h *Handler) Run(c *gin.Context) {
	name := c.Param("name")
	if err := h.runner.RunByName(c.Request.Context(), name); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "job completed", "job": name})
}
