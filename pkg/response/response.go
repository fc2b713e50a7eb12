package response

import (
	"net/http"
	"strconv"

	"anoa.com/contentscore/pkg/apperror"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// GetUserID retrieves the authenticated user ID from the context
func GetUserID(c *gin.Context) (int64, error) {
	userIDStr := c.GetString("user_id")
	if userIDStr == "" {
		return 0, apperror.ErrUnauthorized
	}

	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil || userID <= 0 {
		return 0, apperror.ErrUnauthorized
	}

	return userID, nil
}

// ResponseError standardized error response
func ResponseError(c *gin.Context, err error) {
	code := apperror.MapErrorToStatus(err)

	// Log internal errors
	if code == http.StatusInternalServerError {
		log.WithError(err).WithField("path", c.FullPath()).Error("internal error")
		c.JSON(code, gin.H{"error": apperror.ErrInternal.Error()})
		return
	}

	c.JSON(code, gin.H{"error": err.Error()})
}
