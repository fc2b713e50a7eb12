package validator

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

type publishRequest struct {
	UserID int64  `validate:"required,min=1"`
	PostID int64  `validate:"required,min=1"`
	Note   string `validate:"max=5"`
}

func TestFormatValidationError(t *testing.T) {
	v := validator.New()

	err := v.Struct(publishRequest{UserID: 0, PostID: 3, Note: "too long note"})

	assert.Equal(t, "user_id is required; note must be at most 5 characters", FormatValidationError(err))
}

func TestFormatValidationErrorPassesThroughOtherErrors(t *testing.T) {
	assert.Equal(t, "boom", FormatValidationError(errors.New("boom")))
}
