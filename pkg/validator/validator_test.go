package validator

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

type createGroupRequest struct {
	Title    string `validate:"required,max=10"`
	Username string `validate:"min=3"`
	ImageURL string `validate:"omitempty,url"`
}

func TestFormatValidationError(t *testing.T) {
	v := validator.New()

	err := v.Struct(createGroupRequest{Username: "ab", ImageURL: "nope"})
	msg := FormatValidationError(err)

	assert.Contains(t, msg, "Title is required")
	assert.Contains(t, msg, "Username must be at least 3 characters")
	assert.Contains(t, msg, "Image URL must be a valid URL")
}

func TestFormatValidationErrorPlain(t *testing.T) {
	assert.Equal(t, "boom", FormatValidationError(errors.New("boom")))
}
