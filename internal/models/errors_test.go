package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", NewValidationError("bad"), fiber.StatusBadRequest},
		{"not found", NewNotFoundError("Post", "abc"), fiber.StatusNotFound},
		{"unauthorized", NewUnauthorizedError("nope"), fiber.StatusUnauthorized},
		{"external", NewExternalServiceError("image storage", errors.New("timeout")), fiber.StatusBadGateway},
		{"internal", NewInternalError(errors.New("boom")), fiber.StatusInternalServerError},
		{"wrapped", fmt.Errorf("ctx: %w", NewNotFoundError("Comment", 1)), fiber.StatusNotFound},
		{"plain", errors.New("plain"), fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	err := NewNotFoundError("Comment", "c1")
	assert.True(t, IsNotFound(err, "Comment"))
	assert.True(t, IsNotFound(err, ""))
	assert.False(t, IsNotFound(err, "Post"))
	assert.False(t, IsNotFound(NewValidationError("x"), ""))
	assert.False(t, IsNotFound(nil, ""))
}

func TestAppErrorMessage(t *testing.T) {
	t.Parallel()

	err := NewExternalServiceError("image storage", errors.New("connection reset"))
	assert.Equal(t, "image storage request failed: connection reset", err.Error())
	assert.ErrorContains(t, errors.Unwrap(err), "connection reset")
}
