package apperror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConditionsWrapTheirCategory(t *testing.T) {
	assert.ErrorIs(t, ErrEmptyContent, ErrValidation)
	assert.ErrorIs(t, ErrAlreadyMember, ErrConflict)
	assert.ErrorIs(t, ErrDuplicatePending, ErrConflict)
	assert.ErrorIs(t, ErrInvalidTransition, ErrConflict)
	assert.NotErrorIs(t, ErrAlreadyMember, ErrDuplicatePending)
}

func TestRemote(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, Remote(nil))
	})

	t.Run("keeps the cause message", func(t *testing.T) {
		err := Remote(errors.New("connection refused"))
		assert.ErrorIs(t, err, ErrRemote)
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("does not double wrap", func(t *testing.T) {
		once := Remote(errors.New("boom"))
		assert.Equal(t, once, Remote(once))
	})

	t.Run("context errors pass through", func(t *testing.T) {
		err := Remote(fmt.Errorf("query: %w", context.Canceled))
		assert.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, ErrRemote)
	})
}

func TestMapErrorToStatus(t *testing.T) {
	cases := map[string]struct {
		err  error
		want int
	}{
		"not found":       {fmt.Errorf("user: %w", ErrNotFound), http.StatusNotFound},
		"unauthenticated": {ErrUnauthenticated, http.StatusUnauthorized},
		"forbidden":       {ErrForbidden, http.StatusForbidden},
		"validation":      {ErrEmptyContent, http.StatusBadRequest},
		"conflict":        {ErrDuplicatePending, http.StatusConflict},
		"rate limit":      {ErrRateLimitExceeded, http.StatusTooManyRequests},
		"remote":          {Remote(errors.New("down")), http.StatusBadGateway},
		"app error code":  {New(http.StatusTeapot, "teapot", nil), http.StatusTeapot},
		"unknown":         {errors.New("what"), http.StatusInternalServerError},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, MapErrorToStatus(tc.err))
		})
	}
}
