package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func respond(t *testing.T, err error) (int, Envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	RespondError(rec, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec.Code, env
}

func TestRespondErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{ErrNotFound, http.StatusNotFound},
		{ErrDuplicate, http.StatusConflict},
		{ErrValidation, http.StatusBadRequest},
		{ErrForbidden, http.StatusForbidden},
		{ErrUnauthorized, http.StatusUnauthorized},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		code, env := respond(t, tc.err)
		assert.Equal(t, tc.status, code)
		assert.False(t, env.Success)
	}
}

func TestRespondErrorInternalKeepsDetail(t *testing.T) {
	err := fmt.Errorf("orders: order update failed: %w",
		fmt.Errorf("orders: update basket 7: value out of range"))

	code, env := respond(t, err)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Internal server error", env.Message)
	assert.Contains(t, env.ErrorDetails, "update basket 7")
}

func TestRespondErrorWrappedSentinel(t *testing.T) {
	err := fmt.Errorf("purchasing: order 9: %w", ErrNotFound)
	code, env := respond(t, err)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Contains(t, env.ErrorDetails, "order 9")
}
