package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/pnet/pkg/constants"
)

func TestIsCode_FollowsWrappedChain(t *testing.T) {
	base := ErrConfiguration("weights sum to 0.9")
	wrapped := fmt.Errorf("calibrate: %w", base)

	assert.True(t, IsCode(wrapped, constants.ErrCodeConfiguration))
	assert.False(t, IsCode(wrapped, constants.ErrCodePredictionFailure))
	assert.False(t, IsCode(stderrors.New("plain"), constants.ErrCodeConfiguration))
}

func TestErrorMessageIncludesCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := ErrPredictionFailure("scoring call failed").WithCause(cause)

	assert.Equal(t, "scoring call failed: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestExplainerExhaustedMetadata(t *testing.T) {
	err := ErrExplainerExhausted(10, 10)

	assert.Equal(t, constants.ErrCodeExplainerExhausted, err.Code())
	assert.Equal(t, 10, err.Metadata()["failures"])
	assert.Equal(t, http.StatusBadGateway, err.HTTPStatus())
}

func TestToGenericErrorResponse(t *testing.T) {
	testCases := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{"not found", ErrNotFound("control", "AC-9"), "not_found", http.StatusNotFound},
		{"degenerate", ErrDegenerateInput("empty feature matrix"), "degenerate_input", http.StatusUnprocessableEntity},
		{"wrapped", WrapError(stderrors.New("boom"), constants.ErrCodeUnavailable, "redis down"), "temporarily_unavailable", http.StatusServiceUnavailable},
		{"plain", stderrors.New("boom"), "internal_error", http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp, status := ToGenericErrorResponse(tc.err)
			require.NotNil(t, resp)
			assert.Equal(t, tc.wantCode, resp.Error)
			assert.Equal(t, tc.wantStatus, status)
		})
	}
}
