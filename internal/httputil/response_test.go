package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/astroconsult/consult-server-go/internal/errors"
)

func TestWriteError(t *testing.T) {
	t.Run("app error uses detail string", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteError(rec, apperrors.InvalidOTP())

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "Invalid OTP", body["detail"])
		assert.Equal(t, "INVALID_OTP", body["code"])
	})

	t.Run("field errors render as detail array", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteError(rec, apperrors.InvalidFields(apperrors.Field("mobile", "mobile must be 10 digits")))

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		var body struct {
			Detail []apperrors.FieldError `json:"detail"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Detail, 1)
		assert.Equal(t, "mobile must be 10 digits", body.Detail[0].Msg)
		assert.Equal(t, []string{"body", "mobile"}, body.Detail[0].Loc)
	})

	t.Run("unknown error is internal", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteError(rec, errors.New("boom"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "boom")
	})
}

func TestStatusFromCode(t *testing.T) {
	tests := []struct {
		code   apperrors.ErrorCode
		status int
	}{
		{apperrors.ErrCodeUnauthorized, http.StatusUnauthorized},
		{apperrors.ErrCodeInsufficientBalance, http.StatusPaymentRequired},
		{apperrors.ErrCodeNotReady, http.StatusConflict},
		{apperrors.ErrCodeRateLimitExceeded, http.StatusTooManyRequests},
		{apperrors.ErrCodeExternal, http.StatusBadGateway},
		{apperrors.ErrorCode("UNKNOWN"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(string(tc.code), func(t *testing.T) {
			assert.Equal(t, tc.status, StatusFromCode(tc.code))
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Mobile string `json:"mobile"`
	}

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"mobile":"9876543210"}`))
	require.NoError(t, DecodeJSON(r, &dst))
	assert.Equal(t, "9876543210", dst.Mobile)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{bad`))
	err := DecodeJSON(r, &dst)
	assert.Equal(t, apperrors.ErrCodeValidation, apperrors.GetCode(err))
}
