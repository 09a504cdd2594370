package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxtravel/portico/pkg/errs"
)

func TestWriteSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	require.NoError(t, WriteSuccess(w, map[string]string{"key": "value"}))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var envelope Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	assert.NotNil(t, envelope.Data)
}

func TestWriteError_Mapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "not found with stable code",
			err:        errs.NewNotFound("PROVIDER_NOT_FOUND", "provider 1 not found"),
			wantStatus: http.StatusNotFound,
			wantCode:   "PROVIDER_NOT_FOUND",
		},
		{
			name:       "not found without code",
			err:        errs.NewNotFound("", "gone"),
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
		{
			name:       "validation",
			err:        errs.NewValidation("bad input"),
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name:       "forbidden",
			err:        errs.NewForbidden("admin role required"),
			wantStatus: http.StatusForbidden,
			wantCode:   "FORBIDDEN",
		},
		{
			name:       "authentication",
			err:        errs.NewAuthentication("bad credentials"),
			wantStatus: http.StatusUnauthorized,
			wantCode:   "UNAUTHORIZED",
		},
		{
			name:       "unknown error stays opaque",
			err:        errors.New("pq: connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)

			var body ErrorBody
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Code)
			if tt.wantStatus == http.StatusInternalServerError {
				assert.NotContains(t, body.Error, "pq:")
			}
		})
	}
}

func TestWriteError_ValidationFields(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, errs.NewFieldValidation("invalid provider configuration", map[string]string{
		"sso_url": "must be a well-formed URL",
	}))

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "must be a well-formed URL", body.Fields["sso_url"])
}

func TestWriteError_WrappedErrors(t *testing.T) {
	// errors.As must see through wrapping
	wrapped := &errs.NotFoundError{Code: "PROVIDER_NOT_FOUND", Message: "provider 9 not found"}
	w := httptest.NewRecorder()
	WriteError(w, errors.Join(errors.New("context"), wrapped))

	assert.Equal(t, http.StatusNotFound, w.Code)
}
