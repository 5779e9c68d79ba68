package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/HomeLabSky/schoppmann-time-tracking/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", errs.Validation("startTime", "invalid format"), http.StatusBadRequest, ""},
		{"wrapped validation", fmt.Errorf("create entry: %w", errs.Validation("date", "missing")), http.StatusBadRequest, ""},
		{"missing limit", errs.Config(errs.CodeNoCurrentSetting, "no limit on 2025-04-01"), http.StatusUnprocessableEntity, errs.CodeNoCurrentSetting},
		{"locked config", errs.Config(errs.CodeConfigLocked, ""), http.StatusConflict, errs.CodeConfigLocked},
		{"overlap", &errs.OverlapError{Kind: "limits", First: "#1", Second: "#2"}, http.StatusConflict, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			WriteError(w, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			var body ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.Equal(t, tt.wantCode, body.Code)
			assert.NotEmpty(t, body.Details)
		})
	}
}

func TestWriteError_Unknown(t *testing.T) {
	w := httptest.NewRecorder()

	WriteError(w, errors.New("connection reset"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "connection reset")
}
