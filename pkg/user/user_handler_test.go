package user

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/HomeLabSky/schoppmann-time-tracking/internal/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_CreateUser(t *testing.T) {
	teardown := setup(t)
	defer teardown()
	handler := NewHandler(service)

	t.Run("should create user with billing settings", func(t *testing.T) {
		body, _ := json.Marshal(UserDTO{
			Username:    "anna",
			DisplayName: "Anna",
			Settings:    SettingsDTO{BillingStartDay: 25, BillingEndDay: 24, HourlyRate: "12.5"},
		})
		req := httptest.NewRequest(http.MethodPost, "/api/user", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		handler.CreateUser(w, req)

		require.Equal(t, http.StatusCreated, w.Code)
		var created UserDTO
		require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
		assert.NotEmpty(t, created.Uid)
		assert.Equal(t, "12.50", created.Settings.HourlyRate)
		assert.Equal(t, 25, created.Settings.BillingStartDay)
	})

	t.Run("should reject invalid hourly rate", func(t *testing.T) {
		body, _ := json.Marshal(UserDTO{Username: "bob", DisplayName: "Bob", Settings: SettingsDTO{HourlyRate: "twelve"}})
		req := httptest.NewRequest(http.MethodPost, "/api/user", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		handler.CreateUser(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("should reject missing username", func(t *testing.T) {
		body, _ := json.Marshal(UserDTO{DisplayName: "Bob"})
		req := httptest.NewRequest(http.MethodPost, "/api/user", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		handler.CreateUser(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var errResponse rest.ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&errResponse))
		assert.Equal(t, "Username is required", errResponse.Error)
	})
}

func TestHandler_UpdateUser_LockedBillingDays(t *testing.T) {
	// given
	teardown := setup(t)
	defer teardown()
	handler := NewHandler(service)
	ctx, created := createTestUser(t)
	entriesStub.hasEntries = true

	dto := userToDTO(&created)
	dto.Settings.BillingStartDay = 1
	dto.Settings.BillingEndDay = 31
	body, _ := json.Marshal(dto)
	req := httptest.NewRequest(http.MethodPut, "/api/user/current", bytes.NewBuffer(body)).WithContext(ctx)
	w := httptest.NewRecorder()

	// when
	handler.UpdateUser(w, req)

	// then
	assert.Equal(t, http.StatusConflict, w.Code)
	var errResponse rest.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&errResponse))
	assert.Equal(t, "ConfigLocked", errResponse.Code)
}

func TestHandler_CurrentUser_NoUser(t *testing.T) {
	teardown := setup(t)
	defer teardown()
	handler := NewHandler(service)
	req := httptest.NewRequest(http.MethodGet, "/api/user/current", nil).WithContext(context.Background())
	w := httptest.NewRecorder()

	handler.CurrentUser(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
