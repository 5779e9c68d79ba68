package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/HomeLabSky/schoppmann-time-tracking/internal/event_bus"
	"github.com/HomeLabSky/schoppmann-time-tracking/pkg/user"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noEntries struct{}

func (noEntries) HasEntries(ctx context.Context, userId int) (bool, error) {
	return false, nil
}

func setupRouter(t *testing.T) (*mux.Router, user.User) {
	userService := user.NewUserService(user.NewStubUserRepository(), noEntries{}, event_bus.NewEventBus())
	created, err := userService.CreateUser(context.Background(), user.User{Username: "anna", DisplayName: "Anna"})
	require.NoError(t, err)

	r := mux.NewRouter()
	r.Use(userContext(userService))
	r.HandleFunc("/open", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.HandleFunc("/protected", requireUser(func(w http.ResponseWriter, req *http.Request) {
		u, err := user.CurrentUser(req.Context())
		require.NoError(t, err)
		w.Header().Set("X-Username", u.Username)
		w.WriteHeader(http.StatusOK)
	}))
	return r, created
}

func TestUserContext(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		header string
		status int
	}{
		{"open route without header", "/open", "", http.StatusNoContent},
		{"protected route without header", "/protected", "", http.StatusForbidden},
		{"unknown user", "/protected", "unknown", http.StatusForbidden},
		{"unknown user on open route", "/open", "unknown", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := setupRouter(t)
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set(userIdHeader, tt.header)
			}
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
		})
	}

	t.Run("known user reaches protected route", func(t *testing.T) {
		r, created := setupRouter(t)
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set(userIdHeader, created.Uid)
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "anna", w.Header().Get("X-Username"))
	})
}
