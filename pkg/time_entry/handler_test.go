package time_entry

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/HomeLabSky/schoppmann-time-tracking/internal/rest"
	"github.com/HomeLabSky/schoppmann-time-tracking/pkg/user"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A middleware that sets the user in the context
func withUser(u user.User, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(user.WithUser(r.Context(), u)))
	})
}

func setupHandlerTest(t *testing.T) (*mux.Router, func()) {
	teardown := setup(t)
	handler := NewHandler(service)
	router := mux.NewRouter()
	router.Handle("/api/entry", withUser(testUser, http.HandlerFunc(handler.GetEntries))).Methods("GET")
	router.Handle("/api/entry", withUser(testUser, http.HandlerFunc(handler.CreateEntry))).Methods("POST")
	router.Handle("/api/entry/{entryUid}", withUser(testUser, http.HandlerFunc(handler.UpdateEntry))).Methods("PUT")
	router.Handle("/api/entry/{entryUid}", withUser(testUser, http.HandlerFunc(handler.DeleteEntry))).Methods("DELETE")
	return router, teardown
}

func postEntry(t *testing.T, router *mux.Router, dto EntryDTO) *httptest.ResponseRecorder {
	body, err := json.Marshal(dto)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/entry", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandler_CreateEntry(t *testing.T) {
	t.Run("should create entry and return worked minutes", func(t *testing.T) {
		router, teardown := setupHandlerTest(t)
		defer teardown()

		// when
		w := postEntry(t, router, EntryDTO{Date: "2025-04-03", StartTime: "23:00", EndTime: "01:00"})

		// then
		assert.Equal(t, http.StatusCreated, w.Code)
		var created EntryDTO
		require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
		assert.NotEmpty(t, created.Uid)
		assert.Equal(t, "2025-04-03", created.Date)
		assert.Equal(t, 120, created.WorkedMinutes)
	})

	t.Run("should reject malformed time", func(t *testing.T) {
		router, teardown := setupHandlerTest(t)
		defer teardown()

		// when
		w := postEntry(t, router, EntryDTO{Date: "2025-04-03", StartTime: "9:00", EndTime: "12:00"})

		// then
		assert.Equal(t, http.StatusBadRequest, w.Code)
		var errResponse rest.ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&errResponse))
		assert.Contains(t, errResponse.Details, "HH:MM")
	})

	t.Run("should reject sub-minimum shift", func(t *testing.T) {
		router, teardown := setupHandlerTest(t)
		defer teardown()

		// when
		w := postEntry(t, router, EntryDTO{Date: "2025-04-03", StartTime: "09:00", EndTime: "09:10"})

		// then
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("should reject invalid body", func(t *testing.T) {
		router, teardown := setupHandlerTest(t)
		defer teardown()

		// given
		req := httptest.NewRequest(http.MethodPost, "/api/entry", bytes.NewBufferString("{"))
		w := httptest.NewRecorder()

		// when
		router.ServeHTTP(w, req)

		// then
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandler_GetEntries(t *testing.T) {
	t.Run("should list entries of a date range", func(t *testing.T) {
		router, teardown := setupHandlerTest(t)
		defer teardown()

		// given
		require.Equal(t, http.StatusCreated, postEntry(t, router, EntryDTO{Date: "2025-04-03", StartTime: "09:00", EndTime: "12:00"}).Code)
		require.Equal(t, http.StatusCreated, postEntry(t, router, EntryDTO{Date: "2025-05-03", StartTime: "09:00", EndTime: "12:00"}).Code)
		req := httptest.NewRequest(http.MethodGet, "/api/entry?from=2025-04-01&to=2025-04-30", nil)
		w := httptest.NewRecorder()

		// when
		router.ServeHTTP(w, req)

		// then
		assert.Equal(t, http.StatusOK, w.Code)
		var entries []EntryDTO
		require.NoError(t, json.NewDecoder(w.Body).Decode(&entries))
		require.Len(t, entries, 1)
		assert.Equal(t, "2025-04-03", entries[0].Date)
		assert.Equal(t, 180, entries[0].WorkedMinutes)
	})

	t.Run("should list entries of a billing period", func(t *testing.T) {
		router, teardown := setupHandlerTest(t)
		defer teardown()

		// given
		require.Equal(t, http.StatusCreated, postEntry(t, router, EntryDTO{Date: "2025-03-26", StartTime: "09:00", EndTime: "12:00"}).Code)
		require.Equal(t, http.StatusCreated, postEntry(t, router, EntryDTO{Date: "2025-04-25", StartTime: "09:00", EndTime: "12:00"}).Code)
		req := httptest.NewRequest(http.MethodGet, "/api/entry?period=2025-04", nil)
		w := httptest.NewRecorder()

		// when
		router.ServeHTTP(w, req)

		// then
		assert.Equal(t, http.StatusOK, w.Code)
		var result PeriodEntriesDTO
		require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
		assert.Equal(t, "2025-04", result.Period)
		assert.Equal(t, "2025-03-25", result.Start)
		assert.Equal(t, "2025-04-24", result.End)
		require.Len(t, result.Entries, 1)
		assert.Equal(t, "2025-03-26", result.Entries[0].Date)
	})

	t.Run("should reject invalid from date", func(t *testing.T) {
		router, teardown := setupHandlerTest(t)
		defer teardown()

		// given
		req := httptest.NewRequest(http.MethodGet, "/api/entry?from=invalid-date&to=2025-04-30", nil)
		w := httptest.NewRecorder()

		// when
		router.ServeHTTP(w, req)

		// then
		assert.Equal(t, http.StatusBadRequest, w.Code)
		var errResponse rest.ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&errResponse))
		assert.Contains(t, errResponse.Error, "Invalid from (date) format")
	})

	t.Run("should reject invalid period", func(t *testing.T) {
		router, teardown := setupHandlerTest(t)
		defer teardown()

		// given
		req := httptest.NewRequest(http.MethodGet, "/api/entry?period=2025-13", nil)
		w := httptest.NewRecorder()

		// when
		router.ServeHTTP(w, req)

		// then
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandler_UpdateEntry(t *testing.T) {
	t.Run("should update entry by path uid", func(t *testing.T) {
		router, teardown := setupHandlerTest(t)
		defer teardown()

		// given
		var created EntryDTO
		require.NoError(t, json.NewDecoder(postEntry(t, router, EntryDTO{Date: "2025-04-03", StartTime: "09:00", EndTime: "12:00"}).Body).Decode(&created))
		body, _ := json.Marshal(EntryDTO{Date: "2025-04-04", StartTime: "10:00", EndTime: "12:00", BreakMinutes: 30})
		req := httptest.NewRequest(http.MethodPut, "/api/entry/"+created.Uid, bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		// when
		router.ServeHTTP(w, req)

		// then
		assert.Equal(t, http.StatusOK, w.Code)
		var updated EntryDTO
		require.NoError(t, json.NewDecoder(w.Body).Decode(&updated))
		assert.Equal(t, created.Uid, updated.Uid)
		assert.Equal(t, "2025-04-04", updated.Date)
		assert.Equal(t, 90, updated.WorkedMinutes)
	})

	t.Run("should return 404 for unknown entry", func(t *testing.T) {
		router, teardown := setupHandlerTest(t)
		defer teardown()

		// given
		body, _ := json.Marshal(EntryDTO{Date: "2025-04-04", StartTime: "10:00", EndTime: "12:00"})
		req := httptest.NewRequest(http.MethodPut, "/api/entry/missing", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		// when
		router.ServeHTTP(w, req)

		// then
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHandler_DeleteEntry(t *testing.T) {
	router, teardown := setupHandlerTest(t)
	defer teardown()

	// given
	var created EntryDTO
	require.NoError(t, json.NewDecoder(postEntry(t, router, EntryDTO{Date: "2025-04-03", StartTime: "09:00", EndTime: "12:00"}).Body).Decode(&created))

	// when
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/entry/"+created.Uid, nil))

	// then
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/entry/"+created.Uid, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_RequiresUser(t *testing.T) {
	teardown := setup(t)
	defer teardown()

	// given
	handler := NewHandler(service)
	req := httptest.NewRequest(http.MethodGet, "/api/entry?from=2025-04-01&to=2025-04-30", nil).WithContext(context.Background())
	w := httptest.NewRecorder()

	// when
	handler.GetEntries(w, req)

	// then
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
