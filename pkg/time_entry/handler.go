package time_entry

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/HomeLabSky/schoppmann-time-tracking/internal/rest"
	"github.com/HomeLabSky/schoppmann-time-tracking/pkg/billing_period"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type EntryDTO struct {
	Uid          string `json:"uid"`
	Date         string `json:"date"`
	StartTime    string `json:"startTime"`
	EndTime      string `json:"endTime"`
	BreakMinutes int    `json:"breakMinutes"`
	Description  string `json:"description"`
	// WorkedMinutes is computed and ignored on input.
	WorkedMinutes int `json:"workedMinutes"`
}

type PeriodEntriesDTO struct {
	Period  string     `json:"period"`
	Label   string     `json:"label"`
	Start   string     `json:"start"`
	End     string     `json:"end"`
	Entries []EntryDTO `json:"entries"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// GetEntries godoc
// @Summary List time entries
// @Description List entries either between two dates (inclusive) or of one billing period
// @Tags TimeEntry
// @Produce json
// @Param from query string false "First date (YYYY-MM-DD)"
// @Param to query string false "Last date (YYYY-MM-DD)"
// @Param period query string false "Billing period key (YYYY-MM)"
// @Success 200 {array} EntryDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Failure 422 {object} rest.ErrorResponse "Billing period not configured"
// @Router /api/entry [get]
// @Security XUserId
func (h *Handler) GetEntries(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if periodString := query.Get("period"); periodString != "" {
		key, err := billing_period.KeyFromString(periodString)
		if err != nil {
			rest.WriteBadRequest(w, "Invalid period format", "'period' must be in YYYY-MM format")
			return
		}
		period, entries, err := h.service.ListPeriodEntries(r.Context(), key)
		if err != nil {
			rest.WriteError(w, err)
			return
		}
		rest.WriteJSON(w, http.StatusOK, PeriodEntriesDTO{
			Period:  period.Key.String(),
			Label:   period.Label,
			Start:   period.Start.Format(DateLayout),
			End:     period.End.Format(DateLayout),
			Entries: entriesToDTOs(entries),
		})
		return
	}

	from, err := ParseDate(query.Get("from"))
	if err != nil {
		rest.WriteBadRequest(w, "Invalid from (date) format", "'from' must be in YYYY-MM-DD format")
		return
	}
	to, err := ParseDate(query.Get("to"))
	if err != nil {
		rest.WriteBadRequest(w, "Invalid to (date) format", "'to' must be in YYYY-MM-DD format")
		return
	}

	entries, err := h.service.ListEntries(r.Context(), from, to)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, entriesToDTOs(entries))
	log.Tracef("Entries returned: %d", len(entries))
}

// CreateEntry godoc
// @Summary Record a time entry
// @Tags TimeEntry
// @Accept json
// @Produce json
// @Param entry body EntryDTO true "Entry"
// @Success 201 {object} EntryDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid entry"
// @Failure 422 {object} rest.ErrorResponse "Billing period not configured"
// @Router /api/entry [post]
// @Security XUserId
func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var entryDTO EntryDTO
	if err := json.NewDecoder(r.Body).Decode(&entryDTO); err != nil {
		rest.WriteBadRequest(w, "Invalid request body format", err.Error())
		return
	}
	entry, err := dtoToEntry(entryDTO)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	created, err := h.service.CreateEntry(r.Context(), entry)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, entryToDTO(created))
}

// UpdateEntry godoc
// @Summary Update a time entry
// @Tags TimeEntry
// @Accept json
// @Produce json
// @Param entryUid path string true "Entry uid"
// @Param entry body EntryDTO true "Entry"
// @Success 200 {object} EntryDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid entry"
// @Failure 404 {string} string "Entry not found"
// @Router /api/entry/{entryUid} [put]
// @Security XUserId
func (h *Handler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	var entryDTO EntryDTO
	if err := json.NewDecoder(r.Body).Decode(&entryDTO); err != nil {
		rest.WriteBadRequest(w, "Invalid request body format", err.Error())
		return
	}
	entry, err := dtoToEntry(entryDTO)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	entry.Uid = mux.Vars(r)["entryUid"]

	updated, err := h.service.UpdateEntry(r.Context(), entry)
	if err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, entryToDTO(updated))
}

// DeleteEntry godoc
// @Summary Delete a time entry
// @Tags TimeEntry
// @Param entryUid path string true "Entry uid"
// @Success 204
// @Failure 404 {string} string "Entry not found"
// @Router /api/entry/{entryUid} [delete]
// @Security XUserId
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	entryUid := mux.Vars(r)["entryUid"]
	err := h.service.DeleteEntry(r.Context(), entryUid)
	if err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		rest.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func entriesToDTOs(entries []Entry) []EntryDTO {
	dtos := make([]EntryDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, entryToDTO(e))
	}
	return dtos
}

func entryToDTO(e Entry) EntryDTO {
	return EntryDTO{
		Uid:           e.Uid,
		Date:          e.Date.Format(DateLayout),
		StartTime:     e.Start.String(),
		EndTime:       e.End.String(),
		BreakMinutes:  e.BreakMinutes,
		Description:   e.Description,
		WorkedMinutes: e.WorkedMinutes(),
	}
}

func dtoToEntry(dto EntryDTO) (Entry, error) {
	date, err := ParseDate(dto.Date)
	if err != nil {
		return Entry{}, err
	}
	start, err := ParseClockTime(dto.StartTime)
	if err != nil {
		return Entry{}, err
	}
	end, err := ParseClockTime(dto.EndTime)
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		Uid:          dto.Uid,
		Date:         date,
		Start:        start,
		End:          end,
		BreakMinutes: dto.BreakMinutes,
		Description:  dto.Description,
	}, nil
}

