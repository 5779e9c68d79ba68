package ledger

import (
	"net/http"
	"strconv"

	"github.com/HomeLabSky/schoppmann-time-tracking/internal/rest"
	"github.com/HomeLabSky/schoppmann-time-tracking/pkg/billing_period"
	log "github.com/sirupsen/logrus"
)

// EntryDTO carries money as decimal strings with two places.
type EntryDTO struct {
	Period         string `json:"period"`
	Label          string `json:"label"`
	Start          string `json:"start"`
	End            string `json:"end"`
	IsCurrent      bool   `json:"isCurrent"`
	EntryCount     int    `json:"entryCount"`
	TotalMinutes   int    `json:"totalMinutes"`
	TotalHours     string `json:"totalHours"`
	GrossEarnings  string `json:"grossEarnings"`
	CarryIn        string `json:"carryIn"`
	ActualEarnings string `json:"actualEarnings"`
	PaidEarnings   string `json:"paidEarnings"`
	CarryOut       string `json:"carryOut"`
	Limit          string `json:"limit"`
	ExceedsLimit   bool   `json:"exceedsLimit"`
	WarningLevel   string `json:"warningLevel"`
}

type Handler struct {
	service        Service
	renderer       HistoryRenderer
	historyPeriods int
}

func NewHandler(service Service, renderer HistoryRenderer, historyPeriods int) *Handler {
	return &Handler{service: service, renderer: renderer, historyPeriods: historyPeriods}
}

// GetEntry godoc
// @Summary Get the ledger entry of a billing period
// @Description Earnings, carry-in, paid amount and carry-out of one period. Defaults to the current period.
// @Tags Ledger
// @Produce json
// @Param period query string false "Billing period key (YYYY-MM)"
// @Success 200 {object} EntryDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid period"
// @Failure 422 {object} rest.ErrorResponse "Missing billing configuration or minijob limit"
// @Router /api/ledger [get]
// @Security XUserId
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	var entry Entry
	var err error
	if periodString := r.URL.Query().Get("period"); periodString != "" {
		key, parseErr := billing_period.KeyFromString(periodString)
		if parseErr != nil {
			rest.WriteBadRequest(w, "Invalid period format", "'period' must be in YYYY-MM format")
			return
		}
		entry, err = h.service.GetEntry(r.Context(), key)
	} else {
		entry, err = h.service.GetCurrentEntry(r.Context())
	}
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, entryToDTO(entry))
}

// GetHistory godoc
// @Summary Get the ledger history
// @Description Ledger entries of the last N periods up to the current one, most recent first
// @Tags Ledger
// @Produce json,text/csv
// @Param count query int false "Number of periods"
// @Success 200 {array} EntryDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid count"
// @Failure 422 {object} rest.ErrorResponse "Missing billing configuration or minijob limit"
// @Router /api/ledger/history [get]
// @Security XUserId
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	count := h.historyPeriods
	if countString := r.URL.Query().Get("count"); countString != "" {
		parsed, err := strconv.Atoi(countString)
		if err != nil || parsed < 1 || parsed > MaxPeriods {
			rest.WriteBadRequest(w, "Invalid count", "'count' must be a number between 1 and "+strconv.Itoa(MaxPeriods))
			return
		}
		count = parsed
	}

	entries, err := h.service.GetHistory(r.Context(), count)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	if r.Header.Get("Accept") == "text/csv" {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		csv, err := h.renderer.RenderHistory(entries)
		if err != nil {
			rest.WriteError(w, err)
			return
		}
		if _, err := w.Write([]byte(csv)); err != nil {
			log.Errorf("Failed to write ledger csv: %v", err)
		}
		return
	}

	dtos := make([]EntryDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, entryToDTO(e))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
	log.Tracef("Ledger history returned: %d", len(dtos))
}

func entryToDTO(e Entry) EntryDTO {
	return EntryDTO{
		Period:         e.Period.Key.String(),
		Label:          e.Period.Label,
		Start:          e.Period.Start.Format(billing_period.DateLayout),
		End:            e.Period.End.Format(billing_period.DateLayout),
		IsCurrent:      e.Period.IsCurrent,
		EntryCount:     e.EntryCount,
		TotalMinutes:   e.TotalMinutes,
		TotalHours:     e.TotalHours.StringFixed(2),
		GrossEarnings:  e.GrossEarnings.StringFixed(2),
		CarryIn:        e.CarryIn.StringFixed(2),
		ActualEarnings: e.ActualEarnings.StringFixed(2),
		PaidEarnings:   e.PaidEarnings.StringFixed(2),
		CarryOut:       e.CarryOut.StringFixed(2),
		Limit:          e.Limit.StringFixed(2),
		ExceedsLimit:   e.ExceedsLimit,
		WarningLevel:   string(e.WarningLevel),
	}
}
