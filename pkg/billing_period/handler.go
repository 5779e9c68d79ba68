package billing_period

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/HomeLabSky/schoppmann-time-tracking/internal/rest"
	"github.com/HomeLabSky/schoppmann-time-tracking/internal/utils"
	log "github.com/sirupsen/logrus"
)

const (
	defaultListCount = 12
	maxListCount     = 120
)

// ConfigProvider returns the billing configuration and timezone of the requesting user.
type ConfigProvider func(ctx context.Context) (Config, *time.Location, error)

type PeriodDTO struct {
	Key       string `json:"key"`
	Label     string `json:"label"`
	Start     string `json:"start"`
	End       string `json:"end"`
	IsCurrent bool   `json:"isCurrent"`
}

type Handler struct {
	configProvider ConfigProvider
	clock          utils.Clock
}

func NewHandler(configProvider ConfigProvider, clock utils.Clock) *Handler {
	return &Handler{configProvider: configProvider, clock: clock}
}

// ListPeriods godoc
// @Summary List billing periods
// @Description Periods ending with the current one, for a period selector
// @Tags BillingPeriod
// @Produce json
// @Param count query int false "Number of periods (default 12)"
// @Param order query string false "asc or desc (default desc)"
// @Success 200 {array} PeriodDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Failure 422 {object} rest.ErrorResponse "Billing period not configured"
// @Router /api/period [get]
// @Security XUserId
func (h *Handler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	count := defaultListCount
	if countString := query.Get("count"); countString != "" {
		parsed, err := strconv.Atoi(countString)
		if err != nil || parsed < 1 || parsed > maxListCount {
			rest.WriteBadRequest(w, "Invalid count", "'count' must be a number between 1 and "+strconv.Itoa(maxListCount))
			return
		}
		count = parsed
	}

	order := MostRecentFirst
	switch query.Get("order") {
	case "", string(MostRecentFirst):
	case string(Chronological):
		order = Chronological
	default:
		rest.WriteBadRequest(w, "Invalid order", "'order' must be asc or desc")
		return
	}

	cfg, loc, err := h.configProvider(r.Context())
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	now := h.clock.Now().In(loc)

	periods, err := List(cfg, now, count, order, now)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	dtos := make([]PeriodDTO, 0, len(periods))
	for _, p := range periods {
		dtos = append(dtos, PeriodDTO{
			Key:       p.Key.String(),
			Label:     p.Label,
			Start:     p.Start.Format(DateLayout),
			End:       p.End.Format(DateLayout),
			IsCurrent: p.IsCurrent,
		})
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
	log.Tracef("Periods returned: %d", len(dtos))
}
