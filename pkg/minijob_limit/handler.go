package minijob_limit

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/HomeLabSky/schoppmann-time-tracking/internal/errs"
	"github.com/HomeLabSky/schoppmann-time-tracking/internal/rest"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type LimitDTO struct {
	Id int `json:"id"`
	// Amount is a decimal string, e.g. "520.00".
	Amount         string  `json:"amount"`
	EffectiveFrom  string  `json:"effectiveFrom"`
	EffectiveUntil *string `json:"effectiveUntil,omitempty"`
	Description    string  `json:"description"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// ListLimits godoc
// @Summary List minijob limits
// @Tags MinijobLimit
// @Produce json
// @Success 200 {array} LimitDTO
// @Router /api/limit [get]
// @Security XUserId
func (h *Handler) ListLimits(w http.ResponseWriter, r *http.Request) {
	limits, err := h.service.ListLimits(r.Context())
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	dtos := make([]LimitDTO, 0, len(limits))
	for _, l := range limits {
		dtos = append(dtos, limitToDTO(l))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

// CreateLimit godoc
// @Summary Create a minijob limit
// @Description Amount must be positive and the validity range must not overlap an existing limit
// @Tags MinijobLimit
// @Accept json
// @Produce json
// @Param limit body LimitDTO true "Limit"
// @Success 201 {object} LimitDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid limit"
// @Failure 409 {object} rest.ErrorResponse "Overlapping limit"
// @Router /api/limit [post]
// @Security XUserId
func (h *Handler) CreateLimit(w http.ResponseWriter, r *http.Request) {
	var limitDTO LimitDTO
	if err := json.NewDecoder(r.Body).Decode(&limitDTO); err != nil {
		rest.WriteBadRequest(w, "Invalid request body format", err.Error())
		return
	}
	limit, err := dtoToLimit(limitDTO)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	created, err := h.service.CreateLimit(r.Context(), limit)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	log.Debugf("Created limit: %+v", created)
	rest.WriteJSON(w, http.StatusCreated, limitToDTO(created))
}

// DeleteLimit godoc
// @Summary Delete a minijob limit
// @Tags MinijobLimit
// @Param limitId path int true "Limit id"
// @Success 204
// @Failure 404 {string} string "Limit not found"
// @Router /api/limit/{limitId} [delete]
// @Security XUserId
func (h *Handler) DeleteLimit(w http.ResponseWriter, r *http.Request) {
	limitId, err := strconv.Atoi(mux.Vars(r)["limitId"])
	if err != nil {
		rest.WriteBadRequest(w, "Invalid limit id", err.Error())
		return
	}

	err = h.service.DeleteLimit(r.Context(), limitId)
	if err != nil {
		if errors.Is(err, ErrLimitNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		rest.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func limitToDTO(l Limit) LimitDTO {
	dto := LimitDTO{
		Id:            l.Id,
		Amount:        l.Amount.StringFixed(2),
		EffectiveFrom: l.EffectiveFrom.Format(dateLayout),
		Description:   l.Description,
	}
	if l.EffectiveUntil != nil {
		until := l.EffectiveUntil.Format(dateLayout)
		dto.EffectiveUntil = &until
	}
	return dto
}

func dtoToLimit(dto LimitDTO) (Limit, error) {
	amount, err := decimal.NewFromString(dto.Amount)
	if err != nil {
		return Limit{}, errs.Validation("amount", "must be a decimal number")
	}
	from, err := time.Parse(dateLayout, dto.EffectiveFrom)
	if err != nil {
		return Limit{}, errs.Validation("effectiveFrom", "must be in YYYY-MM-DD format")
	}
	limit := Limit{
		Amount:        amount,
		EffectiveFrom: from,
		Description:   dto.Description,
	}
	if dto.EffectiveUntil != nil && *dto.EffectiveUntil != "" {
		until, err := time.Parse(dateLayout, *dto.EffectiveUntil)
		if err != nil {
			return Limit{}, errs.Validation("effectiveUntil", "must be in YYYY-MM-DD format")
		}
		limit.EffectiveUntil = &until
	}
	return limit, nil
}
