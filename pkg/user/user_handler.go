package user

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/HomeLabSky/schoppmann-time-tracking/internal/rest"
	"github.com/HomeLabSky/schoppmann-time-tracking/pkg/billing_period"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type UserDTO struct {
	Uid         string      `json:"uid"`
	Username    string      `json:"username"`
	DisplayName string      `json:"displayName"`
	Settings    SettingsDTO `json:"settings"`
}

type SettingsDTO struct {
	Timezone        string `json:"timezone"`
	BillingStartDay int    `json:"billingStartDay"`
	BillingEndDay   int    `json:"billingEndDay"`
	// HourlyRate is a decimal string, e.g. "12.50".
	HourlyRate string `json:"hourlyRate"`
}

type Handler struct {
	userService Service
}

func NewHandler(userService Service) *Handler {
	return &Handler{
		userService: userService,
	}
}

// CreateUser godoc
// @Summary Create a new user
// @Description Register a new user together with the billing settings
// @Tags User
// @Accept json
// @Produce json
// @Param user body UserDTO true "User"
// @Success 201 {object} UserDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Failure 409 {object} rest.ErrorResponse "Username taken"
// @Router /api/user [post]
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating user")

	var userDTO UserDTO
	if err := json.NewDecoder(r.Body).Decode(&userDTO); err != nil {
		rest.WriteBadRequest(w, "Invalid request body format", err.Error())
		return
	}
	log.Tracef("Creating new user: %+v", userDTO)

	if len(userDTO.Username) == 0 {
		rest.WriteBadRequest(w, "Username is required", "")
		return
	}
	if len(userDTO.DisplayName) == 0 {
		rest.WriteBadRequest(w, "Display name is required", "")
		return
	}
	user, err := dtoToUser(userDTO)
	if err != nil {
		rest.WriteBadRequest(w, "Invalid hourly rate", err.Error())
		return
	}

	createdUser, err := h.userService.CreateUser(r.Context(), user)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserDataInvalid):
			rest.WriteBadRequest(w, "Invalid user data", "")
		case errors.Is(err, ErrUsernameTaken):
			rest.WriteJSON(w, http.StatusConflict, rest.ErrorResponse{Error: "Username is already taken"})
		default:
			rest.WriteError(w, err)
		}
		return
	}
	log.Tracef("Created user: %+v", createdUser)

	rest.WriteJSON(w, http.StatusCreated, userToDTO(&createdUser))
}

// CurrentUser godoc
// @Summary Get current user
// @Description Retrieve the current user's information and billing settings
// @Tags User
// @Produce json
// @Success 200 {object} UserDTO
// @Failure 403 {string} string "User not found"
// @Failure 404 {string} string "User Not Found"
// @Router /api/user/current [get]
// @Security XUserId
func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	log.Trace("Getting current user")

	currentUser, err := h.userService.GetCurrentUser(r.Context())
	if err != nil {
		if errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrNoUser) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	rest.WriteJSON(w, http.StatusOK, userToDTO(&currentUser))
}

// UpdateUser godoc
// @Summary Update current user
// @Description Update display name, timezone, hourly rate and billing period days. Billing days are locked once entries exist.
// @Tags User
// @Accept json
// @Produce json
// @Param user body UserDTO true "User"
// @Success 200 {object} UserDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Failure 409 {object} rest.ErrorResponse "Billing period locked"
// @Router /api/user/current [put]
// @Security XUserId
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	log.Trace("Updating user")

	var userDTO UserDTO
	if err := json.NewDecoder(r.Body).Decode(&userDTO); err != nil {
		rest.WriteBadRequest(w, "Invalid request body format", err.Error())
		return
	}

	log.Debug("Updating user: ", userDTO)
	if len(userDTO.DisplayName) == 0 {
		rest.WriteBadRequest(w, "Display name is required", "")
		return
	}
	user, err := dtoToUser(userDTO)
	if err != nil {
		rest.WriteBadRequest(w, "Invalid hourly rate", err.Error())
		return
	}

	updatedUser, err := h.userService.UpdateUser(r.Context(), user)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	log.Debug("Updated user: ", updatedUser)

	rest.WriteJSON(w, http.StatusOK, userToDTO(&updatedUser))
}

// IsUsernameAvailable godoc
// @Summary Check username availability
// @Tags User
// @Produce json
// @Param username query string true "Username to check"
// @Success 200 {object} object{available=bool}
// @Failure 400 {object} rest.ErrorResponse "Username is required"
// @Router /api/user/name-availability [get]
func (h *Handler) IsUsernameAvailable(w http.ResponseWriter, r *http.Request) {
	log.Trace("Checking if username is available")

	username := r.URL.Query().Get("username")
	if len(username) == 0 {
		rest.WriteBadRequest(w, "Username is required", "")
		return
	}

	isAvailable, err := h.userService.IsUsernameAvailable(r.Context(), username)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	rest.WriteJSON(w, http.StatusOK, map[string]bool{"available": isAvailable})
}

// GetAvailableUsers godoc
// @Summary Get all users
// @Tags User
// @Produce json
// @Success 200 {array} UserDTO
// @Router /api/user [get]
func (h *Handler) GetAvailableUsers(w http.ResponseWriter, r *http.Request) {
	log.Trace("Getting available users")

	users, err := h.userService.GetAllUsers(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	usersDTO := make([]UserDTO, 0, len(users))
	for _, user := range users {
		usersDTO = append(usersDTO, userToDTO(&user))
	}
	rest.WriteJSON(w, http.StatusOK, usersDTO)
}

// DeleteUser godoc
// @Summary Delete a user
// @Description Delete a user by UID together with all time entries
// @Tags User
// @Param userUid path string true "User UID"
// @Success 204 "No Content"
// @Failure 404 {string} string "User not found"
// @Router /api/user/{userUid} [delete]
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	log.Trace("Deleting user")

	userUid := mux.Vars(r)["userUid"]
	user, err := h.userService.GetUserByUid(r.Context(), userUid)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	log.Debug("Deleting user with id: ", user.Id)
	if err := h.userService.DeleteUser(r.Context(), user.Id); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func userToDTO(user *User) UserDTO {
	return UserDTO{
		Uid:         user.Uid,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		Settings: SettingsDTO{
			Timezone:        user.Settings.Timezone,
			BillingStartDay: user.Settings.BillingPeriod.StartDay,
			BillingEndDay:   user.Settings.BillingPeriod.EndDay,
			HourlyRate:      user.Settings.HourlyRate.StringFixed(2),
		},
	}
}

func dtoToUser(userDTO UserDTO) (User, error) {
	rate := decimal.Zero
	if userDTO.Settings.HourlyRate != "" {
		var err error
		rate, err = decimal.NewFromString(userDTO.Settings.HourlyRate)
		if err != nil {
			return User{}, err
		}
	}
	return User{
		Uid:         userDTO.Uid,
		Username:    userDTO.Username,
		DisplayName: userDTO.DisplayName,
		Settings: Settings{
			Timezone: userDTO.Settings.Timezone,
			BillingPeriod: billing_period.Config{
				StartDay: userDTO.Settings.BillingStartDay,
				EndDay:   userDTO.Settings.BillingEndDay,
			},
			HourlyRate: rate,
		},
	}, nil
}
