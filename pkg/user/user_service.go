package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/HomeLabSky/schoppmann-time-tracking/internal/errs"
	"github.com/HomeLabSky/schoppmann-time-tracking/internal/event_bus"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var ErrUserDataInvalid = errors.New("invalid user data")
var ErrUsernameTaken = errors.New("username is already taken")

type Service interface {
	GetCurrentUser(ctx context.Context) (User, error)
	CreateUser(ctx context.Context, user User) (User, error)
	GetUser(ctx context.Context, id int) (User, error)
	GetUserByUid(ctx context.Context, uid string) (User, error)
	UpdateUser(ctx context.Context, user User) (User, error)
	DeleteUser(ctx context.Context, id int) error
	GetAllUsers(ctx context.Context) ([]User, error)
	IsUsernameAvailable(ctx context.Context, username string) (bool, error)
}

// EntryChecker tells whether a user already recorded time entries. Billing days are
// frozen from the first entry on.
type EntryChecker interface {
	HasEntries(ctx context.Context, userId int) (bool, error)
}

type UserServiceImpl struct {
	repo     Repo
	entries  EntryChecker
	eventBus event_bus.Publisher
}

func NewUserService(repo Repo, entries EntryChecker, eventBus event_bus.Publisher) *UserServiceImpl {
	return &UserServiceImpl{repo: repo, entries: entries, eventBus: eventBus}
}

func (u *UserServiceImpl) GetCurrentUser(ctx context.Context) (User, error) {
	userId, err := CurrentId(ctx)
	if err != nil {
		return User{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return u.GetUser(ctx, userId)
}

func (u *UserServiceImpl) CreateUser(ctx context.Context, user User) (User, error) {
	if user.Username == "" || user.DisplayName == "" {
		return User{}, ErrUserDataInvalid
	}
	settings, err := normalizeSettings(user.Settings)
	if err != nil {
		return User{}, err
	}
	user.Settings = settings

	available, err := u.repo.IsUsernameAvailable(ctx, user.Username)
	if err != nil {
		return User{}, err
	}
	if !available {
		return User{}, ErrUsernameTaken
	}

	if user.Uid == "" {
		user.Uid = uuid.NewString()
	}
	userId, err := u.repo.CreateUser(ctx, user)
	if err != nil {
		return User{}, err
	}
	user.Id = userId
	return user, nil
}

func (u *UserServiceImpl) GetUser(ctx context.Context, id int) (User, error) {
	return u.repo.GetUser(ctx, id)
}

func (u *UserServiceImpl) GetUserByUid(ctx context.Context, uid string) (User, error) {
	return u.repo.GetUserByUid(ctx, uid)
}

// UpdateUser changes display name and settings of the current user. Changing the billing
// period days fails with ConfigLocked once the user has entries.
func (u *UserServiceImpl) UpdateUser(ctx context.Context, user User) (User, error) {
	userId, err := CurrentId(ctx)
	if err != nil {
		return User{}, fmt.Errorf("failed to get current user: %w", err)
	}
	if user.DisplayName == "" {
		return User{}, ErrUserDataInvalid
	}
	settings, err := normalizeSettings(user.Settings)
	if err != nil {
		return User{}, err
	}
	user.Settings = settings

	var updated User
	var change event_bus.BillingSettingsUpdated
	err = u.repo.WithTransaction(ctx, func(repo Repo) error {
		existing, err := repo.GetUserForUpdate(ctx, userId)
		if err != nil {
			return err
		}
		change = event_bus.BillingSettingsUpdated{
			UserId:        userId,
			PeriodChanged: existing.Settings.BillingPeriod != user.Settings.BillingPeriod,
			RateChanged:   !existing.Settings.HourlyRate.Equal(user.Settings.HourlyRate),
		}
		if change.PeriodChanged {
			hasEntries, err := u.entries.HasEntries(ctx, userId)
			if err != nil {
				return fmt.Errorf("failed to check existing entries: %w", err)
			}
			if hasEntries {
				return errs.Config(errs.CodeConfigLocked, "billing period days cannot change after time entries were recorded")
			}
		}
		user.Username = existing.Username
		user.Uid = existing.Uid
		updated, err = repo.UpdateUser(ctx, userId, user)
		return err
	})
	if err != nil {
		return User{}, err
	}

	if change.PeriodChanged || change.RateChanged {
		err = u.eventBus.Publish(event_bus.NewEvent(ctx, event_bus.BillingSettingsUpdatedType, change))
		if err != nil {
			log.Errorf("failed to publish billing settings update: %v", err)
			return User{}, err
		}
	}
	return updated, nil
}

func (u *UserServiceImpl) DeleteUser(ctx context.Context, id int) error {
	return u.repo.DeleteUser(ctx, id)
}

func (u *UserServiceImpl) GetAllUsers(ctx context.Context) ([]User, error) {
	return u.repo.GetAllUsers(ctx)
}

func (u *UserServiceImpl) IsUsernameAvailable(ctx context.Context, username string) (bool, error) {
	return u.repo.IsUsernameAvailable(ctx, username)
}

// normalizeSettings applies the default timezone and validates the rest. An unset billing
// period is allowed; entries cannot be recorded until it is configured.
func normalizeSettings(s Settings) (Settings, error) {
	if s.Timezone == "" {
		s.Timezone = DefaultTimezone
	}
	if _, err := time.LoadLocation(s.Timezone); err != nil {
		return Settings{}, errs.Validation("timezone", fmt.Sprintf("unknown timezone %q", s.Timezone))
	}
	if s.BillingPeriod.StartDay != 0 || s.BillingPeriod.EndDay != 0 {
		if err := s.BillingPeriod.Validate(); err != nil {
			return Settings{}, err
		}
	}
	if s.HourlyRate.IsNegative() {
		return Settings{}, errs.Validation("hourlyRate", "must not be negative")
	}
	return s, nil
}
