package time_entry

import (
	"context"
	"fmt"
	"time"

	"github.com/HomeLabSky/schoppmann-time-tracking/internal/errs"
	"github.com/HomeLabSky/schoppmann-time-tracking/internal/event_bus"
	"github.com/HomeLabSky/schoppmann-time-tracking/internal/utils"
	"github.com/HomeLabSky/schoppmann-time-tracking/pkg/billing_period"
	"github.com/HomeLabSky/schoppmann-time-tracking/pkg/user"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	ListEntries(ctx context.Context, from, to time.Time) ([]Entry, error)
	ListPeriodEntries(ctx context.Context, key billing_period.Key) (billing_period.Period, []Entry, error)
	CreateEntry(ctx context.Context, entry Entry) (Entry, error)
	UpdateEntry(ctx context.Context, entry Entry) (Entry, error)
	DeleteEntry(ctx context.Context, uid string) error
}

type ServiceImpl struct {
	repo            Repository
	eventBus        event_bus.Publisher
	clock           utils.Clock
	minShiftMinutes int
}

func NewService(repo Repository, eventBus event_bus.Publisher, clock utils.Clock, minShiftMinutes int) *ServiceImpl {
	if minShiftMinutes <= 0 {
		minShiftMinutes = DefaultMinShiftMinutes
	}
	return &ServiceImpl{repo: repo, eventBus: eventBus, clock: clock, minShiftMinutes: minShiftMinutes}
}

func (s *ServiceImpl) ListEntries(ctx context.Context, from, to time.Time) ([]Entry, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	if to.Before(from) {
		return nil, errs.Validation("to", "must not be before from")
	}
	return s.repo.ListEntries(ctx, userId, from, to)
}

func (s *ServiceImpl) ListPeriodEntries(ctx context.Context, key billing_period.Key) (billing_period.Period, []Entry, error) {
	currentUser, err := user.CurrentUser(ctx)
	if err != nil {
		return billing_period.Period{}, nil, fmt.Errorf("failed to get current user: %w", err)
	}
	now := s.clock.Now().In(currentUser.Settings.Location())
	period, err := billing_period.Resolve(currentUser.Settings.BillingPeriod, key, now)
	if err != nil {
		return billing_period.Period{}, nil, err
	}
	entries, err := s.repo.ListEntries(ctx, currentUser.Id, period.Start, period.End)
	if err != nil {
		return billing_period.Period{}, nil, err
	}
	return period, entries, nil
}

// CreateEntry validates and stores a new entry. Writes of one user are serialized by a
// row lock on the user so the ledger never observes interleaved edits.
func (s *ServiceImpl) CreateEntry(ctx context.Context, entry Entry) (Entry, error) {
	currentUser, err := s.writableUser(ctx)
	if err != nil {
		return Entry{}, err
	}
	if err := entry.Validate(s.minShiftMinutes); err != nil {
		return Entry{}, err
	}
	if err := inBillingPeriod(currentUser.Settings.BillingPeriod, entry.Date); err != nil {
		return Entry{}, err
	}

	entry.Uid = ""

	var stored Entry
	err = s.repo.WithTransaction(ctx, func(repo Repository) error {
		if err := repo.LockUser(ctx, currentUser.Id); err != nil {
			return err
		}
		stored, err = repo.StoreEntry(ctx, currentUser.Id, entry)
		return err
	})
	if err != nil {
		return Entry{}, err
	}

	if err := s.publishChanged(ctx, currentUser.Id, stored.Uid, stored.Date, time.Time{}); err != nil {
		return Entry{}, err
	}
	return stored, nil
}

func (s *ServiceImpl) UpdateEntry(ctx context.Context, entry Entry) (Entry, error) {
	currentUser, err := s.writableUser(ctx)
	if err != nil {
		return Entry{}, err
	}
	if entry.Uid == "" {
		return Entry{}, errs.Validation("uid", "is required")
	}
	if err := entry.Validate(s.minShiftMinutes); err != nil {
		return Entry{}, err
	}
	if err := inBillingPeriod(currentUser.Settings.BillingPeriod, entry.Date); err != nil {
		return Entry{}, err
	}

	var updated Entry
	var previousDate time.Time
	err = s.repo.WithTransaction(ctx, func(repo Repository) error {
		if err := repo.LockUser(ctx, currentUser.Id); err != nil {
			return err
		}
		existing, err := repo.GetEntry(ctx, currentUser.Id, entry.Uid)
		if err != nil {
			return err
		}
		previousDate = existing.Date
		updated, err = repo.UpdateEntry(ctx, currentUser.Id, entry)
		return err
	})
	if err != nil {
		return Entry{}, err
	}

	if err := s.publishChanged(ctx, currentUser.Id, updated.Uid, updated.Date, previousDate); err != nil {
		return Entry{}, err
	}
	return updated, nil
}

func (s *ServiceImpl) DeleteEntry(ctx context.Context, uid string) error {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}

	var deleted Entry
	err = s.repo.WithTransaction(ctx, func(repo Repository) error {
		if err := repo.LockUser(ctx, userId); err != nil {
			return err
		}
		deleted, err = repo.DeleteEntry(ctx, userId, uid)
		return err
	})
	if err != nil {
		return err
	}

	return s.publishChanged(ctx, userId, deleted.Uid, deleted.Date, time.Time{})
}

// writableUser returns the current user, failing when no billing period is configured yet.
func (s *ServiceImpl) writableUser(ctx context.Context) (user.User, error) {
	currentUser, err := user.CurrentUser(ctx)
	if err != nil {
		return user.User{}, fmt.Errorf("failed to get current user: %w", err)
	}
	if err := currentUser.Settings.BillingPeriod.Validate(); err != nil {
		return user.User{}, err
	}
	return currentUser, nil
}

// inBillingPeriod rejects dates that fall between two periods of a configuration that
// does not cover the whole month. Such an entry would never be aggregated.
func inBillingPeriod(cfg billing_period.Config, date time.Time) error {
	if _, ok := billing_period.KeyForDate(cfg, date); !ok {
		return errs.Validation("date", fmt.Sprintf("%s is not covered by any billing period", date.Format(billing_period.DateLayout)))
	}
	return nil
}

// The entry is already committed when this runs. A failing subscriber leaves stale ledger
// results until the next change of that user, so the error is surfaced to the caller.
func (s *ServiceImpl) publishChanged(ctx context.Context, userId int, uid string, date, previousDate time.Time) error {
	err := s.eventBus.Publish(event_bus.NewEvent(
		ctx,
		event_bus.TimeEntryChangedType,
		event_bus.TimeEntryChanged{
			UserId:       userId,
			EntryUid:     uid,
			Date:         date,
			PreviousDate: previousDate,
		},
	))
	if err != nil {
		log.Errorf("failed to publish time entry change: %v", err)
		return err
	}
	return nil
}
