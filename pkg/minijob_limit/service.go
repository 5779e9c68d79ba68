package minijob_limit

import (
	"context"

	"github.com/HomeLabSky/schoppmann-time-tracking/internal/event_bus"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	ListLimits(ctx context.Context) ([]Limit, error)
	CreateLimit(ctx context.Context, limit Limit) (Limit, error)
	DeleteLimit(ctx context.Context, id int) error
	// Schedule loads every limit into a lookup for ledger computation.
	Schedule(ctx context.Context) (Schedule, error)
}

type ServiceImpl struct {
	repo     Repository
	eventBus event_bus.Publisher
}

func NewService(repo Repository, eventBus event_bus.Publisher) *ServiceImpl {
	return &ServiceImpl{repo: repo, eventBus: eventBus}
}

func (s *ServiceImpl) ListLimits(ctx context.Context) ([]Limit, error) {
	return s.repo.ListLimits(ctx)
}

// CreateLimit stores limit unless its range overlaps an existing one. Limits are locked
// for the duration of the check so two overlapping inserts cannot both pass.
func (s *ServiceImpl) CreateLimit(ctx context.Context, limit Limit) (Limit, error) {
	if err := limit.Validate(); err != nil {
		return Limit{}, err
	}

	var stored Limit
	err := s.repo.WithTransaction(ctx, func(repo Repository) error {
		if err := repo.LockLimits(ctx); err != nil {
			return err
		}
		existing, err := repo.ListLimits(ctx)
		if err != nil {
			return err
		}
		if err := CheckOverlap(append(existing, limit)); err != nil {
			return err
		}
		stored, err = repo.StoreLimit(ctx, limit)
		return err
	})
	if err != nil {
		return Limit{}, err
	}

	log.Debugf("Created minijob limit %s", stored)
	if err := s.publishChanged(ctx, stored, false); err != nil {
		return Limit{}, err
	}
	return stored, nil
}

func (s *ServiceImpl) DeleteLimit(ctx context.Context, id int) error {
	var deleted Limit
	err := s.repo.WithTransaction(ctx, func(repo Repository) error {
		if err := repo.LockLimits(ctx); err != nil {
			return err
		}
		var err error
		deleted, err = repo.DeleteLimit(ctx, id)
		return err
	})
	if err != nil {
		return err
	}

	return s.publishChanged(ctx, deleted, true)
}

func (s *ServiceImpl) Schedule(ctx context.Context) (Schedule, error) {
	limits, err := s.repo.ListLimits(ctx)
	if err != nil {
		return Schedule{}, err
	}
	return NewSchedule(limits)
}

func (s *ServiceImpl) publishChanged(ctx context.Context, limit Limit, deleted bool) error {
	err := s.eventBus.Publish(event_bus.NewEvent(
		ctx,
		event_bus.MinijobLimitChangedType,
		event_bus.MinijobLimitChanged{
			LimitId:       limit.Id,
			EffectiveFrom: limit.EffectiveFrom,
			Deleted:       deleted,
		},
	))
	if err != nil {
		log.Errorf("failed to publish minijob limit change: %v", err)
		return err
	}
	return nil
}
