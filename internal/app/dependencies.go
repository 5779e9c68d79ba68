package app

import (
	"github.com/HomeLabSky/schoppmann-time-tracking/internal/config"
	"github.com/HomeLabSky/schoppmann-time-tracking/internal/event_bus"
	"github.com/HomeLabSky/schoppmann-time-tracking/internal/utils"
	"github.com/HomeLabSky/schoppmann-time-tracking/pkg/billing_period"
	"github.com/HomeLabSky/schoppmann-time-tracking/pkg/ledger"
	"github.com/HomeLabSky/schoppmann-time-tracking/pkg/minijob_limit"
	"github.com/HomeLabSky/schoppmann-time-tracking/pkg/time_entry"
	"github.com/HomeLabSky/schoppmann-time-tracking/pkg/user"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	EventBus *event_bus.EventBus
	Clock    utils.Clock

	UserService user.Service
	UserHandler *user.Handler

	TimeEntryRepo    *time_entry.RepositoryImpl
	TimeEntryService *time_entry.ServiceImpl
	TimeEntryHandler *time_entry.Handler

	LimitService *minijob_limit.ServiceImpl
	LimitHandler *minijob_limit.Handler

	PeriodHandler *billing_period.Handler

	LedgerCache   *ledger.Cache
	LedgerService *ledger.ServiceImpl
	LedgerHandler *ledger.Handler
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *pgxpool.Pool, cfg config.Application) (*Dependencies, error) {
	deps := &Dependencies{}

	thresholds, err := ledger.NewThresholds(cfg.Ledger.WarningRatio, cfg.Ledger.CriticalRatio)
	if err != nil {
		return nil, err
	}

	deps.EventBus = event_bus.NewEventBus()
	deps.Clock = &utils.SystemClock{}

	deps.TimeEntryRepo = time_entry.NewRepository(db)
	deps.TimeEntryService = time_entry.NewService(deps.TimeEntryRepo, deps.EventBus, deps.Clock, cfg.Ledger.MinShiftMinutes)
	deps.TimeEntryHandler = time_entry.NewHandler(deps.TimeEntryService)

	deps.UserService = user.NewUserService(user.NewUserRepo(db), deps.TimeEntryRepo, deps.EventBus)
	deps.UserHandler = user.NewHandler(deps.UserService)

	deps.LimitService = minijob_limit.NewService(minijob_limit.NewRepository(db), deps.EventBus)
	deps.LimitHandler = minijob_limit.NewHandler(deps.LimitService)

	deps.PeriodHandler = billing_period.NewHandler(user.CurrentBilling, deps.Clock)

	deps.LedgerCache = ledger.NewCache()
	deps.LedgerCache.Subscribe(deps.EventBus)
	deps.LedgerService = ledger.NewService(deps.TimeEntryRepo, deps.LimitService, deps.Clock, thresholds, deps.LedgerCache)
	deps.LedgerHandler = ledger.NewHandler(deps.LedgerService, ledger.NewCsvHistoryRenderer(), cfg.Ledger.HistoryPeriods)

	return deps, nil
}
