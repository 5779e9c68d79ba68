package ledger

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/HomeLabSky/schoppmann-time-tracking/internal/errs"
	"github.com/HomeLabSky/schoppmann-time-tracking/internal/utils"
	"github.com/HomeLabSky/schoppmann-time-tracking/pkg/billing_period"
	"github.com/HomeLabSky/schoppmann-time-tracking/pkg/earnings"
	"github.com/HomeLabSky/schoppmann-time-tracking/pkg/minijob_limit"
	"github.com/HomeLabSky/schoppmann-time-tracking/pkg/time_entry"
	"github.com/HomeLabSky/schoppmann-time-tracking/pkg/user"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// MaxPeriods bounds how many periods before the current one a ledger request may reach.
const MaxPeriods = 120

// EntryReader is the part of the time entry repository the ledger reads from.
type EntryReader interface {
	EarliestEntryDate(ctx context.Context, userId int) (time.Time, bool, error)
	ListEntries(ctx context.Context, userId int, from, to time.Time) ([]time_entry.Entry, error)
}

type LimitProvider interface {
	Schedule(ctx context.Context) (minijob_limit.Schedule, error)
}

type Service interface {
	// GetEntry returns the ledger entry of the period identified by key.
	GetEntry(ctx context.Context, key billing_period.Key) (Entry, error)
	// GetCurrentEntry returns the ledger entry of the period containing today.
	GetCurrentEntry(ctx context.Context) (Entry, error)
	// GetHistory returns the last count periods up to the current one, most recent first.
	GetHistory(ctx context.Context, count int) ([]Entry, error)
}

type ServiceImpl struct {
	entries    EntryReader
	limits     LimitProvider
	clock      utils.Clock
	thresholds Thresholds
	cache      *Cache
}

func NewService(entries EntryReader, limits LimitProvider, clock utils.Clock, thresholds Thresholds, cache *Cache) *ServiceImpl {
	return &ServiceImpl{
		entries:    entries,
		limits:     limits,
		clock:      clock,
		thresholds: thresholds,
		cache:      cache,
	}
}

// request is the current user's billing context for one service call.
type request struct {
	userId int
	cfg    billing_period.Config
	rate   decimal.Decimal
	now    time.Time
}

func (s *ServiceImpl) GetEntry(ctx context.Context, key billing_period.Key) (Entry, error) {
	req, err := s.newRequest(ctx)
	if err != nil {
		return Entry{}, err
	}
	if err := req.checkKey(key); err != nil {
		return Entry{}, err
	}
	entries, err := s.ledger(ctx, req, key, key)
	if err != nil {
		return Entry{}, err
	}
	return entries[0], nil
}

func (s *ServiceImpl) GetCurrentEntry(ctx context.Context) (Entry, error) {
	req, err := s.newRequest(ctx)
	if err != nil {
		return Entry{}, err
	}
	current := req.currentKey()
	entries, err := s.ledger(ctx, req, current, current)
	if err != nil {
		return Entry{}, err
	}
	return entries[0], nil
}

func (s *ServiceImpl) GetHistory(ctx context.Context, count int) ([]Entry, error) {
	if count < 1 || count > MaxPeriods {
		return nil, errs.Validation("count", fmt.Sprintf("must be between 1 and %d, got %d", MaxPeriods, count))
	}
	req, err := s.newRequest(ctx)
	if err != nil {
		return nil, err
	}
	to := req.currentKey()
	from := to
	for i := 1; i < count; i++ {
		from = from.Prev()
	}

	entries, err := s.ledger(ctx, req, from, to)
	if err != nil {
		return nil, err
	}
	slices.Reverse(entries)
	return entries, nil
}

func (s *ServiceImpl) newRequest(ctx context.Context) (request, error) {
	currentUser, err := user.CurrentUser(ctx)
	if err != nil {
		return request{}, fmt.Errorf("failed to get current user: %w", err)
	}
	cfg := currentUser.Settings.BillingPeriod
	if err := cfg.Validate(); err != nil {
		return request{}, err
	}
	return request{
		userId: currentUser.Id,
		cfg:    cfg,
		rate:   currentUser.Settings.HourlyRate,
		now:    s.clock.Now().In(currentUser.Settings.Location()),
	}, nil
}

// currentKey is the key of the latest period that has started by today. When today lies
// in a gap of the configuration this is the period that ended last.
func (r request) currentKey() billing_period.Key {
	key, _ := billing_period.KeyForDate(r.cfg, billing_period.DateOf(r.now))
	return key
}

// checkKey accepts periods from MaxPeriods before the current one up to the next one.
func (r request) checkKey(key billing_period.Key) error {
	current := r.currentKey()
	if key.After(current.Next()) {
		return errs.Validation("period", fmt.Sprintf("%s is later than the next billing period %s", key, current.Next()))
	}
	if key.MonthsUntil(current) > MaxPeriods {
		return errs.Validation("period", fmt.Sprintf("%s is more than %d periods before the current one", key, MaxPeriods))
	}
	return nil
}

// ledger returns the entries for the periods from..to. The chain always starts at the
// period of the user's first time entry so the carry into from is exact.
func (s *ServiceImpl) ledger(ctx context.Context, req request, from, to billing_period.Key) ([]Entry, error) {
	cached, v := s.cache.get(req.userId, req.cfg, req.rate)

	chain := cached
	var err error
	switch {
	case len(cached) == 0 || from.Before(cached[0].Period.Key):
		log.Debugf("Ledger cache miss for user %d", req.userId)
		chain, err = s.computeChain(ctx, req, from, to)
	case cached[len(cached)-1].Period.Key.Before(to):
		log.Debugf("Extending cached ledger of user %d to %s", req.userId, to)
		chain, err = s.extendChain(ctx, req, cached, to)
	default:
		log.Tracef("Ledger cache hit for user %d", req.userId)
	}
	if err != nil {
		return nil, err
	}
	if len(chain) != len(cached) {
		s.cache.put(req.userId, req.cfg, req.rate, chain, v)
	}

	result := make([]Entry, 0, from.MonthsUntil(to)+1)
	for _, e := range chain {
		if e.Period.Key.Before(from) || e.Period.Key.After(to) {
			continue
		}
		e.Period.IsCurrent = e.Period.Contains(req.now)
		result = append(result, e)
	}
	return result, nil
}

func (s *ServiceImpl) computeChain(ctx context.Context, req request, from, to billing_period.Key) ([]Entry, error) {
	start := from
	earliest, found, err := s.entries.EarliestEntryDate(ctx, req.userId)
	if err != nil {
		return nil, err
	}
	if found {
		key, inPeriod := billing_period.KeyForDate(req.cfg, earliest)
		if !inPeriod {
			key = key.Next()
		}
		if key.Before(start) {
			start = key
		}
	}
	return s.build(ctx, req, start, to, decimal.Zero)
}

func (s *ServiceImpl) extendChain(ctx context.Context, req request, cached []Entry, to billing_period.Key) ([]Entry, error) {
	last := cached[len(cached)-1]
	tail, err := s.build(ctx, req, last.Period.Key.Next(), to, last.CarryOut)
	if err != nil {
		return nil, err
	}
	return append(cached, tail...), nil
}

func (s *ServiceImpl) build(ctx context.Context, req request, from, to billing_period.Key, priorCarry decimal.Decimal) ([]Entry, error) {
	periods, err := billing_period.Range(req.cfg, from, to, req.now)
	if err != nil {
		return nil, err
	}
	entries, err := s.entries.ListEntries(ctx, req.userId, periods[0].Start, periods[len(periods)-1].End)
	if err != nil {
		return nil, err
	}
	schedule, err := s.limits.Schedule(ctx)
	if err != nil {
		return nil, err
	}

	aggregated := earnings.AggregateAll(entries, periods, req.rate)
	return Build(aggregated, schedule, WithPriorCarry(priorCarry), WithThresholds(s.thresholds))
}
