package ledger

import (
	"sync"
	"time"

	"github.com/HomeLabSky/schoppmann-time-tracking/internal/event_bus"
	"github.com/HomeLabSky/schoppmann-time-tracking/pkg/billing_period"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// chain is a user's ledger from its first period up to the latest one computed so far.
type chain struct {
	cfg     billing_period.Config
	rate    decimal.Decimal
	entries []Entry
}

// version identifies the cache state a computation started from. A result is only stored
// when neither the user's generation nor the epoch moved in the meantime.
type version struct {
	epoch      uint64
	generation uint64
}

// Cache holds one ledger chain per user. Edits truncate a chain at the affected period so
// the prefix before it is reused; limit changes drop everything.
type Cache struct {
	mu          sync.Mutex
	chains      map[int]*chain
	generations map[int]uint64
	epoch       uint64
}

func NewCache() *Cache {
	return &Cache{
		chains:      make(map[int]*chain),
		generations: make(map[int]uint64),
	}
}

// Subscribe registers the invalidation handlers on bus.
func (c *Cache) Subscribe(bus *event_bus.EventBus) {
	event_bus.SubscribeTyped[event_bus.TimeEntryChanged](bus, event_bus.TimeEntryChangedType,
		func(e event_bus.EventT[event_bus.TimeEntryChanged]) error {
			c.InvalidateFrom(e.Data.UserId, e.Data.EarliestDate())
			return nil
		})
	event_bus.SubscribeTyped[event_bus.BillingSettingsUpdated](bus, event_bus.BillingSettingsUpdatedType,
		func(e event_bus.EventT[event_bus.BillingSettingsUpdated]) error {
			c.InvalidateUser(e.Data.UserId)
			return nil
		})
	event_bus.SubscribeTyped[event_bus.MinijobLimitChanged](bus, event_bus.MinijobLimitChangedType,
		func(e event_bus.EventT[event_bus.MinijobLimitChanged]) error {
			c.InvalidateAll()
			return nil
		})
}

// get returns a copy of the user's chain if it was built with cfg and rate, along with
// the version to pass to put.
func (c *Cache) get(userId int, cfg billing_period.Config, rate decimal.Decimal) ([]Entry, version) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := version{epoch: c.epoch, generation: c.generations[userId]}
	ch, ok := c.chains[userId]
	if !ok || ch.cfg != cfg || !ch.rate.Equal(rate) || len(ch.entries) == 0 {
		return nil, v
	}
	return append([]Entry(nil), ch.entries...), v
}

func (c *Cache) put(userId int, cfg billing_period.Config, rate decimal.Decimal, entries []Entry, v version) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v.epoch != c.epoch || v.generation != c.generations[userId] {
		log.Debugf("Ledger of user %d changed during computation, not caching", userId)
		return
	}
	c.chains[userId] = &chain{
		cfg:     cfg,
		rate:    rate,
		entries: append([]Entry(nil), entries...),
	}
}

// InvalidateFrom drops every cached period of the user ending on or after date.
func (c *Cache) InvalidateFrom(userId int, date time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generations[userId]++
	ch, ok := c.chains[userId]
	if !ok {
		return
	}
	keep := 0
	for keep < len(ch.entries) && ch.entries[keep].Period.End.Before(date) {
		keep++
	}
	if keep == 0 {
		delete(c.chains, userId)
	} else {
		ch.entries = ch.entries[:keep]
	}
	log.Debugf("Ledger of user %d truncated to %d period(s)", userId, keep)
}

func (c *Cache) InvalidateUser(userId int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generations[userId]++
	delete(c.chains, userId)
	log.Debugf("Ledger of user %d dropped", userId)
}

func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.epoch++
	c.chains = make(map[int]*chain)
	log.Debug("All cached ledgers dropped")
}

// Len returns the number of cached periods of the user.
func (c *Cache) Len(userId int) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ch, ok := c.chains[userId]; ok {
		return len(ch.entries)
	}
	return 0
}
