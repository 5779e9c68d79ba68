package minijob_limit

import (
	"context"
	"sort"
	"sync"
)

type RepositoryStub struct {
	mu             sync.RWMutex
	items          map[int]Limit
	nextId         int
	transactionErr error
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{
		items:  make(map[int]Limit),
		nextId: 1,
	}
}

func (r *RepositoryStub) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	r.mu.Lock()
	originalItems := make(map[int]Limit, len(r.items))
	for k, v := range r.items {
		originalItems[k] = v
	}
	originalNextId := r.nextId
	r.transactionErr = nil
	r.mu.Unlock()

	err := fn(r)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil || r.transactionErr != nil {
		r.items = originalItems
		r.nextId = originalNextId
		if err != nil {
			return err
		}
		return r.transactionErr
	}
	return nil
}

func (r *RepositoryStub) LockLimits(ctx context.Context) error {
	return nil
}

func (r *RepositoryStub) ListLimits(ctx context.Context) ([]Limit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	limits := make([]Limit, 0, len(r.items))
	for _, l := range r.items {
		limits = append(limits, l)
	}
	sort.Slice(limits, func(i, j int) bool {
		if !limits[i].EffectiveFrom.Equal(limits[j].EffectiveFrom) {
			return limits[i].EffectiveFrom.Before(limits[j].EffectiveFrom)
		}
		return limits[i].Id < limits[j].Id
	})
	return limits, nil
}

func (r *RepositoryStub) StoreLimit(ctx context.Context, limit Limit) (Limit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	limit.Id = r.nextId
	r.nextId++
	r.items[limit.Id] = limit
	return limit, nil
}

func (r *RepositoryStub) GetLimit(ctx context.Context, id int) (Limit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	limit, ok := r.items[id]
	if !ok {
		return Limit{}, ErrLimitNotFound
	}
	return limit, nil
}

func (r *RepositoryStub) DeleteLimit(ctx context.Context, id int) (Limit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	limit, ok := r.items[id]
	if !ok {
		return Limit{}, ErrLimitNotFound
	}
	delete(r.items, id)
	return limit, nil
}

// SetTransactionError makes the running transaction roll back with err.
func (r *RepositoryStub) SetTransactionError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transactionErr = err
}

func (r *RepositoryStub) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = make(map[int]Limit)
	r.nextId = 1
	r.transactionErr = nil
}
