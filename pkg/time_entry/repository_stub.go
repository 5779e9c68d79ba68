package time_entry

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

type RepositoryStub struct {
	mu             sync.RWMutex
	items          map[string]Entry // uid -> entry
	userIds        map[string]int   // uid -> userId
	nextId         int
	transactionErr error
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{
		items:   make(map[string]Entry),
		userIds: make(map[string]int),
		nextId:  1,
	}
}

func (r *RepositoryStub) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	r.mu.Lock()
	originalItems := make(map[string]Entry, len(r.items))
	for k, v := range r.items {
		originalItems[k] = v
	}
	originalUserIds := make(map[string]int, len(r.userIds))
	for k, v := range r.userIds {
		originalUserIds[k] = v
	}
	originalNextId := r.nextId
	r.transactionErr = nil
	r.mu.Unlock()

	err := fn(r)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil || r.transactionErr != nil {
		r.items = originalItems
		r.userIds = originalUserIds
		r.nextId = originalNextId
		if err != nil {
			return err
		}
		return r.transactionErr
	}
	return nil
}

func (r *RepositoryStub) LockUser(ctx context.Context, userId int) error {
	return nil
}

func (r *RepositoryStub) StoreEntry(ctx context.Context, userId int, entry Entry) (Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry.Uid == "" {
		entry.Uid = fmt.Sprintf("entry-%d", r.nextId)
	}
	entry.Id = r.nextId
	r.nextId++
	r.items[entry.Uid] = entry
	r.userIds[entry.Uid] = userId
	return entry, nil
}

func (r *RepositoryStub) GetEntry(ctx context.Context, userId int, uid string) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.items[uid]
	if !ok || r.userIds[uid] != userId {
		return Entry{}, ErrEntryNotFound
	}
	return entry, nil
}

func (r *RepositoryStub) ListEntries(ctx context.Context, userId int, from, to time.Time) ([]Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Entry, 0)
	for uid, entry := range r.items {
		if r.userIds[uid] == userId && !entry.Date.Before(from) && !entry.Date.After(to) {
			result = append(result, entry)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		if result[i].Start != result[j].Start {
			return result[i].Start < result[j].Start
		}
		return result[i].Id < result[j].Id
	})
	return result, nil
}

func (r *RepositoryStub) UpdateEntry(ctx context.Context, userId int, entry Entry) (Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.items[entry.Uid]
	if !ok || r.userIds[entry.Uid] != userId {
		return Entry{}, ErrEntryNotFound
	}
	entry.Id = existing.Id
	r.items[entry.Uid] = entry
	return entry, nil
}

func (r *RepositoryStub) DeleteEntry(ctx context.Context, userId int, uid string) (Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.items[uid]
	if !ok || r.userIds[uid] != userId {
		return Entry{}, ErrEntryNotFound
	}
	delete(r.items, uid)
	delete(r.userIds, uid)
	return entry, nil
}

func (r *RepositoryStub) EarliestEntryDate(ctx context.Context, userId int) (time.Time, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var earliest time.Time
	found := false
	for uid, entry := range r.items {
		if r.userIds[uid] != userId {
			continue
		}
		if !found || entry.Date.Before(earliest) {
			earliest = entry.Date
			found = true
		}
	}
	return earliest, found, nil
}

func (r *RepositoryStub) HasEntries(ctx context.Context, userId int) (bool, error) {
	_, found, err := r.EarliestEntryDate(ctx, userId)
	return found, err
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

	r.items = make(map[string]Entry)
	r.userIds = make(map[string]int)
	r.nextId = 1
	r.transactionErr = nil
}
