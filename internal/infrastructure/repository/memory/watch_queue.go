package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/loanwatch/loanwatch/internal/domain/watch"
)

// WatchQueue is the in-memory watch set shared by the scanner and the
// watcher. A single RWMutex covers insert/update/remove/iterate; the two
// loops may overlap freely.
type WatchQueue struct {
	mu    sync.RWMutex
	items map[watch.Key]watch.Item
}

func NewWatchQueue() *WatchQueue {
	return &WatchQueue{items: make(map[watch.Key]watch.Item)}
}

func (q *WatchQueue) Put(_ context.Context, item watch.Item) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	key := item.Key()
	if _, exists := q.items[key]; exists {
		return false, nil
	}
	q.items[key] = item
	return true, nil
}

func (q *WatchQueue) List(_ context.Context) ([]watch.Item, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	out := make([]watch.Item, 0, len(q.items))
	for _, item := range q.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FixtureID != out[j].FixtureID {
			return out[i].FixtureID < out[j].FixtureID
		}
		return out[i].Player.ID < out[j].Player.ID
	})
	return out, nil
}

func (q *WatchQueue) Update(_ context.Context, item watch.Item) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	key := item.Key()
	if _, exists := q.items[key]; !exists {
		return nil
	}
	q.items[key] = item
	return nil
}

func (q *WatchQueue) Remove(_ context.Context, key watch.Key) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	delete(q.items, key)
	return nil
}

func (q *WatchQueue) Contains(_ context.Context, key watch.Key) (bool, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	_, exists := q.items[key]
	return exists, nil
}

func (q *WatchQueue) Len(_ context.Context) (int, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	return len(q.items), nil
}
