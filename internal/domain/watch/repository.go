package watch

import "context"

// Queue holds the items currently being polled. Implementations must be
// safe for concurrent use by the scanner and the watcher.
type Queue interface {
	// Put inserts the item unless its key is already present. Returns true
	// when the item was inserted.
	Put(ctx context.Context, item Item) (bool, error)
	// List returns a copy of every queued item.
	List(ctx context.Context) ([]Item, error)
	// Update replaces the stored item with the same key, if present.
	Update(ctx context.Context, item Item) error
	// Remove deletes the item for key. Removing an absent key is a no-op.
	Remove(ctx context.Context, key Key) error
	Contains(ctx context.Context, key Key) (bool, error)
	Len(ctx context.Context) (int, error)
}
