package player

import "context"

// Registry exposes the tracked-player set to use cases.
type Registry interface {
	List(ctx context.Context) ([]TrackedPlayer, error)
}
