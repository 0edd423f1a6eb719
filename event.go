package dronestorage

import (
	"github.com/df-mc/dragonfly/server/event"
	"github.com/google/uuid"
)

// hooks dispatches to every registered Handler in registration order.
type hooks []Handler

// spawn runs HandleStorageSpawn and reports whether the spawn may go ahead.
// Dispatch stops at the first handler that cancels.
func (hs hooks) spawn(d Drone) bool {
	ctx := event.C(d)
	for _, h := range hs {
		h.HandleStorageSpawn(ctx, d)
		if ctx.Cancelled() {
			return false
		}
	}
	return true
}

func (hs hooks) spawned(d Drone, c Container) {
	for _, h := range hs {
		h.HandleStorageSpawned(d, c)
	}
}

// drop runs HandleStorageDrop and reports whether the drop may go ahead.
func (hs hooks) drop(d Drone, c Container, pilot Actor) bool {
	ctx := event.C(d)
	for _, h := range hs {
		h.HandleStorageDrop(ctx, d, c, pilot)
		if ctx.Cancelled() {
			return false
		}
	}
	return true
}

func (hs hooks) dropped(d Drone, c Container, drop uuid.UUID, pilot Actor) {
	for _, h := range hs {
		h.HandleStorageDropped(d, c, drop, pilot)
	}
}
