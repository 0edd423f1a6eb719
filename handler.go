package dronestorage

import (
	"github.com/df-mc/dragonfly/server/event"
	"github.com/google/uuid"
)

// Context is passed to cancellable hooks. Calling Cancel stops the action
// with no side effects.
type Context = event.Context[Drone]

// Handler receives storage lifecycle hooks. Embed NopHandler to implement
// only the hooks you need.
//
// Hooks run while the Manager lock is held and must not call back into the
// Manager.
type Handler interface {
	// HandleStorageSpawn runs before storage is spawned on d, for both
	// automatic and manual deploys.
	HandleStorageSpawn(ctx *Context, d Drone)

	// HandleStorageSpawned runs after c was attached to d.
	HandleStorageSpawned(d Drone, c Container)

	// HandleStorageDrop runs before the contents of c are dropped. pilot is
	// nil when nobody is piloting d.
	HandleStorageDrop(ctx *Context, d Drone, c Container, pilot Actor)

	// HandleStorageDropped runs after the contents of c were dropped as drop.
	HandleStorageDropped(d Drone, c Container, drop uuid.UUID, pilot Actor)
}

// NopHandler implements Handler with no-ops.
type NopHandler struct{}

func (NopHandler) HandleStorageSpawn(*Context, Drone)                       {}
func (NopHandler) HandleStorageSpawned(Drone, Container)                    {}
func (NopHandler) HandleStorageDrop(*Context, Drone, Container, Actor)      {}
func (NopHandler) HandleStorageDropped(Drone, Container, uuid.UUID, Actor) {}

// Compile-time check that NopHandler implements Handler.
var _ Handler = NopHandler{}
