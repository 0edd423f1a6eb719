package dronestorage

import (
	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/df-mc/dragonfly/server/item/inventory"
	"github.com/df-mc/dragonfly/server/player"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"golang.org/x/text/language"
)

// Actor is a player invoking a command or piloting a drone.
// *player.Player satisfies it.
type Actor interface {
	// Identity
	UUID() uuid.UUID
	Name() string
	Locale() language.Tag

	// Replies
	Message(a ...any)

	// Deploy cost is taken from here
	Inventory() *inventory.Inventory

	// Look-at origin
	Position() mgl64.Vec3
	Rotation() cube.Rotation
}

// Compile-time check that players can act.
var _ Actor = (*player.Player)(nil)
