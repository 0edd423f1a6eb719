package dronestorage

import (
	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/df-mc/dragonfly/server/item"
	"github.com/df-mc/dragonfly/server/item/inventory"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// Drone is a remotely pilotable entity with one reserved attachment slot.
type Drone interface {
	ID() uuid.UUID

	// Owner returns uuid.Nil for unowned drones.
	Owner() uuid.UUID

	Position() mgl64.Vec3
	Rotation() cube.Rotation

	// Eligible reports whether the drone may carry storage. Delivery drones
	// are not eligible.
	Eligible() bool

	// Hurt applies damage to the drone's own health.
	Hurt(amount float64, src world.DamageSource)
}

// Container is the storage entity attached to a drone.
type Container interface {
	ID() uuid.UUID
	Owner() uuid.UUID

	Inventory() *inventory.Inventory

	Capacity() int
	SetCapacity(n int)

	// SetPanel sets the loot panel used to display the inventory.
	SetPanel(name string)

	// Lock returns the container's lock, if it has one.
	Lock() (Lock, bool)
}

// Lock is a lock fitted to a container.
type Lock interface {
	Locked() bool
	SetLocked(locked bool)
}

// Station is a control station a player mounts to pilot drones.
type Station interface {
	ID() uuid.UUID

	// Controlling returns the drone being piloted, or uuid.Nil.
	Controlling() uuid.UUID

	// Mounted returns the player mounted on the station, or uuid.Nil.
	Mounted() uuid.UUID
}

// Engine is the host world as seen by the Manager.
//
// Methods are called with the Manager lock held and must not call back into
// the Manager.
type Engine interface {
	// Station looks up a control station.
	Station(id uuid.UUID) (Station, bool)

	// DronesNear returns drones within radius of pos.
	DronesNear(pos mgl64.Vec3, radius float64) []Drone

	// SlotOccupant reports what sits in the drone's reserved slot. A non-nil
	// Container means storage from this package. Occupied with a nil
	// Container means something else has claimed the slot.
	SlotOccupant(d Drone) (c Container, occupied bool)

	// SpawnContainer creates a container in the drone's reserved slot at the
	// given local offset and rotation.
	SpawnContainer(d Drone, offset mgl64.Vec3, rot mgl64.Quat, capacity int) (Container, error)

	// DropItems spawns a world drop bag holding stacks and returns its ID.
	DropItems(pos mgl64.Vec3, rot mgl64.Quat, stacks []item.Stack) (uuid.UUID, error)

	// BuildBlocked reports whether a may not build at pos.
	BuildBlocked(a Actor, pos mgl64.Vec3) bool

	// HitNotify tells attacker that their hit on d landed.
	HitNotify(d Drone, attacker uuid.UUID)

	// PlayEffect plays a named effect at pos.
	PlayEffect(name string, pos mgl64.Vec3)

	// UpsideDown reports whether d has flipped over.
	UpsideDown(d Drone) bool

	// OpenLoot opens c's loot panel for a. Returns false if it could not be
	// opened.
	OpenLoot(a Actor, c Container) bool

	// CloseLoot closes whatever loot panel a has open.
	CloseLoot(a Actor)
}

// Damage describes a hit on a container.
type Damage struct {
	Amount float64
	Source world.DamageSource

	// Attacker is the entity that dealt the damage, or uuid.Nil.
	Attacker uuid.UUID

	// PlayerAttacker is set when Attacker is a player.
	PlayerAttacker bool
}
