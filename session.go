package dronestorage

import (
	"github.com/google/uuid"
)

// ControlSession relates a controller to the drone they are piloting from a
// control station. Sessions are created one tick after the host signals
// control start, once the grant has been re-validated, and destroyed on
// control end, station dismount, or when the drone is killed.
type ControlSession struct {
	// Controller is the identity of the piloting player.
	Controller uuid.UUID

	// Drone is the controlled drone.
	Drone uuid.UUID

	// Station is the control station the controller is mounted on.
	Station uuid.UUID

	// actor is the live controller, used for replies and UI rendering.
	actor Actor

	// viewing is set while the controller has the drone storage loot panel open.
	viewing bool
}

// Actor returns the controller as an Actor, or nil for sessions created
// directly through the Registry.
func (s *ControlSession) Actor() Actor {
	return s.actor
}

// Viewing reports whether the controller has the storage loot panel open.
func (s *ControlSession) Viewing() bool {
	return s.viewing
}

// pendingControl is the provisional record written in phase one of a control
// start. It is committed or discarded by a commitControlTask on the next tick.
type pendingControl struct {
	controller Actor
	drone      uuid.UUID
	station    uuid.UUID
	task       *TaskHandle
}
