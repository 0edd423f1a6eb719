package dronestorage

import (
	"github.com/google/uuid"
)

// Registry tracks which container is attached to which drone, and which drone
// each controller is currently piloting.
//
// Registry is not safe for concurrent use. The Manager serializes access.
type Registry struct {
	// attachments maps drone ID to container ID
	attachments *relation[uuid.UUID, uuid.UUID]

	// sessions maps controller ID to the active control session
	sessions map[uuid.UUID]*ControlSession
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		attachments: newRelation[uuid.UUID, uuid.UUID](),
		sessions:    make(map[uuid.UUID]*ControlSession),
	}
}

// TryAttach records container as attached to drone. It fails, leaving the
// registry untouched, if the drone already has an attachment or the container
// is already attached elsewhere.
func (r *Registry) TryAttach(drone, container uuid.UUID) bool {
	return r.attachments.set(drone, container)
}

// Detach removes the drone's attachment and returns the container that was
// attached. Detaching a drone without an attachment is a no-op.
func (r *Registry) Detach(drone uuid.UUID) (uuid.UUID, bool) {
	return r.attachments.removeKey(drone)
}

// ForgetContainer removes the attachment that container takes part in and
// returns the drone it was attached to.
func (r *Registry) ForgetContainer(container uuid.UUID) (uuid.UUID, bool) {
	return r.attachments.removeValue(container)
}

// Container returns the container attached to drone.
func (r *Registry) Container(drone uuid.UUID) (uuid.UUID, bool) {
	return r.attachments.get(drone)
}

// DroneOf returns the drone container is attached to.
func (r *Registry) DroneOf(container uuid.UUID) (uuid.UUID, bool) {
	return r.attachments.owner(container)
}

// Drones returns the IDs of every drone with an attachment.
func (r *Registry) Drones() []uuid.UUID {
	return r.attachments.keys()
}

// Len returns the number of attachments.
func (r *Registry) Len() int {
	return r.attachments.len()
}

// BeginControl records that controller is piloting drone from station.
//
// The host does not fire an end signal on every transition (switching from a
// drone straight to a camera, for example), so any existing session for the
// same controller, the same station, or the same drone is cleared first. The
// cleared sessions are returned so callers can tear down their UI.
func (r *Registry) BeginControl(controller, drone, station uuid.UUID) (*ControlSession, []*ControlSession) {
	var stale []*ControlSession
	for id, s := range r.sessions {
		if id == controller || s.Station == station || s.Drone == drone {
			stale = append(stale, s)
			delete(r.sessions, id)
		}
	}

	s := &ControlSession{
		Controller: controller,
		Drone:      drone,
		Station:    station,
	}
	r.sessions[controller] = s
	return s, stale
}

// EndControl removes the controller's session. Ending a session that does not
// exist is a no-op.
func (r *Registry) EndControl(controller uuid.UUID) (*ControlSession, bool) {
	s, ok := r.sessions[controller]
	if !ok {
		return nil, false
	}
	delete(r.sessions, controller)
	return s, true
}

// Session returns the controller's active session.
func (r *Registry) Session(controller uuid.UUID) (*ControlSession, bool) {
	s, ok := r.sessions[controller]
	return s, ok
}

// SessionByDrone returns the session piloting drone.
func (r *Registry) SessionByDrone(drone uuid.UUID) (*ControlSession, bool) {
	for _, s := range r.sessions {
		if s.Drone == drone {
			return s, true
		}
	}
	return nil, false
}

// SessionByStation returns the session running on station.
func (r *Registry) SessionByStation(station uuid.UUID) (*ControlSession, bool) {
	for _, s := range r.sessions {
		if s.Station == station {
			return s, true
		}
	}
	return nil, false
}

// Sessions returns every active session.
func (r *Registry) Sessions() []*ControlSession {
	out := make([]*ControlSession, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}
