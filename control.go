package dronestorage

import (
	"github.com/google/uuid"
)

// HandleControlStart records that controller started controlling target from
// station. Any session the controller or the station had is ended at once. A
// nil target means the station switched to something that is not a drone.
//
// The new session is committed on the next tick, once the station still
// shows the same drone and the same mounted controller; otherwise the
// provisional record is rolled back.
func (m *Manager) HandleControlStart(station uuid.UUID, controller Actor, target Drone) {
	m.guard(func() {
		id := controller.UUID()
		if p, ok := m.pending[id]; ok {
			p.task.Cancel()
			delete(m.pending, id)
		}
		m.endStale(id, station)
		if target == nil {
			return
		}
		p := &pendingControl{
			controller: controller,
			drone:      target.ID(),
			station:    station,
		}
		p.task = m.scheduler.NextTick(&commitControlTask{m: m, controller: id, pending: p}, Default)
		m.pending[id] = p
	})
}

// endStale ends the committed sessions of controller and of station.
func (m *Manager) endStale(controller, station uuid.UUID) {
	if s, ok := m.registry.EndControl(controller); ok {
		m.endSession(s)
	}
	if s, ok := m.registry.SessionByStation(station); ok {
		m.registry.EndControl(s.Controller)
		m.endSession(s)
	}
}

// HandleControlEnd ends the controller's session on the drone.
func (m *Manager) HandleControlEnd(station, controller, drone uuid.UUID) {
	m.guard(func() {
		if p, ok := m.pending[controller]; ok && p.drone == drone {
			p.task.Cancel()
			delete(m.pending, controller)
		}
		s, ok := m.registry.Session(controller)
		if !ok || s.Drone != drone {
			return
		}
		m.registry.EndControl(controller)
		m.endSession(s)
	})
}

// HandleStationDismount ends any session the controller had on station.
func (m *Manager) HandleStationDismount(station, controller uuid.UUID) {
	m.guard(func() {
		if p, ok := m.pending[controller]; ok {
			p.task.Cancel()
			delete(m.pending, controller)
		}
		m.endStale(controller, station)
	})
}

// HandleLootEnd records that the controller closed a loot panel.
func (m *Manager) HandleLootEnd(controller uuid.UUID) {
	m.guard(func() {
		if s, ok := m.registry.Session(controller); ok {
			s.viewing = false
		}
	})
}

// CanMoveItem reports whether the controller may move items out of source.
// Moves out of the storage being viewed remotely are refused.
func (m *Manager) CanMoveItem(controller, source uuid.UUID) (ok bool) {
	ok = true
	m.guard(func() {
		s, found := m.registry.Session(controller)
		if !found || !s.viewing {
			return
		}
		if c, attached := m.registry.Container(s.Drone); attached && c == source {
			ok = false
		}
	})
	return ok
}

// Session returns a copy of the controller's committed session.
func (m *Manager) Session(controller uuid.UUID) (s ControlSession, ok bool) {
	m.guard(func() {
		var sess *ControlSession
		if sess, ok = m.registry.Session(controller); ok {
			s = *sess
		}
	})
	return s, ok
}

// render shows the overlay for s, or removes it when the drone has no
// storage or the controller may press no button.
func (m *Manager) render(s *ControlSession) {
	if s.actor == nil {
		return
	}
	c, ok := m.attached(s.Drone)
	if !ok {
		m.ui.Destroy(s.actor)
		return
	}
	set := ButtonSet{
		View: m.perms.Has(s.Controller, PermissionViewItems),
		Drop: m.perms.Has(s.Controller, PermissionDropItems),
	}
	if lock, ok := c.Lock(); ok {
		set.Lock = m.perms.Has(s.Controller, PermissionLock)
		set.Locked = lock.Locked()
	}
	if set.Len() == 0 {
		m.ui.Destroy(s.actor)
		return
	}
	m.ui.Render(s.actor, BuildOverlay(m.cfg.UI, m.lang, s.actor.Locale(), set))
}

// closeView closes the remote loot panel for s if it is open.
func (m *Manager) closeView(s *ControlSession) {
	if s.viewing && s.actor != nil {
		m.engine.CloseLoot(s.actor)
	}
	s.viewing = false
}

// endSession tears down the side effects of a session that was removed from
// the registry.
func (m *Manager) endSession(s *ControlSession) {
	m.closeView(s)
	if s.actor != nil {
		m.ui.Destroy(s.actor)
	}
}

// stillControls reports whether the station still shows controller mounted
// and piloting drone.
func (m *Manager) stillControls(station, controller, drone uuid.UUID) bool {
	st, ok := m.engine.Station(station)
	return ok && st.Controlling() == drone && st.Mounted() == controller
}

// commitControlTask is phase two of a control start.
type commitControlTask struct {
	m          *Manager
	controller uuid.UUID
	pending    *pendingControl
}

func (t *commitControlTask) Run() {
	m := t.m
	p, ok := m.pending[t.controller]
	if !ok || p != t.pending {
		return
	}
	delete(m.pending, t.controller)

	if !m.stillControls(p.station, t.controller, p.drone) {
		m.log.Debug("dronestorage: control start rolled back", "controller", t.controller, "drone", p.drone)
		return
	}

	s, stale := m.registry.BeginControl(t.controller, p.drone, p.station)
	s.actor = p.controller
	for _, old := range stale {
		m.closeView(old)
		if old.Controller != t.controller && old.actor != nil {
			m.ui.Destroy(old.actor)
		}
	}
	m.render(s)
}
