package dronestorage

import (
	"fmt"

	"github.com/df-mc/dragonfly/server/item"
	"github.com/google/uuid"
)

// HandleServerInitialized adopts storage already attached to drones and
// reconciles every eligible drone. Spawn signals are ignored until it runs.
func (m *Manager) HandleServerInitialized(drones []Drone) {
	m.guard(func() {
		m.initialized = true
		for _, d := range drones {
			if !d.Eligible() {
				continue
			}
			m.track(d)
			if c, occupied := m.engine.SlotOccupant(d); occupied && c != nil {
				m.adopt(d, c)
			}
		}
		m.reconcileAll()
		m.log.Info("dronestorage: initialized", "drones", len(m.drones), "attached", m.registry.Len())
	})
}

// HandleDroneSpawned gives a newly spawned drone storage.
func (m *Manager) HandleDroneSpawned(d Drone) {
	m.guard(func() {
		if !m.initialized || !d.Eligible() {
			return
		}
		m.track(d)
		m.autoDeploy(d)
	})
}

// HandleDroneBuilt gives a freshly built drone storage on the next tick, once
// other plugins have had a chance to claim its slot.
func (m *Manager) HandleDroneBuilt(d Drone) {
	m.guard(func() {
		if !d.Eligible() {
			return
		}
		m.track(d)
		if t, ok := m.built[d.ID()]; ok {
			t.Cancel()
		}
		m.built[d.ID()] = m.scheduler.NextTick(&builtTask{m: m, drone: d.ID()}, Default)
	})
}

// HandleDroneDeath drops the drone's storage contents and releases it. The
// drop can be vetoed by a Handler, in which case the contents are lost with
// the drone.
func (m *Manager) HandleDroneDeath(d Drone) {
	m.guard(func() {
		if c, ok := m.attached(d.ID()); ok {
			var pilot Actor
			if s, ok := m.registry.SessionByDrone(d.ID()); ok {
				pilot = s.actor
			}
			m.drop(d, c, pilot)
		}
		m.untrack(d.ID())
	})
}

// HandleDroneKill releases everything tracked for a destroyed drone without
// dropping anything.
func (m *Manager) HandleDroneKill(drone uuid.UUID) {
	m.guard(func() {
		m.untrack(drone)
	})
}

// HandleContainerKill releases the attachment of a destroyed container.
func (m *Manager) HandleContainerKill(container uuid.UUID) {
	m.guard(func() {
		drone, ok := m.registry.ForgetContainer(container)
		delete(m.containers, container)
		if !ok {
			return
		}
		if s, ok := m.registry.SessionByDrone(drone); ok {
			m.closeView(s)
			m.render(s)
		}
	})
}

// HandleContainerDamage forwards damage aimed at attached storage to its
// drone. It returns true when the damage was forwarded; the host must then
// cancel the damage on the container.
func (m *Manager) HandleContainerDamage(container uuid.UUID, dmg Damage) (absorbed bool) {
	m.guard(func() {
		id, ok := m.registry.DroneOf(container)
		if !ok {
			return
		}
		d, ok := m.drones[id]
		if !ok {
			return
		}
		absorbed = true
		d.Hurt(dmg.Amount, dmg.Source)
		if dmg.PlayerAttacker && dmg.Attacker != uuid.Nil {
			m.engine.HitNotify(d, dmg.Attacker)
		}
	})
	return absorbed
}

// CanPickup reports whether the drone may be picked up. Drones carrying
// storage with items in it may not.
func (m *Manager) CanPickup(drone uuid.UUID) (ok bool) {
	ok = true
	m.guard(func() {
		if c, attached := m.attached(drone); attached {
			ok = c.Inventory().Empty()
		}
	})
	return ok
}

// CanAcceptItem reports whether s may be placed in the container. Items on
// the disallowed list are refused by drone storage; other containers accept
// anything.
func (m *Manager) CanAcceptItem(container uuid.UUID, s item.Stack) (ok bool) {
	ok = true
	m.guard(func() {
		if _, attached := m.registry.DroneOf(container); !attached {
			return
		}
		for _, id := range m.cfg.DisallowedItems {
			if matchesItem(s, id) {
				ok = false
				return
			}
		}
	})
	return ok
}

// Reconcile runs a reconcile pass immediately.
func (m *Manager) Reconcile() {
	m.guard(m.reconcileAll)
}

// reconcileAll raises the capacity of attached storage to what its owner is
// now allowed, rolls tip-over for flipped drones, and deploys storage to
// tracked drones without any.
func (m *Manager) reconcileAll() {
	for id, d := range m.drones {
		c, ok := m.attached(id)
		if !ok {
			m.autoDeploy(d)
			continue
		}
		if n := m.capacityFor(d.Owner()); n > c.Capacity() {
			c.SetCapacity(n)
			c.SetPanel(PanelForCapacity(n))
			m.log.Debug("dronestorage: raised capacity", "drone", id, "capacity", n)
		}
		if m.cfg.TipChance > 0 && m.engine.UpsideDown(d) && m.chance()*100 < m.cfg.TipChance {
			m.drop(d, c, nil)
		}
	}
}

// adopt attaches storage that already exists on d.
func (m *Manager) adopt(d Drone, c Container) {
	if !m.registry.TryAttach(d.ID(), c.ID()) {
		return
	}
	m.containers[c.ID()] = c
	m.log.Debug("dronestorage: adopted storage", "drone", d.ID(), "container", c.ID())
}

// autoDeploy gives d storage if its owner is entitled to it. Failures are
// silent.
func (m *Manager) autoDeploy(d Drone) {
	if !m.cfg.Deploy.AutoDeploy || !d.Eligible() {
		return
	}
	if _, ok := m.registry.Container(d.ID()); ok {
		return
	}
	owner := d.Owner()
	if owner == uuid.Nil || !m.perms.Has(owner, PermissionAutoDeploy) {
		return
	}
	if c, occupied := m.engine.SlotOccupant(d); occupied {
		if c != nil {
			m.adopt(d, c)
		}
		return
	}
	n := m.capacityFor(owner)
	if n <= 0 {
		return
	}
	if _, err := m.spawn(d, n); err != nil {
		m.log.Debug("dronestorage: auto deploy skipped", "drone", d.ID(), "error", err)
	}
}

// spawn creates and attaches storage of the given capacity on d.
//
// The slot is checked before the host creates anything, so a container is
// never spawned without being attached.
func (m *Manager) spawn(d Drone, capacity int) (Container, error) {
	if _, ok := m.registry.Container(d.ID()); ok {
		return nil, fmt.Errorf("dronestorage: spawn storage: %w", ErrAlreadyHasStorage)
	}
	if !m.hooks.spawn(d) {
		return nil, ErrSpawnVetoed
	}
	c, err := m.engine.SpawnContainer(d, StorageOffset, StorageRotation, capacity)
	if err != nil {
		return nil, fmt.Errorf("dronestorage: spawn storage: %w: %w", ErrDeployFailed, err)
	}
	if c == nil {
		return nil, fmt.Errorf("dronestorage: spawn storage: %w", ErrDeployFailed)
	}
	c.SetCapacity(capacity)
	c.SetPanel(PanelForCapacity(capacity))
	if !m.registry.TryAttach(d.ID(), c.ID()) {
		m.log.Error("dronestorage: spawned storage could not be attached", "drone", d.ID(), "container", c.ID())
		return nil, fmt.Errorf("dronestorage: attach storage: %w", ErrAlreadyHasStorage)
	}
	m.containers[c.ID()] = c
	m.drones[d.ID()] = d
	m.tracked.Add(d.ID())

	m.hooks.spawned(d, c)
	m.log.Debug("dronestorage: storage attached", "drone", d.ID(), "container", c.ID(), "capacity", capacity)

	if s, ok := m.registry.SessionByDrone(d.ID()); ok {
		m.render(s)
	}
	return c, nil
}

// drop spills the contents of c into a world drop bag. Empty storage drops
// nothing.
func (m *Manager) drop(d Drone, c Container, pilot Actor) (uuid.UUID, bool) {
	inv := c.Inventory()
	if inv.Empty() {
		return uuid.Nil, false
	}
	if !m.hooks.drop(d, c, pilot) {
		return uuid.Nil, false
	}

	pos, rot := dropTransform(d, pilot != nil)
	m.engine.PlayEffect(EffectDeploy, d.Position().Add(StorageOffset))
	id, err := m.engine.DropItems(pos, rot, inv.Items())
	if err != nil {
		m.log.Warn("dronestorage: drop failed", "drone", d.ID(), "error", err)
		return uuid.Nil, false
	}
	inv.Clear()

	m.hooks.dropped(d, c, id, pilot)
	return id, true
}

// reconcileTask is the periodic reconcile loop body.
type reconcileTask struct {
	m *Manager
}

func (t *reconcileTask) Run() {
	t.m.reconcileAll()
}

// builtTask deploys storage to a drone one tick after it was built.
type builtTask struct {
	m     *Manager
	drone uuid.UUID
}

func (t *builtTask) Run() {
	m := t.m
	delete(m.built, t.drone)
	d, ok := m.drones[t.drone]
	if !ok {
		return
	}
	m.autoDeploy(d)
}
