package dronestorage

import (
	"fmt"

	"github.com/df-mc/dragonfly/server/item/inventory"
)

// Deploy attaches storage to the drone a is looking at.
//
// Checks run in order and the first failure is replied to a and returned:
// deploy permission, a drone in range, building rights at the drone, a free
// slot, a capacity grant, then the cost item. One cost item is consumed on
// success unless a holds the free deploy permission.
func (m *Manager) Deploy(a Actor) (err error) {
	m.guard(func() {
		err = m.deploy(a)
		if err != nil {
			m.reply(a, err, m.cfg.Deploy.CostItem)
		}
	})
	return err
}

func (m *Manager) deploy(a Actor) error {
	id := a.UUID()
	if !m.perms.Has(id, PermissionDeploy) {
		return fmt.Errorf("dronestorage: deploy: %w", ErrNoPermission)
	}

	d := lookAt(m.engine, a, m.cfg.Deploy.MaxDistance)
	if d == nil {
		return fmt.Errorf("dronestorage: deploy: %w", ErrNoDrone)
	}
	if m.engine.BuildBlocked(a, d.Position()) {
		return fmt.Errorf("dronestorage: deploy: %w", ErrBuildBlocked)
	}
	if _, ok := m.registry.Container(d.ID()); ok {
		return fmt.Errorf("dronestorage: deploy: %w", ErrAlreadyHasStorage)
	}
	if c, occupied := m.engine.SlotOccupant(d); occupied {
		if c != nil {
			return fmt.Errorf("dronestorage: deploy: %w", ErrAlreadyHasStorage)
		}
		return fmt.Errorf("dronestorage: deploy: %w", ErrIncompatibleAttachment)
	}

	capacity := m.capacityFor(id)
	if capacity <= 0 {
		return fmt.Errorf("dronestorage: deploy: %w", ErrNoCapacity)
	}

	free := m.perms.Has(id, PermissionDeployFree)
	slot := -1
	if !free {
		if slot = costSlot(a.Inventory(), m.cfg.Deploy.CostItem); slot < 0 {
			return fmt.Errorf("dronestorage: deploy: %w", ErrNoCostItem)
		}
	}

	if _, err := m.spawn(d, capacity); err != nil {
		return err
	}

	if !free {
		if err := consume(a.Inventory(), slot); err != nil {
			m.log.Warn("dronestorage: cost item not taken", "player", a.Name(), "slot", slot, "error", err)
		}
	}

	m.engine.PlayEffect(EffectDeploy, d.Position())
	m.message(a, "Deploy.Success", capacity)
	m.log.Info("dronestorage: deployed", "player", a.Name(), "drone", d.ID(), "capacity", capacity)
	return nil
}

// consume takes one item from slot.
func consume(inv *inventory.Inventory, slot int) error {
	s, err := inv.Item(slot)
	if err != nil {
		return err
	}
	return inv.SetItem(slot, s.Grow(-1))
}

// costSlot returns the first slot in inv holding the cost item, or -1.
func costSlot(inv *inventory.Inventory, cost string) int {
	for slot, s := range inv.Slots() {
		if matchesItem(s, cost) {
			return slot
		}
	}
	return -1
}
