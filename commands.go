package dronestorage

import (
	"fmt"

	"github.com/df-mc/dragonfly/server/cmd"
	"github.com/df-mc/dragonfly/server/world"
)

// ViewItems opens the loot panel of the storage on the drone a is piloting,
// or closes it if it is already open.
func (m *Manager) ViewItems(a Actor) (err error) {
	m.guard(func() {
		err = m.viewItems(a)
		if err != nil {
			m.reply(a, err)
		}
	})
	return err
}

func (m *Manager) viewItems(a Actor) error {
	s, c, err := m.remote(a, PermissionViewItems)
	if err != nil {
		return err
	}
	if s.viewing {
		m.closeView(s)
		return nil
	}
	if m.engine.OpenLoot(a, c) {
		s.viewing = true
	}
	return nil
}

// DropItems drops the contents of the storage on the drone a is piloting in
// front of the drone.
func (m *Manager) DropItems(a Actor) (err error) {
	m.guard(func() {
		err = m.dropItems(a)
		if err != nil {
			m.reply(a, err)
		}
	})
	return err
}

func (m *Manager) dropItems(a Actor) error {
	s, c, err := m.remote(a, PermissionDropItems)
	if err != nil {
		return err
	}
	d, ok := m.drones[s.Drone]
	if !ok {
		return fmt.Errorf("dronestorage: drop items: %w", ErrNoSession)
	}
	m.closeView(s)
	m.drop(d, c, a)
	return nil
}

// ToggleLock locks or unlocks the storage on the drone a is piloting.
func (m *Manager) ToggleLock(a Actor) (err error) {
	m.guard(func() {
		err = m.toggleLock(a)
		if err != nil {
			m.reply(a, err)
		}
	})
	return err
}

func (m *Manager) toggleLock(a Actor) error {
	s, c, err := m.remote(a, PermissionLock)
	if err != nil {
		return err
	}
	lock, ok := c.Lock()
	if !ok {
		return fmt.Errorf("dronestorage: toggle lock: %w", ErrNoLock)
	}
	locked := !lock.Locked()
	lock.SetLocked(locked)
	if locked {
		m.message(a, "Lock.Locked")
	} else {
		m.message(a, "Lock.Unlocked")
	}
	m.render(s)
	return nil
}

// remote resolves the session and storage for a remote command gated by
// perm.
func (m *Manager) remote(a Actor, perm string) (*ControlSession, Container, error) {
	id := a.UUID()
	if !m.perms.Has(id, perm) {
		return nil, nil, fmt.Errorf("dronestorage: %s: %w", perm, ErrNoPermission)
	}
	s, ok := m.registry.Session(id)
	if !ok {
		return nil, nil, fmt.Errorf("dronestorage: %s: %w", perm, ErrNoSession)
	}
	if !m.stillControls(s.Station, id, s.Drone) {
		m.registry.EndControl(id)
		m.endSession(s)
		return nil, nil, fmt.Errorf("dronestorage: %s: %w", perm, ErrNoSession)
	}
	c, ok := m.attached(s.Drone)
	if !ok {
		return nil, nil, fmt.Errorf("dronestorage: %s: %w", perm, ErrNoSession)
	}
	return s, c, nil
}

// RunRemoteCommand runs the overlay command bound to name.
func (m *Manager) RunRemoteCommand(a Actor, name string) error {
	switch name {
	case CommandViewItems:
		return m.ViewItems(a)
	case CommandDropItems:
		return m.DropItems(a)
	case CommandToggleLock:
		return m.ToggleLock(a)
	}
	return fmt.Errorf("dronestorage: %q: %w", name, ErrUnknownCommand)
}

// Commands returns the chat commands for deploy and the overlay buttons.
func (m *Manager) Commands() []cmd.Command {
	return []cmd.Command{
		cmd.New(CommandDeploy, "Deploy storage onto the drone you are looking at.", nil, deployCommand{m: m}),
		cmd.New(CommandViewItems, "View the storage of the drone you are piloting.", nil, remoteCommand{m: m, name: CommandViewItems}),
		cmd.New(CommandDropItems, "Drop the storage contents of the drone you are piloting.", nil, remoteCommand{m: m, name: CommandDropItems}),
		cmd.New(CommandToggleLock, "Lock or unlock the storage of the drone you are piloting.", nil, remoteCommand{m: m, name: CommandToggleLock}),
	}
}

// deployCommand implements the deploy chat command.
type deployCommand struct {
	m *Manager
}

func (c deployCommand) Run(src cmd.Source, o *cmd.Output, _ *world.Tx) {
	p := Command(src)
	if p == nil {
		o.Error("This command can only be used by players.")
		return
	}
	// Failures are replied to the player by the manager.
	_ = c.m.Deploy(p)
}

// remoteCommand implements an overlay button command.
type remoteCommand struct {
	m    *Manager
	name string
}

func (c remoteCommand) Run(src cmd.Source, o *cmd.Output, _ *world.Tx) {
	p := Command(src)
	if p == nil {
		o.Error("This command can only be used by players.")
		return
	}
	_ = c.m.RunRemoteCommand(p, c.name)
}
