package dronestorage

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"
)

// Manager is the drone storage coordinator. It reacts to host lifecycle
// signals, keeps the attachment registry, and drives the overlay UI.
// Multiple Manager instances can coexist for running multiple isolated
// servers.
type Manager struct {
	// mu serializes every entry point and scheduled task
	mu sync.Mutex

	cfg    Config
	engine Engine
	perms  Permissions
	ui     UI
	lang   *Lang
	hooks  hooks
	log    *slog.Logger

	// registry holds attachments and control sessions
	registry *Registry

	// scheduler runs deferred commits and the reconcile loop
	scheduler *Scheduler

	// tracked toggles the reconcile loop while any drone is tracked
	tracked   *Subscriptions[uuid.UUID]
	reconcile *LoopHandle

	// drones holds live handles for tracked drones
	drones map[uuid.UUID]Drone

	// containers holds live handles for attached containers
	containers map[uuid.UUID]Container

	// pending holds phase one control records by controller
	pending map[uuid.UUID]*pendingControl

	// built holds deferred auto-deploys for freshly built drones
	built map[uuid.UUID]*TaskHandle

	// initialized is set once the host reports server start-up is complete
	initialized bool
	closed      bool

	// chance returns a value in [0, 1) for tip-over rolls
	chance func() float64
}

// newManager creates a new manager. The scheduler is not started.
func newManager(cfg Config, engine Engine, perms Permissions, ui UI, lang *Lang, hs []Handler, log *slog.Logger) *Manager {
	m := &Manager{
		cfg:        cfg,
		engine:     engine,
		perms:      perms,
		ui:         ui,
		lang:       lang,
		hooks:      hs,
		log:        log,
		registry:   NewRegistry(),
		drones:     make(map[uuid.UUID]Drone),
		containers: make(map[uuid.UUID]Container),
		pending:    make(map[uuid.UUID]*pendingControl),
		built:      make(map[uuid.UUID]*TaskHandle),
		chance:     rand.Float64,
	}
	m.scheduler = newScheduler(log, m.guard)
	m.tracked = NewSubscriptions[uuid.UUID](m.subscribe, m.unsubscribe)
	return m
}

// guard runs fn under the manager lock unless the manager is closed.
func (m *Manager) guard(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	fn()
}

// subscribe starts the reconcile loop. Called when the first drone is tracked.
func (m *Manager) subscribe() {
	m.reconcile = m.scheduler.Every(m.cfg.ReconcileInterval, &reconcileTask{m: m}, After)
	m.log.Debug("dronestorage: reconcile loop started")
}

// unsubscribe stops the reconcile loop. Called when the last drone is
// untracked.
func (m *Manager) unsubscribe() {
	m.reconcile.Cancel()
	m.reconcile = nil
	m.log.Debug("dronestorage: reconcile loop stopped")
}

// registerPermissions registers every permission the manager checks.
func (m *Manager) registerPermissions() error {
	names := []string{
		PermissionDeploy,
		PermissionDeployFree,
		PermissionAutoDeploy,
		PermissionViewItems,
		PermissionDropItems,
		PermissionLock,
	}
	for _, tier := range m.cfg.CapacityTiers {
		names = append(names, CapacityPermission(tier))
	}
	for _, name := range names {
		if err := m.perms.Register(name); err != nil {
			return fmt.Errorf("dronestorage: register permission %q: %w", name, err)
		}
	}
	return nil
}

// Start starts the scheduler.
func (m *Manager) Start() {
	m.scheduler.Start()
}

// Config returns the configuration the manager was built with.
func (m *Manager) Config() Config {
	return m.cfg
}

// Registry returns the attachment registry. It must only be read from hook
// handlers or while no signal is being delivered.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// Close tears down every overlay and stops the scheduler. Signals delivered
// after Close are ignored.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	for _, s := range m.registry.Sessions() {
		m.endSession(s)
	}
	for id, p := range m.pending {
		p.task.Cancel()
		delete(m.pending, id)
	}
	for id, t := range m.built {
		t.Cancel()
		delete(m.built, id)
	}
	m.tracked.Clear()
	m.closed = true
	m.mu.Unlock()

	// The tick loop takes the lock, so it is stopped outside of it.
	m.scheduler.Stop()
	m.log.Info("dronestorage: closed")
}

// capacityFor resolves the storage capacity for owner.
func (m *Manager) capacityFor(owner uuid.UUID) int {
	if owner == uuid.Nil {
		return 0
	}
	if n := ResolveCapacity(owner, m.perms, m.cfg.CapacityTiers); n > 0 {
		return n
	}
	return m.cfg.DefaultCapacity
}

// track starts tracking d.
func (m *Manager) track(d Drone) {
	m.drones[d.ID()] = d
	m.tracked.Add(d.ID())
}

// untrack releases everything keyed by the drone: its attachment, control
// sessions, pending commits and deferred deploys.
func (m *Manager) untrack(id uuid.UUID) {
	if t, ok := m.built[id]; ok {
		t.Cancel()
		delete(m.built, id)
	}
	for controller, p := range m.pending {
		if p.drone == id {
			p.task.Cancel()
			delete(m.pending, controller)
		}
	}
	if s, ok := m.registry.SessionByDrone(id); ok {
		m.registry.EndControl(s.Controller)
		m.endSession(s)
	}
	if c, ok := m.registry.Detach(id); ok {
		delete(m.containers, c)
	}
	delete(m.drones, id)
	m.tracked.Remove(id)
}

// attached returns the container attached to the drone.
func (m *Manager) attached(drone uuid.UUID) (Container, bool) {
	id, ok := m.registry.Container(drone)
	if !ok {
		return nil, false
	}
	c, ok := m.containers[id]
	return c, ok
}

// reply sends the localized message for err to a.
func (m *Manager) reply(a Actor, err error, args ...any) {
	key := replyKey(err)
	if key == "" {
		key = "Deploy.Error.Generic"
	}
	a.Message(m.lang.Get(a.Locale(), key, args...))
}

// message sends the localized message for key to a.
func (m *Manager) message(a Actor, key string, args ...any) {
	a.Message(m.lang.Get(a.Locale(), key, args...))
}
