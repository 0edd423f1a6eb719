package dronestorage

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/df-mc/dragonfly/server/item"
	"github.com/df-mc/dragonfly/server/item/inventory"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func newInventory(size int) *inventory.Inventory {
	return inventory.New(size, func(int, item.Stack, item.Stack) {})
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeDrone struct {
	id       uuid.UUID
	owner    uuid.UUID
	pos      mgl64.Vec3
	rot      cube.Rotation
	eligible bool
	hurt     []float64
}

func newFakeDrone(owner uuid.UUID, pos mgl64.Vec3) *fakeDrone {
	return &fakeDrone{id: uuid.New(), owner: owner, pos: pos, eligible: true}
}

func (d *fakeDrone) ID() uuid.UUID           { return d.id }
func (d *fakeDrone) Owner() uuid.UUID        { return d.owner }
func (d *fakeDrone) Position() mgl64.Vec3    { return d.pos }
func (d *fakeDrone) Rotation() cube.Rotation { return d.rot }
func (d *fakeDrone) Eligible() bool          { return d.eligible }
func (d *fakeDrone) Hurt(amount float64, _ world.DamageSource) {
	d.hurt = append(d.hurt, amount)
}

type fakeLock struct {
	locked bool
}

func (l *fakeLock) Locked() bool          { return l.locked }
func (l *fakeLock) SetLocked(locked bool) { l.locked = locked }

type fakeContainer struct {
	id       uuid.UUID
	owner    uuid.UUID
	inv      *inventory.Inventory
	capacity int
	panel    string
	lock     *fakeLock
}

func newFakeContainer(owner uuid.UUID, capacity int) *fakeContainer {
	return &fakeContainer{
		id:       uuid.New(),
		owner:    owner,
		inv:      newInventory(MaxCapacity),
		capacity: capacity,
	}
}

func (c *fakeContainer) ID() uuid.UUID                   { return c.id }
func (c *fakeContainer) Owner() uuid.UUID                { return c.owner }
func (c *fakeContainer) Inventory() *inventory.Inventory { return c.inv }
func (c *fakeContainer) Capacity() int                   { return c.capacity }
func (c *fakeContainer) SetCapacity(n int)               { c.capacity = n }
func (c *fakeContainer) SetPanel(name string)            { c.panel = name }
func (c *fakeContainer) Lock() (Lock, bool) {
	if c.lock == nil {
		return nil, false
	}
	return c.lock, true
}

type fakeStation struct {
	id          uuid.UUID
	controlling uuid.UUID
	mounted     uuid.UUID
}

func (s *fakeStation) ID() uuid.UUID          { return s.id }
func (s *fakeStation) Controlling() uuid.UUID { return s.controlling }
func (s *fakeStation) Mounted() uuid.UUID     { return s.mounted }

type fakeDrop struct {
	id     uuid.UUID
	pos    mgl64.Vec3
	stacks []item.Stack
}

type slotOccupant struct {
	c        Container
	occupied bool
}

type fakeEngine struct {
	stations   map[uuid.UUID]*fakeStation
	drones     []Drone
	occupants  map[uuid.UUID]slotOccupant
	upsideDown map[uuid.UUID]bool
	blocked    bool
	spawnErr   error
	withLock   bool

	spawned []*fakeContainer
	drops   []fakeDrop
	hits    []uuid.UUID
	effects []string
	opened  map[uuid.UUID]uuid.UUID
	closed  []uuid.UUID
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		stations:   make(map[uuid.UUID]*fakeStation),
		occupants:  make(map[uuid.UUID]slotOccupant),
		upsideDown: make(map[uuid.UUID]bool),
		opened:     make(map[uuid.UUID]uuid.UUID),
	}
}

func (e *fakeEngine) Station(id uuid.UUID) (Station, bool) {
	s, ok := e.stations[id]
	if !ok {
		return nil, false
	}
	return s, true
}

func (e *fakeEngine) DronesNear(pos mgl64.Vec3, radius float64) []Drone {
	var out []Drone
	for _, d := range e.drones {
		if d.Position().Sub(pos).Len() <= radius {
			out = append(out, d)
		}
	}
	return out
}

func (e *fakeEngine) SlotOccupant(d Drone) (Container, bool) {
	o, ok := e.occupants[d.ID()]
	if !ok {
		return nil, false
	}
	return o.c, o.occupied
}

func (e *fakeEngine) SpawnContainer(d Drone, _ mgl64.Vec3, _ mgl64.Quat, capacity int) (Container, error) {
	if e.spawnErr != nil {
		return nil, e.spawnErr
	}
	c := newFakeContainer(d.Owner(), capacity)
	if e.withLock {
		c.lock = &fakeLock{}
	}
	e.spawned = append(e.spawned, c)
	return c, nil
}

func (e *fakeEngine) DropItems(pos mgl64.Vec3, _ mgl64.Quat, stacks []item.Stack) (uuid.UUID, error) {
	d := fakeDrop{id: uuid.New(), pos: pos, stacks: stacks}
	e.drops = append(e.drops, d)
	return d.id, nil
}

func (e *fakeEngine) BuildBlocked(Actor, mgl64.Vec3) bool { return e.blocked }

func (e *fakeEngine) HitNotify(_ Drone, attacker uuid.UUID) {
	e.hits = append(e.hits, attacker)
}

func (e *fakeEngine) PlayEffect(name string, _ mgl64.Vec3) {
	e.effects = append(e.effects, name)
}

func (e *fakeEngine) UpsideDown(d Drone) bool { return e.upsideDown[d.ID()] }

func (e *fakeEngine) OpenLoot(a Actor, c Container) bool {
	e.opened[a.UUID()] = c.ID()
	return true
}

func (e *fakeEngine) CloseLoot(a Actor) {
	delete(e.opened, a.UUID())
	e.closed = append(e.closed, a.UUID())
}

type fakeActor struct {
	id       uuid.UUID
	name     string
	inv      *inventory.Inventory
	pos      mgl64.Vec3
	rot      cube.Rotation
	messages []string
}

func newFakeActor() *fakeActor {
	return &fakeActor{id: uuid.New(), name: "pilot", inv: newInventory(36)}
}

func (a *fakeActor) UUID() uuid.UUID                 { return a.id }
func (a *fakeActor) Name() string                    { return a.name }
func (a *fakeActor) Locale() language.Tag            { return language.English }
func (a *fakeActor) Inventory() *inventory.Inventory { return a.inv }
func (a *fakeActor) Position() mgl64.Vec3            { return a.pos }
func (a *fakeActor) Rotation() cube.Rotation         { return a.rot }
func (a *fakeActor) Message(args ...any) {
	for _, v := range args {
		if s, ok := v.(string); ok {
			a.messages = append(a.messages, s)
		}
	}
}

func (a *fakeActor) lastMessage() string {
	if len(a.messages) == 0 {
		return ""
	}
	return a.messages[len(a.messages)-1]
}

type fakeUI struct {
	rendered  map[uuid.UUID]Overlay
	destroyed []uuid.UUID
}

func newFakeUI() *fakeUI {
	return &fakeUI{rendered: make(map[uuid.UUID]Overlay)}
}

func (u *fakeUI) Render(a Actor, o Overlay) { u.rendered[a.UUID()] = o }
func (u *fakeUI) Destroy(a Actor) {
	delete(u.rendered, a.UUID())
	u.destroyed = append(u.destroyed, a.UUID())
}

type recordingHandler struct {
	NopHandler
	vetoSpawn bool
	vetoDrop  bool
	spawned   int
	dropped   []uuid.UUID
}

func (h *recordingHandler) HandleStorageSpawn(ctx *Context, _ Drone) {
	if h.vetoSpawn {
		ctx.Cancel()
	}
}

func (h *recordingHandler) HandleStorageSpawned(Drone, Container) { h.spawned++ }

func (h *recordingHandler) HandleStorageDrop(ctx *Context, _ Drone, _ Container, _ Actor) {
	if h.vetoDrop {
		ctx.Cancel()
	}
}

func (h *recordingHandler) HandleStorageDropped(_ Drone, _ Container, drop uuid.UUID, _ Actor) {
	h.dropped = append(h.dropped, drop)
}

var errPrefabMissing = errors.New("prefab missing")

type testEnv struct {
	m       *Manager
	engine  *fakeEngine
	perms   *PermissionStore
	ui      *fakeUI
	handler *recordingHandler
}

func newTestEnv(t *testing.T, mutate func(*Config)) *testEnv {
	t.Helper()

	cfg := Defaults()
	cfg.Deploy.CostItem = "minecraft:apple"
	if mutate != nil {
		mutate(&cfg)
	}

	perms, err := NewPermissionStore()
	require.NoError(t, err)

	env := &testEnv{
		engine:  newFakeEngine(),
		perms:   perms,
		ui:      newFakeUI(),
		handler: &recordingHandler{},
	}
	env.m, err = NewBuilder().
		Config(cfg).
		Engine(env.engine).
		Permissions(perms).
		UI(env.ui).
		Handler(env.handler).
		Logger(discardLogger()).
		Build()
	require.NoError(t, err)
	return env
}

func (env *testEnv) grant(t *testing.T, id uuid.UUID, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, env.perms.Grant(id, name))
	}
}

func (env *testEnv) revoke(t *testing.T, id uuid.UUID, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, env.perms.Revoke(id, name))
	}
}

// tick advances the manager's scheduler by one tick.
func (env *testEnv) tick() {
	env.m.scheduler.tick(time.Now())
}
