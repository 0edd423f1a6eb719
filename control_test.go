package dronestorage

import (
	"testing"

	"github.com/df-mc/dragonfly/server/item"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pilot starts and commits a control session for a new actor on d.
func (env *testEnv) pilot(t *testing.T, d *fakeDrone, perms ...string) (*fakeActor, *fakeStation) {
	t.Helper()
	a := newFakeActor()
	env.grant(t, a.UUID(), perms...)
	st := &fakeStation{id: uuid.New(), controlling: d.ID(), mounted: a.UUID()}
	env.engine.stations[st.id] = st

	env.m.HandleControlStart(st.id, a, d)
	env.tick()
	_, ok := env.m.Session(a.UUID())
	require.True(t, ok, "session was not committed")
	return a, st
}

func TestControlStartCommitsNextTick(t *testing.T) {
	env := newTestEnv(t, nil)
	d, _ := env.attachNew(t, 6)
	a := newFakeActor()
	env.grant(t, a.UUID(), PermissionViewItems, PermissionDropItems)
	st := &fakeStation{id: uuid.New(), controlling: d.ID(), mounted: a.UUID()}
	env.engine.stations[st.id] = st

	env.m.HandleControlStart(st.id, a, d)
	_, ok := env.m.Session(a.UUID())
	assert.False(t, ok, "nothing is committed within the signal")
	assert.Empty(t, env.ui.rendered)

	env.tick()
	s, ok := env.m.Session(a.UUID())
	require.True(t, ok)
	assert.Equal(t, d.ID(), s.Drone)
	assert.Equal(t, st.id, s.Station)

	o, ok := env.ui.rendered[a.UUID()]
	require.True(t, ok)
	require.Len(t, o.Buttons, 2)
	assert.Equal(t, CommandViewItems, o.Buttons[0].Command)
	assert.Equal(t, CommandDropItems, o.Buttons[1].Command)
}

func TestControlStartRollsBackWhenGrantChanged(t *testing.T) {
	env := newTestEnv(t, nil)
	d, _ := env.attachNew(t, 6)
	a := newFakeActor()
	env.grant(t, a.UUID(), PermissionViewItems)
	st := &fakeStation{id: uuid.New(), controlling: d.ID(), mounted: a.UUID()}
	env.engine.stations[st.id] = st

	env.m.HandleControlStart(st.id, a, d)
	// Another plugin kicks the controller off within the same signal.
	st.mounted = uuid.New()
	env.tick()

	_, ok := env.m.Session(a.UUID())
	assert.False(t, ok)
	assert.Empty(t, env.ui.rendered)
	assert.Empty(t, env.m.pending)
}

func TestControlStartRollsBackWhenDroneSwitched(t *testing.T) {
	env := newTestEnv(t, nil)
	d, _ := env.attachNew(t, 6)
	a := newFakeActor()
	st := &fakeStation{id: uuid.New(), controlling: uuid.New(), mounted: a.UUID()}
	env.engine.stations[st.id] = st

	env.m.HandleControlStart(st.id, a, d)
	env.tick()

	_, ok := env.m.Session(a.UUID())
	assert.False(t, ok)
}

func TestControlEndBeforeCommit(t *testing.T) {
	env := newTestEnv(t, nil)
	d, _ := env.attachNew(t, 6)
	a := newFakeActor()
	st := &fakeStation{id: uuid.New(), controlling: d.ID(), mounted: a.UUID()}
	env.engine.stations[st.id] = st

	env.m.HandleControlStart(st.id, a, d)
	env.m.HandleControlEnd(st.id, a.UUID(), d.ID())
	env.tick()

	_, ok := env.m.Session(a.UUID())
	assert.False(t, ok)
}

func TestControlEndTearsDownUI(t *testing.T) {
	env := newTestEnv(t, nil)
	d, _ := env.attachNew(t, 6)
	a, st := env.pilot(t, d, PermissionViewItems)
	require.Contains(t, env.ui.rendered, a.UUID())

	env.m.HandleControlEnd(st.id, a.UUID(), d.ID())
	_, ok := env.m.Session(a.UUID())
	assert.False(t, ok)
	assert.NotContains(t, env.ui.rendered, a.UUID())

	// Ending twice is harmless.
	env.m.HandleControlEnd(st.id, a.UUID(), d.ID())
}

func TestControlNoButtonsWithoutPermissions(t *testing.T) {
	env := newTestEnv(t, nil)
	d, _ := env.attachNew(t, 6)
	a, _ := env.pilot(t, d)

	assert.NotContains(t, env.ui.rendered, a.UUID())
}

func TestControlSwitchClearsPreviousStation(t *testing.T) {
	env := newTestEnv(t, nil)
	d, _ := env.attachNew(t, 6)
	a, first := env.pilot(t, d, PermissionViewItems)

	// Switch straight to a drone without storage from another station.
	other := newFakeDrone(uuid.New(), mgl64.Vec3{})
	second := &fakeStation{id: uuid.New(), controlling: other.ID(), mounted: a.UUID()}
	env.engine.stations[second.id] = second
	env.m.HandleControlStart(second.id, a, other)
	env.tick()

	s, ok := env.m.Session(a.UUID())
	require.True(t, ok)
	assert.Equal(t, second.id, s.Station)
	_, ok = env.m.registry.SessionByStation(first.id)
	assert.False(t, ok)
	assert.NotContains(t, env.ui.rendered, a.UUID())
}

func TestDismountClosesRemoteView(t *testing.T) {
	env := newTestEnv(t, nil)
	d, _ := env.attachNew(t, 6)
	a, st := env.pilot(t, d, PermissionViewItems)

	require.NoError(t, env.m.ViewItems(a))
	require.Contains(t, env.engine.opened, a.UUID())

	env.m.HandleStationDismount(st.id, a.UUID())
	assert.NotContains(t, env.engine.opened, a.UUID())
	assert.NotContains(t, env.ui.rendered, a.UUID())
	_, ok := env.m.Session(a.UUID())
	assert.False(t, ok)
}

func TestDroneKillEndsSession(t *testing.T) {
	env := newTestEnv(t, nil)
	d, _ := env.attachNew(t, 6)
	a, _ := env.pilot(t, d, PermissionViewItems)

	env.m.HandleDroneKill(d.ID())
	_, ok := env.m.Session(a.UUID())
	assert.False(t, ok)
	assert.NotContains(t, env.ui.rendered, a.UUID())
}

func TestItemMoveVetoWhileViewing(t *testing.T) {
	env := newTestEnv(t, nil)
	d, c := env.attachNew(t, 6)
	a, _ := env.pilot(t, d, PermissionViewItems)

	assert.True(t, env.m.CanMoveItem(a.UUID(), c.ID()), "not viewing yet")

	require.NoError(t, env.m.ViewItems(a))
	assert.Equal(t, c.ID(), env.engine.opened[a.UUID()])
	s, _ := env.m.Session(a.UUID())
	assert.True(t, s.Viewing())
	assert.Same(t, a, s.Actor())
	assert.False(t, env.m.CanMoveItem(a.UUID(), c.ID()))
	assert.True(t, env.m.CanMoveItem(a.UUID(), uuid.New()))
	assert.True(t, env.m.CanMoveItem(uuid.New(), c.ID()))

	env.m.HandleLootEnd(a.UUID())
	assert.True(t, env.m.CanMoveItem(a.UUID(), c.ID()))
}

func TestRemoteDropItems(t *testing.T) {
	env := newTestEnv(t, nil)
	d, c := env.attachNew(t, 6)
	a, _ := env.pilot(t, d, PermissionDropItems)
	fill(t, c, item.NewStack(item.Apple{}, 4), item.NewStack(item.Stick{}, 1))

	require.NoError(t, env.m.DropItems(a))

	require.Len(t, env.engine.drops, 1)
	drop := env.engine.drops[0]
	assert.Len(t, drop.stacks, 2)
	want := d.Position().Add(mgl64.Vec3{0, 0, dropForward})
	assert.InDelta(t, want.X(), drop.pos.X(), 1e-9)
	assert.InDelta(t, want.Y(), drop.pos.Y(), 1e-9)
	assert.InDelta(t, want.Z(), drop.pos.Z(), 1e-9)
	assert.True(t, c.inv.Empty())
	assert.True(t, env.m.CanPickup(d.ID()))
}

func TestRemoteToggleLock(t *testing.T) {
	env := newTestEnv(t, nil)
	env.engine.withLock = true
	d, c := env.attachNew(t, 6)
	a, _ := env.pilot(t, d, PermissionLock)

	o := env.ui.rendered[a.UUID()]
	require.Len(t, o.Buttons, 1)
	assert.Equal(t, "Lock", o.Buttons[0].Text)

	require.NoError(t, env.m.ToggleLock(a))
	assert.True(t, c.lock.locked)
	assert.Equal(t, "Drone storage locked.", a.lastMessage())
	assert.Equal(t, "Unlock", env.ui.rendered[a.UUID()].Buttons[0].Text)

	require.NoError(t, env.m.RunRemoteCommand(a, CommandToggleLock))
	assert.False(t, c.lock.locked)
	assert.Equal(t, "Drone storage unlocked.", a.lastMessage())
}

func TestRemoteCommandFailures(t *testing.T) {
	env := newTestEnv(t, nil)
	d, _ := env.attachNew(t, 6)

	stranger := newFakeActor()
	env.grant(t, stranger.UUID(), PermissionViewItems)
	require.ErrorIs(t, env.m.ViewItems(stranger), ErrNoSession)
	assert.Equal(t, "You are not controlling a drone with storage.", stranger.lastMessage())

	a, _ := env.pilot(t, d)
	require.ErrorIs(t, env.m.DropItems(a), ErrNoPermission)
	assert.Equal(t, "You don't have permission to do that.", a.lastMessage())

	env.grant(t, a.UUID(), PermissionLock)
	require.ErrorIs(t, env.m.ToggleLock(a), ErrNoLock)

	require.ErrorIs(t, env.m.RunRemoteCommand(a, "dronestorage.ui.nope"), ErrUnknownCommand)
}

func TestStorageDeployedWhilePilotingRendersUI(t *testing.T) {
	env := newTestEnv(t, nil)
	owner := uuid.New()
	env.grant(t, owner, PermissionAutoDeploy)
	env.m.HandleServerInitialized(nil)
	d := newFakeDrone(owner, mgl64.Vec3{})
	env.m.HandleDroneSpawned(d)

	a, _ := env.pilot(t, d, PermissionViewItems)
	assert.NotContains(t, env.ui.rendered, a.UUID())

	env.grant(t, owner, CapacityPermission(6))
	env.m.Reconcile()
	assert.Contains(t, env.ui.rendered, a.UUID())
}

func TestCloseTearsDownUI(t *testing.T) {
	env := newTestEnv(t, nil)
	d, _ := env.attachNew(t, 6)
	a, _ := env.pilot(t, d, PermissionViewItems)
	require.NoError(t, env.m.ViewItems(a))

	env.m.Close()
	assert.NotContains(t, env.ui.rendered, a.UUID())
	assert.NotContains(t, env.engine.opened, a.UUID())
	assert.Nil(t, env.m.reconcile)
}

func TestVetoedSwitchEndsSession(t *testing.T) {
	env := newTestEnv(t, nil)
	d, c := env.attachNew(t, 6)
	a, st := env.pilot(t, d, PermissionDropItems)
	fill(t, c, item.NewStack(item.Apple{}, 3))

	// The switch to another drone is refused, so the station controls nothing.
	other := newFakeDrone(uuid.New(), mgl64.Vec3{})
	st.controlling = uuid.Nil
	env.m.HandleControlStart(st.id, a, other)

	_, ok := env.m.Session(a.UUID())
	assert.False(t, ok, "the old session ends at control start")
	assert.NotContains(t, env.ui.rendered, a.UUID())

	env.tick()
	_, ok = env.m.Session(a.UUID())
	assert.False(t, ok)

	require.ErrorIs(t, env.m.DropItems(a), ErrNoSession)
	assert.Empty(t, env.engine.drops)
	assert.False(t, c.inv.Empty())
}

func TestSwitchToNonDroneEndsSession(t *testing.T) {
	env := newTestEnv(t, nil)
	d, _ := env.attachNew(t, 6)
	a, st := env.pilot(t, d, PermissionViewItems)
	require.NoError(t, env.m.ViewItems(a))

	st.controlling = uuid.Nil
	env.m.HandleControlStart(st.id, a, nil)

	_, ok := env.m.Session(a.UUID())
	assert.False(t, ok)
	assert.NotContains(t, env.ui.rendered, a.UUID())
	assert.NotContains(t, env.engine.opened, a.UUID())
	assert.Empty(t, env.m.pending)
}

func TestRemoteCommandRechecksStation(t *testing.T) {
	env := newTestEnv(t, nil)
	d, c := env.attachNew(t, 6)
	a, st := env.pilot(t, d, PermissionDropItems)
	fill(t, c, item.NewStack(item.Apple{}, 1))

	// The station moved on without telling anyone.
	st.controlling = uuid.New()

	require.ErrorIs(t, env.m.DropItems(a), ErrNoSession)
	assert.Empty(t, env.engine.drops)
	_, ok := env.m.Session(a.UUID())
	assert.False(t, ok)
	assert.NotContains(t, env.ui.rendered, a.UUID())
}

func TestViewItemsToggles(t *testing.T) {
	env := newTestEnv(t, nil)
	d, c := env.attachNew(t, 6)
	a, _ := env.pilot(t, d, PermissionViewItems)

	require.NoError(t, env.m.ViewItems(a))
	assert.Equal(t, c.ID(), env.engine.opened[a.UUID()])

	require.NoError(t, env.m.ViewItems(a))
	assert.NotContains(t, env.engine.opened, a.UUID())
	assert.Equal(t, []uuid.UUID{a.UUID()}, env.engine.closed)
	s, _ := env.m.Session(a.UUID())
	assert.False(t, s.Viewing())

	require.NoError(t, env.m.ViewItems(a))
	assert.Contains(t, env.engine.opened, a.UUID())
}
