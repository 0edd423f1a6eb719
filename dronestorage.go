// Package dronestorage attaches a small lockable storage container to remote
// controlled drones on Dragonfly servers.
//
// The package is glue between host lifecycle signals and a few pieces of
// state:
//   - Capacity resolution from permission tiers
//   - An attachment registry (drone to container, controller to session)
//   - A lifecycle coordinator that reacts to spawn, death, kill, damage and
//     remote-control signals
//   - A small on-screen overlay for viewing, dropping and locking storage
//     while piloting
//
// # Quick Start
//
// Build a Manager once the host engine is ready:
//
//	cfg, err := dronestorage.LoadConfig("plugins/dronestorage.yaml", log)
//	if err != nil {
//	    log.Warn("dronestorage: config", "error", err)
//	}
//
//	perms, err := dronestorage.NewPermissionStore()
//	if err != nil {
//	    panic(err)
//	}
//
//	mngr := dronestorage.NewBuilder().
//	    Config(cfg).
//	    Engine(myEngine).
//	    Permissions(perms).
//	    UI(dronestorage.NewFormUI()).
//	    Commands().
//	    Init()
//	defer mngr.Close()
//
// Then forward host signals:
//
//	mngr.HandleServerInitialized(allDrones)
//	mngr.HandleDroneSpawned(drone)
//	mngr.HandleDroneDeath(drone)
//	mngr.HandleDroneKill(drone.ID())
//	absorbed := mngr.HandleContainerDamage(containerID, dmg)
//	mngr.HandleControlStart(station, p, drone)
//
// # Concurrency
//
// Every Manager entry point is serialized behind one mutex, and scheduled
// tasks take the same mutex. Hook handlers run while it is held and must not
// call back into the Manager.
//
// # Permissions
//
//	dronestorage.deploy          Deploy storage with the chat command
//	dronestorage.deploy.free     Skip the deploy cost item
//	dronestorage.autodeploy      Drones owned by the holder get storage automatically
//	dronestorage.viewitems       View button
//	dronestorage.dropitems       Drop button
//	dronestorage.lockstorage     Lock button
//	dronestorage.capacity.<n>    Capacity tier n
package dronestorage

// Version is the dronestorage version.
const Version = "1.2.0"

// Permission names registered by the Manager.
const (
	PermissionDeploy     = "dronestorage.deploy"
	PermissionDeployFree = "dronestorage.deploy.free"
	PermissionAutoDeploy = "dronestorage.autodeploy"
	PermissionViewItems  = "dronestorage.viewitems"
	PermissionDropItems  = "dronestorage.dropitems"
	PermissionLock       = "dronestorage.lockstorage"

	permissionCapacityPrefix = "dronestorage.capacity"
)

// Remote command names bound to overlay buttons.
const (
	CommandDeploy     = "dronestorage"
	CommandViewItems  = "dronestorage.ui.viewitems"
	CommandDropItems  = "dronestorage.ui.dropitems"
	CommandToggleLock = "dronestorage.ui.togglelock"
)

// Effect names passed to Engine.PlayEffect.
const (
	EffectDeploy = "dronestorage.deploy"
)
