package dronestorage

import (
	"strconv"

	"github.com/google/uuid"
)

// MaxCapacity is the largest storage capacity the overlay panels can display.
const MaxCapacity = 42

// PermissionChecker answers whether an identity holds a named permission.
type PermissionChecker interface {
	Has(id uuid.UUID, name string) bool
}

// CapacityPermission returns the permission that grants the given tier.
func CapacityPermission(tier int) string {
	return permissionCapacityPrefix + "." + strconv.Itoa(tier)
}

// ResolveCapacity returns the highest tier in tiers for which owner holds the
// matching capacity permission. tiers must be sorted ascending.
// Returns 0 when owner is uuid.Nil, tiers is empty, or no tier matches.
//
// The result is never cached: permission grants can change at any time.
func ResolveCapacity(owner uuid.UUID, perms PermissionChecker, tiers []int) int {
	if owner == uuid.Nil || perms == nil {
		return 0
	}
	for i := len(tiers) - 1; i >= 0; i-- {
		if perms.Has(owner, CapacityPermission(tiers[i])) {
			return tiers[i]
		}
	}
	return 0
}

// panel pairs a loot panel name with the number of slots it displays.
type panel struct {
	name     string
	capacity int
}

// panels are ordered by display capacity.
var panels = [...]panel{
	{"fuelsmall", 1},
	{"smallstash", 6},
	{"smallwoodbox", 12},
	{"largewoodbox", 30},
	{"generic", 36},
	{"genericlarge", MaxCapacity},
}

// PanelForCapacity returns the smallest loot panel able to display capacity
// slots. Capacities above MaxCapacity use the largest panel.
func PanelForCapacity(capacity int) string {
	for _, p := range panels {
		if p.capacity >= capacity {
			return p.name
		}
	}
	return panels[len(panels)-1].name
}
