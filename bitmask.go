package dronestorage

import (
	"math/bits"
)

// PermissionID is the index a PermissionStore assigns to a registered
// permission. Valid IDs range from 0 to 255.
type PermissionID uint8

// MaxPermissions is the number of distinct permissions a PermissionStore can
// register.
const MaxPermissions = 256

// Bitmask is a 256-bit set of granted permissions.
type Bitmask [4]uint64

// Set grants the permission at id.
func (m *Bitmask) Set(id PermissionID) {
	m[id/64] |= 1 << (id % 64)
}

// Clear revokes the permission at id.
func (m *Bitmask) Clear(id PermissionID) {
	m[id/64] &^= 1 << (id % 64)
}

// Has returns true if the permission at id is granted.
func (m *Bitmask) Has(id PermissionID) bool {
	return m[id/64]&(1<<(id%64)) != 0
}

// IsZero returns true if nothing is granted.
func (m *Bitmask) IsZero() bool {
	return m[0] == 0 && m[1] == 0 && m[2] == 0 && m[3] == 0
}

// Count returns the number of granted permissions.
func (m *Bitmask) Count() int {
	return bits.OnesCount64(m[0]) +
		bits.OnesCount64(m[1]) +
		bits.OnesCount64(m[2]) +
		bits.OnesCount64(m[3])
}

// Each calls fn for every granted id in ascending order.
func (m *Bitmask) Each(fn func(id PermissionID)) {
	for word := range m {
		w := m[word]
		for w != 0 {
			bit := bits.TrailingZeros64(w)
			fn(PermissionID(word*64 + bit))
			w &= w - 1
		}
	}
}
