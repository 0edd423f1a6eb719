package dronestorage

// relation is a one-to-one mapping kept in both directions. A key maps to at
// most one value and a value is owned by at most one key.
type relation[K, V comparable] struct {
	forward map[K]V
	reverse map[V]K
}

// newRelation creates an empty relation.
func newRelation[K, V comparable]() *relation[K, V] {
	return &relation[K, V]{
		forward: make(map[K]V),
		reverse: make(map[V]K),
	}
}

// set binds k to v. Returns false without changing anything if either side
// is already bound.
func (r *relation[K, V]) set(k K, v V) bool {
	if _, ok := r.forward[k]; ok {
		return false
	}
	if _, ok := r.reverse[v]; ok {
		return false
	}
	r.forward[k] = v
	r.reverse[v] = k
	return true
}

// get returns the value bound to k.
func (r *relation[K, V]) get(k K) (V, bool) {
	v, ok := r.forward[k]
	return v, ok
}

// owner returns the key that v is bound to.
func (r *relation[K, V]) owner(v V) (K, bool) {
	k, ok := r.reverse[v]
	return k, ok
}

// removeKey unbinds k and returns the value it held.
func (r *relation[K, V]) removeKey(k K) (V, bool) {
	v, ok := r.forward[k]
	if !ok {
		return v, false
	}
	delete(r.forward, k)
	delete(r.reverse, v)
	return v, true
}

// removeValue unbinds v and returns the key that held it.
func (r *relation[K, V]) removeValue(v V) (K, bool) {
	k, ok := r.reverse[v]
	if !ok {
		return k, false
	}
	delete(r.reverse, v)
	delete(r.forward, k)
	return k, true
}

// len returns the number of bound pairs.
func (r *relation[K, V]) len() int {
	return len(r.forward)
}

// keys returns every bound key in no particular order.
func (r *relation[K, V]) keys() []K {
	keys := make([]K, 0, len(r.forward))
	for k := range r.forward {
		keys = append(keys, k)
	}
	return keys
}
