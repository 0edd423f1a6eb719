package dronestorage

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Permissions is the host permission system as seen by the Manager.
type Permissions interface {
	PermissionChecker

	// Register makes a named permission known. Registering twice is a no-op.
	Register(name string) error
}

// PermissionStore is an in-memory Permissions implementation. Grants are
// indexed per identity as a Bitmask. When backed by a PermissionDB every
// grant and revoke is written through.
type PermissionStore struct {
	mu     sync.RWMutex
	ids    map[string]PermissionID
	names  []string
	grants map[uuid.UUID]Bitmask

	db           *PermissionDB
	writeTimeout time.Duration
	log          *slog.Logger
}

// PermissionOption configures a PermissionStore.
type PermissionOption func(*PermissionStore)

// WithPermissionDB backs the store with db. Existing grants are loaded by
// NewPermissionStore.
func WithPermissionDB(db *PermissionDB) PermissionOption {
	return func(s *PermissionStore) {
		s.db = db
	}
}

// WithWriteTimeout sets the timeout for write-through calls to the database.
// Default: 5 seconds.
func WithWriteTimeout(d time.Duration) PermissionOption {
	return func(s *PermissionStore) {
		s.writeTimeout = d
	}
}

// WithPermissionLogger sets the logger used for write-through failures.
func WithPermissionLogger(log *slog.Logger) PermissionOption {
	return func(s *PermissionStore) {
		s.log = log
	}
}

// NewPermissionStore creates a permission store.
func NewPermissionStore(opts ...PermissionOption) (*PermissionStore, error) {
	s := &PermissionStore{
		ids:          make(map[string]PermissionID),
		grants:       make(map[uuid.UUID]Bitmask),
		writeTimeout: 5 * time.Second,
		log:          slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.db == nil {
		return s, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
	defer cancel()

	grants, err := s.db.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("dronestorage: load permission grants: %w", err)
	}
	for id, names := range grants {
		for _, name := range names {
			pid, err := s.register(name)
			if err != nil {
				return nil, err
			}
			mask := s.grants[id]
			mask.Set(pid)
			s.grants[id] = mask
		}
	}
	return s, nil
}

// Register implements Permissions.
func (s *PermissionStore) Register(name string) error {
	_, err := s.register(name)
	return err
}

func (s *PermissionStore) register(name string) (PermissionID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.ids[name]; ok {
		return id, nil
	}
	if len(s.names) >= MaxPermissions {
		return 0, fmt.Errorf("dronestorage: permission limit exceeded (max %d)", MaxPermissions)
	}
	id := PermissionID(len(s.names))
	s.ids[name] = id
	s.names = append(s.names, name)
	return id, nil
}

// Registered reports whether name has been registered.
func (s *PermissionStore) Registered(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[name]
	return ok
}

// Has implements PermissionChecker. Unregistered permissions are never held.
func (s *PermissionStore) Has(id uuid.UUID, name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pid, ok := s.ids[name]
	if !ok {
		return false
	}
	mask := s.grants[id]
	return mask.Has(pid)
}

// Grant gives id the named permission.
func (s *PermissionStore) Grant(id uuid.UUID, name string) error {
	s.mu.Lock()
	pid, ok := s.ids[name]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("dronestorage: grant %q: %w", name, ErrUnknownPermission)
	}
	mask := s.grants[id]
	already := mask.Has(pid)
	mask.Set(pid)
	s.grants[id] = mask
	s.mu.Unlock()

	if already || s.db == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
	defer cancel()
	if err := s.db.Grant(ctx, id, name); err != nil {
		s.log.Warn("dronestorage: grant write-through failed", "identity", id, "permission", name, "error", err)
		return err
	}
	return nil
}

// Revoke removes the named permission from id.
func (s *PermissionStore) Revoke(id uuid.UUID, name string) error {
	s.mu.Lock()
	pid, ok := s.ids[name]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("dronestorage: revoke %q: %w", name, ErrUnknownPermission)
	}
	mask := s.grants[id]
	held := mask.Has(pid)
	mask.Clear(pid)
	if mask.IsZero() {
		delete(s.grants, id)
	} else {
		s.grants[id] = mask
	}
	s.mu.Unlock()

	if !held || s.db == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
	defer cancel()
	if err := s.db.Revoke(ctx, id, name); err != nil {
		s.log.Warn("dronestorage: revoke write-through failed", "identity", id, "permission", name, "error", err)
		return err
	}
	return nil
}

// Granted returns the sorted names of every permission id holds.
func (s *PermissionStore) Granted(id uuid.UUID) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mask := s.grants[id]
	names := make([]string, 0, mask.Count())
	mask.Each(func(pid PermissionID) {
		names = append(names, s.names[pid])
	})
	sort.Strings(names)
	return names
}
