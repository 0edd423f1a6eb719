package dronestorage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// PermissionDB persists permission grants in SQLite.
type PermissionDB struct {
	db *sql.DB
}

// OpenPermissionDB opens (creating if needed) the grant database at path.
func OpenPermissionDB(path string) (*PermissionDB, error) {
	if path == "" {
		return nil, fmt.Errorf("dronestorage: empty permission db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("dronestorage: %s: %w", p, err)
		}
	}

	const schema = `CREATE TABLE IF NOT EXISTS grants (
		identity   TEXT NOT NULL,
		permission TEXT NOT NULL,
		PRIMARY KEY (identity, permission)
	);`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("dronestorage: init permission schema: %w", err)
	}
	return &PermissionDB{db: db}, nil
}

// Load returns every persisted grant keyed by identity.
func (p *PermissionDB) Load(ctx context.Context) (map[uuid.UUID][]string, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT identity, permission FROM grants ORDER BY identity, permission`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]string)
	for rows.Next() {
		var (
			identity string
			name     string
		)
		if err := rows.Scan(&identity, &name); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(identity)
		if err != nil {
			return nil, fmt.Errorf("dronestorage: grant identity %q: %w", identity, err)
		}
		out[id] = append(out[id], name)
	}
	return out, rows.Err()
}

// Grant persists a grant. Persisting an existing grant is a no-op.
func (p *PermissionDB) Grant(ctx context.Context, id uuid.UUID, name string) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO grants (identity, permission) VALUES (?, ?)`,
		id.String(), name)
	return err
}

// Revoke deletes a persisted grant.
func (p *PermissionDB) Revoke(ctx context.Context, id uuid.UUID, name string) error {
	_, err := p.db.ExecContext(ctx,
		`DELETE FROM grants WHERE identity = ? AND permission = ?`,
		id.String(), name)
	return err
}

// Close closes the database.
func (p *PermissionDB) Close() error {
	return p.db.Close()
}
