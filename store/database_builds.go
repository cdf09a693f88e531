// database_builds.go - Build CRUD Operationen
// Enthaelt: saveBuild, getBuild, listBuilds, deleteBuild

package store

import (
	"database/sql"
	"fmt"
	"time"
)

// saveBuild legt einen Build an oder ersetzt den Eintrag seines
// Namens. Ein Rebuild ist ein neues Build-Ereignis, daher werden id
// und created_at mit ersetzt.
func (db *database) saveBuild(b Build) error {
	query := `
		INSERT INTO builds (name, id, path, digest, size, seed, producer_version, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			id = excluded.id,
			path = excluded.path,
			digest = excluded.digest,
			size = excluded.size,
			seed = excluded.seed,
			producer_version = excluded.producer_version,
			created_at = excluded.created_at
	`

	_, err := db.conn.Exec(query,
		b.Name,
		b.ID,
		b.Path,
		b.Digest,
		b.Size,
		int64(b.Seed),
		b.Version,
		b.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save build: %w", err)
	}

	return nil
}

// getBuild gibt den Build eines Namens zurueck
func (db *database) getBuild(name string) (*Build, error) {
	query := `
		SELECT name, id, path, digest, size, seed, producer_version, created_at
		FROM builds
		WHERE name = ?
	`

	var b Build
	var seed int64

	err := db.conn.QueryRow(query, name).Scan(
		&b.Name,
		&b.ID,
		&b.Path,
		&b.Digest,
		&b.Size,
		&seed,
		&b.Version,
		&b.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query build: %w", err)
	}

	b.Seed = uint64(seed)
	return &b, nil
}

// listBuilds gibt alle Builds sortiert nach Name zurueck
func (db *database) listBuilds() ([]Build, error) {
	query := `
		SELECT name, id, path, digest, size, seed, producer_version, created_at
		FROM builds
		ORDER BY name
	`

	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer rows.Close()

	var builds []Build
	for rows.Next() {
		var b Build
		var seed int64
		var createdAt time.Time

		err := rows.Scan(
			&b.Name,
			&b.ID,
			&b.Path,
			&b.Digest,
			&b.Size,
			&seed,
			&b.Version,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}

		b.Seed = uint64(seed)
		b.CreatedAt = createdAt
		builds = append(builds, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate builds: %w", err)
	}

	return builds, nil
}

// deleteBuild loescht den Build eines Namens
func (db *database) deleteBuild(name string) error {
	res, err := db.conn.Exec("DELETE FROM builds WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("delete build: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	_, _ = db.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE);")

	return nil
}
