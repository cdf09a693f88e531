// database_core.go - Kern-Datenbank-Funktionen
// Enthaelt: database struct, newDatabase, Close, init

package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // SQLite-Treiber registrieren
)

// currentSchemaVersion definiert die aktuelle Schema-Version des
// Manifests. Wird bei Schema-Aenderungen erhoeht.
const currentSchemaVersion = 1

// database umhuellt die SQLite-Verbindung.
// SQLite verwaltet sein eigenes Locking fuer konkurrierende Zugriffe:
// - Mehrere Leser koennen gleichzeitig auf die Datenbank zugreifen
// - Schreiber werden serialisiert
// - WAL-Modus erlaubt Lesern, Schreiber nicht zu blockieren
// Daher braucht das Manifest keine Application-Level-Locks.
type database struct {
	conn *sql.DB
}

// newDatabase erstellt eine neue Datenbankverbindung
func newDatabase(dbPath string) (*database, error) {
	conn, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db := &database{conn: conn}

	if err := db.init(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	return db, nil
}

// Close schliesst die Datenbankverbindung
func (db *database) Close() error {
	_, _ = db.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE);")
	return db.conn.Close()
}

// init initialisiert das Manifest-Schema
func (db *database) init() error {
	if _, err := db.conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("enable foreign keys: %w", err)
	}

	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS manifest_meta (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		schema_version INTEGER NOT NULL DEFAULT %d
	);

	-- Meta-Zeile einfuegen falls nicht vorhanden
	INSERT OR IGNORE INTO manifest_meta (id) VALUES (1);

	CREATE TABLE IF NOT EXISTS builds (
		name TEXT PRIMARY KEY,
		id TEXT NOT NULL,
		path TEXT NOT NULL,
		digest TEXT NOT NULL,
		size INTEGER NOT NULL DEFAULT 0,
		seed INTEGER NOT NULL DEFAULT 0,
		producer_version TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_builds_digest ON builds(digest);
	`, currentSchemaVersion)

	if _, err := db.conn.Exec(schema); err != nil {
		return err
	}

	// Schema-Version pruefen: neuere Manifeste werden nicht angefasst
	var version int
	err := db.conn.QueryRow("SELECT schema_version FROM manifest_meta WHERE id = 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("manifest schema %d is newer than supported %d", version, currentSchemaVersion)
	}

	return nil
}
