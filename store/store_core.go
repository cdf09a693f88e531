// Modul: store_core.go
// Beschreibung: Build-Manifest ueber SQLite.
// Enthaelt Store, Build, ensureDB und die oeffentlichen Operationen.

package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/7blacky7/brainforge/envconfig"
)

// ErrNotFound meldet einen Namen ohne Manifest-Eintrag
var ErrNotFound = errors.New("build not found")

// Build ist ein Manifest-Eintrag: das aktuell gueltige Artefakt eines
// Modellnamens samt Herkunft. ID identifiziert das Build-Ereignis,
// ein Rebuild desselben Namens bekommt eine neue ID.
type Build struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Digest    string    `json:"digest"`
	Size      int64     `json:"size"`
	Seed      uint64    `json:"seed"`
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"created_at"`
}

type Store struct {
	// DBPath allows overriding the default database path (mainly for testing)
	DBPath string

	// dbMu protects database initialization only
	dbMu sync.Mutex
	db   *database
}

func (s *Store) ensureDB() error {
	// Init laeuft komplett unter dbMu: der Pfad ist nur beim ersten
	// Zugriff umkaempft, danach kostet der Lock praktisch nichts.
	// Ein lockfreier Vorab-Check wuerde s.db lesen, waehrend eine
	// andere Goroutine es schreibt.
	s.dbMu.Lock()
	defer s.dbMu.Unlock()

	if s.db != nil {
		return nil
	}

	dbPath := s.DBPath
	if dbPath == "" {
		dbPath = envconfig.Manifest()
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("create db directory: %w", err)
	}

	database, err := newDatabase(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	s.db = database
	return nil
}

// Record traegt einen Build ins Manifest ein. ID und CreatedAt werden
// vergeben, falls sie leer sind; der gefuellte Eintrag kommt zurueck.
func (s *Store) Record(b Build) (*Build, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}

	if b.ID == "" {
		u, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("generate build id: %w", err)
		}
		b.ID = u.String()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}

	if err := s.db.saveBuild(b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Get gibt den Manifest-Eintrag eines Namens zurueck
func (s *Store) Get(name string) (*Build, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}

	return s.db.getBuild(name)
}

// List gibt alle Manifest-Eintraege sortiert nach Name zurueck
func (s *Store) List() ([]Build, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}

	return s.db.listBuilds()
}

// Delete entfernt den Manifest-Eintrag eines Namens
func (s *Store) Delete(name string) error {
	if err := s.ensureDB(); err != nil {
		return err
	}

	return s.db.deleteBuild(name)
}

func (s *Store) Close() error {
	s.dbMu.Lock()
	defer s.dbMu.Unlock()

	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
