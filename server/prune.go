// prune.go - Aufraeumen verwaister Temp-Dateien im Artefakt-Verzeichnis
// Hauptfunktionen: pruneStaleArtifacts
package server

import (
	"log/slog"
	"os"
	"path/filepath"
)

// pruneStaleArtifacts entfernt liegengebliebene .partial-Dateien aus
// abgebrochenen Builds. Fertige Artefakte werden nie angefasst.
func pruneStaleArtifacts(dir string) error {
	stale, err := filepath.Glob(filepath.Join(dir, "*.partial"))
	if err != nil {
		return err
	}

	for _, path := range stale {
		if err := os.Remove(path); err != nil {
			slog.Warn("could not remove stale temp file", "path", path, "error", err)
			continue
		}
		slog.Debug("pruned stale temp file", "path", path)
	}

	return nil
}
