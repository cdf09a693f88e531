// write.go - Atomare Artefakt-Erzeugung auf der Platte
// Hauptfunktionen: WriteFile
package models

import (
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/7blacky7/brainforge/fs/ngf"
	"github.com/7blacky7/brainforge/version"
)

// ProducerName wird als general.producer in jedes Artefakt gestempelt
const ProducerName = "brainforge"

// Artifact beschreibt ein fertig geschriebenes NGF-File
type Artifact struct {
	Name   string
	Path   string
	Digest string
	Size   int64
	Seed   uint64
}

// WriteFile baut einen Graphen und schreibt ihn nach
// <dir>/<name>.ngf. Geschrieben wird in eine Temp-Datei im selben
// Verzeichnis; das Artefakt erscheint erst nach vollstaendigem
// Schreiben unter seinem endgueltigen Namen.
func WriteFile(dir string, def Definition, seed uint64) (*Artifact, error) {
	g, err := def.Build(seed)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", def.Name, err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	temp, err := os.CreateTemp(dir, def.Name+"-*.partial")
	if err != nil {
		return nil, err
	}
	tempPath := temp.Name()
	defer func() {
		if temp != nil {
			temp.Close()
			os.Remove(tempPath)
		}
	}()

	kv := ngf.KV{
		"general.producer": ProducerName,
		"general.version":  version.Version,
		"general.seed":     seed,
	}
	if err := ngf.Encode(temp, g, kv); err != nil {
		return nil, err
	}

	if _, err := temp.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	h := sha256.New()
	size, err := io.Copy(h, temp)
	if err != nil {
		return nil, err
	}
	digest := fmt.Sprintf("sha256:%x", h.Sum(nil))

	if err := temp.Close(); err != nil {
		return nil, err
	}
	temp = nil

	final := filepath.Join(dir, def.Name+".ngf")
	if err := os.Rename(tempPath, final); err != nil {
		os.Remove(tempPath)
		return nil, err
	}

	slog.Debug("wrote artifact", "name", def.Name, "path", final, "size", size, "digest", digest)

	return &Artifact{
		Name:   def.Name,
		Path:   final,
		Digest: digest,
		Size:   size,
		Seed:   seed,
	}, nil
}
