// cmd_create.go - Create Command: Modelle bauen und registrieren
// Hauptfunktionen: CreateHandler
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/7blacky7/brainforge/envconfig"
	"github.com/7blacky7/brainforge/models"
	"github.com/7blacky7/brainforge/store"
	"github.com/7blacky7/brainforge/verify"
	"github.com/7blacky7/brainforge/version"
)

// CreateHandler baut die angeforderten Modelle nebenlaeufig, prueft
// jedes Artefakt und traegt es ins Manifest ein. Ohne Argumente
// werden alle registrierten Modelle gebaut.
func CreateHandler(cmd *cobra.Command, args []string) error {
	dir, err := cmd.Flags().GetString("models")
	if err != nil {
		return err
	}
	if dir == "" {
		dir = envconfig.Models()
	}

	seed, err := cmd.Flags().GetUint64("seed")
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("seed") {
		seed = envconfig.Seed()
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	names := args
	if len(names) == 0 {
		names = models.Names()
	}

	defs := make([]models.Definition, 0, len(names))
	for _, name := range names {
		def, err := models.Lookup(name)
		if err != nil {
			return err
		}
		defs = append(defs, def)
	}

	s := &store.Store{}
	defer s.Close()

	g, _ := errgroup.WithContext(cmd.Context())
	for _, def := range defs {
		g.Go(func() error {
			if !force {
				if prev, err := s.Get(def.Name); err == nil &&
					prev.Seed == seed && prev.Version == version.Version {
					if _, err := os.Stat(prev.Path); err == nil {
						fmt.Printf("%s is up to date (use --force to rebuild)\n", def.Name)
						return nil
					}
				}
			}

			artifact, err := models.WriteFile(dir, def, seed)
			if err != nil {
				return err
			}

			if !envconfig.NoVerify() {
				contract := verify.Contract{Input: def.Input, Output: def.Output}
				if _, err := verify.File(artifact.Path, contract); err != nil {
					return fmt.Errorf("verify %s: %w", def.Name, err)
				}
			}

			build, err := s.Record(store.Build{
				Name:    artifact.Name,
				Path:    artifact.Path,
				Digest:  artifact.Digest,
				Size:    artifact.Size,
				Seed:    artifact.Seed,
				Version: version.Version,
			})
			if err != nil {
				return fmt.Errorf("record %s: %w", def.Name, err)
			}

			slog.Debug("recorded build", "name", build.Name, "id", build.ID)
			fmt.Printf("wrote %s (%s)\n", artifact.Path, artifact.Digest[:19])
			return nil
		})
	}

	return g.Wait()
}

// newCreateCmd - Erstellt den create Command
func newCreateCmd() *cobra.Command {
	createCmd := &cobra.Command{
		Use:       "create [MODEL...]",
		Short:     "Build model artifacts",
		Args:      cobra.ArbitraryArgs,
		ValidArgs: models.Names(),
		RunE:      CreateHandler,
	}

	createCmd.Flags().String("models", "", "Artifact directory (default BRAINFORGE_MODELS)")
	createCmd.Flags().Uint64("seed", 42, "Weight generation seed (default BRAINFORGE_SEED)")
	createCmd.Flags().Bool("force", false, "Rebuild even if an identical build exists")

	return createCmd
}
