// cmd_list.go - List und Delete Commands fuer das Build-Manifest
// Hauptfunktionen: ListHandler, DeleteHandler
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/7blacky7/brainforge/format"
	"github.com/7blacky7/brainforge/models"
	"github.com/7blacky7/brainforge/store"
)

// ListHandler - Listet alle gebauten Artefakte auf
func ListHandler(cmd *cobra.Command, args []string) error {
	s := &store.Store{}
	defer s.Close()

	builds, err := s.List()
	if err != nil {
		return err
	}

	var data [][]string

	for _, b := range builds {
		if len(args) == 0 || strings.HasPrefix(strings.ToLower(b.Name), strings.ToLower(args[0])) {
			id := b.ID
			if len(id) > 12 {
				id = id[:12]
			}
			data = append(data, []string{b.Name, id, format.HumanBytes(b.Size), format.HumanTime(b.CreatedAt, "Never")})
		}
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"NAME", "ID", "SIZE", "MODIFIED"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()

	return nil
}

// DeleteHandler - Entfernt Artefakte und ihre Manifest-Eintraege
func DeleteHandler(cmd *cobra.Command, args []string) error {
	s := &store.Store{}
	defer s.Close()

	for _, name := range args {
		b, err := s.Get(name)
		if err != nil {
			return err
		}

		if err := os.Remove(b.Path); err != nil && !os.IsNotExist(err) {
			return err
		}

		if err := s.Delete(name); err != nil {
			return err
		}

		fmt.Printf("deleted %q\n", name)
	}

	return nil
}

// newListCmd - Erstellt den list Command
func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List built models",
		RunE:    ListHandler,
	}
}

// newDeleteCmd - Erstellt den delete Command
func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "delete MODEL [MODEL...]",
		Aliases:   []string{"rm"},
		Short:     "Delete built models",
		Args:      cobra.MinimumNArgs(1),
		ValidArgs: models.Names(),
		RunE:      DeleteHandler,
	}
}
