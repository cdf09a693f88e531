// cmd_serve.go - Serve Command: HTTP-Server starten
// Hauptfunktionen: RunServer
package cmd

import (
	"errors"
	"net"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/7blacky7/brainforge/envconfig"
	"github.com/7blacky7/brainforge/server"
)

// RunServer - Startet den Brainforge-Server
func RunServer(_ *cobra.Command, _ []string) error {
	ln, err := net.Listen("tcp", envconfig.Host().Host)
	if err != nil {
		return err
	}

	err = server.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return err
}

// newServeCmd - Erstellt den serve Command
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "serve",
		Aliases: []string{"start"},
		Short:   "Start brainforge",
		Args:    cobra.ExactArgs(0),
		RunE:    RunServer,
	}
}
