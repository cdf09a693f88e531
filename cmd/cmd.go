// cmd.go - Haupt-CLI Setup und Root Command
// Hauptfunktionen: NewCLI, appendEnvDocs
package cmd

import (
	"fmt"
	"log"
	"os"
	"runtime"

	"github.com/containerd/console"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/7blacky7/brainforge/envconfig"
	"github.com/7blacky7/brainforge/version"
)

// appendEnvDocs - Fuegt Umgebungsvariablen-Dokumentation zum Command hinzu
func appendEnvDocs(cmd *cobra.Command, envs []envconfig.EnvVar) {
	if len(envs) == 0 {
		return
	}

	envUsage := `
Environment Variables:
`
	for _, e := range envs {
		envUsage += fmt.Sprintf("      %-24s   %s\n", e.Name, e.Description)
	}

	cmd.SetUsageTemplate(cmd.UsageTemplate() + envUsage)
}

// NewCLI - Erstellt das Haupt-CLI mit allen Commands
func NewCLI() *cobra.Command {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	cobra.EnableCommandSorting = false

	if runtime.GOOS == "windows" && term.IsTerminal(int(os.Stdout.Fd())) {
		console.ConsoleFromFile(os.Stdin) //nolint:errcheck
	}

	rootCmd := &cobra.Command{
		Use:           "brainforge",
		Short:         "Deterministic tensor graph producer",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		Run: func(cmd *cobra.Command, args []string) {
			if v, _ := cmd.Flags().GetBool("version"); v {
				fmt.Printf("brainforge version is %s\n", version.Version)
				return
			}

			cmd.Print(cmd.UsageString())
		},
	}

	rootCmd.Flags().BoolP("version", "v", false, "Show version information")

	// Commands erstellen
	createCmd := newCreateCmd()
	verifyCmd := newVerifyCmd()
	listCmd := newListCmd()
	showCmd := newShowCmd()
	deleteCmd := newDeleteCmd()
	serveCmd := newServeCmd()

	// Environment-Dokumentation hinzufuegen
	envVars := envconfig.AsMap()

	for _, cmd := range []*cobra.Command{
		createCmd,
		verifyCmd,
		listCmd,
		showCmd,
		deleteCmd,
		serveCmd,
	} {
		switch cmd {
		case createCmd:
			appendEnvDocs(cmd, []envconfig.EnvVar{
				envVars["BRAINFORGE_MODELS"],
				envVars["BRAINFORGE_MANIFEST"],
				envVars["BRAINFORGE_SEED"],
				envVars["BRAINFORGE_NOVERIFY"],
			})
		case serveCmd:
			appendEnvDocs(cmd, []envconfig.EnvVar{
				envVars["BRAINFORGE_DEBUG"],
				envVars["BRAINFORGE_HOST"],
				envVars["BRAINFORGE_MANIFEST"],
				envVars["BRAINFORGE_MODELS"],
				envVars["BRAINFORGE_NOPRUNE"],
				envVars["BRAINFORGE_ORIGINS"],
			})
		default:
			appendEnvDocs(cmd, []envconfig.EnvVar{
				envVars["BRAINFORGE_MODELS"],
				envVars["BRAINFORGE_MANIFEST"],
			})
		}
	}

	rootCmd.AddCommand(
		createCmd,
		verifyCmd,
		listCmd,
		showCmd,
		deleteCmd,
		serveCmd,
	)

	return rootCmd
}
