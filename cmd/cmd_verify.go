// cmd_verify.go - Verify Command: Artefakte gegen ihren Vertrag pruefen
// Hauptfunktionen: VerifyHandler
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/7blacky7/brainforge/models"
	"github.com/7blacky7/brainforge/store"
	"github.com/7blacky7/brainforge/verify"
)

// VerifyHandler prueft die angeforderten Artefakte aus
// Konsumentensicht: dekodieren, Container validieren, Signaturen
// gegen den Vertrag abgleichen. Mit --smoke wird zusaetzlich die
// Referenz-Ausfuehrung auf einem Einsen-Vektor nachgerechnet.
func VerifyHandler(cmd *cobra.Command, args []string) error {
	smoke, err := cmd.Flags().GetBool("smoke")
	if err != nil {
		return err
	}

	names := args
	if len(names) == 0 {
		names = models.Names()
	}

	s := &store.Store{}
	defer s.Close()

	for _, name := range names {
		def, err := models.Lookup(name)
		if err != nil {
			return err
		}

		b, err := s.Get(def.Name)
		if err != nil {
			return fmt.Errorf("model %q was never built: %w", def.Name, err)
		}

		contract := verify.Contract{Input: def.Input, Output: def.Output}
		report, err := verify.File(b.Path, contract)
		if err != nil {
			return fmt.Errorf("verify %s: %w", def.Name, err)
		}

		fmt.Printf("%s: ok (producer %s, %d nodes, input %s, output %s)\n",
			def.Name, report.Producer, report.Nodes, def.Input, def.Output)

		if smoke {
			output, err := verify.Execute(b.Path, verify.Ones(def.Input.Last()))
			if err != nil {
				return fmt.Errorf("execute %s: %w", def.Name, err)
			}
			if err := def.Smoke(output); err != nil {
				return fmt.Errorf("smoke %s: %w", def.Name, err)
			}
			fmt.Printf("%s: smoke ok (%d values in range)\n", def.Name, len(output))
		}
	}

	return nil
}

// newVerifyCmd - Erstellt den verify Command
func newVerifyCmd() *cobra.Command {
	verifyCmd := &cobra.Command{
		Use:       "verify [MODEL...]",
		Short:     "Verify built artifacts against their contract",
		Args:      cobra.ArbitraryArgs,
		ValidArgs: models.Names(),
		RunE:      VerifyHandler,
	}

	verifyCmd.Flags().Bool("smoke", false, "Run the reference executor and check output ranges")

	return verifyCmd
}
