// cmd_show.go - Show Command: Artefakt-Metadaten anzeigen
// Hauptfunktionen: ShowHandler
package cmd

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/7blacky7/brainforge/format"
	"github.com/7blacky7/brainforge/fs/ngf"
	"github.com/7blacky7/brainforge/models"
	"github.com/7blacky7/brainforge/store"
)

// ShowHandler zeigt Metadaten, Signaturen und Node-Kette eines
// gebauten Artefakts. Mit --tensors kommt eine Statistik-Tabelle
// ueber die Konstanten-Payloads dazu.
func ShowHandler(cmd *cobra.Command, args []string) error {
	showTensors, err := cmd.Flags().GetBool("tensors")
	if err != nil {
		return err
	}

	def, err := models.Lookup(args[0])
	if err != nil {
		return err
	}

	s := &store.Store{}
	defer s.Close()

	b, err := s.Get(def.Name)
	if err != nil {
		return fmt.Errorf("model %q was never built: %w", def.Name, err)
	}

	f, err := os.Open(b.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	file, err := ngf.Decode(f)
	if err != nil {
		return fmt.Errorf("decode %s: %w", b.Path, err)
	}

	fmt.Printf("  Model\n")
	fmt.Printf("    name         %s\n", file.KV.GraphName())
	fmt.Printf("    producer     %s %s\n", file.KV.Producer(), file.KV.String("general.version"))
	fmt.Printf("    seed         %d\n", file.KV.Seed())
	fmt.Printf("    size         %s\n", format.HumanBytes(b.Size))
	fmt.Printf("    digest       %s\n", b.Digest)
	fmt.Println()

	fmt.Printf("  Signature\n")
	for _, in := range file.Inputs {
		fmt.Printf("    input        %s %s %s\n", in.Name, in.DType, in.Shape)
	}
	for _, out := range file.Outputs {
		fmt.Printf("    output       %s %s %s\n", out.Name, out.DType, out.Shape)
	}
	fmt.Println()

	fmt.Printf("  Nodes\n")
	for _, n := range file.Nodes {
		fmt.Printf("    %-10s %v -> %v\n", n.Kind, n.Inputs, n.Outputs)
	}
	fmt.Println()

	if showTensors {
		return showTensorStats(f, file)
	}

	return nil
}

// showTensorStats druckt min/mean/max pro Konstanten-Tensor
func showTensorStats(rs *os.File, file *ngf.File) error {
	var data [][]string

	for _, t := range file.Tensors {
		payload, err := file.TensorData(rs, t.Name)
		if err != nil {
			return err
		}

		values := make([]float64, len(payload))
		for i, v := range payload {
			values[i] = float64(v)
		}

		data = append(data, []string{
			t.Name,
			t.DType.String(),
			t.Shape.String(),
			fmt.Sprintf("%.4f", floats.Min(values)),
			fmt.Sprintf("%.4f", stat.Mean(values, nil)),
			fmt.Sprintf("%.4f", floats.Max(values)),
		})
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"TENSOR", "TYPE", "SHAPE", "MIN", "MEAN", "MAX"})
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

// newShowCmd - Erstellt den show Command
func newShowCmd() *cobra.Command {
	showCmd := &cobra.Command{
		Use:       "show MODEL",
		Short:     "Show information for a built model",
		Args:      cobra.ExactArgs(1),
		ValidArgs: models.Names(),
		RunE:      ShowHandler,
	}

	showCmd.Flags().Bool("tensors", false, "Show per-tensor payload statistics")

	return showCmd
}
