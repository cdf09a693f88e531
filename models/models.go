// models.go - Registrierte Graph-Definitionen
// Hauptfunktionen: All, Names, Lookup
package models

import (
	"fmt"
	"math"

	"github.com/agnivade/levenshtein"

	"github.com/7blacky7/brainforge/graph"
)

// Definition beschreibt einen baubaren Graphen samt I/O-Vertrag.
// Input und Output sind die Signaturen, die ein Konsument nach dem
// Laden vorfindet; Build erzeugt den Graphen deterministisch aus dem
// Seed. Smoke prueft eine nachgerechnete Ausgabe gegen die
// Wertebereiche, die die Definition verspricht.
type Definition struct {
	Name        string
	Description string
	Input       graph.Shape
	Output      graph.Shape
	Build       func(seed uint64) (*graph.Graph, error)
	Smoke       func(output []float32) error
}

var registry = []Definition{
	{
		Name:        "decision",
		Description: "telemetry decision head: 4 bounded plus 3 scaled outputs",
		Input:       graph.Shape{1, decisionFeatures},
		Output:      graph.Shape{1, decisionOutputs},
		Build:       BuildDecision,
		Smoke:       smokeDecision,
	},
	{
		Name:        "embedder",
		Description: "chunk embedder: dense projection to 128 dimensions",
		Input:       graph.Shape{1, embedderChunk},
		Output:      graph.Shape{1, embedderDim},
		Build:       BuildEmbedder,
		Smoke:       smokeEmbedder,
	},
}

// All gibt alle Definitionen in Registrierungsreihenfolge zurueck
func All() []Definition {
	out := make([]Definition, len(registry))
	copy(out, registry)
	return out
}

// Names gibt die registrierten Namen in Reihenfolge zurueck
func Names() []string {
	names := make([]string, len(registry))
	for i, d := range registry {
		names[i] = d.Name
	}
	return names
}

// Lookup sucht eine Definition. Bei unbekannten Namen wird der
// naechstliegende registrierte Name vorgeschlagen.
func Lookup(name string) (Definition, error) {
	var nearest Definition
	score := math.MaxInt
	for _, d := range registry {
		if d.Name == name {
			return d, nil
		}
		if s := levenshtein.ComputeDistance(name, d.Name); s < score {
			score = s
			nearest = d
		}
	}

	if score <= 2 {
		return Definition{}, fmt.Errorf("model %q not found, did you mean %q?", name, nearest.Name)
	}
	return Definition{}, fmt.Errorf("model %q not found", name)
}
