// embedder.go - Embedding-Graph fuer Telemetrie-Chunks
// Hauptfunktionen: BuildEmbedder, smokeEmbedder
package models

import (
	"fmt"

	"github.com/7blacky7/brainforge/graph"
)

const (
	// embedderChunk ist die feste Chunk-Groesse des Eingabefensters
	embedderChunk = 1024
	embedderDim   = 128
)

// BuildEmbedder baut den Embedding-Graphen: eine dichte Projektion
// [1,1024] -> [1,128] mit tanh-Normalisierung auf (-1,1).
func BuildEmbedder(seed uint64) (*graph.Graph, error) {
	b := graph.NewBuilder()

	if _, err := b.Input("input", graph.Shape{1, embedderChunk}, graph.DTypeF32); err != nil {
		return nil, err
	}

	// Gewichte und Bias kommen aus demselben Strom, die Zugreihenfolge
	// ist Teil des Build-Vertrags
	ws := newWeightSource(seed)
	if _, err := b.Constant("embed_weights", graph.Shape{embedderChunk, embedderDim},
		ws.normal(embedderChunk*embedderDim, 0.1)); err != nil {
		return nil, err
	}
	if _, err := b.Constant("embed_bias", graph.Shape{embedderDim}, ws.normal(embedderDim, 0.1)); err != nil {
		return nil, err
	}

	mm, err := b.Append(graph.OpMatMul, []string{"input", "embed_weights"}, nil)
	if err != nil {
		return nil, err
	}
	sum, err := b.Append(graph.OpAdd, []string{mm[0], "embed_bias"}, nil)
	if err != nil {
		return nil, err
	}
	out, err := b.Append(graph.OpTanh, []string{sum[0]}, nil)
	if err != nil {
		return nil, err
	}

	return b.Assemble("embedder", out[0])
}

// smokeEmbedder prueft, dass tanh die nachgerechnete Ausgabe auf
// [-1,1] begrenzt hat. Inklusive Grenzen, weil float32 grosse
// Voraktivierungen auf genau +-1 rundet.
func smokeEmbedder(output []float32) error {
	if len(output) != embedderDim {
		return fmt.Errorf("output has %d values, want %d", len(output), embedderDim)
	}
	for i, v := range output {
		if v < -1 || v > 1 {
			return fmt.Errorf("output %d is %g, want [-1,1]", i, v)
		}
	}
	return nil
}
