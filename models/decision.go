// decision.go - Entscheidungsgraph fuer Telemetrie-Routing
// Hauptfunktionen: BuildDecision, smokeDecision
package models

import (
	"fmt"
	"slices"

	"github.com/7blacky7/brainforge/graph"
)

const (
	// decisionFeatures: 13 numerische Merkmale + 128 embed_current
	// + 128 embed_context
	decisionFeatures = 269
	decisionOutputs  = 7

	// Die ersten vier Ausgaben (route, severity, p2_enable,
	// congestion) sind auf (0,1) begrenzt, die letzten drei
	// (wfq_p0, wfq_p1, wfq_p2) nicht-negativ und skaliert.
	decisionBoundedWidth = 4
	decisionScaledWidth  = 3
	decisionScale        = 100
)

// decisionBias hebt die WFQ-Gewichte in einen brauchbaren
// Startbereich, die begrenzten Ausgaben bleiben nahe der Mitte.
var decisionBias = []float32{0.5, 0.3, 0.4, 0.2, 50.0, 30.0, 20.0}

// BuildDecision baut den Entscheidungsgraphen: eine lineare Schicht
// [1,269] -> [1,7], deren Ausgabe in eine sigmoid-begrenzte und eine
// relu-skalierte Region zerfaellt.
func BuildDecision(seed uint64) (*graph.Graph, error) {
	b := graph.NewBuilder()

	if _, err := b.Input("input", graph.Shape{1, decisionFeatures}, graph.DTypeF32); err != nil {
		return nil, err
	}

	ws := newWeightSource(seed)
	if _, err := b.Constant("weights", graph.Shape{decisionFeatures, decisionOutputs},
		ws.normal(decisionFeatures*decisionOutputs, 0.01)); err != nil {
		return nil, err
	}
	if _, err := b.Constant("bias", graph.Shape{decisionOutputs}, slices.Clone(decisionBias)); err != nil {
		return nil, err
	}

	mm, err := b.Append(graph.OpMatMul, []string{"input", "weights"}, nil)
	if err != nil {
		return nil, err
	}
	sum, err := b.Append(graph.OpAdd, []string{mm[0], "bias"}, nil)
	if err != nil {
		return nil, err
	}

	out, err := b.Partition(sum[0], []graph.Region{
		{Width: decisionBoundedWidth, Policy: graph.BoundedUnit},
		{Width: decisionScaledWidth, Policy: graph.NonNegativeScaled, Scale: decisionScale},
	})
	if err != nil {
		return nil, err
	}

	return b.Assemble("decision", out)
}

// smokeDecision prueft die Regionen einer nachgerechneten Ausgabe:
// sigmoid haelt die ersten vier Werte in [0,1], relu plus Skalierung
// die letzten drei bei >= 0. Die Grenzen sind inklusiv, weil float32
// die Aktivierungen an den Raendern saettigen kann.
func smokeDecision(output []float32) error {
	if len(output) != decisionOutputs {
		return fmt.Errorf("output has %d values, want %d", len(output), decisionOutputs)
	}
	for i, v := range output[:decisionBoundedWidth] {
		if v < 0 || v > 1 {
			return fmt.Errorf("bounded output %d is %g, want [0,1]", i, v)
		}
	}
	for i, v := range output[decisionBoundedWidth:] {
		if v < 0 {
			return fmt.Errorf("scaled output %d is %g, want >= 0", decisionBoundedWidth+i, v)
		}
	}
	return nil
}
