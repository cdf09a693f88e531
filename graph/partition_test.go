// partition_test.go - Tests fuer den Output-Partitionierer
package graph

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPartitionRegionReihenfolge(t *testing.T) {
	b := NewBuilder()
	mustInput(t, b, "input", Shape{1, 7})

	out, err := b.Partition("input", []Region{
		{Width: 4, Policy: BoundedUnit},
		{Width: 3, Policy: NonNegativeScaled, Scale: 100},
	})
	if err != nil {
		t.Fatalf("Partition fehlgeschlagen: %v", err)
	}
	if out != "concat_out" {
		t.Errorf("Ausgabename = %q, erwartet %q", out, "concat_out")
	}

	var kinds []OpKind
	for _, n := range b.nodes {
		kinds = append(kinds, n.Kind)
	}
	want := []OpKind{OpSlice, OpSigmoid, OpSlice, OpRelu, OpScale, OpConcat}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Errorf("Node-Folge weicht ab (-erwartet +erhalten):\n%s", diff)
	}

	// Regionen muessen in Deklarationsreihenfolge zusammengesetzt werden
	concat := b.nodes[len(b.nodes)-1]
	if diff := cmp.Diff([]string{"sigmoid_out", "scale_out"}, concat.Inputs); diff != "" {
		t.Errorf("Concat-Inputs weichen ab (-erwartet +erhalten):\n%s", diff)
	}

	first, second := b.nodes[0], b.nodes[2]
	if first.Attrs[AttrStart] != 0 || first.Attrs[AttrEnd] != 4 || first.Attrs[AttrAxis] != 1 {
		t.Errorf("erster Slice = [%d,%d) Achse %d, erwartet [0,4) Achse 1",
			first.Attrs[AttrStart], first.Attrs[AttrEnd], first.Attrs[AttrAxis])
	}
	if second.Attrs[AttrStart] != 4 || second.Attrs[AttrEnd] != 7 || second.Attrs[AttrAxis] != 1 {
		t.Errorf("zweiter Slice = [%d,%d) Achse %d, erwartet [4,7) Achse 1",
			second.Attrs[AttrStart], second.Attrs[AttrEnd], second.Attrs[AttrAxis])
	}

	shape, err := b.Shape(out)
	if err != nil {
		t.Fatalf("Shape fehlgeschlagen: %v", err)
	}
	if diff := cmp.Diff(Shape{1, 7}, shape); diff != "" {
		t.Errorf("Ergebnisform weicht ab (-erwartet +erhalten):\n%s", diff)
	}
}

func TestPartitionBreitensumme(t *testing.T) {
	cases := []struct {
		name    string
		source  Shape
		regions []Region
		wantErr error
	}{
		{
			name:   "summe passt",
			source: Shape{1, 7},
			regions: []Region{
				{Width: 4, Policy: BoundedUnit},
				{Width: 3, Policy: NonNegativeScaled, Scale: 100},
			},
		},
		{
			name:   "summe zu klein",
			source: Shape{1, 7},
			regions: []Region{
				{Width: 4, Policy: BoundedUnit},
				{Width: 2, Policy: NonNegativeScaled, Scale: 100},
			},
			wantErr: ErrPartitionWidth,
		},
		{
			name:   "summe zu gross",
			source: Shape{1, 7},
			regions: []Region{
				{Width: 4, Policy: BoundedUnit},
				{Width: 4, Policy: NonNegativeScaled, Scale: 100},
			},
			wantErr: ErrPartitionWidth,
		},
		{
			name:    "keine regionen",
			source:  Shape{1, 7},
			regions: nil,
			wantErr: ErrPartitionWidth,
		},
		{
			name:   "breite null",
			source: Shape{1, 7},
			regions: []Region{
				{Width: 0, Policy: BoundedUnit},
				{Width: 7, Policy: BoundedUnit},
			},
			wantErr: ErrPartitionWidth,
		},
		{
			name:   "breite negativ",
			source: Shape{1, 7},
			regions: []Region{
				{Width: -1, Policy: BoundedUnit},
				{Width: 8, Policy: BoundedUnit},
			},
			wantErr: ErrPartitionWidth,
		},
		{
			name:   "einzelregion voll",
			source: Shape{1, 7},
			regions: []Region{
				{Width: 7, Policy: BoundedUnit},
			},
		},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder()
			mustInput(t, b, "input", tt.source)

			_, err := b.Partition("input", tt.regions)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Fehler = %v, erwartet %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Partition fehlgeschlagen: %v", err)
			}
		})
	}
}

func TestPartitionFehlerAtomar(t *testing.T) {
	b := NewBuilder()
	mustInput(t, b, "input", Shape{1, 7})
	mustAppend(t, b, OpSigmoid, []string{"input"}, nil)
	before := len(b.nodes)
	names := b.ns.Len()

	_, err := b.Partition("input", []Region{
		{Width: 4, Policy: BoundedUnit},
		{Width: 5, Policy: NonNegativeScaled, Scale: 100},
	})
	if !errors.Is(err, ErrPartitionWidth) {
		t.Fatalf("Fehler = %v, erwartet ErrPartitionWidth", err)
	}

	// Fehlgeschlagene Partition darf weder Nodes noch Namen hinterlassen
	if len(b.nodes) != before {
		t.Errorf("Node-Anzahl = %d, erwartet %d", len(b.nodes), before)
	}
	if b.ns.Len() != names {
		t.Errorf("Namensanzahl = %d, erwartet %d", b.ns.Len(), names)
	}
}

func TestPartitionScaleKonstanteGeteilt(t *testing.T) {
	b := NewBuilder()
	mustInput(t, b, "input", Shape{1, 6})

	_, err := b.Partition("input", []Region{
		{Width: 3, Policy: NonNegativeScaled, Scale: 100},
		{Width: 3, Policy: NonNegativeScaled, Scale: 100},
	})
	if err != nil {
		t.Fatalf("Partition fehlgeschlagen: %v", err)
	}

	var count int
	for _, c := range b.constants {
		if c.Name == "scale_100" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("scale_100 Konstanten = %d, erwartet 1", count)
	}
}

func TestPartitionUnbekannteQuelle(t *testing.T) {
	b := NewBuilder()

	_, err := b.Partition("niemals", []Region{{Width: 7, Policy: BoundedUnit}})
	if !errors.Is(err, ErrUnknownTensor) {
		t.Errorf("Fehler = %v, erwartet ErrUnknownTensor", err)
	}
}

func TestPartitionUnbekanntePolicy(t *testing.T) {
	b := NewBuilder()
	mustInput(t, b, "input", Shape{1, 7})

	_, err := b.Partition("input", []Region{{Width: 7, Policy: Policy("clamp")}})
	if err == nil {
		t.Fatal("Fehler erwartet, erhalten nil")
	}
	if len(b.nodes) != 0 {
		t.Errorf("Node-Anzahl = %d, erwartet 0", len(b.nodes))
	}
}

func TestPartitionScaleOhneFaktor(t *testing.T) {
	b := NewBuilder()
	mustInput(t, b, "input", Shape{1, 7})

	_, err := b.Partition("input", []Region{{Width: 7, Policy: NonNegativeScaled}})
	if err == nil {
		t.Fatal("Fehler erwartet, erhalten nil")
	}
}

func TestConcatReihenfolgeErhalt(t *testing.T) {
	// Schrittweises Zusammensetzen muss dieselbe Form liefern wie die
	// direkte Ableitung ueber Propagate.
	parts := []Shape{{1, 4}, {1, 3}}
	direct, err := Propagate(OpConcat, parts, Attrs{AttrAxis: 1})
	if err != nil {
		t.Fatalf("Propagate fehlgeschlagen: %v", err)
	}

	b := NewBuilder()
	mustInput(t, b, "input", Shape{1, 7})
	out, err := b.Partition("input", []Region{
		{Width: 4, Policy: BoundedUnit},
		{Width: 3, Policy: NonNegativeScaled, Scale: 100},
	})
	if err != nil {
		t.Fatalf("Partition fehlgeschlagen: %v", err)
	}
	got, err := b.Shape(out)
	if err != nil {
		t.Fatalf("Shape fehlgeschlagen: %v", err)
	}
	if diff := cmp.Diff(direct, got); diff != "" {
		t.Errorf("Formen weichen ab (-erwartet +erhalten):\n%s", diff)
	}
}
