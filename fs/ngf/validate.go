// Package ngf - NGF Validierung
//
// Dieses Modul enthaelt den unabhaengigen Struktur-Check fuer
// dekodierte Artefakte:
// - Validate: Namensaufloesung, Shape-Nachrechnung, Payload-Grenzen
//
// Validate rechnet die Shapes aller Nodes selbst nach und teilt
// keinen Code mit dem Produzenten. Ein Artefakt, das hier durchkommt,
// ist fuer Konsumenten ohne weitere Pruefung ladbar.
package ngf

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/emirpasic/gods/v2/sets/hashset"

	"github.com/7blacky7/brainforge/graph"
)

// Validate prueft ein dekodiertes Artefakt auf strukturelle Integritaet.
// Der erste Verstoss bricht mit einem beschreibenden Fehler ab.
func Validate(f *File) error {
	if f.Version != ngfVersion {
		return fmt.Errorf("unsupported version %d", f.Version)
	}

	alignment := int64(f.KV.Alignment())
	if alignment <= 0 {
		return fmt.Errorf("invalid alignment %d", alignment)
	}

	// Jeder Name hat genau einen Produzenten: Input, Konstante oder
	// Node-Output. producers sammelt sie in Aufloesungsreihenfolge,
	// shapes traegt die nachgerechneten Formen.
	producers := hashset.New[string]()
	shapes := make(map[string]graph.Shape)

	register := func(name string, shape graph.Shape) error {
		if producers.Contains(name) {
			return fmt.Errorf("duplicate producer %q", name)
		}
		producers.Add(name)
		shapes[name] = shape
		return nil
	}

	for _, vi := range f.Inputs {
		if err := register(vi.Name, vi.Shape); err != nil {
			return err
		}
	}
	for _, t := range f.Tensors {
		if err := register(t.Name, t.Shape); err != nil {
			return err
		}
	}

	// Vorwaerts-Scan: jeder Node darf nur bereits produzierte Namen
	// konsumieren. Kommt der Scan durch, ist die Sequenz zyklusfrei
	// und topologisch geordnet.
	for i, n := range f.Nodes {
		ins := make([]graph.Shape, len(n.Inputs))
		for j, name := range n.Inputs {
			if !producers.Contains(name) {
				return fmt.Errorf("node %d (%s): input %q not produced yet", i, n.Kind, name)
			}
			ins[j] = shapes[name]
		}

		out, err := deriveShape(n, ins)
		if err != nil {
			return fmt.Errorf("node %d (%s): %w", i, n.Kind, err)
		}

		if len(n.Outputs) != 1 {
			return fmt.Errorf("node %d (%s): %d outputs, want 1", i, n.Kind, len(n.Outputs))
		}
		if err := register(n.Outputs[0], out); err != nil {
			return fmt.Errorf("node %d (%s): %w", i, n.Kind, err)
		}
	}

	// Ausgabe-Signaturen muessen produziert sein und in der
	// nachgerechneten Form vorliegen
	for _, vi := range f.Outputs {
		if !producers.Contains(vi.Name) {
			return fmt.Errorf("output %q never produced", vi.Name)
		}
		if got := shapes[vi.Name]; !got.Equal(vi.Shape) {
			return fmt.Errorf("output %q has shape %s, signature says %s", vi.Name, got, vi.Shape)
		}
	}

	return validatePayloads(f, alignment)
}

// validatePayloads prueft Ausrichtung, Grenzen und Ueberlappung der
// Tensor-Bloecke
func validatePayloads(f *File, alignment int64) error {
	infos := slices.Clone(f.Tensors)
	slices.SortFunc(infos, func(a, b TensorInfo) int {
		return cmp.Compare(a.Offset, b.Offset)
	})

	var prevEnd uint64
	for i, t := range infos {
		if int64(t.Offset)%alignment != 0 {
			return fmt.Errorf("tensor %q offset %d not aligned to %d", t.Name, t.Offset, alignment)
		}
		if i > 0 && t.Offset < prevEnd {
			return fmt.Errorf("tensor %q overlaps previous payload", t.Name)
		}
		end := t.Offset + t.Size()
		if int64(end) > f.payloadSize {
			return fmt.Errorf("tensor %q payload truncated: need %d bytes, have %d", t.Name, end, f.payloadSize)
		}
		prevEnd = end
	}
	return nil
}

// deriveShape rechnet die Ausgabeform eines Nodes aus seinen
// Eingabeformen nach. Die Regeln stehen hier bewusst noch einmal
// ausgeschrieben, unabhaengig vom Produzenten.
func deriveShape(n Node, ins []graph.Shape) (graph.Shape, error) {
	switch n.Kind {
	case "matmul":
		if len(ins) != 2 {
			return nil, fmt.Errorf("%d inputs, want 2", len(ins))
		}
		a, b := ins[0], ins[1]
		if a.Rank() != 2 || b.Rank() != 2 {
			return nil, fmt.Errorf("ranks %d x %d, want 2 x 2", a.Rank(), b.Rank())
		}
		if a[1] != b[0] {
			return nil, fmt.Errorf("inner extents %d and %d differ", a[1], b[0])
		}
		return graph.Shape{a[0], b[1]}, nil

	case "add":
		if len(ins) != 2 {
			return nil, fmt.Errorf("%d inputs, want 2", len(ins))
		}
		a, b := ins[0], ins[1]
		switch {
		case a.Equal(b):
			return a.Clone(), nil
		case b.Rank() == 1 && a.Rank() > 1 && b[0] == a[len(a)-1]:
			return a.Clone(), nil
		case a.Rank() == 1 && b.Rank() > 1 && a[0] == b[len(b)-1]:
			return b.Clone(), nil
		default:
			return nil, fmt.Errorf("shapes %s and %s not addable", a, b)
		}

	case "sigmoid", "relu", "tanh":
		if len(ins) != 1 {
			return nil, fmt.Errorf("%d inputs, want 1", len(ins))
		}
		return ins[0].Clone(), nil

	case "scale":
		if len(ins) != 2 {
			return nil, fmt.Errorf("%d inputs, want 2", len(ins))
		}
		if !ins[1].IsScalar() {
			return nil, fmt.Errorf("scale factor has shape %s, want scalar", ins[1])
		}
		return ins[0].Clone(), nil

	case "slice":
		if len(ins) != 1 {
			return nil, fmt.Errorf("%d inputs, want 1", len(ins))
		}
		in := ins[0]
		axis, ok := n.Attr("axis")
		if !ok {
			return nil, fmt.Errorf("axis attribute missing")
		}
		start, ok := n.Attr("start")
		if !ok {
			return nil, fmt.Errorf("start attribute missing")
		}
		end, ok := n.Attr("end")
		if !ok {
			return nil, fmt.Errorf("end attribute missing")
		}
		if axis < 0 || axis >= int64(in.Rank()) {
			return nil, fmt.Errorf("axis %d outside rank %d", axis, in.Rank())
		}
		if start < 0 || end <= start || end > in[axis] {
			return nil, fmt.Errorf("range [%d,%d) outside extent %d", start, end, in[axis])
		}
		out := in.Clone()
		out[axis] = end - start
		return out, nil

	case "concat":
		if len(ins) == 0 {
			return nil, fmt.Errorf("no inputs")
		}
		axis, ok := n.Attr("axis")
		if !ok {
			return nil, fmt.Errorf("axis attribute missing")
		}
		first := ins[0]
		if axis < 0 || axis >= int64(first.Rank()) {
			return nil, fmt.Errorf("axis %d outside rank %d", axis, first.Rank())
		}
		out := first.Clone()
		for _, in := range ins[1:] {
			if in.Rank() != first.Rank() {
				return nil, fmt.Errorf("ranks %d and %d differ", first.Rank(), in.Rank())
			}
			for d := range in {
				if int64(d) == axis {
					continue
				}
				if in[d] != first[d] {
					return nil, fmt.Errorf("extent %d on axis %d, want %d", in[d], d, first[d])
				}
			}
			out[axis] += in[axis]
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unknown kind %q", n.Kind)
	}
}
