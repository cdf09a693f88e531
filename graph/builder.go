// builder.go - Operator-Sequenzierung und Graph-Assemblierung
//
// Dieses Modul enthaelt:
// - Builder: Input/Constant-Registrierung, Append, Assemble
// - Append ist der einzige Mutationspunkt der Node-Sequenz
//
// Ein Builder baut genau einen Graphen und ist nicht nebenlaeufig
// verwendbar. Zwei Builds teilen keinerlei Zustand, getrennte Graphen
// duerfen also parallel gebaut werden.
package graph

import "fmt"

// Builder baut einen Graphen append-only auf. Jeder Node referenziert
// nur Namen, die zu seinem Anhaengezeitpunkt bereits deklariert waren;
// die Node-Sequenz ist dadurch ohne eigenen Zyklus-Check topologisch
// gueltig.
type Builder struct {
	ns        *Namespace
	inputs    []*Tensor
	constants []*Constant
	nodes     []*Node
	scales    map[string]string
}

func NewBuilder() *Builder {
	return &Builder{
		ns:     NewNamespace(),
		scales: make(map[string]string),
	}
}

// Input deklariert einen Graph-Eingang unter seinem Vertragsnamen.
func (b *Builder) Input(name string, shape Shape, dtype DType) (*Tensor, error) {
	t, err := b.ns.DeclareExact(name, shape, dtype)
	if err != nil {
		return nil, err
	}

	b.inputs = append(b.inputs, t)
	return t, nil
}

// Constant registriert einen konstanten Tensor mit festem Payload.
// Der Payload muss exakt Elements(shape) Werte enthalten.
func (b *Builder) Constant(name string, shape Shape, data []float32) (*Tensor, error) {
	if want := shape.Elements(); int64(len(data)) != want {
		return nil, fmt.Errorf("%w: constant %q has %d values, shape %s wants %d", ErrShape, name, len(data), shape, want)
	}

	t, err := b.ns.DeclareExact(name, shape, DTypeF32)
	if err != nil {
		return nil, err
	}

	b.constants = append(b.constants, &Constant{Tensor: *t, Data: data})
	return t, nil
}

// Append haengt einen Operator an: loest alle Eingabe-Namen auf,
// propagiert die Shape, deklariert frische Ausgabe-Tensoren und gibt
// deren Namen zurueck. Schlaegt die Aufloesung oder Propagation fehl,
// bleibt der Builder unveraendert.
func (b *Builder) Append(kind OpKind, inputs []string, attrs Attrs) ([]string, error) {
	shapes := make([]Shape, len(inputs))
	dtype := DTypeF32
	for i, name := range inputs {
		t, ok := b.ns.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q consumed by %s", ErrUnknownTensor, name, kind)
		}
		shapes[i] = t.Shape
		if i == 0 {
			dtype = t.DType
		}
	}

	out, err := Propagate(kind, shapes, attrs)
	if err != nil {
		return nil, err
	}

	t := b.ns.Declare(string(kind)+"_out", out, dtype)
	b.nodes = append(b.nodes, &Node{
		Kind:    kind,
		Inputs:  append([]string{}, inputs...),
		Outputs: []string{t.Name},
		Attrs:   attrs.Clone(),
	})

	return []string{t.Name}, nil
}

// Shape gibt die aktuell deklarierte Shape eines Namens zurueck.
func (b *Builder) Shape(name string) (Shape, error) {
	t, ok := b.ns.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTensor, name)
	}
	return t.Shape.Clone(), nil
}

// Assemble friert den Build zu einem unveraenderlichen Graphen ein.
// finalOutput muss ein deklarierter Produzent sein, sonst
// ErrUnresolvedOutput.
func (b *Builder) Assemble(name, finalOutput string) (*Graph, error) {
	out, ok := b.ns.Lookup(finalOutput)
	if !ok {
		return nil, fmt.Errorf("%w: %q was never produced", ErrUnresolvedOutput, finalOutput)
	}

	return &Graph{
		Name:      name,
		Inputs:    append([]*Tensor{}, b.inputs...),
		Outputs:   []*Tensor{out},
		Nodes:     append([]*Node{}, b.nodes...),
		Constants: append([]*Constant{}, b.constants...),
	}, nil
}
