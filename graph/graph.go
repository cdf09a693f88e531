// Package graph - Deterministischer Aufbau von Tensor-Berechnungsgraphen
//
// Dieses Modul enthaelt:
// - Datenmodell: Tensor-Deskriptoren, Operator-Nodes, Konstanten, Graph
// - Namespace: eindeutige Tensor-Namen (namespace.go)
// - Shape-Propagation pro Operator (shapes.go)
// - Builder: append-only Sequenzierung und Assemblierung (builder.go)
// - Partitionierung eines breiten Ausgabevektors (partition.go)
//
// Ein Graph wird genau einmal aufgebaut und danach nie mehr veraendert.
// Die Node-Reihenfolge ist durch den append-only Aufbau immer eine
// gueltige topologische Ordnung.
package graph

import (
	"fmt"
	"strings"
)

// DType ist der Element-Typ eines Tensors.
type DType uint32

const (
	DTypeF32 DType = iota
	DTypeF16
	DTypeBF16
)

func (t DType) String() string {
	switch t {
	case DTypeF32:
		return "F32"
	case DTypeF16:
		return "F16"
	case DTypeBF16:
		return "BF16"
	default:
		return "unknown"
	}
}

// Size gibt die Groesse eines Elements in Bytes zurueck.
func (t DType) Size() int64 {
	switch t {
	case DTypeF32:
		return 4
	case DTypeF16, DTypeBF16:
		return 2
	default:
		return 0
	}
}

// Shape beschreibt Rang und Ausdehnung pro Achse.
// Extent 0 markiert eine dynamische Achse.
type Shape []int64

func (s Shape) Rank() int {
	return len(s)
}

func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Elements ist das Produkt aller Extents. Rang 0 zaehlt als Skalar (1).
func (s Shape) Elements() int64 {
	n := int64(1)
	for _, d := range s {
		n *= d
	}
	return n
}

// Last gibt den Extent der letzten Achse zurueck, 0 bei Rang 0.
func (s Shape) Last() int64 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1]
}

// IsScalar meldet Rang 0 oder die Ein-Element-Form [1].
func (s Shape) IsScalar() bool {
	return len(s) == 0 || (len(s) == 1 && s[0] == 1)
}

func (s Shape) Clone() Shape {
	if s == nil {
		return nil
	}
	return append(Shape{}, s...)
}

func (s Shape) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, d := range s {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, "%d", d)
	}
	sb.WriteByte(']')
	return sb.String()
}

// OpKind ist die Operator-Art eines Nodes.
type OpKind string

const (
	OpMatMul  OpKind = "matmul"
	OpAdd     OpKind = "add"
	OpSigmoid OpKind = "sigmoid"
	OpRelu    OpKind = "relu"
	OpTanh    OpKind = "tanh"
	OpScale   OpKind = "scale"
	OpSlice   OpKind = "slice"
	OpConcat  OpKind = "concat"
)

// Attribut-Schluessel fuer Slice und Concat.
const (
	AttrStart = "start"
	AttrEnd   = "end"
	AttrAxis  = "axis"
)

// Attrs sind kind-spezifische Node-Parameter.
type Attrs map[string]int64

func (a Attrs) Clone() Attrs {
	if a == nil {
		return nil
	}
	out := make(Attrs, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Tensor ist der Deskriptor eines benannten Werts im Graphen.
// Ein Name wird genau einmal als Produzent deklariert (Input, Konstante
// oder Operator-Ausgang) und danach nicht mehr veraendert.
type Tensor struct {
	Name  string
	Shape Shape
	DType DType
}

// Node ist ein Rechenschritt. Inputs referenzieren bereits deklarierte
// Produzenten, Outputs neu deklarierte Namen. Nodes werden nach dem
// Anhaengen nie veraendert.
type Node struct {
	Kind    OpKind
	Inputs  []string
	Outputs []string
	Attrs   Attrs
}

// Constant ist ein Tensor mit festem Payload (Gewichte, Bias, Skalare).
type Constant struct {
	Tensor
	Data []float32
}

// Graph ist das unveraenderliche Endergebnis eines Builds.
type Graph struct {
	Name      string
	Inputs    []*Tensor
	Outputs   []*Tensor
	Nodes     []*Node
	Constants []*Constant
}
