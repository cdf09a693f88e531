// namespace.go - Eindeutige Tensor-Namen pro Graph
//
// Dieses Modul enthaelt:
// - Namespace: insertion-geordnete Deskriptor-Tabelle
// - Declare: Namensvergabe mit deterministischem _N Suffix
// - DeclareExact: Registrierung voll qualifizierter Namen
package graph

import (
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Namespace vergibt eindeutige Tensor-Namen fuer genau einen Graphen.
// Die Tabelle haelt die Deklarationsreihenfolge fest, damit Iteration
// und damit auch die Serialisierung deterministisch bleiben.
type Namespace struct {
	tensors *orderedmap.OrderedMap[string, *Tensor]
	counts  map[string]int
}

func NewNamespace() *Namespace {
	return &Namespace{
		tensors: orderedmap.New[string, *Tensor](),
		counts:  make(map[string]int),
	}
}

// Declare vergibt einen noch nie vergebenen Namen auf Basis von base.
// Kollisionen werden deterministisch mit einem _N Zaehler aufgeloest,
// wiederholte identische Builds erzeugen also identische Namen.
func (ns *Namespace) Declare(base string, shape Shape, dtype DType) *Tensor {
	name := base
	for {
		if _, ok := ns.tensors.Get(name); !ok {
			break
		}
		ns.counts[base]++
		name = fmt.Sprintf("%s_%d", base, ns.counts[base])
	}

	t := &Tensor{Name: name, Shape: shape.Clone(), DType: dtype}
	ns.tensors.Set(name, t)
	return t
}

// DeclareExact registriert einen voll qualifizierten Namen unveraendert.
// Schlaegt mit ErrDuplicateDeclaration fehl, wenn der Name bereits
// vergeben wurde.
func (ns *Namespace) DeclareExact(name string, shape Shape, dtype DType) (*Tensor, error) {
	if name == "" {
		return nil, fmt.Errorf("tensor name must not be empty")
	}
	if _, ok := ns.tensors.Get(name); ok {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateDeclaration, name)
	}

	t := &Tensor{Name: name, Shape: shape.Clone(), DType: dtype}
	ns.tensors.Set(name, t)
	return t, nil
}

// Lookup gibt den Deskriptor zu name zurueck.
func (ns *Namespace) Lookup(name string) (*Tensor, bool) {
	return ns.tensors.Get(name)
}

// Len gibt die Anzahl deklarierter Namen zurueck.
func (ns *Namespace) Len() int {
	return ns.tensors.Len()
}

// Names gibt alle Namen in Deklarationsreihenfolge zurueck.
func (ns *Namespace) Names() []string {
	names := make([]string, 0, ns.tensors.Len())
	for pair := ns.tensors.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}
