// Package ngf - NGF Graph-Container
//
// Dieses Modul enthaelt die Wire-Typen des NGF-Formats:
// - KV: Producer-Metadaten als Key-Value Paare
// - ValueInfo: Ein- und Ausgabe-Signaturen
// - Node: Operator-Records in topologischer Reihenfolge
// - TensorInfo: Konstanten-Metadaten mit Payload-Offset
// - File: Dekodiertes Artefakt ohne Payloads
//
// Alle Mehrbyte-Werte sind Little-Endian. Strings sind uint64-Laenge
// plus Bytes. Payloads liegen hinter den Metadaten, jeder Block auf
// general.alignment ausgerichtet und nach Tensor-Namen geordnet.
package ngf

import (
	"iter"
	"maps"

	"github.com/7blacky7/brainforge/graph"
)

const (
	ngfMagic   = "NGF1"
	ngfVersion = uint32(1)

	// DefaultAlignment ist die Payload-Ausrichtung, wenn das Artefakt
	// kein general.alignment traegt.
	DefaultAlignment = uint32(32)
)

// NGF KV Type Constants
const (
	ngfTypeUint32 uint32 = iota
	ngfTypeInt32
	ngfTypeUint64
	ngfTypeInt64
	ngfTypeFloat32
	ngfTypeFloat64
	ngfTypeBool
	ngfTypeString
)

// KV repraesentiert NGF Key-Value Metadaten
type KV map[string]any

// Producer gibt den Namen des erzeugenden Programms zurueck
func (kv KV) Producer() string {
	return kv.String("general.producer", "unknown")
}

// GraphName gibt den im Artefakt hinterlegten Graph-Namen zurueck
func (kv KV) GraphName() string {
	return kv.String("general.name", "unknown")
}

// Alignment gibt die Payload-Ausrichtung zurueck
func (kv KV) Alignment() uint32 {
	return kv.Uint("general.alignment", DefaultAlignment)
}

// Seed gibt den Build-Seed zurueck
func (kv KV) Seed() uint64 {
	return kv.Uint64("general.seed", 0)
}

// String gibt einen String-Wert zurueck
func (kv KV) String(key string, defaultValue ...string) string {
	val, _ := keyValue(kv, key, append(defaultValue, "")...)
	return val
}

// Uint gibt einen uint32-Wert zurueck
func (kv KV) Uint(key string, defaultValue ...uint32) uint32 {
	val, _ := keyValue(kv, key, append(defaultValue, 0)...)
	return val
}

// Uint64 gibt einen uint64-Wert zurueck
func (kv KV) Uint64(key string, defaultValue ...uint64) uint64 {
	val, _ := keyValue(kv, key, append(defaultValue, 0)...)
	return val
}

// Float gibt einen float32-Wert zurueck
func (kv KV) Float(key string, defaultValue ...float32) float32 {
	val, _ := keyValue(kv, key, append(defaultValue, 0)...)
	return val
}

// Bool gibt einen bool-Wert zurueck
func (kv KV) Bool(key string, defaultValue ...bool) bool {
	val, _ := keyValue(kv, key, append(defaultValue, false)...)
	return val
}

// Len gibt die Anzahl der KV-Paare zurueck
func (kv KV) Len() int {
	return len(kv)
}

// Keys gibt einen Iterator ueber alle Keys zurueck
func (kv KV) Keys() iter.Seq[string] {
	return maps.Keys(kv)
}

// Value gibt den Wert fuer einen Key zurueck
func (kv KV) Value(key string) any {
	return kv[key]
}

type valueTypes interface {
	uint32 | int32 | uint64 | int64 |
		float32 | float64 | bool | string
}

// keyValue ist eine generische Hilfsfunktion zum Lesen von KV-Werten
func keyValue[T valueTypes](kv KV, key string, defaultValue ...T) (T, bool) {
	if val, ok := kv[key].(T); ok {
		return val, true
	}
	return defaultValue[0], false
}

// ValueInfo beschreibt eine Ein- oder Ausgabe-Signatur
type ValueInfo struct {
	Name  string
	DType graph.DType
	Shape graph.Shape
}

// Attr ist ein benanntes Node-Attribut. Auf dem Wire liegen Attribute
// nach Namen sortiert.
type Attr struct {
	Name  string
	Value int64
}

// Node ist ein Operator-Record. Inputs referenzieren Namen frueherer
// Produzenten, Outputs deklarieren neue Namen.
type Node struct {
	Kind    string
	Inputs  []string
	Outputs []string
	Attrs   []Attr
}

// Attr gibt den Wert eines Attributs zurueck
func (n Node) Attr(name string) (int64, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return 0, false
}

// TensorInfo beschreibt einen Konstanten-Tensor. Offset ist relativ
// zur Payload-Basis und bereits ausgerichtet.
type TensorInfo struct {
	Name   string
	DType  graph.DType
	Shape  graph.Shape
	Offset uint64
}

// Elements gibt die Anzahl der Werte zurueck
func (t TensorInfo) Elements() uint64 {
	return uint64(t.Shape.Elements())
}

// Size gibt die Payload-Groesse in Bytes zurueck
func (t TensorInfo) Size() uint64 {
	return t.Elements() * uint64(t.DType.Size())
}

// File ist ein dekodiertes NGF-Artefakt. Tensor-Payloads werden nicht
// mitgeladen, TensorData liest sie bei Bedarf nach.
type File struct {
	Version uint32
	KV      KV
	Inputs  []ValueInfo
	Outputs []ValueInfo
	Nodes   []Node
	Tensors []TensorInfo

	// tensorOffset ist die absolute Payload-Basis, payloadSize die
	// Restgroesse der Datei ab dieser Basis.
	tensorOffset int64
	payloadSize  int64
}

// TensorInfo sucht die Metadaten eines Tensors
func (f *File) TensorInfo(name string) (TensorInfo, bool) {
	for _, t := range f.Tensors {
		if t.Name == name {
			return t, true
		}
	}
	return TensorInfo{}, false
}

// ngfPadding berechnet das Padding fuer Alignment
func ngfPadding(offset, align int64) int64 {
	return (align - offset%align) % align
}
