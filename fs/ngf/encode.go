// Package ngf - NGF Write Operations
//
// Dieses Modul enthaelt Funktionen zum Schreiben von NGF-Dateien:
// - Encode: Schreibt komplettes NGF-File aus einem Graphen
// - writeNGF / writeNGFString: Serialisierung der Basistypen
// - ngfWriteKV: Key-Value Paar mit Typ-Prefix
// - ngfWriteValueInfo / ngfWriteNode / ngfWriteTensorInfo: Sektionen
//
// Die Ausgabe ist eine reine Funktion von Graph und Metadaten: Keys,
// Attribute und Tensoren werden sortiert geschrieben, derselbe Build
// liefert also Byte-identische Artefakte.
package ngf

import (
	"bytes"
	"cmp"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"runtime"
	"slices"
	"strings"

	"github.com/d4l3k/go-bfloat16"
	"github.com/x448/float16"
	"golang.org/x/sync/errgroup"

	"github.com/7blacky7/brainforge/graph"
)

// Encode schreibt ein NGF-File mit Metadaten, Signaturen, Nodes und
// Tensor-Payloads. kv muss general.producer enthalten; general.name
// wird immer aus dem Graphen gestempelt.
func Encode(f *os.File, g *graph.Graph, kv KV) error {
	if g.Name == "" {
		return fmt.Errorf("graph name not set")
	}

	merged := KV{"general.alignment": DefaultAlignment}
	maps.Copy(merged, kv)
	merged["general.name"] = g.Name

	if merged.String("general.producer") == "" {
		return fmt.Errorf("producer not set")
	}

	// Magic: "NGF1"
	if err := binary.Write(f, binary.LittleEndian, []byte(ngfMagic)); err != nil {
		return err
	}

	// Version: 1
	if err := binary.Write(f, binary.LittleEndian, ngfVersion); err != nil {
		return err
	}

	// Sektions-Counts: KV, Inputs, Outputs, Nodes, Tensors
	for _, n := range []uint64{
		uint64(merged.Len()),
		uint64(len(g.Inputs)),
		uint64(len(g.Outputs)),
		uint64(len(g.Nodes)),
		uint64(len(g.Constants)),
	} {
		if err := binary.Write(f, binary.LittleEndian, n); err != nil {
			return err
		}
	}

	// Write KV Pairs
	for _, key := range slices.Sorted(merged.Keys()) {
		if err := ngfWriteKV(f, key, merged.Value(key)); err != nil {
			return err
		}
	}

	// Write Signatures
	for _, t := range g.Inputs {
		if err := ngfWriteValueInfo(f, t); err != nil {
			return err
		}
	}
	for _, t := range g.Outputs {
		if err := ngfWriteValueInfo(f, t); err != nil {
			return err
		}
	}

	// Write Nodes
	for _, n := range g.Nodes {
		if err := ngfWriteNode(f, n); err != nil {
			return err
		}
	}

	// Sort Tensors
	cs := slices.Clone(g.Constants)
	slices.SortStableFunc(cs, func(a, b *graph.Constant) int {
		return cmp.Compare(a.Name, b.Name)
	})

	alignment := int64(merged.Alignment())

	// Calculate offsets and write tensor info
	var s uint64
	offsets := make([]uint64, len(cs))
	for i, c := range cs {
		offsets[i] = s
		if err := ngfWriteTensorInfo(f, c, s); err != nil {
			return err
		}
		s += uint64(c.Shape.Elements() * c.DType.Size())
		s += uint64(ngfPadding(int64(s), alignment))
	}

	offset, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	offset += ngfPadding(offset, alignment)

	// Write tensor data in parallel
	var eg errgroup.Group
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i, c := range cs {
		w := io.NewOffsetWriter(f, offset+int64(offsets[i]))
		eg.Go(func() error {
			bts, err := tensorBytes(c)
			if err != nil {
				return err
			}
			_, err = w.Write(bts)
			return err
		})
	}

	return eg.Wait()
}

// writeNGF schreibt einen Wert fester Groesse
func writeNGF[V any](w io.Writer, v V) error {
	return binary.Write(w, binary.LittleEndian, v)
}

// writeNGFTyped schreibt einen Wert mit Typ-Prefix
func writeNGFTyped[V any](w io.Writer, t uint32, v V) error {
	if err := binary.Write(w, binary.LittleEndian, t); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, v)
}

// writeNGFString schreibt einen String mit Laengen-Prefix
func writeNGFString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint64(len(s))); err != nil {
		return err
	}
	_, err := io.Copy(w, strings.NewReader(s))
	return err
}

// ngfWriteKV schreibt ein Key-Value Paar
func ngfWriteKV(ws io.Writer, k string, v any) error {
	slog.Debug(k, "type", fmt.Sprintf("%T", v))

	if err := writeNGFString(ws, k); err != nil {
		return err
	}

	var err error
	switch v := v.(type) {
	case uint32:
		err = writeNGFTyped(ws, ngfTypeUint32, v)
	case int32:
		err = writeNGFTyped(ws, ngfTypeInt32, v)
	case uint64:
		err = writeNGFTyped(ws, ngfTypeUint64, v)
	case int64:
		err = writeNGFTyped(ws, ngfTypeInt64, v)
	case float32:
		err = writeNGFTyped(ws, ngfTypeFloat32, v)
	case float64:
		err = writeNGFTyped(ws, ngfTypeFloat64, v)
	case bool:
		err = writeNGFTyped(ws, ngfTypeBool, v)
	case string:
		if err := binary.Write(ws, binary.LittleEndian, ngfTypeString); err != nil {
			return err
		}
		err = writeNGFString(ws, v)
	default:
		return fmt.Errorf("improper type for '%s'", k)
	}
	return err
}

// ngfWriteValueInfo schreibt eine Ein- oder Ausgabe-Signatur
func ngfWriteValueInfo(w io.Writer, t *graph.Tensor) error {
	if err := writeNGFString(w, t.Name); err != nil {
		return err
	}
	if err := writeNGF(w, uint32(t.DType)); err != nil {
		return err
	}
	if err := writeNGF(w, uint32(t.Shape.Rank())); err != nil {
		return err
	}
	for _, d := range t.Shape {
		if err := writeNGF(w, d); err != nil {
			return err
		}
	}
	return nil
}

// ngfWriteNode schreibt einen Operator-Record
func ngfWriteNode(w io.Writer, n *graph.Node) error {
	if err := writeNGFString(w, string(n.Kind)); err != nil {
		return err
	}

	if err := writeNGF(w, uint64(len(n.Inputs))); err != nil {
		return err
	}
	for _, name := range n.Inputs {
		if err := writeNGFString(w, name); err != nil {
			return err
		}
	}

	if err := writeNGF(w, uint64(len(n.Outputs))); err != nil {
		return err
	}
	for _, name := range n.Outputs {
		if err := writeNGFString(w, name); err != nil {
			return err
		}
	}

	// Attribute sortiert nach Namen
	keys := slices.Sorted(maps.Keys(n.Attrs))
	if err := writeNGF(w, uint64(len(keys))); err != nil {
		return err
	}
	for _, k := range keys {
		if err := writeNGFString(w, k); err != nil {
			return err
		}
		if err := writeNGF(w, n.Attrs[k]); err != nil {
			return err
		}
	}
	return nil
}

// ngfWriteTensorInfo schreibt die Tensor-Metadaten
func ngfWriteTensorInfo(w io.Writer, c *graph.Constant, offset uint64) error {
	slog.Debug(c.Name, "dtype", c.DType.String(), "shape", c.Shape, "offset", offset)

	if err := writeNGFString(w, c.Name); err != nil {
		return err
	}
	if err := writeNGF(w, uint32(c.DType)); err != nil {
		return err
	}
	if err := writeNGF(w, uint32(c.Shape.Rank())); err != nil {
		return err
	}
	for _, d := range c.Shape {
		if err := writeNGF(w, d); err != nil {
			return err
		}
	}
	return writeNGF(w, offset)
}

// tensorBytes kodiert den Payload eines Konstanten-Tensors
func tensorBytes(c *graph.Constant) ([]byte, error) {
	switch c.DType {
	case graph.DTypeF32:
		var buf bytes.Buffer
		buf.Grow(len(c.Data) * 4)
		if err := binary.Write(&buf, binary.LittleEndian, c.Data); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case graph.DTypeF16:
		h := make([]float16.Float16, len(c.Data))
		for i, v := range c.Data {
			h[i] = float16.Fromfloat32(v)
		}
		var buf bytes.Buffer
		buf.Grow(len(h) * 2)
		if err := binary.Write(&buf, binary.LittleEndian, h); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case graph.DTypeBF16:
		return bfloat16.EncodeFloat32(c.Data), nil
	default:
		return nil, fmt.Errorf("unsupported tensor dtype %d", c.DType)
	}
}
