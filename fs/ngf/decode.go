// Package ngf - NGF Decode Operations
//
// Dieses Modul enthaelt Funktionen zum Lesen von NGF-Dateien:
// - Decode: Deserialisierung von Metadaten, Signaturen, Nodes, Tensors
// - readNGF / readNGFString: Lese-Funktionen fuer Basistypen
// - TensorData: Nachladen einzelner Tensor-Payloads als []float32
package ngf

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/d4l3k/go-bfloat16"
	"github.com/x448/float16"

	"github.com/7blacky7/brainforge/fs/util/bufioutil"
	"github.com/7blacky7/brainforge/graph"
)

// decoder buendelt Byte-Order und Scratch-Puffer der Lese-Funktionen
type decoder struct {
	byteOrder binary.ByteOrder
	scratch   [4 << 10]byte
}

// Decode liest ein NGF-Artefakt ohne Tensor-Payloads. Die Payloads
// bleiben in der Datei, TensorData laedt sie einzeln nach.
func Decode(rs io.ReadSeeker) (*File, error) {
	rs = bufioutil.NewBufferedSeeker(rs, 32<<10)

	d := &decoder{byteOrder: binary.LittleEndian}

	var magic [4]byte
	if _, err := io.ReadFull(rs, magic[:]); err != nil {
		return nil, err
	}
	if string(magic[:]) != ngfMagic {
		return nil, fmt.Errorf("invalid file magic %q", magic)
	}

	f := &File{KV: make(KV)}
	var err error
	if f.Version, err = readNGF[uint32](d, rs); err != nil {
		return nil, err
	}
	if f.Version != ngfVersion {
		return nil, fmt.Errorf("unsupported version %d", f.Version)
	}

	var counts struct {
		KV, Inputs, Outputs, Nodes, Tensors uint64
	}
	if err := binary.Read(rs, d.byteOrder, &counts); err != nil {
		return nil, err
	}

	// KV-Paare dekodieren
	for i := 0; uint64(i) < counts.KV; i++ {
		k, err := readNGFString(d, rs)
		if err != nil {
			return nil, err
		}

		t, err := readNGF[uint32](d, rs)
		if err != nil {
			return nil, err
		}

		var v any
		switch t {
		case ngfTypeUint32:
			v, err = readNGF[uint32](d, rs)
		case ngfTypeInt32:
			v, err = readNGF[int32](d, rs)
		case ngfTypeUint64:
			v, err = readNGF[uint64](d, rs)
		case ngfTypeInt64:
			v, err = readNGF[int64](d, rs)
		case ngfTypeFloat32:
			v, err = readNGF[float32](d, rs)
		case ngfTypeFloat64:
			v, err = readNGF[float64](d, rs)
		case ngfTypeBool:
			v, err = readNGF[bool](d, rs)
		case ngfTypeString:
			v, err = readNGFString(d, rs)
		default:
			return nil, fmt.Errorf("invalid type: %d", t)
		}

		if err != nil {
			return nil, err
		}
		f.KV[k] = v
	}

	// Signaturen dekodieren
	f.Inputs = make([]ValueInfo, 0, counts.Inputs)
	for i := 0; uint64(i) < counts.Inputs; i++ {
		vi, err := readValueInfo(d, rs)
		if err != nil {
			return nil, fmt.Errorf("failed to read input %d: %w", i, err)
		}
		f.Inputs = append(f.Inputs, vi)
	}
	f.Outputs = make([]ValueInfo, 0, counts.Outputs)
	for i := 0; uint64(i) < counts.Outputs; i++ {
		vi, err := readValueInfo(d, rs)
		if err != nil {
			return nil, fmt.Errorf("failed to read output %d: %w", i, err)
		}
		f.Outputs = append(f.Outputs, vi)
	}

	// Nodes dekodieren
	f.Nodes = make([]Node, 0, counts.Nodes)
	for i := 0; uint64(i) < counts.Nodes; i++ {
		n, err := readNode(d, rs)
		if err != nil {
			return nil, fmt.Errorf("failed to read node %d: %w", i, err)
		}
		f.Nodes = append(f.Nodes, n)
	}

	// Tensor-Metadaten dekodieren
	f.Tensors = make([]TensorInfo, 0, counts.Tensors)
	for i := 0; uint64(i) < counts.Tensors; i++ {
		name, err := readNGFString(d, rs)
		if err != nil {
			return nil, fmt.Errorf("failed to read tensor name: %w", err)
		}
		dtype, shape, err := readDTypeShape(d, rs)
		if err != nil {
			return nil, fmt.Errorf("failed to read tensor %q: %w", name, err)
		}
		offset, err := readNGF[uint64](d, rs)
		if err != nil {
			return nil, fmt.Errorf("failed to read tensor offset: %w", err)
		}

		f.Tensors = append(f.Tensors, TensorInfo{
			Name:   name,
			DType:  dtype,
			Shape:  shape,
			Offset: offset,
		})
	}

	// Payload-Basis berechnen
	alignment := int64(f.KV.Alignment())
	if alignment <= 0 {
		return nil, fmt.Errorf("invalid alignment %d", alignment)
	}

	offset, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}
	f.tensorOffset = offset + ngfPadding(offset, alignment)

	end, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, err
	}
	f.payloadSize = end - f.tensorOffset

	return f, nil
}

// TensorData laedt den Payload eines Tensors und dekodiert ihn als
// []float32. rs muss dieselbe Datei sein, aus der das File dekodiert
// wurde.
func (f *File) TensorData(rs io.ReadSeeker, name string) ([]float32, error) {
	info, ok := f.TensorInfo(name)
	if !ok {
		return nil, fmt.Errorf("tensor %q not in file", name)
	}
	if int64(info.Offset)+int64(info.Size()) > f.payloadSize {
		return nil, fmt.Errorf("tensor %q payload out of bounds", name)
	}

	if _, err := rs.Seek(f.tensorOffset+int64(info.Offset), io.SeekStart); err != nil {
		return nil, err
	}

	bts := make([]byte, info.Size())
	if _, err := io.ReadFull(rs, bts); err != nil {
		return nil, fmt.Errorf("failed to read tensor %q: %w", name, err)
	}

	switch info.DType {
	case graph.DTypeF32:
		f32s := make([]float32, info.Elements())
		if err := binary.Read(bytes.NewReader(bts), binary.LittleEndian, f32s); err != nil {
			return nil, err
		}
		return f32s, nil
	case graph.DTypeF16:
		u16s := make([]uint16, info.Elements())
		if err := binary.Read(bytes.NewReader(bts), binary.LittleEndian, u16s); err != nil {
			return nil, err
		}
		f32s := make([]float32, len(u16s))
		for i, u := range u16s {
			f32s[i] = float16.Frombits(u).Float32()
		}
		return f32s, nil
	case graph.DTypeBF16:
		return bfloat16.DecodeFloat32(bts), nil
	default:
		return nil, fmt.Errorf("unsupported tensor dtype %d", info.DType)
	}
}

// readValueInfo liest eine Ein- oder Ausgabe-Signatur
func readValueInfo(d *decoder, rs io.ReadSeeker) (ValueInfo, error) {
	name, err := readNGFString(d, rs)
	if err != nil {
		return ValueInfo{}, err
	}
	dtype, shape, err := readDTypeShape(d, rs)
	if err != nil {
		return ValueInfo{}, err
	}
	return ValueInfo{Name: name, DType: dtype, Shape: shape}, nil
}

// readNode liest einen Operator-Record
func readNode(d *decoder, rs io.ReadSeeker) (Node, error) {
	kind, err := readNGFString(d, rs)
	if err != nil {
		return Node{}, err
	}
	n := Node{Kind: kind}

	if n.Inputs, err = readNGFStrings(d, rs); err != nil {
		return Node{}, err
	}
	if n.Outputs, err = readNGFStrings(d, rs); err != nil {
		return Node{}, err
	}

	count, err := readNGF[uint64](d, rs)
	if err != nil {
		return Node{}, err
	}
	n.Attrs = make([]Attr, 0, count)
	for i := 0; uint64(i) < count; i++ {
		name, err := readNGFString(d, rs)
		if err != nil {
			return Node{}, err
		}
		value, err := readNGF[int64](d, rs)
		if err != nil {
			return Node{}, err
		}
		n.Attrs = append(n.Attrs, Attr{Name: name, Value: value})
	}
	return n, nil
}

// readDTypeShape liest Datentyp und Shape einer Signatur oder eines
// Tensors
func readDTypeShape(d *decoder, rs io.ReadSeeker) (graph.DType, graph.Shape, error) {
	dtype, err := readNGF[uint32](d, rs)
	if err != nil {
		return 0, nil, err
	}
	if dtype > uint32(graph.DTypeBF16) {
		return 0, nil, fmt.Errorf("invalid tensor dtype %d", dtype)
	}

	rank, err := readNGF[uint32](d, rs)
	if err != nil {
		return 0, nil, err
	}

	shape := make(graph.Shape, rank)
	for i := 0; uint32(i) < rank; i++ {
		if shape[i], err = readNGF[int64](d, rs); err != nil {
			return 0, nil, err
		}
	}
	return graph.DType(dtype), shape, nil
}

// readNGF liest einen typisierten Wert aus dem Reader
func readNGF[T any](d *decoder, r io.Reader) (T, error) {
	var t T
	err := binary.Read(r, d.byteOrder, &t)
	return t, err
}

// readNGFString liest einen String aus dem Reader
func readNGFString(d *decoder, r io.Reader) (string, error) {
	buf := d.scratch[:8]
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}

	length := int(d.byteOrder.Uint64(buf))
	if length > len(d.scratch) {
		buf = make([]byte, length)
	} else {
		buf = d.scratch[:length]
	}
	clear(buf)

	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// readNGFStrings liest eine String-Liste mit Laengen-Prefix
func readNGFStrings(d *decoder, r io.Reader) ([]string, error) {
	count, err := readNGF[uint64](d, r)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, count)
	for i := 0; uint64(i) < count; i++ {
		s, err := readNGFString(d, r)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
