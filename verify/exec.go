// Package verify - Referenz-Executor
//
// Dieses Modul enthaelt:
// - Execute: rechnet den Graphen eines Artefakts auf einer Eingabe nach
// - evalNode und Operator-Arithmetik auf flachen float32-Puffern
//
// Der Executor dient Smoke-Laeufen, die die Policy-Bereiche der
// Ausgaben pruefen. Er ist kein Inferenz-Backend und optimiert nichts.
package verify

import (
	"fmt"
	"math"
	"os"

	"github.com/pdevine/tensor"
	"github.com/pdevine/tensor/native"

	"github.com/7blacky7/brainforge/fs/ngf"
	"github.com/7blacky7/brainforge/graph"
)

// value ist ein Zwischenergebnis: flacher Puffer plus Form
type value struct {
	data  []float32
	shape graph.Shape
}

// Execute laedt ein Artefakt, validiert es und rechnet seinen Graphen
// auf input nach. input muss elementweise zur Eingabesignatur passen,
// zurueck kommt der flache Ausgabepuffer.
func Execute(path string, input []float32) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	file, err := ngf.Decode(f)
	if err != nil {
		return nil, err
	}
	if err := ngf.Validate(file); err != nil {
		return nil, err
	}

	if len(file.Inputs) != 1 || len(file.Outputs) != 1 {
		return nil, fmt.Errorf("artifact has %d inputs and %d outputs, want 1 and 1",
			len(file.Inputs), len(file.Outputs))
	}
	in := file.Inputs[0]
	if want := in.Shape.Elements(); int64(len(input)) != want {
		return nil, fmt.Errorf("input has %d values, signature %s wants %d", len(input), in.Shape, want)
	}

	values := map[string]value{in.Name: {data: input, shape: in.Shape}}
	for _, t := range file.Tensors {
		data, err := file.TensorData(f, t.Name)
		if err != nil {
			return nil, err
		}
		values[t.Name] = value{data: data, shape: t.Shape}
	}

	// Validate hat Aufloesung, Aritaet und Formen bereits geprueft,
	// der Durchlauf kann sich auf die Arithmetik beschraenken
	for i, n := range file.Nodes {
		ins := make([]value, len(n.Inputs))
		for j, name := range n.Inputs {
			ins[j] = values[name]
		}

		out, err := evalNode(n, ins)
		if err != nil {
			return nil, fmt.Errorf("node %d (%s): %w", i, n.Kind, err)
		}
		values[n.Outputs[0]] = out
	}

	return values[file.Outputs[0].Name].data, nil
}

func evalNode(n ngf.Node, ins []value) (value, error) {
	switch n.Kind {
	case "matmul":
		return matmul(ins[0], ins[1])
	case "add":
		return add(ins[0], ins[1])
	case "sigmoid":
		return apply(ins[0], func(x float32) float32 {
			return float32(1 / (1 + math.Exp(-float64(x))))
		}), nil
	case "relu":
		return apply(ins[0], func(x float32) float32 {
			if x < 0 {
				return 0
			}
			return x
		}), nil
	case "tanh":
		return apply(ins[0], func(x float32) float32 {
			return float32(math.Tanh(float64(x)))
		}), nil
	case "scale":
		s := ins[1].data[0]
		return apply(ins[0], func(x float32) float32 { return x * s }), nil
	case "slice":
		return sliceAxis(n, ins[0])
	case "concat":
		return concatAxis(n, ins)
	default:
		return value{}, fmt.Errorf("unknown kind %q", n.Kind)
	}
}

// matmul legt Zeilen-Views ueber die Gewichtsmatrix und summiert die
// Spalten ohne eigene Index-Arithmetik auf
func matmul(a, b value) (value, error) {
	m, k := int(a.shape[0]), int(a.shape[1])
	n := int(b.shape[1])

	wt := tensor.New(tensor.WithShape(int(b.shape[0]), n), tensor.WithBacking(b.data))
	rows, err := native.SelectF32(wt, 0)
	if err != nil {
		return value{}, err
	}

	out := make([]float32, m*n)
	for i := range m {
		x := a.data[i*k : (i+1)*k]
		dst := out[i*n : (i+1)*n]
		for j, xv := range x {
			for c, wv := range rows[j] {
				dst[c] += xv * wv
			}
		}
	}
	return value{data: out, shape: graph.Shape{int64(m), int64(n)}}, nil
}

func add(a, b value) (value, error) {
	if a.shape.Rank() == 1 && b.shape.Rank() > 1 {
		return add(b, a)
	}

	out := make([]float32, len(a.data))
	switch {
	case a.shape.Equal(b.shape):
		for i := range a.data {
			out[i] = a.data[i] + b.data[i]
		}
	case b.shape.Rank() == 1 && b.shape[0] == a.shape.Last():
		n := int(b.shape[0])
		for i := range a.data {
			out[i] = a.data[i] + b.data[i%n]
		}
	default:
		return value{}, fmt.Errorf("shapes %s and %s not addable", a.shape, b.shape)
	}
	return value{data: out, shape: a.shape.Clone()}, nil
}

func apply(in value, f func(float32) float32) value {
	out := make([]float32, len(in.data))
	for i, x := range in.data {
		out[i] = f(x)
	}
	return value{data: out, shape: in.shape.Clone()}
}

func sliceAxis(n ngf.Node, in value) (value, error) {
	axis, _ := n.Attr("axis")
	start, _ := n.Attr("start")
	end, _ := n.Attr("end")

	outer, inner := int64(1), int64(1)
	for d, extent := range in.shape {
		switch {
		case int64(d) < axis:
			outer *= extent
		case int64(d) > axis:
			inner *= extent
		}
	}
	extent := in.shape[axis]
	width := end - start

	out := make([]float32, 0, outer*width*inner)
	for o := int64(0); o < outer; o++ {
		base := o*extent*inner + start*inner
		out = append(out, in.data[base:base+width*inner]...)
	}

	shape := in.shape.Clone()
	shape[axis] = width
	return value{data: out, shape: shape}, nil
}

func concatAxis(n ngf.Node, ins []value) (value, error) {
	axis, _ := n.Attr("axis")
	first := ins[0].shape

	outer, inner := int64(1), int64(1)
	for d, extent := range first {
		switch {
		case int64(d) < axis:
			outer *= extent
		case int64(d) > axis:
			inner *= extent
		}
	}

	shape := first.Clone()
	shape[axis] = 0
	var total int64
	for _, in := range ins {
		shape[axis] += in.shape[axis]
		total += int64(len(in.data))
	}

	out := make([]float32, 0, total)
	for o := int64(0); o < outer; o++ {
		for _, in := range ins {
			block := in.shape[axis] * inner
			out = append(out, in.data[o*block:(o+1)*block]...)
		}
	}
	return value{data: out, shape: shape}, nil
}
