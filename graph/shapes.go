// shapes.go - Shape-Propagation pro Operator
//
// Dieses Modul enthaelt:
// - Propagate: prueft Eingabe-Shapes und berechnet die Ausgabe-Shape
// - Eine Regel-Funktion pro Operator-Art
//
// Propagate veraendert keinerlei Zustand. Jede Regel wird geprueft,
// bevor der zugehoerige Node angehaengt wird; ein Fehler hier bedeutet,
// dass der Build keinen Node erzeugt hat.
package graph

import "fmt"

// Propagate berechnet die Ausgabe-Shape eines Operators aus seinen
// Eingabe-Shapes und Attributen oder meldet einen Fehler der
// ErrShape-Familie.
func Propagate(kind OpKind, inputs []Shape, attrs Attrs) (Shape, error) {
	switch kind {
	case OpMatMul:
		return propagateMatMul(inputs)
	case OpAdd:
		return propagateAdd(inputs)
	case OpSigmoid, OpRelu, OpTanh:
		return propagateUnary(kind, inputs)
	case OpScale:
		return propagateScale(inputs)
	case OpSlice:
		return propagateSlice(inputs, attrs)
	case OpConcat:
		return propagateConcat(inputs, attrs)
	default:
		return nil, fmt.Errorf("unsupported operator kind %q", kind)
	}
}

// propagateMatMul: [*,K] x [K,N] -> [*,N], beide Operanden Rang 2.
func propagateMatMul(inputs []Shape) (Shape, error) {
	if len(inputs) != 2 {
		return nil, fmt.Errorf("%w: matmul expects 2 inputs, got %d", ErrShape, len(inputs))
	}

	a, b := inputs[0], inputs[1]
	if a.Rank() != 2 || b.Rank() != 2 {
		return nil, fmt.Errorf("%w: matmul expects rank 2 operands, got %s x %s", ErrShape, a, b)
	}
	if a[1] != b[0] {
		return nil, fmt.Errorf("%w: matmul inner extents differ: %s x %s", ErrShape, a, b)
	}

	return Shape{a[0], b[1]}, nil
}

// propagateAdd: gleiche Shapes, oder ein Rang-1-Operand der ueber die
// letzte Achse des anderen broadcastet. Ausgabe ist die Shape des
// nicht-broadcasteten Operanden.
func propagateAdd(inputs []Shape) (Shape, error) {
	if len(inputs) != 2 {
		return nil, fmt.Errorf("%w: add expects 2 inputs, got %d", ErrShape, len(inputs))
	}

	a, b := inputs[0], inputs[1]
	switch {
	case a.Equal(b):
		return a.Clone(), nil
	case b.Rank() == 1 && a.Rank() > 1 && b[0] == a.Last():
		return a.Clone(), nil
	case a.Rank() == 1 && b.Rank() > 1 && a[0] == b.Last():
		return b.Clone(), nil
	}

	return nil, fmt.Errorf("%w: add operands %s and %s are not compatible", ErrShape, a, b)
}

// propagateUnary: sigmoid/relu/tanh erhalten die Eingabe-Shape.
func propagateUnary(kind OpKind, inputs []Shape) (Shape, error) {
	if len(inputs) != 1 {
		return nil, fmt.Errorf("%w: %s expects 1 input, got %d", ErrShape, kind, len(inputs))
	}
	return inputs[0].Clone(), nil
}

// propagateScale: Tensor mal Skalar-Konstante, Shape bleibt erhalten.
func propagateScale(inputs []Shape) (Shape, error) {
	if len(inputs) != 2 {
		return nil, fmt.Errorf("%w: scale expects a tensor and a scalar, got %d inputs", ErrShape, len(inputs))
	}
	if !inputs[1].IsScalar() {
		return nil, fmt.Errorf("%w: scale factor must be a scalar, got %s", ErrShape, inputs[1])
	}
	return inputs[0].Clone(), nil
}

// propagateSlice: [start,end) auf einer Achse, 0 <= start < end <= extent.
func propagateSlice(inputs []Shape, attrs Attrs) (Shape, error) {
	if len(inputs) != 1 {
		return nil, fmt.Errorf("%w: slice expects 1 input, got %d", ErrShape, len(inputs))
	}

	in := inputs[0]
	axis, ok := attrs[AttrAxis]
	if !ok || axis < 0 || axis >= int64(in.Rank()) {
		return nil, fmt.Errorf("%w: %w: axis %d invalid for shape %s", ErrShape, ErrSliceRange, axis, in)
	}

	start, sok := attrs[AttrStart]
	end, eok := attrs[AttrEnd]
	if !sok || !eok {
		return nil, fmt.Errorf("%w: %w: slice requires start and end attributes", ErrShape, ErrSliceRange)
	}

	extent := in[axis]
	if start < 0 || end <= start || end > extent {
		return nil, fmt.Errorf("%w: %w: [%d,%d) outside extent %d on axis %d", ErrShape, ErrSliceRange, start, end, extent, axis)
	}

	out := in.Clone()
	out[axis] = end - start
	return out, nil
}

// propagateConcat: alle Eingaben identisch abseits der Achse, Extent auf
// der Achse ist die Summe der Eingabe-Extents.
func propagateConcat(inputs []Shape, attrs Attrs) (Shape, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: %w: concat requires at least one input", ErrShape, ErrConcatShape)
	}

	first := inputs[0]
	axis, ok := attrs[AttrAxis]
	if !ok || axis < 0 || axis >= int64(first.Rank()) {
		return nil, fmt.Errorf("%w: %w: axis %d invalid for shape %s", ErrShape, ErrConcatShape, axis, first)
	}

	out := first.Clone()
	for i, in := range inputs[1:] {
		if in.Rank() != first.Rank() {
			return nil, fmt.Errorf("%w: %w: input %d has rank %d, want %d", ErrShape, ErrConcatShape, i+1, in.Rank(), first.Rank())
		}
		for ax := range in {
			if int64(ax) == axis {
				continue
			}
			if in[ax] != first[ax] {
				return nil, fmt.Errorf("%w: %w: input %d extent %d on axis %d, want %d", ErrShape, ErrConcatShape, i+1, in[ax], ax, first[ax])
			}
		}
		out[axis] += in[axis]
	}

	return out, nil
}
