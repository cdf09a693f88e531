// shapes_test.go - Tests fuer die Shape-Propagation
package graph

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPropagate(t *testing.T) {
	cases := []struct {
		name    string
		kind    OpKind
		inputs  []Shape
		attrs   Attrs
		want    Shape
		wantErr error
	}{
		{name: "matmul", kind: OpMatMul, inputs: []Shape{{1, 269}, {269, 7}}, want: Shape{1, 7}},
		{name: "matmul innerer extent", kind: OpMatMul, inputs: []Shape{{1, 270}, {269, 7}}, wantErr: ErrShape},
		{name: "matmul rang", kind: OpMatMul, inputs: []Shape{{269}, {269, 7}}, wantErr: ErrShape},
		{name: "matmul eine eingabe", kind: OpMatMul, inputs: []Shape{{1, 269}}, wantErr: ErrShape},

		{name: "add gleiche shapes", kind: OpAdd, inputs: []Shape{{1, 7}, {1, 7}}, want: Shape{1, 7}},
		{name: "add bias broadcast", kind: OpAdd, inputs: []Shape{{1, 7}, {7}}, want: Shape{1, 7}},
		{name: "add broadcast links", kind: OpAdd, inputs: []Shape{{128}, {1, 128}}, want: Shape{1, 128}},
		{name: "add inkompatibel", kind: OpAdd, inputs: []Shape{{1, 7}, {6}}, wantErr: ErrShape},

		{name: "sigmoid", kind: OpSigmoid, inputs: []Shape{{1, 4}}, want: Shape{1, 4}},
		{name: "relu", kind: OpRelu, inputs: []Shape{{1, 3}}, want: Shape{1, 3}},
		{name: "tanh", kind: OpTanh, inputs: []Shape{{1, 128}}, want: Shape{1, 128}},
		{name: "relu zwei eingaben", kind: OpRelu, inputs: []Shape{{1, 3}, {1, 3}}, wantErr: ErrShape},

		{name: "scale skalar rang 0", kind: OpScale, inputs: []Shape{{1, 3}, {}}, want: Shape{1, 3}},
		{name: "scale skalar [1]", kind: OpScale, inputs: []Shape{{1, 3}, {1}}, want: Shape{1, 3}},
		{name: "scale nicht skalar", kind: OpScale, inputs: []Shape{{1, 3}, {3}}, wantErr: ErrShape},

		{name: "slice erste region", kind: OpSlice, inputs: []Shape{{1, 7}}, attrs: Attrs{AttrStart: 0, AttrEnd: 4, AttrAxis: 1}, want: Shape{1, 4}},
		{name: "slice rest", kind: OpSlice, inputs: []Shape{{1, 7}}, attrs: Attrs{AttrStart: 4, AttrEnd: 7, AttrAxis: 1}, want: Shape{1, 3}},
		{name: "slice start negativ", kind: OpSlice, inputs: []Shape{{1, 7}}, attrs: Attrs{AttrStart: -1, AttrEnd: 4, AttrAxis: 1}, wantErr: ErrSliceRange},
		{name: "slice end gleich start", kind: OpSlice, inputs: []Shape{{1, 7}}, attrs: Attrs{AttrStart: 4, AttrEnd: 4, AttrAxis: 1}, wantErr: ErrSliceRange},
		{name: "slice end vor start", kind: OpSlice, inputs: []Shape{{1, 7}}, attrs: Attrs{AttrStart: 4, AttrEnd: 2, AttrAxis: 1}, wantErr: ErrSliceRange},
		{name: "slice end zu gross", kind: OpSlice, inputs: []Shape{{1, 7}}, attrs: Attrs{AttrStart: 0, AttrEnd: 8, AttrAxis: 1}, wantErr: ErrSliceRange},
		{name: "slice achse ungueltig", kind: OpSlice, inputs: []Shape{{1, 7}}, attrs: Attrs{AttrStart: 0, AttrEnd: 4, AttrAxis: 2}, wantErr: ErrSliceRange},
		{name: "slice ohne attrs", kind: OpSlice, inputs: []Shape{{1, 7}}, wantErr: ErrSliceRange},

		{name: "concat zwei", kind: OpConcat, inputs: []Shape{{1, 4}, {1, 3}}, attrs: Attrs{AttrAxis: 1}, want: Shape{1, 7}},
		{name: "concat drei", kind: OpConcat, inputs: []Shape{{1, 2}, {1, 2}, {1, 3}}, attrs: Attrs{AttrAxis: 1}, want: Shape{1, 7}},
		{name: "concat abseits der achse", kind: OpConcat, inputs: []Shape{{1, 4}, {2, 3}}, attrs: Attrs{AttrAxis: 1}, wantErr: ErrConcatShape},
		{name: "concat rang", kind: OpConcat, inputs: []Shape{{1, 4}, {3}}, attrs: Attrs{AttrAxis: 1}, wantErr: ErrConcatShape},
		{name: "concat ohne eingaben", kind: OpConcat, attrs: Attrs{AttrAxis: 1}, wantErr: ErrConcatShape},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Propagate(tt.kind, tt.inputs, tt.attrs)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Fehler = %v, erwartet %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Propagate fehlgeschlagen: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Shape weicht ab (-erwartet +erhalten):\n%s", diff)
			}
		})
	}
}

// Slice- und Concat-Fehler gehoeren zusaetzlich zur ErrShape-Familie.
func TestShapeFehlerFamilie(t *testing.T) {
	_, err := Propagate(OpSlice, []Shape{{1, 7}}, Attrs{AttrStart: 0, AttrEnd: 9, AttrAxis: 1})
	if !errors.Is(err, ErrShape) || !errors.Is(err, ErrSliceRange) {
		t.Errorf("Slice-Fehler %v gehoert nicht zu ErrShape und ErrSliceRange", err)
	}

	_, err = Propagate(OpConcat, []Shape{{1, 4}, {2, 4}}, Attrs{AttrAxis: 1})
	if !errors.Is(err, ErrShape) || !errors.Is(err, ErrConcatShape) {
		t.Errorf("Concat-Fehler %v gehoert nicht zu ErrShape und ErrConcatShape", err)
	}
}

func TestPropagateUnbekannterOperator(t *testing.T) {
	if _, err := Propagate(OpKind("split"), []Shape{{1, 7}}, nil); err == nil {
		t.Error("unbekannter Operator wurde akzeptiert")
	}
}

func TestShapeHelfer(t *testing.T) {
	s := Shape{1, 269}
	if s.Rank() != 2 {
		t.Errorf("Rank = %d, erwartet 2", s.Rank())
	}
	if s.Last() != 269 {
		t.Errorf("Last = %d, erwartet 269", s.Last())
	}
	if s.Elements() != 269 {
		t.Errorf("Elements = %d, erwartet 269", s.Elements())
	}
	if s.String() != "[1,269]" {
		t.Errorf("String = %q, erwartet %q", s.String(), "[1,269]")
	}

	if !(Shape{}).IsScalar() || !(Shape{1}).IsScalar() || (Shape{2}).IsScalar() {
		t.Error("IsScalar klassifiziert falsch")
	}
	if (Shape{}).Elements() != 1 {
		t.Errorf("Elements von Rang 0 = %d, erwartet 1", (Shape{}).Elements())
	}

	clone := s.Clone()
	clone[0] = 9
	if s[0] != 1 {
		t.Error("Clone teilt Speicher mit dem Original")
	}
}
