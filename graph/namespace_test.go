// namespace_test.go - Tests fuer die Namensvergabe
package graph

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDeclareSuffixeDeterministisch(t *testing.T) {
	ns := NewNamespace()

	var got []string
	for i := 0; i < 3; i++ {
		got = append(got, ns.Declare("slice_out", Shape{1, 4}, DTypeF32).Name)
	}

	want := []string{"slice_out", "slice_out_1", "slice_out_2"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Namen weichen ab (-erwartet +erhalten):\n%s", diff)
	}
}

func TestDeclareUeberspringtVergebenesSuffix(t *testing.T) {
	ns := NewNamespace()
	if _, err := ns.DeclareExact("x_1", Shape{1}, DTypeF32); err != nil {
		t.Fatalf("DeclareExact fehlgeschlagen: %v", err)
	}

	if got := ns.Declare("x", Shape{1}, DTypeF32).Name; got != "x" {
		t.Errorf("erster Name = %q, erwartet %q", got, "x")
	}

	// x_1 ist vergeben, der Zaehler muss auf x_2 weiterlaufen
	if got := ns.Declare("x", Shape{1}, DTypeF32).Name; got != "x_2" {
		t.Errorf("zweiter Name = %q, erwartet %q", got, "x_2")
	}
}

func TestDeclareExactDuplikat(t *testing.T) {
	ns := NewNamespace()
	if _, err := ns.DeclareExact("weights", Shape{269, 7}, DTypeF32); err != nil {
		t.Fatalf("erste Deklaration fehlgeschlagen: %v", err)
	}

	_, err := ns.DeclareExact("weights", Shape{269, 7}, DTypeF32)
	if !errors.Is(err, ErrDuplicateDeclaration) {
		t.Errorf("Fehler = %v, erwartet ErrDuplicateDeclaration", err)
	}
}

func TestDeclareExactLeererName(t *testing.T) {
	ns := NewNamespace()
	if _, err := ns.DeclareExact("", Shape{1}, DTypeF32); err == nil {
		t.Error("leerer Name wurde akzeptiert")
	}
}

func TestNamesDeklarationsreihenfolge(t *testing.T) {
	ns := NewNamespace()
	if _, err := ns.DeclareExact("input", Shape{1, 269}, DTypeF32); err != nil {
		t.Fatalf("DeclareExact fehlgeschlagen: %v", err)
	}
	ns.Declare("matmul_out", Shape{1, 7}, DTypeF32)
	if _, err := ns.DeclareExact("bias", Shape{7}, DTypeF32); err != nil {
		t.Fatalf("DeclareExact fehlgeschlagen: %v", err)
	}

	want := []string{"input", "matmul_out", "bias"}
	if diff := cmp.Diff(want, ns.Names()); diff != "" {
		t.Errorf("Reihenfolge weicht ab (-erwartet +erhalten):\n%s", diff)
	}
}

func TestLookupLiefertDeskriptor(t *testing.T) {
	ns := NewNamespace()
	ns.Declare("add_out", Shape{1, 7}, DTypeF32)

	got, ok := ns.Lookup("add_out")
	if !ok {
		t.Fatal("add_out nicht gefunden")
	}
	if !got.Shape.Equal(Shape{1, 7}) {
		t.Errorf("Shape = %s, erwartet [1,7]", got.Shape)
	}

	if _, ok := ns.Lookup("niemals"); ok {
		t.Error("unbekannter Name wurde gefunden")
	}
}
