package models

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/7blacky7/brainforge/fs/ngf"
	"github.com/7blacky7/brainforge/graph"
)

func nodeKinds(g *graph.Graph) []graph.OpKind {
	kinds := make([]graph.OpKind, len(g.Nodes))
	for i, n := range g.Nodes {
		kinds[i] = n.Kind
	}
	return kinds
}

func constantNames(g *graph.Graph) []string {
	names := make([]string, len(g.Constants))
	for i, c := range g.Constants {
		names[i] = c.Name
	}
	return names
}

func TestBuildDecisionStruktur(t *testing.T) {
	g, err := BuildDecision(42)
	if err != nil {
		t.Fatalf("BuildDecision fehlgeschlagen: %v", err)
	}

	if g.Name != "decision" {
		t.Errorf("Name = %q, erwartet %q", g.Name, "decision")
	}
	if diff := cmp.Diff(graph.Shape{1, 269}, g.Inputs[0].Shape); diff != "" {
		t.Errorf("Eingabeform weicht ab (-erwartet +erhalten):\n%s", diff)
	}
	if diff := cmp.Diff(graph.Shape{1, 7}, g.Outputs[0].Shape); diff != "" {
		t.Errorf("Ausgabeform weicht ab (-erwartet +erhalten):\n%s", diff)
	}

	want := []graph.OpKind{
		graph.OpMatMul, graph.OpAdd,
		graph.OpSlice, graph.OpSigmoid,
		graph.OpSlice, graph.OpRelu, graph.OpScale,
		graph.OpConcat,
	}
	if diff := cmp.Diff(want, nodeKinds(g)); diff != "" {
		t.Errorf("Node-Folge weicht ab (-erwartet +erhalten):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"weights", "bias", "scale_100"}, constantNames(g)); diff != "" {
		t.Errorf("Konstanten weichen ab (-erwartet +erhalten):\n%s", diff)
	}

	if n := len(g.Constants[0].Data); n != 269*7 {
		t.Errorf("Gewichte = %d Werte, erwartet %d", n, 269*7)
	}
	wantBias := []float32{0.5, 0.3, 0.4, 0.2, 50.0, 30.0, 20.0}
	if diff := cmp.Diff(wantBias, g.Constants[1].Data); diff != "" {
		t.Errorf("Bias weicht ab (-erwartet +erhalten):\n%s", diff)
	}
}

func TestBuildEmbedderStruktur(t *testing.T) {
	g, err := BuildEmbedder(42)
	if err != nil {
		t.Fatalf("BuildEmbedder fehlgeschlagen: %v", err)
	}

	if g.Name != "embedder" {
		t.Errorf("Name = %q, erwartet %q", g.Name, "embedder")
	}
	if diff := cmp.Diff(graph.Shape{1, 1024}, g.Inputs[0].Shape); diff != "" {
		t.Errorf("Eingabeform weicht ab (-erwartet +erhalten):\n%s", diff)
	}
	if diff := cmp.Diff(graph.Shape{1, 128}, g.Outputs[0].Shape); diff != "" {
		t.Errorf("Ausgabeform weicht ab (-erwartet +erhalten):\n%s", diff)
	}

	want := []graph.OpKind{graph.OpMatMul, graph.OpAdd, graph.OpTanh}
	if diff := cmp.Diff(want, nodeKinds(g)); diff != "" {
		t.Errorf("Node-Folge weicht ab (-erwartet +erhalten):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"embed_weights", "embed_bias"}, constantNames(g)); diff != "" {
		t.Errorf("Konstanten weichen ab (-erwartet +erhalten):\n%s", diff)
	}
	if n := len(g.Constants[0].Data); n != 1024*128 {
		t.Errorf("Gewichte = %d Werte, erwartet %d", n, 1024*128)
	}
	if n := len(g.Constants[1].Data); n != 128 {
		t.Errorf("Bias = %d Werte, erwartet 128", n)
	}
}

func TestSeedDeterminismus(t *testing.T) {
	a, err := BuildDecision(42)
	if err != nil {
		t.Fatalf("BuildDecision fehlgeschlagen: %v", err)
	}
	b, err := BuildDecision(42)
	if err != nil {
		t.Fatalf("BuildDecision fehlgeschlagen: %v", err)
	}

	if diff := cmp.Diff(a.Constants[0].Data, b.Constants[0].Data); diff != "" {
		t.Errorf("gleicher Seed, verschiedene Gewichte:\n%s", diff)
	}

	c, err := BuildDecision(7)
	if err != nil {
		t.Fatalf("BuildDecision fehlgeschlagen: %v", err)
	}
	if cmp.Equal(a.Constants[0].Data, c.Constants[0].Data) {
		t.Error("verschiedene Seeds liefern identische Gewichte")
	}
}

func TestLookup(t *testing.T) {
	d, err := Lookup("decision")
	if err != nil {
		t.Fatalf("Lookup fehlgeschlagen: %v", err)
	}
	if d.Name != "decision" {
		t.Errorf("Name = %q, erwartet %q", d.Name, "decision")
	}

	// Tippfehler bekommen einen Vorschlag
	_, err = Lookup("decison")
	if err == nil || !strings.Contains(err.Error(), `"decision"`) {
		t.Errorf("Fehler = %v, erwartet Vorschlag decision", err)
	}

	_, err = Lookup("resnet50")
	if err == nil || strings.Contains(err.Error(), "did you mean") {
		t.Errorf("Fehler = %v, erwartet Ablehnung ohne Vorschlag", err)
	}
}

func TestNames(t *testing.T) {
	if diff := cmp.Diff([]string{"decision", "embedder"}, Names()); diff != "" {
		t.Errorf("Namen weichen ab (-erwartet +erhalten):\n%s", diff)
	}
}

func TestWriteFileIdempotent(t *testing.T) {
	def, err := Lookup("decision")
	if err != nil {
		t.Fatalf("Lookup fehlgeschlagen: %v", err)
	}

	a1, err := WriteFile(t.TempDir(), def, 42)
	if err != nil {
		t.Fatalf("WriteFile fehlgeschlagen: %v", err)
	}
	a2, err := WriteFile(t.TempDir(), def, 42)
	if err != nil {
		t.Fatalf("WriteFile fehlgeschlagen: %v", err)
	}

	if a1.Digest != a2.Digest {
		t.Errorf("Digests unterscheiden sich: %s vs %s", a1.Digest, a2.Digest)
	}

	b1, err := os.ReadFile(a1.Path)
	if err != nil {
		t.Fatalf("ReadFile fehlgeschlagen: %v", err)
	}
	b2, err := os.ReadFile(a2.Path)
	if err != nil {
		t.Fatalf("ReadFile fehlgeschlagen: %v", err)
	}
	if !bytes.Equal(b1, b2) {
		t.Errorf("Artefakte unterscheiden sich: %d vs %d Bytes", len(b1), len(b2))
	}
}

func TestWriteFileArtefaktValide(t *testing.T) {
	def, err := Lookup("embedder")
	if err != nil {
		t.Fatalf("Lookup fehlgeschlagen: %v", err)
	}

	a, err := WriteFile(t.TempDir(), def, 42)
	if err != nil {
		t.Fatalf("WriteFile fehlgeschlagen: %v", err)
	}
	if a.Size <= 0 {
		t.Errorf("Groesse = %d, erwartet > 0", a.Size)
	}
	if !strings.HasPrefix(a.Digest, "sha256:") {
		t.Errorf("Digest = %q, erwartet sha256-Prefix", a.Digest)
	}

	r, err := os.Open(a.Path)
	if err != nil {
		t.Fatalf("Open fehlgeschlagen: %v", err)
	}
	defer r.Close()

	f, err := ngf.Decode(r)
	if err != nil {
		t.Fatalf("Decode fehlgeschlagen: %v", err)
	}
	if err := ngf.Validate(f); err != nil {
		t.Errorf("Validate fehlgeschlagen: %v", err)
	}

	if got := f.KV.Producer(); got != ProducerName {
		t.Errorf("Producer = %q, erwartet %q", got, ProducerName)
	}
	if got := f.KV.Seed(); got != 42 {
		t.Errorf("Seed = %d, erwartet 42", got)
	}
	if got := f.KV.GraphName(); got != "embedder" {
		t.Errorf("GraphName = %q, erwartet %q", got, "embedder")
	}

	// Keine Partial-Dateien zuruecklassen
	entries, err := os.ReadDir(filepath.Dir(a.Path))
	if err != nil {
		t.Fatalf("ReadDir fehlgeschlagen: %v", err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".partial") {
			t.Errorf("Partial-Datei %q blieb liegen", e.Name())
		}
	}
}

func TestNormalReproduzierbar(t *testing.T) {
	a := newWeightSource(42).normal(16, 0.01)
	b := newWeightSource(42).normal(16, 0.01)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("gleicher Seed, verschiedene Folgen:\n%s", diff)
	}

	c := newWeightSource(43).normal(16, 0.01)
	if cmp.Equal(a, c) {
		t.Error("verschiedene Seeds liefern identische Folgen")
	}

	// Skala wird angewendet
	d := newWeightSource(42).normal(16, 1)
	for i := range a {
		if a[i] != d[i]*0.01 {
			t.Fatalf("Wert %d: %g != %g * 0.01", i, a[i], d[i])
		}
	}
}

func TestWriteFileKeineTempReste(t *testing.T) {
	dir := t.TempDir()

	def, err := Lookup("decision")
	if err != nil {
		t.Fatalf("Lookup fehlgeschlagen: %v", err)
	}
	a, err := WriteFile(dir, def, 42)
	if err != nil {
		t.Fatalf("WriteFile fehlgeschlagen: %v", err)
	}

	// Nach dem Rename darf keine .partial-Datei uebrig bleiben,
	// das Verzeichnis enthaelt nur das fertige Artefakt
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir fehlgeschlagen: %v", err)
	}
	if len(entries) != 1 {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		t.Fatalf("Verzeichnis enthaelt %v, erwartet nur das Artefakt", names)
	}
	if got := filepath.Join(dir, entries[0].Name()); got != a.Path {
		t.Errorf("Artefaktpfad = %q, erwartet %q", got, a.Path)
	}
	if strings.HasSuffix(entries[0].Name(), ".partial") {
		t.Errorf("Temp-Datei %q wurde nicht umbenannt", entries[0].Name())
	}
}
