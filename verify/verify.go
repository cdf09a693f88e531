// Package verify - Artefakt-Pruefung aus Konsumentensicht
//
// Dieses Modul enthaelt:
// - Contract: erwartete Ein- und Ausgabesignatur eines Artefakts
// - File: Decode + Validate + Signatur-Abgleich
// - Report: Zusammenfassung fuer CLI und Server
//
// File prueft ein Artefakt so, wie ein Konsument es laden wuerde:
// erst die Container-Struktur, dann den I/O-Vertrag. Die Pruefung
// teilt keinen Zustand mit dem Produzenten.
package verify

import (
	"fmt"
	"os"

	"github.com/7blacky7/brainforge/fs/ngf"
	"github.com/7blacky7/brainforge/graph"
)

// Contract beschreibt die Signatur, auf die sich Konsumenten
// verlassen
type Contract struct {
	Input  graph.Shape
	Output graph.Shape
}

// Report fasst ein geprueftes Artefakt zusammen
type Report struct {
	Name     string
	Producer string
	Version  string
	Seed     uint64
	Inputs   []ngf.ValueInfo
	Outputs  []ngf.ValueInfo
	Nodes    int
	Tensors  int
}

// File dekodiert und validiert ein Artefakt und gleicht seine
// Signaturen gegen den Vertrag ab
func File(path string, contract Contract) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	file, err := ngf.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := ngf.Validate(file); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	if file.KV.String("general.producer") == "" {
		return nil, fmt.Errorf("artifact carries no producer metadata")
	}

	if len(file.Inputs) != 1 {
		return nil, fmt.Errorf("artifact has %d inputs, want 1", len(file.Inputs))
	}
	if got := file.Inputs[0].Shape; !got.Equal(contract.Input) {
		return nil, fmt.Errorf("input shape %s, contract wants %s", got, contract.Input)
	}
	if len(file.Outputs) != 1 {
		return nil, fmt.Errorf("artifact has %d outputs, want 1", len(file.Outputs))
	}
	if got := file.Outputs[0].Shape; !got.Equal(contract.Output) {
		return nil, fmt.Errorf("output shape %s, contract wants %s", got, contract.Output)
	}

	return &Report{
		Name:     file.KV.GraphName(),
		Producer: file.KV.Producer(),
		Version:  file.KV.String("general.version"),
		Seed:     file.KV.Seed(),
		Inputs:   file.Inputs,
		Outputs:  file.Outputs,
		Nodes:    len(file.Nodes),
		Tensors:  len(file.Tensors),
	}, nil
}

// Ones liefert einen Eingabevektor aus Einsen fuer Smoke-Laeufe
func Ones(n int64) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = 1
	}
	return out
}
