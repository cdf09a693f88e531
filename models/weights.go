// weights.go - Deterministische Gewichtserzeugung
// Hauptfunktionen: newWeightSource, normal
package models

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// weightSource zieht standardnormalverteilte Werte aus einem
// Seed-festen Strom. Jeder Build bekommt seine eigene Quelle; zwei
// Builds mit gleichem Seed ziehen exakt dieselbe Folge.
type weightSource struct {
	dist distuv.Normal
}

func newWeightSource(seed uint64) *weightSource {
	return &weightSource{
		dist: distuv.Normal{
			Mu:    0,
			Sigma: 1,
			Src:   rand.NewSource(seed),
		},
	}
}

// normal zieht n Werte und skaliert sie mit scale. Die Reihenfolge
// der Aufrufe bestimmt die Werte mit: erst Gewichte, dann Bias zu
// ziehen ist Teil des Build-Vertrags.
func (ws *weightSource) normal(n int, scale float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(ws.dist.Rand()) * scale
	}
	return out
}
