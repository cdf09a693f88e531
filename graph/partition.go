// partition.go - Partitionierung eines breiten Ausgabevektors
//
// Dieses Modul enthaelt:
// - Policy/Region: Aktivierungs-Policies pro Teilbereich
// - Partition: slice -> Aktivierung -> concat entlang der letzten Achse
//
// Die Invarianten (Breitensumme, Policies, Skalar-Namen) werden komplett
// geprueft, BEVOR der erste Node angehaengt wird. Ein fehlgeschlagener
// Partition-Aufruf laesst den Builder deshalb unveraendert.
package graph

import (
	"fmt"
	"strconv"
)

// Policy bestimmt die Aktivierung einer Partitionsregion.
type Policy string

const (
	// BoundedUnit begrenzt eine Region mit Sigmoid auf (0,1).
	BoundedUnit Policy = "bounded-unit"

	// NonNegativeScaled klemmt mit Relu auf >= 0 und multipliziert
	// anschliessend mit einer festen Skalar-Konstante.
	NonNegativeScaled Policy = "non-negative-scaled"
)

// Region ist ein zusammenhaengender Teilbereich der letzten Achse.
// Scale wird nur von NonNegativeScaled ausgewertet.
type Region struct {
	Width  int64
	Policy Policy
	Scale  float32
}

// Partition zerlegt source entlang der letzten Achse in die gegebenen
// Regionen, wendet pro Region ihre Policy an und fuegt die Ergebnisse in
// Regionsreihenfolge wieder zu einem Tensor zusammen. Gibt den Namen des
// Concat-Ausgangs zurueck.
func (b *Builder) Partition(source string, regions []Region) (string, error) {
	src, ok := b.ns.Lookup(source)
	if !ok {
		return "", fmt.Errorf("%w: partition source %q", ErrUnknownTensor, source)
	}
	if src.Shape.Rank() == 0 {
		return "", fmt.Errorf("%w: partition source %q is a scalar", ErrShape, source)
	}
	if len(regions) == 0 {
		return "", fmt.Errorf("%w: no regions for %q", ErrPartitionWidth, source)
	}

	width := src.Shape.Last()
	var sum int64
	for i, r := range regions {
		if r.Width <= 0 {
			return "", fmt.Errorf("%w: region %d of %q has width %d", ErrPartitionWidth, i, source, r.Width)
		}
		sum += r.Width

		switch r.Policy {
		case BoundedUnit:
		case NonNegativeScaled:
			if r.Scale <= 0 {
				return "", fmt.Errorf("region %d of %q: scale %v must be positive", i, source, r.Scale)
			}
			// Der Skalar-Name muss frei oder bereits von einer frueheren
			// Region vergeben sein, sonst wuerde der Build mittendrin
			// abbrechen und Nodes zuruecklassen.
			name := scaleName(r.Scale)
			if _, shared := b.scales[name]; !shared {
				if _, taken := b.ns.Lookup(name); taken {
					return "", fmt.Errorf("%w: %q", ErrDuplicateDeclaration, name)
				}
			}
		default:
			return "", fmt.Errorf("region %d of %q: unknown policy %q", i, source, r.Policy)
		}
	}
	if sum != width {
		return "", fmt.Errorf("%w: regions sum to %d, %q has width %d", ErrPartitionWidth, sum, source, width)
	}

	axis := int64(src.Shape.Rank() - 1)
	parts := make([]string, 0, len(regions))
	var offset int64
	for _, r := range regions {
		outs, err := b.Append(OpSlice, []string{source}, Attrs{
			AttrStart: offset,
			AttrEnd:   offset + r.Width,
			AttrAxis:  axis,
		})
		if err != nil {
			return "", err
		}
		cur := outs[0]

		switch r.Policy {
		case BoundedUnit:
			if outs, err = b.Append(OpSigmoid, []string{cur}, nil); err != nil {
				return "", err
			}
			cur = outs[0]
		case NonNegativeScaled:
			if outs, err = b.Append(OpRelu, []string{cur}, nil); err != nil {
				return "", err
			}
			scale, err := b.scaleConstant(r.Scale)
			if err != nil {
				return "", err
			}
			if outs, err = b.Append(OpScale, []string{outs[0], scale}, nil); err != nil {
				return "", err
			}
			cur = outs[0]
		}

		parts = append(parts, cur)
		offset += r.Width
	}

	outs, err := b.Append(OpConcat, parts, Attrs{AttrAxis: axis})
	if err != nil {
		return "", err
	}
	return outs[0], nil
}

// scaleConstant liefert die Skalar-Konstante fuer einen Faktor und legt
// sie beim ersten Bedarf an. Regionen mit gleichem Faktor teilen sich
// eine Konstante.
func (b *Builder) scaleConstant(scale float32) (string, error) {
	name := scaleName(scale)
	if existing, ok := b.scales[name]; ok {
		return existing, nil
	}

	t, err := b.ns.DeclareExact(name, Shape{}, DTypeF32)
	if err != nil {
		return "", err
	}

	b.constants = append(b.constants, &Constant{Tensor: *t, Data: []float32{scale}})
	b.scales[name] = t.Name
	return t.Name, nil
}

func scaleName(scale float32) string {
	return "scale_" + strconv.FormatFloat(float64(scale), 'g', -1, 32)
}
