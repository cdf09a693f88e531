// errors.go - Fehler-Taxonomie des Graph-Aufbaus
//
// Alle Fehler sind Konstruktionszeit-Fehler und fuer den laufenden Build
// nicht behebbar: die Graph-Definition selbst ist falsch. Fehlerstellen
// wickeln die Sentinels mit fmt.Errorf und %w ein und haengen Operator,
// Namen und Shapes an. Slice- und Concat-Fehler gehoeren zusaetzlich zur
// ErrShape-Familie (doppeltes %w).
package graph

import "errors"

var (
	// ErrUnknownTensor: Referenz auf einen nie deklarierten Namen.
	ErrUnknownTensor = errors.New("unknown tensor")

	// ErrShape: Wurzel der Shape-Fehlerfamilie (matmul/add-Mismatch).
	ErrShape = errors.New("shape mismatch")

	// ErrSliceRange: Slice-Grenzen ausserhalb des Eingabe-Extents.
	ErrSliceRange = errors.New("slice range out of bounds")

	// ErrConcatShape: Concat-Eingaben weichen abseits der Achse ab.
	ErrConcatShape = errors.New("concat shape mismatch")

	// ErrPartitionWidth: Regionsbreiten decken die Quelle nicht exakt ab.
	ErrPartitionWidth = errors.New("partition widths do not sum to source width")

	// ErrDuplicateDeclaration: direkter Redeclare eines vergebenen Namens.
	ErrDuplicateDeclaration = errors.New("duplicate tensor declaration")

	// ErrUnresolvedOutput: Assemble auf einen nie produzierten Namen.
	ErrUnresolvedOutput = errors.New("unresolved graph output")
)
