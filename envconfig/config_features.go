// config_features.go - Feature-Flags
//
// Dieses Modul enthaelt:
// - Optionale Schalter fuer den Build- und Serve-Workflow
package envconfig

var (
	// NoVerify deaktiviert die Verifikation frisch gebauter Artefakte
	NoVerify = Bool("BRAINFORGE_NOVERIFY")

	// NoPrune deaktiviert das Aufraeumen verwaister Temp-Dateien beim Start
	NoPrune = Bool("BRAINFORGE_NOPRUNE")
)
