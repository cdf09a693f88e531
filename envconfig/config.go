// config.go - Haupt-Konfigurationsfunktionen fuer Brainforge
//
// Dieses Modul enthaelt:
// - Host: Gibt Scheme und Host zurueck (BRAINFORGE_HOST)
// - AllowedOrigins: Gibt erlaubte Origins zurueck (BRAINFORGE_ORIGINS)
// - Models: Gibt Artefakt-Verzeichnis zurueck (BRAINFORGE_MODELS)
// - Manifest: Gibt Manifest-Datenbankpfad zurueck (BRAINFORGE_MANIFEST)
// - Seed: Gibt den Gewichts-Seed zurueck (BRAINFORGE_SEED)
// - LogLevel: Gibt Log-Level zurueck (BRAINFORGE_DEBUG)
//
// Weitere Konfigurationen sind ausgelagert:
// - config_utils.go: Utility-Funktionen und AsMap/Values
package envconfig

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Host gibt Scheme und Host zurueck
// Konfigurierbar via BRAINFORGE_HOST
// Default: http://127.0.0.1:11476
func Host() *url.URL {
	defaultPort := "11476"

	s := strings.TrimSpace(Var("BRAINFORGE_HOST"))
	scheme, hostport, ok := strings.Cut(s, "://")
	switch {
	case !ok:
		scheme, hostport = "http", s
	case scheme == "http":
		defaultPort = "80"
	case scheme == "https":
		defaultPort = "443"
	}

	hostport, path, _ := strings.Cut(hostport, "/")
	host, port, err := net.SplitHostPort(hostport)
	if err != nil {
		host, port = "127.0.0.1", defaultPort
		if ip := net.ParseIP(strings.Trim(hostport, "[]")); ip != nil {
			host = ip.String()
		} else if hostport != "" {
			host = hostport
		}
	}

	if n, err := strconv.ParseInt(port, 10, 32); err != nil || n > 65535 || n < 0 {
		slog.Warn("invalid port, using default", "port", port, "default", defaultPort)
		port = defaultPort
	}

	return &url.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(host, port),
		Path:   path,
	}
}

// AllowedOrigins gibt erlaubte Origins zurueck
// Konfigurierbar via BRAINFORGE_ORIGINS (komma-separiert)
// Enthaelt Standard-Origins fuer localhost
func AllowedOrigins() (origins []string) {
	if s := Var("BRAINFORGE_ORIGINS"); s != "" {
		origins = strings.Split(s, ",")
	}

	// Standard-Origins fuer localhost
	for _, origin := range []string{"localhost", "127.0.0.1", "0.0.0.0"} {
		origins = append(origins,
			fmt.Sprintf("http://%s", origin),
			fmt.Sprintf("https://%s", origin),
			fmt.Sprintf("http://%s", net.JoinHostPort(origin, "*")),
			fmt.Sprintf("https://%s", net.JoinHostPort(origin, "*")),
		)
	}

	return origins
}

// Models gibt das Artefakt-Verzeichnis zurueck
// Konfigurierbar via BRAINFORGE_MODELS
// Default: $HOME/.brainforge/models
func Models() string {
	if s := Var("BRAINFORGE_MODELS"); s != "" {
		return s
	}

	home, err := os.UserHomeDir()
	if err != nil {
		panic(err)
	}

	return filepath.Join(home, ".brainforge", "models")
}

// Manifest gibt den Pfad der Build-Manifest-Datenbank zurueck
// Konfigurierbar via BRAINFORGE_MANIFEST
// Default: $HOME/.brainforge/manifest.sqlite
func Manifest() string {
	if s := Var("BRAINFORGE_MANIFEST"); s != "" {
		return s
	}

	home, err := os.UserHomeDir()
	if err != nil {
		panic(err)
	}

	return filepath.Join(home, ".brainforge", "manifest.sqlite")
}

// Seed gibt den Seed fuer die deterministische Gewichtserzeugung zurueck
// Konfigurierbar via BRAINFORGE_SEED
// Default: 42
var Seed = Uint64("BRAINFORGE_SEED", 42)

// LogLevel gibt das Log-Level zurueck
// Konfigurierbar via BRAINFORGE_DEBUG
// Werte: 0/false = INFO (Default), 1/true = DEBUG, 2 = TRACE
func LogLevel() slog.Level {
	level := slog.LevelInfo
	if s := Var("BRAINFORGE_DEBUG"); s != "" {
		if b, _ := strconv.ParseBool(s); b {
			level = slog.LevelDebug
		} else if i, _ := strconv.ParseInt(s, 10, 64); i != 0 {
			level = slog.Level(i * -4)
		}
	}

	return level
}

// Var gibt eine Environment-Variable zurueck
// Entfernt fuehrende/trailing Quotes und Leerzeichen
func Var(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv(key)), "\"'")
}
