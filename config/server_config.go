package config

import "os"

const defaultHTTPAddr = ":8080"

// HTTPAddr returns the listen address for the HTTP server, preferring
// BOOKHOLD_HTTP_ADDR over the hardcoded default.
func HTTPAddr() string {
	if addr := os.Getenv("BOOKHOLD_HTTP_ADDR"); addr != "" {
		return addr
	}

	return defaultHTTPAddr
}

// Engine returns the storage engine selection from BOOKHOLD_ENGINE,
// "memory" (default) or "postgres".
func Engine() string {
	if engine := os.Getenv("BOOKHOLD_ENGINE"); engine != "" {
		return engine
	}

	return "memory"
}

// StartupAudit reports whether the catalog consistency audit should run
// before the server starts serving, controlled by BOOKHOLD_STARTUP_AUDIT.
func StartupAudit() bool {
	return os.Getenv("BOOKHOLD_STARTUP_AUDIT") == "true"
}
