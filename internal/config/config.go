package config

import (
	"os"
)

// Config holds the core runtime configuration for the service.
// Values are primarily sourced from environment variables, with
// sensible defaults where appropriate. See .env.example.
type Config struct {
	DatabaseURL string

	ListenAddr string

	// BootstrapDriver/BootstrapDriverPassword seed one driver row on
	// startup so a fresh install has a resolvable username. Leave either
	// empty to skip seeding.
	BootstrapDriver         string
	BootstrapDriverPassword string

	// CertifiedLogPolicy controls ingestion into a day whose log is
	// already certified: "allow" treats certification as a snapshot and
	// keeps accepting events (the default), "reject" refuses the batch.
	CertifiedLogPolicy string
}

// Load reads configuration from environment variables and applies defaults.
func Load() *Config {
	cfg := &Config{
		DatabaseURL:             os.Getenv("APP_DATABASE_URL"),
		ListenAddr:              getenv("APP_LISTEN_ADDR", ":8080"),
		BootstrapDriver:         getenv("APP_BOOTSTRAP_DRIVER", ""),
		BootstrapDriverPassword: getenv("APP_BOOTSTRAP_DRIVER_PASSWORD", ""),
		CertifiedLogPolicy:      getenv("APP_CERTIFIED_LOG_POLICY", "allow"),
	}

	if cfg.CertifiedLogPolicy != "allow" && cfg.CertifiedLogPolicy != "reject" {
		cfg.CertifiedLogPolicy = "allow"
	}

	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
