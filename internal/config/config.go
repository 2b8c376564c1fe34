package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	ServiceName      string
	CoreDatabaseURL  string
	RedisURL         string
	ChargerKeyPrefix string
	// Bootstrap window policy, process-wide. The maximum caps every
	// caller-supplied TTL.
	BootstrapDefaultMinutes int
	BootstrapMaxMinutes     int
	HTTPListenAddr          string
	GatewayListenAddr       string
	MetricsListenAddr       string
	GatewayTLSCert          string
	GatewayTLSKey           string
	LogLevel                string
}

func Load() (*Config, error) {
	cfg := &Config{
		ServiceName:             getEnv("SERVICE_NAME", ""),
		CoreDatabaseURL:         getEnv("CORE_DATABASE_URL", ""),
		RedisURL:                getEnv("REDIS_URL", "redis://localhost:6379/0"),
		ChargerKeyPrefix:        getEnv("CHARGER_KEY_PREFIX", "chargers"),
		BootstrapDefaultMinutes: getEnvInt("BOOTSTRAP_DEFAULT_MINUTES", 30),
		BootstrapMaxMinutes:     getEnvInt("BOOTSTRAP_MAX_MINUTES", 120),
		HTTPListenAddr:          getEnv("HTTP_LISTEN_ADDR", ":8090"),
		GatewayListenAddr:       getEnv("GATEWAY_LISTEN_ADDR", ":9220"),
		MetricsListenAddr:       getEnv("METRICS_LISTEN_ADDR", ":9221"),
		GatewayTLSCert:          getEnv("GATEWAY_TLS_CERT", ""),
		GatewayTLSKey:           getEnv("GATEWAY_TLS_KEY", ""),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
	}

	return cfg, nil
}

// Validate checks the fields the given service cannot run without.
func (c *Config) Validate(service string) error {
	switch service {
	case "csms-api":
		if c.CoreDatabaseURL == "" {
			return fmt.Errorf("CORE_DATABASE_URL is required for %s", service)
		}
	case "ocpp-gateway":
		// Gateway only needs the identity store.
	}
	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required for %s", service)
	}
	if c.BootstrapDefaultMinutes < 1 {
		return fmt.Errorf("BOOTSTRAP_DEFAULT_MINUTES must be at least 1")
	}
	if c.BootstrapMaxMinutes < c.BootstrapDefaultMinutes {
		return fmt.Errorf("BOOTSTRAP_MAX_MINUTES must be >= BOOTSTRAP_DEFAULT_MINUTES")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
