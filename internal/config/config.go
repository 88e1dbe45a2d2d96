package config

import (
	"fmt"
	"strings"

	"github.com/abgdnv/gocommerce-storefront/pkg/config"
	"github.com/abgdnv/gocommerce-storefront/pkg/config/configloader"
)

var (
	_ configloader.Validator = (*Config)(nil)
	_ configloader.Defaulter = (*Config)(nil)
)

type Config struct {
	HTTPServer config.HTTPConfig       `koanf:"server"`
	API        config.APIClientConfig  `koanf:"api"`
	Resilience config.ResilienceConfig `koanf:"resilience"`
	Session    config.SessionConfig    `koanf:"session"`
	Log        config.LogConfig        `koanf:"log"`
	PProf      config.PProfConfig      `koanf:"pprof"`
	Telemetry  config.TelemetryConfig  `koanf:"telemetry"`
	Nats       config.NATSConfig       `koanf:"nats"`
	Shutdown   config.ShutdownConfig   `koanf:"shutdown"`
}

func (c *Config) String() string {
	var b strings.Builder
	b.WriteString(c.HTTPServer.String())
	b.WriteString(c.API.String())
	b.WriteString(c.Resilience.String())
	b.WriteString(c.Session.String())
	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.Telemetry.String())
	b.WriteString(c.Nats.String())
	b.WriteString(c.Shutdown.String())
	return b.String()
}

// Defaults are the values used when neither the config file nor the
// environment sets them. The backend URL has no default.
func (c *Config) Defaults() map[string]any {
	return map[string]any{
		"server.port":               8081,
		"server.maxheaderbytes":     1 << 20,
		"server.timeout.read":       "5s",
		"server.timeout.write":      "15s",
		"server.timeout.idle":       "60s",
		"server.timeout.readheader": "2s",
		"api.timeout":               "10s",

		"resilience.retry.maxattempts":                  3,
		"resilience.retry.initialbackoff":               "100ms",
		"resilience.retry.maxbackoff":                   "1s",
		"resilience.circuitbreaker.consecutivefailures": 5,
		"resilience.circuitbreaker.errorratepercent":    60,
		"resilience.circuitbreaker.opentimeout":         "10s",
		"resilience.circuitbreaker.halfopenrequests":    1,

		"log.level":    "info",
		"log.format":   "json",
		"pprof.addr":   "localhost:6060",
		"nats.timeout": "2s",
	}
}

// Validate checks if the configuration values are valid
func (c *Config) Validate() error {
	validators := []struct {
		name string
		v    configloader.Validator
	}{
		{"server", &c.HTTPServer},
		{"api", &c.API},
		{"resilience", &c.Resilience},
		{"session", &c.Session},
		{"log", &c.Log},
		{"pprof", &c.PProf},
		{"telemetry", &c.Telemetry},
		{"nats", &c.Nats},
		{"shutdown", &c.Shutdown},
	}
	for _, item := range validators {
		if err := item.v.Validate(); err != nil {
			return fmt.Errorf("%s: %w", item.name, err)
		}
	}
	return nil
}
