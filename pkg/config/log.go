package config

import (
	"fmt"
	"strings"
)

// LogConfig selects the level and encoding of the process logger. Text output
// is meant for a developer terminal; json is the default.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// String returns a string representation of the log configuration.
func (c *LogConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Log ---\n")
	b.WriteString(fmt.Sprintf("  level: %s\n", c.Level))
	b.WriteString(fmt.Sprintf("  format: %s\n", c.Format))
	return b.String()
}

func (c *LogConfig) Validate() error {
	c.Level = strings.ToLower(c.Level)
	switch c.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level: %s", c.Level)
	}
	c.Format = strings.ToLower(c.Format)
	switch c.Format {
	case "":
		c.Format = "json"
	case "json", "text":
	default:
		return fmt.Errorf("unknown log format: %s", c.Format)
	}
	return nil
}
