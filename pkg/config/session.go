package config

import (
	"fmt"
	"log"
	"strings"
	"time"
)

const (
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"
)

const defaultTokenTTL = 24 * time.Hour
const defaultSessionKey = "storefront:session"

// SessionConfig selects where the auth session is cached.
type SessionConfig struct {
	Backend  string        `koanf:"backend"`
	TokenTTL time.Duration `koanf:"tokenttl"`
	Redis    struct {
		Addr     string `koanf:"addr"`
		Password string `koanf:"password"`
		DB       int    `koanf:"db"`
		Key      string `koanf:"key"`
	} `koanf:"redis"`
}

// String returns a string representation of the SessionConfig.
func (c *SessionConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Session ---\n")
	b.WriteString(fmt.Sprintf("  backend: %s\n", c.Backend))
	b.WriteString(fmt.Sprintf("  tokenttl: %s\n", c.TokenTTL))
	if c.Backend == SessionBackendRedis {
		b.WriteString(fmt.Sprintf("  redis.addr: %s\n", c.Redis.Addr))
		b.WriteString(fmt.Sprintf("  redis.db: %d\n", c.Redis.DB))
		b.WriteString(fmt.Sprintf("  redis.key: %s\n", c.Redis.Key))
	}
	return b.String()
}

func (c *SessionConfig) Validate() error {
	if c.Backend == "" {
		c.Backend = SessionBackendMemory
	}
	if c.TokenTTL <= 0 {
		log.Println("Using default value for session tokenttl")
		c.TokenTTL = defaultTokenTTL
	}
	switch c.Backend {
	case SessionBackendMemory:
	case SessionBackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("session backend is redis but redis.addr is not configured")
		}
		if c.Redis.Key == "" {
			c.Redis.Key = defaultSessionKey
		}
	default:
		return fmt.Errorf("unknown session backend: %s", c.Backend)
	}
	return nil
}
