package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// APIClientConfig describes the remote food-ordering backend.
type APIClientConfig struct {
	BaseURL   string        `koanf:"baseurl"`
	Timeout   time.Duration `koanf:"timeout"`
	UserAgent string        `koanf:"useragent"`
}

const defaultUserAgent = "gocommerce-storefront"

// String returns a string representation of the API client configuration.
func (c *APIClientConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- API Client ---\n")
	b.WriteString(fmt.Sprintf("  baseurl: %s\n", c.BaseURL))
	b.WriteString(fmt.Sprintf("  timeout: %s\n", c.Timeout))
	b.WriteString(fmt.Sprintf("  useragent: %s\n", c.UserAgent))
	return b.String()
}

func (c *APIClientConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("API base URL is not configured")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("API base URL must be absolute: %s", c.BaseURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("API client timeout is not configured")
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	return nil
}
