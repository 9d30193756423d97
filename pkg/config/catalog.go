package config

import (
	"fmt"
	"strings"
	"time"
)

// CatalogConfig tunes the product listing read path.
type CatalogConfig struct {
	ReadTimeout    time.Duration        `koanf:"readtimeout"`
	CircuitBreaker CircuitBreakerConfig `koanf:"circuitbreaker"`
}

const defaultReadTimeout = 5 * time.Second

// String returns a string representation of the CatalogConfig.
func (c *CatalogConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Catalog ---\n")
	b.WriteString(fmt.Sprintf("  readtimeout: %v\n", c.ReadTimeout))
	b.WriteString(c.CircuitBreaker.String())
	return b.String()
}

func (c *CatalogConfig) Validate() error {
	if c.ReadTimeout < 0 {
		return fmt.Errorf("catalog.readtimeout must not be negative")
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = defaultReadTimeout
	}
	return c.CircuitBreaker.Validate()
}
