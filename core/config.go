package core

import (
	"fmt"
	"strings"
	"time"
)

type CacheConfig struct {
	LinkTTL   time.Duration `koanf:"link_ttl" mapstructure:"link_ttl"`
	TenantTTL time.Duration `koanf:"tenant_ttl" mapstructure:"tenant_ttl"`
}

type Config struct {
	ServiceName     string        `koanf:"service_name" mapstructure:"service_name"`
	BaseDomain      string        `koanf:"base_domain" mapstructure:"base_domain"`
	DefaultTenantID string        `koanf:"default_tenant_id" mapstructure:"default_tenant_id"`
	CodeLength      int           `koanf:"code_length" mapstructure:"code_length"`
	MaxCodeRetries  int           `koanf:"max_code_retries" mapstructure:"max_code_retries"`
	RequestTimeout  time.Duration `koanf:"request_timeout" mapstructure:"request_timeout"`
	Cache           CacheConfig   `koanf:"cache" mapstructure:"cache"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName:     "shortlink",
		BaseDomain:      "short.ly",
		DefaultTenantID: "default",
		CodeLength:      10,
		MaxCodeRetries:  5,
		RequestTimeout:  500 * time.Millisecond,
		Cache: CacheConfig{
			LinkTTL:   time.Hour,
			TenantTTL: 24 * time.Hour,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if strings.TrimSpace(c.DefaultTenantID) == "" {
		return fmt.Errorf("core: default_tenant_id is required")
	}
	if c.CodeLength < 1 {
		return fmt.Errorf("core: code_length must be at least 1")
	}
	if c.MaxCodeRetries < 1 {
		return fmt.Errorf("core: max_code_retries must be at least 1")
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("core: request_timeout must not be negative")
	}
	if c.Cache.LinkTTL < 0 || c.Cache.TenantTTL < 0 {
		return fmt.Errorf("core: cache ttls must not be negative")
	}
	return nil
}
