package main

import (
	"errors"
	"fmt"

	"github.com/kbukum/invstream/cache"
	"github.com/kbukum/invstream/config"
	"github.com/kbukum/invstream/observability"
	"github.com/kbukum/invstream/stream"
)

const serviceName = "inventory-watch"

// Config is the watcher's configuration file layout.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Stream stream.Config       `yaml:"stream" mapstructure:"stream"`
	Follow stream.FollowConfig `yaml:"follow" mapstructure:"follow"`
	// Token is the bearer token; TokenFile, when set, is re-read before
	// every reconnect and wins over Token. Mint wins over both.
	Token     string      `yaml:"token" mapstructure:"token"`
	TokenFile string      `yaml:"token_file" mapstructure:"token_file"`
	Mint      *MintConfig `yaml:"mint" mapstructure:"mint"`
	// CacheSize bounds the number of products kept.
	CacheSize     int                  `yaml:"cache_size" mapstructure:"cache_size"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	c.ServiceConfig.ApplyDefaults()
	c.Stream.ApplyDefaults()

	defaults := stream.DefaultFollowConfig().Retry
	r := &c.Follow.Retry
	if r.InitialBackoff == 0 {
		r.InitialBackoff = defaults.InitialBackoff
	}
	if r.MaxBackoff == 0 {
		r.MaxBackoff = defaults.MaxBackoff
	}
	if r.BackoffFactor == 0 {
		r.BackoffFactor = defaults.BackoffFactor
	}
	if r.Jitter == 0 {
		r.Jitter = defaults.Jitter
	}

	if c.Mint != nil {
		c.Mint.ApplyDefaults()
	}
	if c.CacheSize <= 0 {
		c.CacheSize = cache.DefaultSize
	}
	if c.Observability.ServiceName == "" {
		c.Observability.ServiceName = c.Name
	}
	if c.Observability.ServiceVersion == "" {
		c.Observability.ServiceVersion = c.Version
	}
	if c.Observability.Environment == "" {
		c.Observability.Environment = c.Environment
	}
	c.Observability.ApplyDefaults()
}

// Validate leaves the endpoint and token to validateTarget, since flags
// may still supply them after loading.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Stream.Validate(); err != nil {
		return fmt.Errorf("stream: %w", err)
	}
	if err := c.Observability.Validate(); err != nil {
		return err
	}
	if c.Mint != nil && c.Mint.URL != "" {
		if err := c.Mint.Validate(); err != nil {
			return fmt.Errorf("mint: %w", err)
		}
	}
	return nil
}

func (c *Config) validateTarget() error {
	if c.Stream.Endpoint == "" {
		return errors.New("stream endpoint is required (--endpoint or stream.endpoint)")
	}
	if c.Mint != nil {
		if err := c.Mint.Validate(); err != nil {
			return err
		}
	} else if c.Token == "" && c.TokenFile == "" {
		return errors.New("a token is required (--token, --token-file, --mint-url or token)")
	}
	return c.Stream.Validate()
}
