package main

import (
	"fmt"

	"github.com/kbukum/invstream/auth"
	"github.com/kbukum/invstream/config"
	"github.com/kbukum/invstream/observability"
	"github.com/kbukum/invstream/server"
	"github.com/kbukum/invstream/simulator"
)

const serviceName = "inventory-sim"

// Config is the simulator's configuration file layout.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Auth          auth.Config          `yaml:"auth" mapstructure:"auth"`
	Simulator     simulator.Config     `yaml:"simulator" mapstructure:"simulator"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	c.ServiceConfig.ApplyDefaults()
	// streams stay open far longer than any write timeout
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = -1
	}
	c.Server.ApplyDefaults()
	c.Auth.ApplyDefaults()
	c.Simulator.ApplyDefaults()
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

func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.Simulator.Validate(); err != nil {
		return err
	}
	if err := c.Observability.Validate(); err != nil {
		return err
	}
	return nil
}
