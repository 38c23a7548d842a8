package config

import (
	"github.com/kbukum/invstream/logger"
	"github.com/kbukum/invstream/validation"
	"github.com/kbukum/invstream/version"
)

const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

var environments = []string{EnvDevelopment, EnvStaging, EnvProduction}

// ServiceConfig is the part of every command's config that names the
// service and sets up its logger. Commands embed it:
//
//	type WatchConfig struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Stream stream.Config `yaml:"stream" mapstructure:"stream"`
//	}
type ServiceConfig struct {
	Name        string        `yaml:"name" mapstructure:"name"`
	Environment string        `yaml:"environment" mapstructure:"environment"`
	Version     string        `yaml:"version" mapstructure:"version"`
	Logging     logger.Config `yaml:"logging" mapstructure:"logging"`
}

// GetServiceConfig is promoted to embedding structs.
func (c *ServiceConfig) GetServiceConfig() *ServiceConfig { return c }

func (c *ServiceConfig) IsDevelopment() bool { return c.Environment == EnvDevelopment }

// ApplyDefaults defaults to development, which also lowers an unset log
// level to debug. Embedding structs call it before their own defaults.
func (c *ServiceConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = EnvDevelopment
	}
	if c.Version == "" {
		c.Version = version.GetShortVersion()
	}
	if c.Logging.ServiceName == "" {
		c.Logging.ServiceName = c.Name
	}
	if c.Logging.Level == "" && c.IsDevelopment() {
		c.Logging.Level = "debug"
	}
	c.Logging.ApplyDefaults()
}

func (c *ServiceConfig) Validate() error {
	v := validation.New().
		Required("name", c.Name).
		Required("environment", c.Environment).
		OneOf("environment", c.Environment, environments)
	if err := c.Logging.Validate(); err != nil {
		v.AddError("logging", err.Error())
	}
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}
