package bootstrap

import (
	"github.com/kbukum/invstream/config"
)

// Config is the constraint for application configuration types. Any struct
// embedding config.ServiceConfig and defining ApplyDefaults and Validate
// satisfies it.
//
//	type SimConfig struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Server server.Config `yaml:"server" mapstructure:"server"`
//	}
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
