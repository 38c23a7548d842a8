package simulator

import (
	"errors"
	"fmt"
	"time"

	"github.com/kbukum/invstream/auth"
	"github.com/kbukum/invstream/inventory"
)

// Config controls the simulated backend.
type Config struct {
	// Heartbeat is the interval between heartbeat frames. Zero disables them.
	Heartbeat time.Duration `yaml:"heartbeat" mapstructure:"heartbeat"`
	// KeepAlive is the interval between comment pings. Zero disables them.
	KeepAlive time.Duration `yaml:"keep_alive" mapstructure:"keep_alive"`
	// Retry is advertised to clients as the reconnect delay.
	Retry time.Duration `yaml:"retry" mapstructure:"retry"`
	// ClientBuffer is the per-client frame queue; a client that falls this
	// far behind is disconnected.
	ClientBuffer int `yaml:"client_buffer" mapstructure:"client_buffer"`
	// AllowTokenMint enables POST /v1/tokens. Development only.
	AllowTokenMint bool `yaml:"allow_token_mint" mapstructure:"allow_token_mint"`
	// MintKeyHash is a bcrypt hash (see auth.HashKey). When set, minting
	// requires the matching key in the X-Mint-Key header.
	MintKeyHash string `yaml:"mint_key_hash" mapstructure:"mint_key_hash"`
	// MintPerMinute rate-limits POST /v1/tokens per client IP.
	MintPerMinute int `yaml:"mint_per_minute" mapstructure:"mint_per_minute"`
	// Activity is the interval of random stock changes. Zero disables them.
	Activity time.Duration `yaml:"activity" mapstructure:"activity"`
	// Seed is the initial inventory.
	Seed []inventory.State `yaml:"seed" mapstructure:"seed"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Heartbeat == 0 {
		c.Heartbeat = 15 * time.Second
	}
	if c.KeepAlive == 0 {
		c.KeepAlive = 30 * time.Second
	}
	if c.Retry == 0 {
		c.Retry = 2 * time.Second
	}
	if c.ClientBuffer == 0 {
		c.ClientBuffer = 256
	}
	if c.MintPerMinute == 0 {
		c.MintPerMinute = 30
	}
	for i := range c.Seed {
		if c.Seed[i].Lots == nil {
			c.Seed[i].Lots = []inventory.LotInfo{}
		}
	}
}

// Validate checks the configuration, seed states included.
func (c *Config) Validate() error {
	if c.ClientBuffer < 0 {
		return errors.New("simulator.client_buffer must be non-negative")
	}
	if c.Heartbeat < 0 || c.KeepAlive < 0 || c.Retry < 0 || c.Activity < 0 {
		return errors.New("simulator intervals must be non-negative")
	}
	if c.MintKeyHash != "" {
		if err := auth.CheckKeyHash(c.MintKeyHash); err != nil {
			return fmt.Errorf("simulator.mint_key_hash: %w", err)
		}
	}
	seen := make(map[string]bool, len(c.Seed))
	for i, st := range c.Seed {
		if err := st.Validate(); err != nil {
			return fmt.Errorf("simulator.seed[%d]: %w", i, err)
		}
		if seen[st.ProductID] {
			return fmt.Errorf("simulator.seed[%d]: duplicate product %s", i, st.ProductID)
		}
		seen[st.ProductID] = true
	}
	return nil
}
