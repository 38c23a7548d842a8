package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/kbukum/invstream/auth"
	"github.com/kbukum/invstream/httpclient"
	"github.com/kbukum/invstream/logger"
	"github.com/kbukum/invstream/provider"
	"github.com/kbukum/invstream/validation"
)

const (
	defaultMintTTL   = time.Hour
	defaultMintRenew = time.Minute
	mintTimeout      = 10 * time.Second
)

// MintConfig requests development tokens from a simulator's token endpoint
// instead of using a fixed token.
type MintConfig struct {
	URL     string `yaml:"url" mapstructure:"url"`
	Subject string `yaml:"subject" mapstructure:"subject"`
	// Key is sent as X-Mint-Key when the simulator guards minting.
	Key string        `yaml:"key" mapstructure:"key"`
	TTL time.Duration `yaml:"ttl" mapstructure:"ttl"`
	// Renew is how long before expiry a cached token is replaced.
	Renew time.Duration `yaml:"renew" mapstructure:"renew"`
}

func (c *MintConfig) ApplyDefaults() {
	if c.Subject == "" {
		c.Subject = serviceName
	}
	if c.TTL <= 0 {
		c.TTL = defaultMintTTL
	}
	if c.Renew <= 0 {
		c.Renew = defaultMintRenew
	}
}

func (c *MintConfig) Validate() error {
	v := validation.New().
		URL("mint.url", c.URL, "http", "https").
		Required("mint.subject", c.Subject).
		Custom(c.Renew < c.TTL, "mint.renew", "must be shorter than mint.ttl")
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

type mintRequest struct {
	Subject    string `json:"subject"`
	TTLSeconds int    `json:"ttlSeconds"`
}

type mintResponse struct {
	Data struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expiresAt"`
	} `json:"data"`
}

// minter caches one read token and mints a new one when it is about to
// expire.
type minter struct {
	client provider.RequestResponse[httpclient.Request, *httpclient.Response]
	cfg    MintConfig
	log    *logger.Logger
	now    func() time.Time

	mu      sync.Mutex
	token   string
	expires time.Time
}

func newMinter(cfg MintConfig, log *logger.Logger) (*minter, error) {
	client, err := httpclient.New(httpclient.Config{
		Name:    "token-mint",
		Timeout: mintTimeout,
		Retry:   httpclient.DefaultRetryConfig(),
	})
	if err != nil {
		return nil, err
	}
	return &minter{client: client, cfg: cfg, log: log.WithComponent("mint"), now: time.Now}, nil
}

// Token implements stream.TokenSource.
func (m *minter) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token != "" && m.now().Add(m.cfg.Renew).Before(m.expires) {
		return m.token, nil
	}

	req := httpclient.Request{
		Method: http.MethodPost,
		Path:   m.cfg.URL,
		Body:   mintRequest{Subject: m.cfg.Subject, TTLSeconds: int(m.cfg.TTL / time.Second)},
	}
	if m.cfg.Key != "" {
		req.Headers = map[string]string{auth.HeaderMintKey: m.cfg.Key}
	}
	resp, err := m.client.Execute(ctx, req)
	if err != nil {
		return "", fmt.Errorf("mint token: %w", err)
	}
	var body mintResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return "", fmt.Errorf("mint token: decode response: %w", err)
	}
	if body.Data.Token == "" {
		return "", errors.New("mint token: empty token in response")
	}

	m.token, m.expires = body.Data.Token, body.Data.ExpiresAt
	m.log.Info("minted token", logger.Fields("subject", m.cfg.Subject, "expires_at", m.expires))
	return m.token, nil
}
