package authgate

import (
	"context"
	"fmt"
	"time"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"
)

const (
	StoreTypeMemory = "memory"
	StoreTypeFile   = "file"
	StoreTypeRedis  = "redis"
)

// ClientOptions defines options for configuring an authenticated client.
type ClientOptions struct {
	LoginURL         string      `yaml:"loginURL,omitempty" json:"loginURL,omitempty"  short:"l" long:"login-url" description:"login endpoint URL"`
	RefreshURL       string      `yaml:"refreshURL" json:"refreshURL"  short:"r" long:"refresh-url" description:"refresh endpoint URL"`
	Store            ClientStore `yaml:"store,omitempty" json:"store,omitempty"`
	RefreshTimeoutMs int         `yaml:"refreshTimeoutMs,omitempty" json:"refreshTimeoutMs,omitempty" long:"refresh-timeout" description:"refresh exchange timeout in ms"`
	WaitTimeoutMs    int         `yaml:"waitTimeoutMs,omitempty" json:"waitTimeoutMs,omitempty" long:"wait-timeout" description:"max time a request waits for a refresh in ms"`
	ProactiveRefresh bool        `yaml:"proactiveRefresh,omitempty" json:"proactiveRefresh,omitempty" long:"proactive" description:"refresh before sending when the access credential is about to expire"`
	ExpiryLeewayMs   int         `yaml:"expiryLeewayMs,omitempty" json:"expiryLeewayMs,omitempty" long:"expiry-leeway" description:"proactive refresh leeway in ms"`
}

// ClientStore defines where credentials are kept.
type ClientStore struct {
	Type  string      `yaml:"type,omitempty" json:"type,omitempty" long:"store-type" description:"credential store type" choice:"memory" choice:"file" choice:"redis"`
	URL   string      `yaml:"URL,omitempty" json:"URL,omitempty" long:"store-url" description:"file store location"`
	Redis ClientRedis `yaml:"redis,omitempty" json:"redis,omitempty"`
}

// ClientRedis defines the redis store connection.
type ClientRedis struct {
	Addr  string `yaml:"addr,omitempty" json:"addr,omitempty" long:"redis-addr" description:"redis address"`
	Key   string `yaml:"key,omitempty" json:"key,omitempty" long:"redis-key" description:"redis hash key"`
	TTLMs int    `yaml:"ttlMs,omitempty" json:"ttlMs,omitempty" long:"redis-ttl" description:"credential TTL in ms"`
}

func (c *ClientOptions) Init() {
	if c.Store.Type == "" {
		c.Store.Type = StoreTypeMemory
	}
	if c.Store.Redis.Key == "" {
		c.Store.Redis.Key = "authgate:credentials"
	}
	if c.RefreshTimeoutMs == 0 {
		c.RefreshTimeoutMs = 30000
	}
	if c.WaitTimeoutMs == 0 {
		c.WaitTimeoutMs = 45000
	}
	if c.ProactiveRefresh && c.ExpiryLeewayMs == 0 {
		c.ExpiryLeewayMs = 10000
	}
}

func (c *ClientOptions) Validate() error {
	if c.RefreshURL == "" {
		return fmt.Errorf("refreshURL was empty")
	}
	switch c.Store.Type {
	case StoreTypeMemory:
	case StoreTypeFile:
		if c.Store.URL == "" {
			return fmt.Errorf("store.URL is required for %v store", c.Store.Type)
		}
	case StoreTypeRedis:
		if c.Store.Redis.Addr == "" {
			return fmt.Errorf("store.redis.addr is required for %v store", c.Store.Type)
		}
	default:
		return fmt.Errorf("unsupported store type: %v", c.Store.Type)
	}
	return nil
}

func (c *ClientOptions) refreshTimeout() time.Duration {
	return time.Duration(c.RefreshTimeoutMs) * time.Millisecond
}

func (c *ClientOptions) waitTimeout() time.Duration {
	return time.Duration(c.WaitTimeoutMs) * time.Millisecond
}

func (c *ClientOptions) expiryLeeway() time.Duration {
	return time.Duration(c.ExpiryLeewayMs) * time.Millisecond
}

// LoadClientOptions reads YAML client options from URL
func LoadClientOptions(ctx context.Context, URL string) (*ClientOptions, error) {
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load client options %v: %w", URL, err)
	}
	ret := &ClientOptions{}
	if err = yaml.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("failed to decode client options %v: %w", URL, err)
	}
	ret.Init()
	return ret, nil
}

func (c *ClientOptions) redisTTL() time.Duration {
	return time.Duration(c.Store.Redis.TTLMs) * time.Millisecond
}
