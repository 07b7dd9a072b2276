package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/wwcp/core/metrics"
	"github.com/kilianp07/wwcp/infra/mqtt"
)

type Config struct {
	Pools      []PoolConfig     `json:"pools"`
	MQTT       mqtt.Config      `json:"mqtt"`
	Metrics    metrics.Config   `json:"metrics"`
	CommandLog CommandLogConfig `json:"command_log"`
	Service    ServiceConfig    `json:"service"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults applies the defaults of every section.
func (c *Config) SetDefaults() {
	c.CommandLog.SetDefaults()
	c.Service.SetDefaults()
	for i := range c.Pools {
		c.Pools[i].SetDefaults()
	}
}

// Validate checks every section and rejects duplicate pool ids.
func (c *Config) Validate() error {
	if err := c.CommandLog.Validate(); err != nil {
		return fmt.Errorf("command_log: %w", err)
	}
	seen := make(map[string]bool, len(c.Pools))
	for i, p := range c.Pools {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("pools[%d]: %w", i, err)
		}
		if seen[p.ID] {
			return fmt.Errorf("pools[%d]: duplicate pool id %s", i, p.ID)
		}
		seen[p.ID] = true
	}
	return nil
}

// Pool returns the pool configuration with the given id.
func (c *Config) Pool(id string) (PoolConfig, bool) {
	for _, p := range c.Pools {
		if p.ID == id {
			return p, true
		}
	}
	return PoolConfig{}, false
}
