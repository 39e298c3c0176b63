// Package config handles configuration loading and validation for the
// p2pool node. Ported from teacher internal/config/config.go (struct-of-structs
// + mapstructure tags + setDefaults), fields replaced with this domain's.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the node.
type Config struct {
	Mining    MiningConfig    `mapstructure:"mining"`
	P2Pool    P2PoolConfig    `mapstructure:"p2pool"`
	Redis     RedisConfig     `mapstructure:"redis"`
	RPC       RPCConfig       `mapstructure:"rpc"`
	Log       LogConfig       `mapstructure:"log"`
	NewRelic  NewRelicConfig  `mapstructure:"newrelic"`
	Profiling ProfilingConfig `mapstructure:"profiling"`
}

// MiningConfig defines the RandomX mining worker pool.
type MiningConfig struct {
	Threads   int           `mapstructure:"threads"`
	BuildTime time.Duration `mapstructure:"build_time"`
	Tick      time.Duration `mapstructure:"tick"`
}

// P2PoolConfig defines the sidechain identity and PPLNS window.
type P2PoolConfig struct {
	Author       string `mapstructure:"author"`
	WindowSize   uint64 `mapstructure:"window_size"`
	MainchainRPC string `mapstructure:"mainchain_rpc"`
	MainchainWS  string `mapstructure:"mainchain_ws"`
}

// RedisConfig defines the aux-store backend.
type RedisConfig struct {
	URL      string `mapstructure:"url"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// RPCConfig defines this node's own miner-facing RPC surface and its
// outbound call behavior against upstream mainchain nodes.
type RPCConfig struct {
	Bind       string        `mapstructure:"bind"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
}

// LogConfig defines logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// NewRelicConfig defines New Relic APM settings.
type NewRelicConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	AppName    string `mapstructure:"app_name"`
	LicenseKey string `mapstructure:"license_key"`
}

// ProfilingConfig defines the pprof debug server.
type ProfilingConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Bind    string `mapstructure:"bind"`
}

// Load reads configuration from file and environment.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/p2pool-node")
	}

	v.SetEnvPrefix("P2POOL_NODE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mining.threads", 1)
	v.SetDefault("mining.build_time", "500ms")
	v.SetDefault("mining.tick", "1s")

	v.SetDefault("p2pool.window_size", 2160)
	v.SetDefault("p2pool.mainchain_rpc", "http://127.0.0.1:9933")
	v.SetDefault("p2pool.mainchain_ws", "ws://127.0.0.1:9944")

	v.SetDefault("redis.url", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("rpc.bind", "0.0.0.0:9955")
	v.SetDefault("rpc.timeout", "10s")
	v.SetDefault("rpc.max_retries", 3)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("newrelic.enabled", false)
	v.SetDefault("newrelic.app_name", "p2pool-node")

	v.SetDefault("profiling.enabled", false)
	v.SetDefault("profiling.bind", "127.0.0.1:6060")
}

// Validate checks configuration for errors.
func (c *Config) Validate() error {
	if c.P2Pool.Author == "" {
		return fmt.Errorf("p2pool.author is required")
	}

	if c.P2Pool.WindowSize == 0 {
		return fmt.Errorf("p2pool.window_size must be > 0")
	}

	if c.P2Pool.MainchainRPC == "" {
		return fmt.Errorf("p2pool.mainchain_rpc is required")
	}

	if c.Mining.Threads < 0 {
		return fmt.Errorf("mining.threads must be >= 0")
	}

	if c.RPC.Bind == "" {
		return fmt.Errorf("rpc.bind is required")
	}

	return nil
}
