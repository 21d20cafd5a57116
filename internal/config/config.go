package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"lrcview/pkg/lrclib"
)

const (
	DefaultSocketPath    = "/tmp/lrcview.sock"
	DefaultCheckInterval = 5 * time.Second
	DefaultLeadTime      = 100 * time.Millisecond
	DefaultCacheTTL      = 10 * time.Minute
	DefaultServerAddr    = ":8080"

	EnvAIKey         = "LRCVIEW_AI_API_KEY"
	EnvRedisPassword = "LRCVIEW_REDIS_PASSWORD"
)

// TomlConfig mirrors config.toml. Durations are strings such as "5s".
type TomlConfig struct {
	App struct {
		SocketPath    string `toml:"socket_path"`
		StateFile     string `toml:"state_file"`
		CheckInterval string `toml:"check_interval"`
		LeadTime      string `toml:"lead_time"`
		CacheDir      string `toml:"cache_dir"`
		LogLevel      string `toml:"log_level"`
	} `toml:"app"`

	Catalog struct {
		BaseURLs   []string `toml:"base_urls"`
		UserAgent  string   `toml:"user_agent"`
		Timeout    string   `toml:"timeout"`
		MaxRetries *int     `toml:"max_retries"`
		CacheTTL   string   `toml:"cache_ttl"`
	} `toml:"catalog"`

	AI struct {
		ModuleName string `toml:"module_name"`
		Model      string `toml:"model"`
		APIKey     string `toml:"api_key"`
		BaseURL    string `toml:"base_url"`
	} `toml:"ai"`

	Redis struct {
		Enabled  bool   `toml:"enabled"`
		Addr     string `toml:"addr"`
		Password string `toml:"password"`
		DB       int    `toml:"db"`
	} `toml:"redis"`

	Server struct {
		Addr string `toml:"addr"`
		Mode string `toml:"mode"`
	} `toml:"server"`

	I3Block struct {
		Enabled bool `toml:"enabled"`
		Signal  int  `toml:"signal"`
	} `toml:"i3block"`
}

type AppConfig struct {
	SocketPath    string
	StateFile     string
	CheckInterval time.Duration
	LeadTime      time.Duration
	CacheDir      string
	LogLevel      string
}

type CatalogConfig struct {
	BaseURLs   []string
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
	CacheTTL   time.Duration
}

type AIConfig struct {
	ModuleName string
	Model      string
	APIKey     string
	BaseURL    string
}

// Enabled reports whether an AI key is configured.
func (c AIConfig) Enabled() bool {
	return c.APIKey != ""
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

type ServerConfig struct {
	Addr string
	Mode string
}

type I3BlockConfig struct {
	Enabled bool
	Signal  int
}

// Config is the resolved configuration.
type Config struct {
	App     AppConfig
	Catalog CatalogConfig
	AI      AIConfig
	Redis   RedisConfig
	Server  ServerConfig
	I3Block I3BlockConfig

	// Path is the file the config was read from, empty when defaults were used.
	Path string
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		App: AppConfig{
			SocketPath:    DefaultSocketPath,
			CheckInterval: DefaultCheckInterval,
			LeadTime:      DefaultLeadTime,
			CacheDir:      defaultCacheDir(),
			LogLevel:      "info",
		},
		Catalog: CatalogConfig{
			BaseURLs:   []string{lrclib.DefaultBaseURL},
			UserAgent:  lrclib.DefaultUserAgent,
			Timeout:    5 * time.Second,
			MaxRetries: 3,
			CacheTTL:   DefaultCacheTTL,
		},
		AI: AIConfig{
			ModuleName: "gemini",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Server: ServerConfig{
			Addr: DefaultServerAddr,
			Mode: "release",
		},
		I3Block: I3BlockConfig{
			Signal: 11,
		},
	}
}

func defaultCacheDir() string {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, "lrcview")
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "lrcview_cache"
	}
	return filepath.Join(homeDir, ".cache", "lrcview")
}

// DefaultPath returns $XDG_CONFIG_HOME/lrcview/config.toml or the ~/.config
// equivalent.
func DefaultPath() string {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "lrcview", "config.toml")
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(homeDir, ".config", "lrcview", "config.toml")
}

// Load reads path (DefaultPath when empty) over the defaults, then applies
// secrets from the environment and an optional .env file. A missing file is
// not an error; a malformed one is.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := Default()

	var tc TomlConfig
	_, err := toml.DecodeFile(path, &tc)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Debug().Str("path", path).Msg("Config file not found, using defaults")
	case err != nil:
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	default:
		cfg.Path = path
		if err := cfg.apply(&tc); err != nil {
			return nil, fmt.Errorf("invalid config %s: %w", path, err)
		}
	}

	// .env is optional; real environment variables win over it
	_ = godotenv.Load()
	if key := os.Getenv(EnvAIKey); key != "" {
		cfg.AI.APIKey = key
	}
	if pw := os.Getenv(EnvRedisPassword); pw != "" {
		cfg.Redis.Password = pw
	}

	return cfg, nil
}

func (c *Config) apply(tc *TomlConfig) error {
	if tc.App.SocketPath != "" {
		c.App.SocketPath = tc.App.SocketPath
	}
	if tc.App.StateFile != "" {
		c.App.StateFile = tc.App.StateFile
	}
	if err := setPositiveDuration(&c.App.CheckInterval, tc.App.CheckInterval, "app.check_interval"); err != nil {
		return err
	}
	if err := setDuration(&c.App.LeadTime, tc.App.LeadTime, "app.lead_time"); err != nil {
		return err
	}
	if tc.App.CacheDir != "" {
		c.App.CacheDir = tc.App.CacheDir
	}
	if tc.App.LogLevel != "" {
		c.App.LogLevel = tc.App.LogLevel
	}

	if len(tc.Catalog.BaseURLs) > 0 {
		c.Catalog.BaseURLs = tc.Catalog.BaseURLs
	}
	if tc.Catalog.UserAgent != "" {
		c.Catalog.UserAgent = tc.Catalog.UserAgent
	}
	if err := setDuration(&c.Catalog.Timeout, tc.Catalog.Timeout, "catalog.timeout"); err != nil {
		return err
	}
	if tc.Catalog.MaxRetries != nil {
		if *tc.Catalog.MaxRetries < 0 {
			return fmt.Errorf("catalog.max_retries must not be negative")
		}
		c.Catalog.MaxRetries = *tc.Catalog.MaxRetries
	}
	if err := setPositiveDuration(&c.Catalog.CacheTTL, tc.Catalog.CacheTTL, "catalog.cache_ttl"); err != nil {
		return err
	}

	if tc.AI.ModuleName != "" {
		c.AI.ModuleName = tc.AI.ModuleName
	}
	if tc.AI.Model != "" {
		c.AI.Model = tc.AI.Model
	}
	if tc.AI.APIKey != "" {
		c.AI.APIKey = tc.AI.APIKey
	}
	if tc.AI.BaseURL != "" {
		c.AI.BaseURL = tc.AI.BaseURL
	}

	c.Redis.Enabled = tc.Redis.Enabled
	if tc.Redis.Addr != "" {
		c.Redis.Addr = tc.Redis.Addr
	}
	if tc.Redis.Password != "" {
		c.Redis.Password = tc.Redis.Password
	}
	if tc.Redis.DB != 0 {
		c.Redis.DB = tc.Redis.DB
	}

	if tc.Server.Addr != "" {
		c.Server.Addr = tc.Server.Addr
	}
	if tc.Server.Mode != "" {
		c.Server.Mode = tc.Server.Mode
	}

	c.I3Block.Enabled = tc.I3Block.Enabled
	if tc.I3Block.Signal != 0 {
		c.I3Block.Signal = tc.I3Block.Signal
	}
	return nil
}

func setDuration(dst *time.Duration, value, field string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if d < 0 {
		return fmt.Errorf("%s must not be negative", field)
	}
	*dst = d
	return nil
}

// setPositiveDuration is setDuration for values where zero is meaningless.
func setPositiveDuration(dst *time.Duration, value, field string) error {
	if err := setDuration(dst, value, field); err != nil {
		return err
	}
	if value != "" && *dst == 0 {
		return fmt.Errorf("%s must be positive", field)
	}
	return nil
}
