package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/tgienger/todo/internal/db"
)

// Config is the merged application configuration
type Config struct {
	APIURL     string       `mapstructure:"api_url"`
	DataDir    string       `mapstructure:"data_dir"`
	StorageKey string       `mapstructure:"storage_key"`
	LogLevel   string       `mapstructure:"log_level"`
	Theme      string       `mapstructure:"theme"`
	Server     ServerConfig `mapstructure:"server"`
}

// ServerConfig configures `todo serve`
type ServerConfig struct {
	Addr      string        `mapstructure:"addr"`
	DBPath    string        `mapstructure:"db_path"`
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
	RedisURL  string        `mapstructure:"redis_url"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		APIURL:     "http://localhost:8080/api",
		StorageKey: "todos",
		LogLevel:   "info",
		Theme:      "tokyo-night",
		Server: ServerConfig{
			Addr:     ":8080",
			TokenTTL: 7 * 24 * time.Hour,
			CacheTTL: 5 * time.Minute,
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/todo/config.yaml
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "todo", "config.yaml")
}

// Load reads the config file at path (if any), applies TODO_* environment
// overrides and fills in defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	def := DefaultConfig()

	v := viper.New()
	v.SetDefault("api_url", def.APIURL)
	v.SetDefault("data_dir", def.DataDir)
	v.SetDefault("storage_key", def.StorageKey)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("theme", def.Theme)
	v.SetDefault("server.addr", def.Server.Addr)
	v.SetDefault("server.db_path", def.Server.DBPath)
	v.SetDefault("server.jwt_secret", def.Server.JWTSecret)
	v.SetDefault("server.token_ttl", def.Server.TokenTTL)
	v.SetDefault("server.redis_url", def.Server.RedisURL)
	v.SetDefault("server.cache_ttl", def.Server.CacheTTL)

	v.SetEnvPrefix("TODO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, err
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	if cfg.DataDir == "" {
		dir, err := db.DataDir()
		if err != nil {
			return nil, err
		}
		cfg.DataDir = dir
	}
	if cfg.Server.DBPath == "" {
		cfg.Server.DBPath = filepath.Join(cfg.DataDir, "server.db")
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")

	return cfg, nil
}

// ClientDBPath is the sqlite file holding local todos and the session
func (c *Config) ClientDBPath() string {
	return filepath.Join(c.DataDir, "todo.db")
}

// LogPath is where the TUI writes its log
func (c *Config) LogPath() string {
	return filepath.Join(c.DataDir, "todo.log")
}

// WriteDefault writes the default configuration to path
func WriteDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	def := DefaultConfig()
	// durations as strings so the file stays readable
	doc := map[string]any{
		"api_url":     def.APIURL,
		"storage_key": def.StorageKey,
		"log_level":   def.LogLevel,
		"theme":       def.Theme,
		"server": map[string]any{
			"addr":       def.Server.Addr,
			"jwt_secret": def.Server.JWTSecret,
			"token_ttl":  def.Server.TokenTTL.String(),
			"redis_url":  def.Server.RedisURL,
			"cache_ttl":  def.Server.CacheTTL.String(),
		},
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
