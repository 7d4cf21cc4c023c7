package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	DBPath        string
	HTTPAddr      string
	LogMode       string
	LogHashSalt   string
	CORSOrigins   []string
	OverdueSweep  time.Duration
	ShutdownGrace time.Duration
}

type configFile struct {
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	HTTP struct {
		Addr        string   `yaml:"addr"`
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"http"`
	Log struct {
		Mode     string `yaml:"mode"`
		HashSalt string `yaml:"hash_salt"`
	} `yaml:"log"`
	Overdue struct {
		Sweep string `yaml:"sweep"`
	} `yaml:"overdue"`
}

func Default() Config {
	return Config{
		DBPath:        "library.db",
		HTTPAddr:      ":8080",
		LogMode:       "development",
		CORSOrigins:   []string{"http://localhost:3000"},
		ShutdownGrace: 10 * time.Second,
	}
}

// Load reads the YAML file at path, if there is one, and then applies
// environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config file: %w", err)
		default:
			if err := cfg.applyFile(raw); err != nil {
				return Config{}, err
			}
		}
	}

	cfg.DBPath = envOrDefault("LIBRARY_DB_PATH", cfg.DBPath)
	cfg.HTTPAddr = envOrDefault("LIBRARY_HTTP_ADDR", cfg.HTTPAddr)
	cfg.LogMode = envOrDefault("LIBRARY_LOG_MODE", cfg.LogMode)
	cfg.LogHashSalt = envOrDefault("LIBRARY_LOG_HASH_SALT", cfg.LogHashSalt)
	if v := os.Getenv("LIBRARY_CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitList(v)
	}
	sweep, err := envDuration("LIBRARY_OVERDUE_SWEEP", cfg.OverdueSweep)
	if err != nil {
		return Config{}, err
	}
	cfg.OverdueSweep = sweep

	return cfg, cfg.Validate()
}

func (c *Config) applyFile(raw []byte) error {
	var f configFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if f.Database.Path != "" {
		c.DBPath = f.Database.Path
	}
	if f.HTTP.Addr != "" {
		c.HTTPAddr = f.HTTP.Addr
	}
	if len(f.HTTP.CORSOrigins) > 0 {
		c.CORSOrigins = f.HTTP.CORSOrigins
	}
	if f.Log.Mode != "" {
		c.LogMode = f.Log.Mode
	}
	c.LogHashSalt = f.Log.HashSalt
	if f.Overdue.Sweep != "" {
		d, err := time.ParseDuration(f.Overdue.Sweep)
		if err != nil {
			return fmt.Errorf("parse overdue.sweep: %w", err)
		}
		c.OverdueSweep = d
	}
	return nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DBPath) == "" {
		return errors.New("database path is required")
	}
	if strings.TrimSpace(c.HTTPAddr) == "" {
		return errors.New("http address is required")
	}
	for _, origin := range c.CORSOrigins {
		if !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("cors origin %q must start with http:// or https://", origin)
		}
	}
	if c.OverdueSweep < 0 {
		return fmt.Errorf("overdue sweep interval %s is negative", c.OverdueSweep)
	}
	return nil
}

func envOrDefault(name, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return fallback
}

func envDuration(name string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", name, err)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
