package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StoreFile     = "file"
	StoreSQLite   = "sqlite"
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

type Config struct {
	Version string       `yaml:"version" json:"version"`
	Server  ServerConfig `yaml:"server" json:"server"`
	Store   StoreConfig  `yaml:"store" json:"store"`
	Prayer  PrayerConfig `yaml:"prayer" json:"prayer"`
	Log     LogConfig    `yaml:"log" json:"log"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

type StoreConfig struct {
	Backend string `yaml:"backend" json:"backend"`
	DataDir string `yaml:"data_dir" json:"data_dir"`
	// SQLitePath defaults to <data_dir>/ramzan.db.
	SQLitePath  string `yaml:"sqlite_path" json:"sqlite_path"`
	PostgresURL string `yaml:"postgres_url" json:"-"`
}

type PrayerConfig struct {
	BaseURL string        `yaml:"base_url" json:"base_url"`
	City    string        `yaml:"city" json:"city"`
	Country string        `yaml:"country" json:"country"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

func (s *ServerConfig) ApplyDefaults() {
	if s.Addr == "" {
		s.Addr = ":8080"
	}
}

func (s *StoreConfig) ApplyDefaults() {
	s.Backend = strings.ToLower(strings.TrimSpace(s.Backend))
	if s.Backend == "" {
		s.Backend = StoreFile
	}
	if s.DataDir == "" {
		s.DataDir = "./data"
	}
	if s.Backend == StoreSQLite && s.SQLitePath == "" {
		s.SQLitePath = s.DataDir + "/ramzan.db"
	}
}

func (p *PrayerConfig) ApplyDefaults() {
	if p.BaseURL == "" {
		p.BaseURL = "https://api.aladhan.com"
	}
	if p.City == "" {
		p.City = "Karachi"
	}
	if p.Country == "" {
		p.Country = "Pakistan"
	}
	if p.Timeout <= 0 {
		p.Timeout = 10 * time.Second
	}
}

func (l *LogConfig) ApplyDefaults() {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func (c *Config) ApplyDefaults() {
	c.Server.ApplyDefaults()
	c.Store.ApplyDefaults()
	c.Prayer.ApplyDefaults()
	c.Log.ApplyDefaults()
}

func (c *Config) Validate() error {
	switch c.Store.Backend {
	case StoreFile, StoreSQLite, StoreMemory:
	case StorePostgres:
		if strings.TrimSpace(c.Store.PostgresURL) == "" {
			return errors.New("config: store.postgres_url is required for the postgres backend")
		}
	default:
		return fmt.Errorf("config: unknown store backend %q", c.Store.Backend)
	}
	return nil
}

// Default is the configuration used when no file is given.
func Default() *Config {
	c := &Config{}
	c.ApplyDefaults()
	return c
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Config
	if err := yaml.Unmarshal(b, &r); err != nil {
		return nil, err
	}
	r.ApplyDefaults()
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Resolve loads the optional file, then layers environment overrides on top.
// A missing file at a non-empty path is an error; an empty path means
// defaults.
func Resolve(path string) (*Config, error) {
	var (
		c   *Config
		err error
	)
	if strings.TrimSpace(path) == "" {
		c = Default()
	} else if c, err = Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: %s not found", path)
		}
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := c.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	c.ApplyDefaults()
	return c, c.Validate()
}
