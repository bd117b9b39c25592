package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix namespaces every override, e.g. RAMZAN_STORE_BACKEND.
const EnvPrefix = "RAMZAN"

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// LoadDotEnv reads a .env file into the process environment. Variables that
// are already set win. A missing file is not an error.
func LoadDotEnv(paths ...string) error {
	err := godotenv.Load(paths...)
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func envKey(key string) string {
	return EnvPrefix + "_" + key
}

// ApplyEnv overrides fields from RAMZAN_* variables.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(envKey(key)); ok && v != "" {
			*dst = v
		}
	}

	str("ADDR", &c.Server.Addr)
	str("STORE_BACKEND", &c.Store.Backend)
	str("DATA_DIR", &c.Store.DataDir)
	str("SQLITE_PATH", &c.Store.SQLitePath)
	str("POSTGRES_URL", &c.Store.PostgresURL)
	str("PRAYER_BASE_URL", &c.Prayer.BaseURL)
	str("PRAYER_CITY", &c.Prayer.City)
	str("PRAYER_COUNTRY", &c.Prayer.Country)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	if v, ok := lookup(envKey("PRAYER_TIMEOUT")); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", envKey("PRAYER_TIMEOUT"), err)
		}
		c.Prayer.Timeout = d
	}
	return nil
}
