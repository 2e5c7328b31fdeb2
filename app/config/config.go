// Package config loads the server settings from defaults, an optional YAML
// file, the environment and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// ErrMissingSetting is returned when a required setting has no value.
var ErrMissingSetting = errors.New("missing required setting")

// ConfigFlag names the flag holding the optional YAML file path.
const ConfigFlag = "config"

// Config holds the process-wide settings.
type Config struct {
	Addr        string        `koanf:"addr"`
	DatabaseURL string        `koanf:"database_url"`
	SecretKey   string        `koanf:"secret_key"`
	Log         LogConfig     `koanf:"log"`
	Session     SessionConfig `koanf:"session"`
	Hash        HashConfig    `koanf:"hash"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type SessionConfig struct {
	TTL          time.Duration `koanf:"ttl"`
	SecureCookie bool          `koanf:"secure_cookie"`
}

// HashConfig tunes password hashing. Lower iterations only make sense in tests.
type HashConfig struct {
	Iterations int `koanf:"iterations"`
	SaltLength int `koanf:"salt_length"`
}

// envKeys maps environment variables onto configuration keys.
var envKeys = map[string]string{
	"SECRET_KEY":           "secret_key",
	"DATABASE_URL":         "database_url",
	"NEWSROOM_ADDR":        "addr",
	"NEWSROOM_LOG_LEVEL":   "log.level",
	"NEWSROOM_LOG_FORMAT":  "log.format",
	"NEWSROOM_SESSION_TTL": "session.ttl",
}

// flagKeys maps flag names onto configuration keys.
var flagKeys = map[string]string{
	"addr":             "addr",
	"database-url":     "database_url",
	"secret-key":       "secret_key",
	"log-level":        "log.level",
	"log-format":       "log.format",
	"session-ttl":      "session.ttl",
	"secure-cookie":    "session.secure_cookie",
	"hash-iterations":  "hash.iterations",
	"hash-salt-length": "hash.salt_length",
}

// RegisterFlags adds the configuration flags and their defaults to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(ConfigFlag, "", "path to a YAML configuration file")
	fs.String("addr", ":8080", "HTTP listen address")
	fs.String("database-url", "", "store location: badger:///dir, a directory, memory:// or postgres://...")
	fs.String("secret-key", "", "key used to sign session tokens")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.String("log-format", "json", "log format (json, console)")
	fs.Duration("session-ttl", 24*time.Hour, "lifetime of a login session")
	fs.Bool("secure-cookie", false, "mark the session cookie Secure")
	fs.Int("hash-iterations", 600000, "PBKDF2 iterations for new password hashes")
	fs.Int("hash-salt-length", 16, "salt length for new password hashes")
}

// Load builds the configuration from fs, which must have been set up with
// RegisterFlags and parsed, and validates it.
func Load(fs *pflag.FlagSet) (*Config, error) {
	cfg, err := Read(fs)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read is Load without validation, for commands that only touch the store.
func Read(fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	path, err := fs.GetString(ConfigFlag)
	if err != nil {
		return nil, oops.Code("CONFIG_FLAGS_INVALID").Wrap(err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_FILE_INVALID").With("path", path).Wrap(err)
		}
	}

	err = k.Load(env.ProviderWithValue("", ".", func(name, value string) (string, interface{}) {
		key, ok := envKeys[name]
		if !ok || value == "" {
			return "", nil
		}
		return key, value
	}), nil)
	if err != nil {
		return nil, oops.Code("CONFIG_ENV_INVALID").Wrap(err)
	}

	// Unchanged flags only fill keys no earlier layer set.
	err = k.Load(posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, interface{}) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return "", nil
		}
		return key, posflag.FlagVal(fs, f)
	}), nil)
	if err != nil {
		return nil, oops.Code("CONFIG_FLAGS_INVALID").Wrap(err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_DECODE_FAILED").Wrap(err)
	}
	return &cfg, nil
}

// Validate reports the first required setting that is empty.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.SecretKey) == "" {
		return oops.Code("CONFIG_MISSING").With("setting", "secret_key").
			Hint("set SECRET_KEY or --secret-key").Wrap(ErrMissingSetting)
	}
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return oops.Code("CONFIG_MISSING").With("setting", "database_url").
			Hint("set DATABASE_URL or --database-url").Wrap(ErrMissingSetting)
	}
	if c.Session.TTL <= 0 {
		return oops.Code("CONFIG_INVALID").With("setting", "session.ttl").
			Errorf("session ttl must be positive, got %s", c.Session.TTL)
	}
	return nil
}
