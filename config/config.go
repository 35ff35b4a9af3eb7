// Package config loads the provider configuration from YAML files and
// command line flags.
package config

import (
	"errors"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	provider "github.com/goliatone/go-auth-provider"
)

// Drivers understood by the CLI
const (
	DriverBun      = "bun"
	DriverPostgres = "postgres"
)

// Config is the process configuration
type Config struct {
	Driver string     `koanf:"driver"`
	DSN    string     `koanf:"dsn"`
	UIDs   []string   `koanf:"uids"`
	Hash   HashConfig `koanf:"hash"`
	Log    LogConfig  `koanf:"log"`
}

// HashConfig selects the password hasher
type HashConfig struct {
	Algorithm string `koanf:"algorithm"`
	Cost      int    `koanf:"cost"`
}

// LogConfig configures the slog handler
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// Defaults returns the configuration used when nothing overrides it
func Defaults() Config {
	return Config{
		Driver: DriverBun,
		DSN:    "file:authprovider.db?cache=shared",
		UIDs:   []string{provider.FieldEmail},
		Hash: HashConfig{
			Algorithm: provider.HasherBcrypt,
			Cost:      12,
		},
		Log: LogConfig{
			Format: "text",
			Level:  "info",
		},
	}
}

// RegisterFlags adds the configuration flags to fs. Flag names use
// dashes, nested keys map dashes to dots (log-format is log.format).
func RegisterFlags(fs *pflag.FlagSet) {
	def := Defaults()
	fs.String("driver", def.Driver, "user store driver (bun, postgres)")
	fs.String("dsn", def.DSN, "user store connection string")
	fs.StringSlice("uids", def.UIDs, "fields used to look users up on login")
	fs.String("hash-algorithm", def.Hash.Algorithm, "password hashing algorithm (bcrypt, argon2id)")
	fs.Int("hash-cost", def.Hash.Cost, "bcrypt cost")
	fs.String("log-format", def.Log.Format, "log format (text, json)")
	fs.String("log-level", def.Log.Level, "log level (debug, info, warn, error)")
}

// Load reads path (optional) then applies flags from fs (optional).
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
		}
	}

	if fs != nil {
		flags := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, any) {
			return strings.ReplaceAll(f.Name, "-", "."), posflag.FlagVal(fs, f)
		})
		if err := k.Load(flags, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	cfg := Defaults()
	// slices are merged by index when decoding, start from an empty one
	cfg.UIDs = nil
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("operation", "unmarshal").Wrap(err)
	}

	if !k.Exists("uids") {
		cfg.UIDs = Defaults().UIDs
	}

	if err := cfg.Validate(); err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}

	return &cfg, nil
}

// Validate checks the configuration
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Driver, validation.Required, validation.In(DriverBun, DriverPostgres)),
		validation.Field(&c.DSN, validation.Required),
		validation.Field(&c.UIDs, validation.Required),
		validation.Field(&c.Hash),
		validation.Field(&c.Log),
	)
}

// Validate checks the hasher settings
func (h HashConfig) Validate() error {
	return validation.ValidateStruct(&h,
		validation.Field(&h.Algorithm, validation.In(provider.HasherBcrypt, provider.HasherArgon2id)),
		validation.Field(&h.Cost, validation.Min(0), validation.Max(31)),
	)
}

// Validate checks the log settings
func (l LogConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Format, validation.In("text", "json")),
		validation.Field(&l.Level, validation.By(func(value any) error {
			_, err := l.SlogLevel()
			return err
		})),
	)
}

// SlogLevel parses the configured level
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if l.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return level, errors.New("unknown log level " + l.Level)
	}
	return level, nil
}

// ProviderConfig builds the provider config for c. The model resolver
// is bound by the driver factory.
func (c Config) ProviderConfig() provider.ProviderConfig {
	return provider.ProviderConfig{
		Driver: c.Driver,
		UIDs:   append([]string(nil), c.UIDs...),
	}
}
