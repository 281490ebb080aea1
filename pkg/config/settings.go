package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read into Settings, e.g.
// FAULTMOCK_PORT or FAULTMOCK_REDIS_ADDR.
const EnvPrefix = "FAULTMOCK"

// Settings controls how the server runs.
type Settings struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port" validate:"gte=0,lte=65535"`

	// Routes are files, directories or globs holding route definitions.
	Routes []string `mapstructure:"routes" validate:"required,min=1,dive,required"`

	// DataDir holds data blobs referenced by dataFile. DataPattern selects
	// files below it.
	DataDir     string `mapstructure:"data-dir"`
	DataPattern string `mapstructure:"data-pattern"`

	Redis RedisSettings `mapstructure:"redis"`
	Log   LogSettings   `mapstructure:"log"`

	ReadHeaderTimeout time.Duration `mapstructure:"read-header-timeout" validate:"gte=0"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown-timeout" validate:"gte=0"`

	// MaxConnections caps accepted connections. Zero means unlimited.
	MaxConnections int `mapstructure:"max-connections" validate:"gte=0"`
}

// RedisSettings configures the optional Redis data source.
type RedisSettings struct {
	Addr     string `mapstructure:"addr" validate:"omitempty,hostname_port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
	Prefix   string `mapstructure:"prefix"`
}

// LogSettings configures logging.
type LogSettings struct {
	Level  string `mapstructure:"level" validate:"omitempty,oneof=debug info warn warning error DEBUG INFO WARN WARNING ERROR"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=text json TEXT JSON"`

	// File, when set, receives a JSON copy of every log record at or above
	// FileLevel.
	File      string `mapstructure:"file"`
	FileLevel string `mapstructure:"file-level" validate:"omitempty,oneof=debug info warn warning error DEBUG INFO WARN WARNING ERROR"`
}

// Addr returns the listen address.
func (s *Settings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Default settings.
const (
	DefaultPort              = 8080
	DefaultReadHeaderTimeout = 10 * time.Second
	DefaultShutdownTimeout   = 10 * time.Second
	DefaultRedisPrefix       = "faultmock:data:"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("host", "")
	v.SetDefault("port", DefaultPort)
	v.SetDefault("routes", []string{})
	v.SetDefault("data-dir", "")
	v.SetDefault("data-pattern", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", DefaultRedisPrefix)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("log.file-level", "debug")
	v.SetDefault("read-header-timeout", DefaultReadHeaderTimeout)
	v.SetDefault("shutdown-timeout", DefaultShutdownTimeout)
	v.SetDefault("max-connections", 0)
}

// flagKeys maps command-line flag names to settings keys where they differ.
var flagKeys = map[string]string{
	"redis-addr":     "redis.addr",
	"redis-password": "redis.password",
	"redis-db":       "redis.db",
	"redis-prefix":   "redis.prefix",
	"log-level":      "log.level",
	"log-format":     "log.format",
	"log-file":       "log.file",
	"log-file-level": "log.file-level",
}

// LoadSettings builds Settings from, lowest precedence first: built-in
// defaults, the settings file (if file is non-empty), FAULTMOCK_*
// environment variables and flags that were set explicitly.
func LoadSettings(file string, flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	if file != "" {
		if _, err := os.Stat(file); err != nil {
			return nil, statError(file, err)
		}
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading settings %s: %w", file, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decoding settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		key := f.Name
		if mapped, ok := flagKeys[key]; ok {
			key = mapped
		}
		if !isKnownKey(key) {
			return
		}
		err = v.BindPFlag(key, f)
	})
	return err
}

func isKnownKey(key string) bool {
	switch key {
	case "host", "port", "routes", "data-dir", "data-pattern",
		"read-header-timeout", "shutdown-timeout", "max-connections":
		return true
	}
	return strings.HasPrefix(key, "redis.") || strings.HasPrefix(key, "log.")
}

var settingsValidator = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the struct tags on s. The returned error wraps
// ErrInvalidSettings.
func (s *Settings) Validate() error {
	err := settingsValidator.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", e.Namespace(), e.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidSettings, strings.Join(msgs, "; "))
}
