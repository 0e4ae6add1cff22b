// Package config loads showcase configuration with Viper and adapts it to
// the plugin.Config interface handed to modules.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/HerbHall/showcase/pkg/plugin"
)

// EnvPrefix prefixes environment overrides: SHOWCASE_SERVER_ADDR sets
// server.addr.
const EnvPrefix = "SHOWCASE"

// Settings is the typed view of the core configuration keys.
type Settings struct {
	Server   ServerSettings   `mapstructure:"server"`
	Database DatabaseSettings `mapstructure:"database"`
	Log      LogSettings      `mapstructure:"log"`
	Auth     AuthSettings     `mapstructure:"auth"`
	Query    QuerySettings    `mapstructure:"query"`
}

type ServerSettings struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseSettings struct {
	Path string `mapstructure:"path"`
}

type LogSettings struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// AuthSettings configure admin sessions. An empty Secret makes the server
// generate a random one at startup, which signs every session out on
// restart.
type AuthSettings struct {
	Secret       string        `mapstructure:"secret"`
	TokenTTL     time.Duration `mapstructure:"token_ttl"`
	CookieSecure bool          `mapstructure:"cookie_secure"`
	LoginRate    float64       `mapstructure:"login_rate"`
	LoginBurst   int           `mapstructure:"login_burst"`
}

// QuerySettings tune every table query resolver.
type QuerySettings struct {
	PageSize    int           `mapstructure:"page_size"`
	MaxPageSize int           `mapstructure:"max_page_size"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// SetDefaults registers the default for every core key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("database.path", "showcase.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.token_ttl", 12*time.Hour)
	v.SetDefault("auth.cookie_secure", true)
	v.SetDefault("auth.login_rate", 0.2)
	v.SetDefault("auth.login_burst", 5)
	v.SetDefault("query.page_size", 20)
	v.SetDefault("query.max_page_size", 100)
	v.SetDefault("query.timeout", 5*time.Second)
}

// Load reads configuration from path, or from showcase.yaml in the working
// directory or /etc/showcase when path is empty. A missing default file is
// not an error; a missing explicit path is.
func Load(path string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("showcase")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/showcase")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// Decode unmarshals the core keys into Settings and checks them.
func Decode(v *viper.Viper) (*Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks ranges that would otherwise fail later at startup.
func (s *Settings) Validate() error {
	switch {
	case s.Server.Addr == "":
		return errors.New("config: server.addr is required")
	case s.Database.Path == "":
		return errors.New("config: database.path is required")
	case s.Query.MaxPageSize <= 0:
		return fmt.Errorf("config: query.max_page_size must be positive, got %d", s.Query.MaxPageSize)
	case s.Query.PageSize <= 0 || s.Query.PageSize > s.Query.MaxPageSize:
		return fmt.Errorf("config: query.page_size must be in 1..%d, got %d", s.Query.MaxPageSize, s.Query.PageSize)
	case s.Query.Timeout <= 0:
		return errors.New("config: query.timeout must be positive")
	case s.Auth.TokenTTL <= 0:
		return errors.New("config: auth.token_ttl must be positive")
	case s.Auth.LoginRate <= 0 || s.Auth.LoginBurst <= 0:
		return errors.New("config: auth.login_rate and auth.login_burst must be positive")
	}
	return nil
}

// Config returns the auth settings as the auth module's config. Sub("auth")
// would drop environment overrides.
func (a AuthSettings) Config() *ViperConfig {
	v := viper.New()
	v.Set("secret", a.Secret)
	v.Set("token_ttl", a.TokenTTL)
	v.Set("cookie_secure", a.CookieSecure)
	v.Set("login_rate", a.LoginRate)
	v.Set("login_burst", a.LoginBurst)
	return New(v)
}

// Compile-time interface guard.
var _ plugin.Config = (*ViperConfig)(nil)

// ViperConfig implements plugin.Config. A nil *viper.Viper behaves as an
// empty configuration.
type ViperConfig struct {
	v *viper.Viper
}

// New wraps v.
func New(v *viper.Viper) *ViperConfig {
	if v == nil {
		v = viper.New()
	}
	return &ViperConfig{v: v}
}

func (c *ViperConfig) GetString(key string) string          { return c.v.GetString(key) }
func (c *ViperConfig) GetInt(key string) int                { return c.v.GetInt(key) }
func (c *ViperConfig) GetBool(key string) bool              { return c.v.GetBool(key) }
func (c *ViperConfig) GetDuration(key string) time.Duration { return c.v.GetDuration(key) }
func (c *ViperConfig) IsSet(key string) bool                { return c.v.IsSet(key) }

// Sub returns the subtree at key, or an empty Config when it is absent.
func (c *ViperConfig) Sub(key string) plugin.Config {
	return New(c.v.Sub(key))
}

// Unmarshal decodes the whole subtree into target using mapstructure tags.
func (c *ViperConfig) Unmarshal(target any) error {
	return c.v.Unmarshal(target)
}
