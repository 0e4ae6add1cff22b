package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestViperConfigGetString(t *testing.T) {
	v := viper.New()
	v.Set("name", "test")
	cfg := New(v)

	if got := cfg.GetString("name"); got != "test" {
		t.Errorf("GetString('name') = %q, want %q", got, "test")
	}
}

func TestViperConfigGetInt(t *testing.T) {
	v := viper.New()
	v.Set("port", 8080)
	cfg := New(v)

	if got := cfg.GetInt("port"); got != 8080 {
		t.Errorf("GetInt('port') = %d, want %d", got, 8080)
	}
}

func TestViperConfigGetBool(t *testing.T) {
	v := viper.New()
	v.Set("enabled", true)
	cfg := New(v)

	if got := cfg.GetBool("enabled"); !got {
		t.Error("GetBool('enabled') = false, want true")
	}
}

func TestViperConfigGetDuration(t *testing.T) {
	v := viper.New()
	v.Set("timeout", "5s")
	cfg := New(v)

	want := 5 * time.Second
	if got := cfg.GetDuration("timeout"); got != want {
		t.Errorf("GetDuration('timeout') = %v, want %v", got, want)
	}
}

func TestViperConfigIsSet(t *testing.T) {
	v := viper.New()
	v.Set("exists", true)
	cfg := New(v)

	if !cfg.IsSet("exists") {
		t.Error("IsSet('exists') = false, want true")
	}
	if cfg.IsSet("missing") {
		t.Error("IsSet('missing') = true, want false")
	}
}

func TestViperConfigSub(t *testing.T) {
	v := viper.New()
	v.Set("modules.blog.enabled", true)
	v.Set("modules.blog.interval", 30)
	cfg := New(v)

	sub := cfg.Sub("modules.blog")
	if sub == nil {
		t.Fatal("Sub('modules.blog') = nil")
	}
	if got := sub.GetBool("enabled"); !got {
		t.Error("sub.GetBool('enabled') = false, want true")
	}
	if got := sub.GetInt("interval"); got != 30 {
		t.Errorf("sub.GetInt('interval') = %d, want %d", got, 30)
	}
}

func TestViperConfigSubMissing(t *testing.T) {
	v := viper.New()
	cfg := New(v)

	sub := cfg.Sub("nonexistent")
	if sub == nil {
		t.Fatal("Sub('nonexistent') should return empty Config, not nil")
	}
	// Should return zero values without panic.
	if got := cfg.GetString("anything"); got != "" {
		t.Errorf("empty config GetString() = %q, want empty", got)
	}
	_ = sub
}

func TestViperConfigUnmarshal(t *testing.T) {
	v := viper.New()
	v.Set("host", "localhost")
	v.Set("port", 9090)
	cfg := New(v)

	var target struct {
		Host string `mapstructure:"host"`
		Port int    `mapstructure:"port"`
	}
	if err := cfg.Unmarshal(&target); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if target.Host != "localhost" {
		t.Errorf("Host = %q, want %q", target.Host, "localhost")
	}
	if target.Port != 9090 {
		t.Errorf("Port = %d, want %d", target.Port, 9090)
	}
}

func TestNilViper(t *testing.T) {
	cfg := New(nil)
	// Should not panic and return zero values.
	if got := cfg.GetString("key"); got != "" {
		t.Errorf("nil viper GetString() = %q, want empty", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	v, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	s, err := Decode(v)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if s.Server.Addr != ":8080" {
		t.Errorf("Server.Addr = %q, want %q", s.Server.Addr, ":8080")
	}
	if s.Query.PageSize != 20 || s.Query.MaxPageSize != 100 {
		t.Errorf("Query = %+v, want page size 20, max 100", s.Query)
	}
	if s.Query.Timeout != 5*time.Second {
		t.Errorf("Query.Timeout = %v, want 5s", s.Query.Timeout)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "showcase.yaml")
	content := "server:\n  addr: \"127.0.0.1:9000\"\nquery:\n  page_size: 10\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SHOWCASE_DATABASE_PATH", "/tmp/site.db")

	v, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	s, err := Decode(v)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if s.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("Server.Addr = %q, want file value", s.Server.Addr)
	}
	if s.Query.PageSize != 10 {
		t.Errorf("Query.PageSize = %d, want 10", s.Query.PageSize)
	}
	if s.Database.Path != "/tmp/site.db" {
		t.Errorf("Database.Path = %q, want env override", s.Database.Path)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() of missing explicit file = nil error, want error")
	}
}

func TestDecodeRejectsBadQuerySettings(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("query.page_size", 500)

	if _, err := Decode(v); err == nil {
		t.Error("Decode() with page_size > max_page_size = nil error, want error")
	}
}

func TestAuthSettingsConfigKeepsEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SHOWCASE_AUTH_SECRET", "from-env")
	v, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	s, err := Decode(v)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	cfg := s.Auth.Config()
	if got := cfg.GetString("secret"); got != "from-env" {
		t.Errorf("secret = %q, want from-env", got)
	}
	if got := cfg.GetDuration("token_ttl"); got != 12*time.Hour {
		t.Errorf("token_ttl = %v, want 12h", got)
	}
	if got := cfg.GetString("login_rate"); got != "0.2" {
		t.Errorf("login_rate = %q, want 0.2", got)
	}
}
