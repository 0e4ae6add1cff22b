// Package plugin defines the contracts shared by showcase modules: the
// module lifecycle, HTTP routes, persistence and the in-process event bus.
package plugin

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// API versions a module may declare. The registry rejects anything outside
// [APIVersionMin, APIVersionCurrent].
const (
	APIVersionMin     = 1
	APIVersionCurrent = 1
)

// PluginInfo describes a module to the registry.
type PluginInfo struct {
	Name         string
	Version      string
	Description  string
	Dependencies []string // Names of modules that must initialize first.
	Required     bool     // A required module failing validation or init aborts startup.
	APIVersion   int
}

// Plugin is implemented by every module mounted on the server.
type Plugin interface {
	Info() PluginInfo
	Init(ctx context.Context, deps Dependencies) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Dependencies are the shared services handed to a module during Init.
type Dependencies struct {
	Config Config
	Store  Store
	Bus    EventBus
	Logger *zap.Logger
}

// Config is the read-only configuration view a module receives.
type Config interface {
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	GetDuration(key string) time.Duration
	IsSet(key string) bool
	Sub(key string) Config
	Unmarshal(target any) error
}

// Route represents an HTTP route exposed by a module. Admin routes are
// wrapped in the server's admin gate before being mounted.
type Route struct {
	Method  string
	Path    string
	Handler http.HandlerFunc
	Admin   bool
}

// Migration is a single versioned schema change owned by a module.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// Store is the persistence handle shared between modules.
type Store interface {
	DB() *sql.DB
	Tx(ctx context.Context, fn func(tx *sql.Tx) error) error
	Migrate(ctx context.Context, module string, migrations []Migration) error
}

// Event is a message published on the bus.
type Event struct {
	Topic     string    `json:"topic"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// EventHandler receives published events.
type EventHandler func(ctx context.Context, event Event)

// EventBus delivers events between modules.
type EventBus interface {
	Publish(ctx context.Context, event Event) error
	PublishAsync(ctx context.Context, event Event)
	Subscribe(topic string, handler EventHandler) (unsubscribe func())
	SubscribeAll(handler EventHandler) (unsubscribe func())
}
