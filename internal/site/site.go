// Package site is the "site" module: the site settings such as the site
// title, tagline, contact address and profile links. The accepted keys and
// their rules are in pkg/models.
package site

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/HerbHall/showcase/internal/server"
	"github.com/HerbHall/showcase/internal/services"
	"github.com/HerbHall/showcase/pkg/plugin"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin       = (*Module)(nil)
	_ plugin.HTTPProvider = (*Module)(nil)
)

// Event topics published on the bus.
const (
	TopicSettingUpdated = "site.setting.updated"
	TopicSettingDeleted = "site.setting.deleted"
)

// SettingRequest is the JSON body for PUT /settings/{key}.
type SettingRequest struct {
	Value string `json:"value"`
}

// Module implements the site module.
type Module struct {
	settings services.SettingsRepository
	bus      plugin.EventBus
	logger   *zap.Logger
}

// New returns an uninitialized site module.
func New() *Module {
	return &Module{}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:        "site",
		Version:     "1.0.0",
		Description: "Site settings",
		APIVersion:  plugin.APIVersionCurrent,
	}
}

func (m *Module) Init(ctx context.Context, deps plugin.Dependencies) error {
	m.bus = deps.Bus
	m.logger = deps.Logger
	repo, err := services.NewSQLiteSettingsRepository(ctx, deps.Store)
	if err != nil {
		return err
	}
	m.settings = repo
	return nil
}

func (m *Module) Start(context.Context) error { return nil }
func (m *Module) Stop(context.Context) error  { return nil }

// Routes implements plugin.HTTPProvider.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "/settings", Handler: m.handleListSettings},
		{Method: "GET", Path: "/settings/{key}", Handler: m.handleGetSetting},
		{Method: "PUT", Path: "/settings/{key}", Handler: m.handleSetSetting, Admin: true},
		{Method: "DELETE", Path: "/settings/{key}", Handler: m.handleDeleteSetting, Admin: true},
	}
}

// handleListSettings returns every setting as a key/value object.
func (m *Module) handleListSettings(w http.ResponseWriter, r *http.Request) {
	all, err := m.settings.All(r.Context())
	if err != nil {
		m.logger.Error("failed to list settings", zap.Error(err))
		server.InternalError(w, "failed to list settings", r.URL.Path)
		return
	}
	server.WriteJSON(w, http.StatusOK, all)
}

func (m *Module) handleGetSetting(w http.ResponseWriter, r *http.Request) {
	s, err := m.settings.Get(r.Context(), r.PathValue("key"))
	if err != nil {
		server.WriteStoreError(w, m.logger, err, r.URL.Path)
		return
	}
	server.WriteJSON(w, http.StatusOK, s)
}

// handleSetSetting creates or replaces a setting. Unknown keys and invalid
// values are 400s.
func (m *Module) handleSetSetting(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	var req SettingRequest
	if err := server.DecodeJSON(w, r, &req); err != nil {
		server.BadRequest(w, err.Error(), r.URL.Path)
		return
	}

	s, err := m.settings.Set(r.Context(), key, req.Value)
	if err != nil {
		server.WriteStoreError(w, m.logger, err, r.URL.Path)
		return
	}
	m.publish(r.Context(), TopicSettingUpdated, key)
	server.WriteJSON(w, http.StatusOK, s)
}

func (m *Module) handleDeleteSetting(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if err := m.settings.Delete(r.Context(), key); err != nil {
		server.WriteStoreError(w, m.logger, err, r.URL.Path)
		return
	}
	m.publish(r.Context(), TopicSettingDeleted, key)
	w.WriteHeader(http.StatusNoContent)
}

func (m *Module) publish(ctx context.Context, topic, key string) {
	if m.bus == nil {
		return
	}
	m.bus.PublishAsync(ctx, plugin.Event{Topic: topic, Source: "site", Payload: map[string]string{"key": key}})
}
