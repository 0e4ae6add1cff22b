// Package portfolio is the "portfolio" module: the public project listing
// and its admin endpoints.
package portfolio

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/HerbHall/showcase/internal/query"
	"github.com/HerbHall/showcase/internal/server"
	"github.com/HerbHall/showcase/internal/services"
	"github.com/HerbHall/showcase/pkg/models"
	"github.com/HerbHall/showcase/pkg/plugin"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin       = (*Module)(nil)
	_ plugin.HTTPProvider = (*Module)(nil)
)

// Event topics published on the bus.
const (
	TopicItemCreated = "portfolio.item.created"
	TopicItemUpdated = "portfolio.item.updated"
	TopicItemDeleted = "portfolio.item.deleted"
)

// ItemEvent is the payload of every portfolio topic.
type ItemEvent struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
}

// Module implements the portfolio module.
type Module struct {
	items  services.PortfolioRepository
	bus    plugin.EventBus
	logger *zap.Logger
	opts   []query.Option
}

// New returns an uninitialized portfolio module. opts configure its query
// resolver.
func New(opts ...query.Option) *Module {
	return &Module{opts: opts}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:        "portfolio",
		Version:     "1.0.0",
		Description: "Portfolio projects",
		APIVersion:  plugin.APIVersionCurrent,
	}
}

func (m *Module) Init(ctx context.Context, deps plugin.Dependencies) error {
	m.bus = deps.Bus
	m.logger = deps.Logger

	opts := append([]query.Option{query.WithLogger(deps.Logger)}, m.opts...)
	opts = append(opts, services.PageOptions(deps.Config)...)
	items, err := services.NewSQLitePortfolioRepository(ctx, deps.Store, opts...)
	if err != nil {
		return fmt.Errorf("portfolio: %w", err)
	}
	m.items = items
	return nil
}

func (m *Module) Start(context.Context) error { return nil }
func (m *Module) Stop(context.Context) error  { return nil }

// Routes implements plugin.HTTPProvider.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "", Handler: server.ListHandler(m.resolve)},
		{Method: "POST", Path: "/query", Handler: server.QueryHandler(m.resolve)},
		{Method: "GET", Path: "/{slug}", Handler: m.handleGetItem},

		{Method: "POST", Path: "", Handler: m.handleCreateItem, Admin: true},
		{Method: "PUT", Path: "/{id}", Handler: m.handleUpdateItem, Admin: true},
		{Method: "DELETE", Path: "/{id}", Handler: m.handleDeleteItem, Admin: true},
		{Method: "POST", Path: "/admin/query", Handler: server.QueryHandler(m.resolve), Admin: true},
	}
}

func (m *Module) resolve(ctx context.Context, p query.Params) query.Result[models.PortfolioItem] {
	return m.items.Query(ctx, p)
}

// itemRequest is the JSON body for POST / and PUT /{id}.
type itemRequest struct {
	Slug      string `json:"slug"`
	Title     string `json:"title"`
	Client    string `json:"client"`
	Summary   string `json:"summary"`
	URL       string `json:"url"`
	ImageURL  string `json:"image_url"`
	Featured  bool   `json:"featured"`
	SortOrder int    `json:"sort_order"`
}

func (req itemRequest) apply(it *models.PortfolioItem) {
	it.Slug = req.Slug
	it.Title = req.Title
	it.Client = req.Client
	it.Summary = req.Summary
	it.URL = req.URL
	it.ImageURL = req.ImageURL
	it.Featured = req.Featured
	it.SortOrder = req.SortOrder
}

func (m *Module) handleGetItem(w http.ResponseWriter, r *http.Request) {
	it, err := m.items.GetBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		server.WriteStoreError(w, m.logger, err, r.URL.Path)
		return
	}
	server.WriteJSON(w, http.StatusOK, it)
}

func (m *Module) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := server.DecodeJSON(w, r, &req); err != nil {
		server.BadRequest(w, err.Error(), r.URL.Path)
		return
	}
	var it models.PortfolioItem
	req.apply(&it)
	if err := m.items.Create(r.Context(), &it); err != nil {
		server.WriteStoreError(w, m.logger, err, r.URL.Path)
		return
	}
	m.publish(r.Context(), TopicItemCreated, &it)
	w.Header().Set("Location", "/api/v1/portfolio/"+it.Slug)
	server.WriteJSON(w, http.StatusCreated, it)
}

func (m *Module) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := server.DecodeJSON(w, r, &req); err != nil {
		server.BadRequest(w, err.Error(), r.URL.Path)
		return
	}
	it, err := m.items.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		server.WriteStoreError(w, m.logger, err, r.URL.Path)
		return
	}
	req.apply(it)
	if err := m.items.Update(r.Context(), it); err != nil {
		server.WriteStoreError(w, m.logger, err, r.URL.Path)
		return
	}
	m.publish(r.Context(), TopicItemUpdated, it)
	server.WriteJSON(w, http.StatusOK, it)
}

func (m *Module) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	it, err := m.items.Get(r.Context(), id)
	if err == nil {
		err = m.items.Delete(r.Context(), id)
	}
	if err != nil {
		server.WriteStoreError(w, m.logger, err, r.URL.Path)
		return
	}
	m.publish(r.Context(), TopicItemDeleted, it)
	w.WriteHeader(http.StatusNoContent)
}

func (m *Module) publish(ctx context.Context, topic string, it *models.PortfolioItem) {
	if m.bus == nil {
		return
	}
	m.bus.PublishAsync(ctx, plugin.Event{
		Topic:   topic,
		Source:  "portfolio",
		Payload: ItemEvent{ID: it.ID, Slug: it.Slug},
	})
}
