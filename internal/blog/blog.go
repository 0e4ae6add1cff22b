// Package blog is the "blog" module: the public post listing and the
// admin endpoints that write posts.
package blog

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/HerbHall/showcase/internal/query"
	"github.com/HerbHall/showcase/internal/services"
	"github.com/HerbHall/showcase/pkg/plugin"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin        = (*Module)(nil)
	_ plugin.HTTPProvider  = (*Module)(nil)
	_ plugin.HealthChecker = (*Module)(nil)
)

// Event topics published on the bus.
const (
	TopicPostCreated = "blog.post.created"
	TopicPostUpdated = "blog.post.updated"
	TopicPostDeleted = "blog.post.deleted"
)

// PostEvent is the payload of every blog topic.
type PostEvent struct {
	ID     string `json:"id"`
	Slug   string `json:"slug"`
	Status string `json:"status"`
}

// Module implements the blog module.
type Module struct {
	posts  services.PostRepository
	bus    plugin.EventBus
	logger *zap.Logger
	opts   []query.Option
}

// New returns an uninitialized blog module. opts configure its query
// resolvers; module config keys page_size and max_page_size override them.
func New(opts ...query.Option) *Module {
	return &Module{opts: opts}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:        "blog",
		Version:     "1.0.0",
		Description: "Blog posts",
		APIVersion:  plugin.APIVersionCurrent,
	}
}

func (m *Module) Init(ctx context.Context, deps plugin.Dependencies) error {
	m.bus = deps.Bus
	m.logger = deps.Logger

	opts := append([]query.Option{query.WithLogger(deps.Logger)}, m.opts...)
	opts = append(opts, services.PageOptions(deps.Config)...)

	posts, err := services.NewSQLitePostRepository(ctx, deps.Store, opts...)
	if err != nil {
		return fmt.Errorf("blog: %w", err)
	}
	m.posts = posts
	return nil
}

func (m *Module) Start(context.Context) error { return nil }
func (m *Module) Stop(context.Context) error  { return nil }

// Health reports how many posts are published.
func (m *Module) Health(ctx context.Context) plugin.HealthStatus {
	res := m.posts.QueryPublished(ctx, query.Params{Limit: query.Int(1)})
	if res.Error != nil {
		return plugin.HealthStatus{Status: "unhealthy", Message: res.Error.Message}
	}
	return plugin.HealthStatus{
		Status:  "healthy",
		Details: map[string]string{"published": fmt.Sprint(res.Data.Total)},
	}
}

func (m *Module) publish(ctx context.Context, topic string, e PostEvent) {
	if m.bus == nil {
		return
	}
	m.bus.PublishAsync(ctx, plugin.Event{Topic: topic, Source: "blog", Payload: e})
}
