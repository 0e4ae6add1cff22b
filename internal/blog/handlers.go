package blog

import (
	"context"
	"net/http"
	"time"

	"github.com/HerbHall/showcase/internal/auth"
	"github.com/HerbHall/showcase/internal/query"
	"github.com/HerbHall/showcase/internal/server"
	"github.com/HerbHall/showcase/internal/services"
	"github.com/HerbHall/showcase/pkg/models"
	"github.com/HerbHall/showcase/pkg/plugin"
)

// Routes implements plugin.HTTPProvider. The public listing only sees
// published posts; /admin/query sees every status.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "", Handler: server.ListHandler(m.queryPublished)},
		{Method: "POST", Path: "/query", Handler: server.QueryHandler(m.queryPublished)},
		{Method: "GET", Path: "/{slug}", Handler: m.handleGetPost},

		{Method: "POST", Path: "", Handler: m.handleCreatePost, Admin: true},
		{Method: "PUT", Path: "/{id}", Handler: m.handleUpdatePost, Admin: true},
		{Method: "DELETE", Path: "/{id}", Handler: m.handleDeletePost, Admin: true},
		{Method: "POST", Path: "/admin/query", Handler: server.QueryHandler(m.queryAll), Admin: true},
		{Method: "GET", Path: "/admin/{id}", Handler: m.handleAdminGetPost, Admin: true},
	}
}

func (m *Module) queryPublished(ctx context.Context, p query.Params) query.Result[models.Post] {
	return m.posts.QueryPublished(ctx, p)
}

func (m *Module) queryAll(ctx context.Context, p query.Params) query.Result[models.Post] {
	return m.posts.Query(ctx, p)
}

// postRequest is the JSON body for POST / and PUT /{id}.
type postRequest struct {
	Slug        string            `json:"slug"`
	Title       string            `json:"title"`
	Excerpt     string            `json:"excerpt"`
	Body        string            `json:"body"`
	Author      string            `json:"author"`
	Tags        []string          `json:"tags"`
	Status      models.PostStatus `json:"status"`
	PublishedAt *time.Time        `json:"published_at"`
}

func (req postRequest) apply(p *models.Post) {
	p.Slug = req.Slug
	p.Title = req.Title
	p.Excerpt = req.Excerpt
	p.Body = req.Body
	p.Author = req.Author
	p.Tags = req.Tags
	p.Status = req.Status
	if req.PublishedAt != nil {
		p.PublishedAt = req.PublishedAt
	}
}

// handleGetPost returns a published post by slug. Drafts are 404.
func (m *Module) handleGetPost(w http.ResponseWriter, r *http.Request) {
	p, err := m.posts.GetBySlug(r.Context(), r.PathValue("slug"))
	if err == nil && p.Status != models.PostPublished {
		err = services.ErrNotFound
	}
	if err != nil {
		server.WriteStoreError(w, m.logger, err, r.URL.Path)
		return
	}
	server.WriteJSON(w, http.StatusOK, p)
}

func (m *Module) handleAdminGetPost(w http.ResponseWriter, r *http.Request) {
	p, err := m.posts.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		server.WriteStoreError(w, m.logger, err, r.URL.Path)
		return
	}
	server.WriteJSON(w, http.StatusOK, p)
}

// handleCreatePost creates a post. The author defaults to the signed-in
// user.
func (m *Module) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := server.DecodeJSON(w, r, &req); err != nil {
		server.BadRequest(w, err.Error(), r.URL.Path)
		return
	}
	var p models.Post
	req.apply(&p)
	if p.Author == "" {
		if sess, ok := auth.SessionFrom(r.Context()); ok {
			p.Author = sess.Username
		}
	}

	if err := m.posts.Create(r.Context(), &p); err != nil {
		server.WriteStoreError(w, m.logger, err, r.URL.Path)
		return
	}
	m.publish(r.Context(), TopicPostCreated, PostEvent{ID: p.ID, Slug: p.Slug, Status: string(p.Status)})
	w.Header().Set("Location", "/api/v1/blog/"+p.Slug)
	server.WriteJSON(w, http.StatusCreated, p)
}

// handleUpdatePost replaces a post's content. The publish time is kept
// unless the body sets one; moving back to draft clears it.
func (m *Module) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := server.DecodeJSON(w, r, &req); err != nil {
		server.BadRequest(w, err.Error(), r.URL.Path)
		return
	}
	p, err := m.posts.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		server.WriteStoreError(w, m.logger, err, r.URL.Path)
		return
	}
	req.apply(p)
	if p.Status != models.PostPublished && req.PublishedAt == nil {
		p.PublishedAt = nil
	}

	if err := m.posts.Update(r.Context(), p); err != nil {
		server.WriteStoreError(w, m.logger, err, r.URL.Path)
		return
	}
	m.publish(r.Context(), TopicPostUpdated, PostEvent{ID: p.ID, Slug: p.Slug, Status: string(p.Status)})
	server.WriteJSON(w, http.StatusOK, p)
}

func (m *Module) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	p, err := m.posts.Get(r.Context(), id)
	if err == nil {
		err = m.posts.Delete(r.Context(), id)
	}
	if err != nil {
		server.WriteStoreError(w, m.logger, err, r.URL.Path)
		return
	}
	m.publish(r.Context(), TopicPostDeleted, PostEvent{ID: p.ID, Slug: p.Slug, Status: string(p.Status)})
	w.WriteHeader(http.StatusNoContent)
}
