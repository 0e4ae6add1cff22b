// Package seed imports site content from a YAML file. Posts and portfolio
// items are upserted by slug, so running the same file twice is a no-op
// apart from updated_at.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/HerbHall/showcase/internal/services"
	"github.com/HerbHall/showcase/pkg/models"
)

// File is the YAML document layout:
//
//	posts:
//	  - title: Hello
//	    status: published
//	    tags: [intro]
//	    body: |
//	      ...
//	portfolio:
//	  - title: Acme Storefront
//	    url: https://acme.example
//	settings:
//	  site_title: Jane Doe
//	  contact_email: jane@example.com
type File struct {
	Posts     []models.Post          `yaml:"posts"`
	Portfolio []models.PortfolioItem `yaml:"portfolio"`
	Settings  map[string]string      `yaml:"settings"`
}

// Report counts what a Load changed.
type Report struct {
	PostsCreated int
	PostsUpdated int
	ItemsCreated int
	ItemsUpdated int
	Settings     int
}

// Loader writes a File through the content repositories.
type Loader struct {
	posts    services.PostRepository
	items    services.PortfolioRepository
	settings services.SettingsRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewLoader returns a Loader.
func NewLoader(posts services.PostRepository, items services.PortfolioRepository,
	settings services.SettingsRepository, logger *zap.Logger) *Loader {
	return &Loader{posts: posts, items: items, settings: settings, logger: logger, now: time.Now}
}

// LoadFile opens path and calls Load.
func (l *Loader) LoadFile(ctx context.Context, path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return l.Load(ctx, f)
}

// Load decodes a File and upserts its content. The whole file is validated
// before anything is written.
func (l *Loader) Load(ctx context.Context, r io.Reader) (*Report, error) {
	var file File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return &Report{}, nil
		}
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	dated, err := l.validate(&file)
	if err != nil {
		return nil, err
	}

	rep := &Report{}
	for i := range file.Posts {
		created, err := l.upsertPost(ctx, &file.Posts[i], dated[i])
		if err != nil {
			return rep, fmt.Errorf("post %q: %w", file.Posts[i].Slug, err)
		}
		if created {
			rep.PostsCreated++
		} else {
			rep.PostsUpdated++
		}
	}
	for i := range file.Portfolio {
		created, err := l.upsertItem(ctx, &file.Portfolio[i])
		if err != nil {
			return rep, fmt.Errorf("portfolio item %q: %w", file.Portfolio[i].Slug, err)
		}
		if created {
			rep.ItemsCreated++
		} else {
			rep.ItemsUpdated++
		}
	}
	if err := l.settings.SetMany(ctx, file.Settings); err != nil {
		return rep, fmt.Errorf("settings: %w", err)
	}
	rep.Settings = len(file.Settings)

	l.logger.Info("seed loaded",
		zap.Int("posts_created", rep.PostsCreated),
		zap.Int("posts_updated", rep.PostsUpdated),
		zap.Int("items_created", rep.ItemsCreated),
		zap.Int("items_updated", rep.ItemsUpdated),
		zap.Int("settings", rep.Settings),
	)
	return rep, nil
}

// validate normalizes every record and rejects invalid ones, slugs that
// appear twice and settings that break their key's rule. dated reports, per post, whether the file set published_at.
func (l *Loader) validate(f *File) (dated []bool, err error) {
	now := l.now()
	dated = make([]bool, len(f.Posts))
	seen := make(map[string]bool, len(f.Posts))
	for i := range f.Posts {
		p := &f.Posts[i]
		dated[i] = p.PublishedAt != nil
		p.Normalize(now)
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("posts[%d]: %w", i, err)
		}
		if seen[p.Slug] {
			return nil, fmt.Errorf("posts[%d]: %w: duplicate slug %q", i, models.ErrInvalid, p.Slug)
		}
		seen[p.Slug] = true
	}

	seen = make(map[string]bool, len(f.Portfolio))
	for i := range f.Portfolio {
		it := &f.Portfolio[i]
		it.Normalize()
		if err := it.Validate(); err != nil {
			return nil, fmt.Errorf("portfolio[%d]: %w", i, err)
		}
		if seen[it.Slug] {
			return nil, fmt.Errorf("portfolio[%d]: %w: duplicate slug %q", i, models.ErrInvalid, it.Slug)
		}
		seen[it.Slug] = true
	}

	for key, value := range f.Settings {
		if _, err := models.NormalizeSetting(key, value); err != nil {
			return nil, fmt.Errorf("settings: %w", err)
		}
	}
	return dated, nil
}

// upsertPost creates or updates p by slug. An undated published post keeps
// the publish time it already has.
func (l *Loader) upsertPost(ctx context.Context, p *models.Post, dated bool) (bool, error) {
	existing, err := l.posts.GetBySlug(ctx, p.Slug)
	switch {
	case errors.Is(err, services.ErrNotFound):
		p.ID = ""
		return true, l.posts.Create(ctx, p)
	case err != nil:
		return false, err
	}
	p.ID = existing.ID
	if !dated && p.Status == models.PostPublished && existing.PublishedAt != nil {
		p.PublishedAt = existing.PublishedAt
	}
	p.CreatedAt = existing.CreatedAt
	return false, l.posts.Update(ctx, p)
}

func (l *Loader) upsertItem(ctx context.Context, it *models.PortfolioItem) (bool, error) {
	existing, err := l.items.GetBySlug(ctx, it.Slug)
	switch {
	case errors.Is(err, services.ErrNotFound):
		it.ID = ""
		return true, l.items.Create(ctx, it)
	case err != nil:
		return false, err
	}
	it.ID = existing.ID
	return false, l.items.Update(ctx, it)
}
