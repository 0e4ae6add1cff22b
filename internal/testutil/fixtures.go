package testutil

import (
	"time"

	"github.com/HerbHall/showcase/pkg/models"
)

// NewPost returns a published Post with sensible defaults, suitable for
// test fixtures. The slug is derived from the title when not overridden.
func NewPost(opts ...func(*models.Post)) models.Post {
	published := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	p := models.Post{
		Title:       "Test Post",
		Excerpt:     "A short excerpt.",
		Body:        "Body text.",
		Author:      "Test Author",
		Tags:        []string{"test"},
		Status:      models.PostPublished,
		PublishedAt: &published,
	}
	for _, opt := range opts {
		opt(&p)
	}
	if p.Slug == "" {
		p.Slug = models.Slugify(p.Title)
	}
	return p
}

// WithTitle sets the post title.
func WithTitle(title string) func(*models.Post) {
	return func(p *models.Post) { p.Title = title }
}

// WithSlug sets the post slug.
func WithSlug(slug string) func(*models.Post) {
	return func(p *models.Post) { p.Slug = slug }
}

// WithAuthor sets the post author.
func WithAuthor(author string) func(*models.Post) {
	return func(p *models.Post) { p.Author = author }
}

// WithTags sets the post tags.
func WithTags(tags ...string) func(*models.Post) {
	return func(p *models.Post) { p.Tags = tags }
}

// Draft marks the post as an unpublished draft.
func Draft() func(*models.Post) {
	return func(p *models.Post) {
		p.Status = models.PostDraft
		p.PublishedAt = nil
	}
}

// PublishedAt sets the post's publish time.
func PublishedAt(t time.Time) func(*models.Post) {
	return func(p *models.Post) { p.PublishedAt = &t }
}

// NewPortfolioItem returns a PortfolioItem with sensible defaults.
func NewPortfolioItem(opts ...func(*models.PortfolioItem)) models.PortfolioItem {
	item := models.PortfolioItem{
		Title:   "Test Project",
		Client:  "Test Client",
		Summary: "What we built.",
		URL:     "https://example.com",
	}
	for _, opt := range opts {
		opt(&item)
	}
	if item.Slug == "" {
		item.Slug = models.Slugify(item.Title)
	}
	return item
}

// WithItemTitle sets the portfolio item title.
func WithItemTitle(title string) func(*models.PortfolioItem) {
	return func(i *models.PortfolioItem) { i.Title = title }
}

// WithClient sets the portfolio item client.
func WithClient(client string) func(*models.PortfolioItem) {
	return func(i *models.PortfolioItem) { i.Client = client }
}

// Featured marks the portfolio item as featured with the given sort order.
func Featured(order int) func(*models.PortfolioItem) {
	return func(i *models.PortfolioItem) {
		i.Featured = true
		i.SortOrder = order
	}
}
