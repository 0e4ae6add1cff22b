package models

import (
	"fmt"
	"strings"
	"time"
)

// PortfolioItem is a showcased project.
type PortfolioItem struct {
	ID        string    `json:"id" yaml:"id,omitempty"`
	Slug      string    `json:"slug" yaml:"slug"`
	Title     string    `json:"title" yaml:"title"`
	Client    string    `json:"client,omitempty" yaml:"client,omitempty"`
	Summary   string    `json:"summary,omitempty" yaml:"summary,omitempty"`
	URL       string    `json:"url,omitempty" yaml:"url,omitempty"`
	ImageURL  string    `json:"image_url,omitempty" yaml:"image_url,omitempty"`
	Featured  bool      `json:"featured" yaml:"featured,omitempty"`
	SortOrder int       `json:"sort_order" yaml:"sort_order,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}

// Normalize trims the title and derives a missing slug from it.
func (p *PortfolioItem) Normalize() {
	p.Title = strings.TrimSpace(p.Title)
	if p.Slug == "" {
		p.Slug = Slugify(p.Title)
	}
}

// Validate checks required fields and that links are absolute http(s) URLs.
func (p *PortfolioItem) Validate() error {
	if p.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if !ValidSlug(p.Slug) {
		return fmt.Errorf("%w: slug %q must be lowercase letters, digits and hyphens", ErrInvalid, p.Slug)
	}
	for name, raw := range map[string]string{"url": p.URL, "image_url": p.ImageURL} {
		if raw == "" {
			continue
		}
		if !absoluteHTTPURL(raw) {
			return fmt.Errorf("%w: %s %q must be an absolute http(s) URL", ErrInvalid, name, raw)
		}
	}
	return nil
}
