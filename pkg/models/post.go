package models

import (
	"fmt"
	"strings"
	"time"
)

// PostStatus is the publication state of a blog post.
type PostStatus string

const (
	PostDraft     PostStatus = "draft"
	PostPublished PostStatus = "published"
)

// Valid reports whether s is a known status.
func (s PostStatus) Valid() bool {
	return s == PostDraft || s == PostPublished
}

// Post is a blog article.
type Post struct {
	ID          string     `json:"id" yaml:"id,omitempty"`
	Slug        string     `json:"slug" yaml:"slug"`
	Title       string     `json:"title" yaml:"title"`
	Excerpt     string     `json:"excerpt,omitempty" yaml:"excerpt,omitempty"`
	Body        string     `json:"body" yaml:"body"`
	Author      string     `json:"author,omitempty" yaml:"author,omitempty"`
	Tags        []string   `json:"tags" yaml:"tags,omitempty"`
	Status      PostStatus `json:"status" yaml:"status"`
	PublishedAt *time.Time `json:"published_at,omitempty" yaml:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at" yaml:"-"`
	UpdatedAt   time.Time  `json:"updated_at" yaml:"-"`
}

// Normalize fills derived fields: a slug from the title, the draft status,
// trimmed unique tags, and a publish time for published posts.
func (p *Post) Normalize(now time.Time) {
	p.Title = strings.TrimSpace(p.Title)
	if p.Slug == "" {
		p.Slug = Slugify(p.Title)
	}
	if p.Status == "" {
		p.Status = PostDraft
	}
	p.Tags = cleanTags(p.Tags)
	if p.Status == PostPublished && p.PublishedAt == nil {
		t := now.UTC()
		p.PublishedAt = &t
	}
}

// Validate checks required fields.
func (p *Post) Validate() error {
	if p.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if !ValidSlug(p.Slug) {
		return fmt.Errorf("%w: slug %q must be lowercase letters, digits and hyphens", ErrInvalid, p.Slug)
	}
	if !p.Status.Valid() {
		return fmt.Errorf("%w: status %q must be %q or %q", ErrInvalid, p.Status, PostDraft, PostPublished)
	}
	for _, tag := range p.Tags {
		if strings.Contains(tag, ",") {
			return fmt.Errorf("%w: tag %q contains a comma", ErrInvalid, tag)
		}
	}
	return nil
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
