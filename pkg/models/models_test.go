package models

import (
	"errors"
	"testing"
	"time"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Hello, World!", "hello-world"},
		{"  Go 1.25 release notes ", "go-1-25-release-notes"},
		{"already-a-slug", "already-a-slug"},
		{"Café déjà vu", "caf-d-j-vu"},
		{"!!!", ""},
	}
	for _, tc := range tests {
		if got := Slugify(tc.in); got != tc.want {
			t.Errorf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestValidSlug(t *testing.T) {
	for _, s := range []string{"a", "post-1", "2026-recap"} {
		if !ValidSlug(s) {
			t.Errorf("ValidSlug(%q) = false, want true", s)
		}
	}
	for _, s := range []string{"", "Upper", "double--hyphen", "-lead", "trail-", "sp ace"} {
		if ValidSlug(s) {
			t.Errorf("ValidSlug(%q) = true, want false", s)
		}
	}
}

func TestPostNormalize(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	p := Post{Title: " Launch Day ", Status: PostPublished, Tags: []string{" go", "go", "", "web "}}

	p.Normalize(now)

	if p.Slug != "launch-day" {
		t.Errorf("Slug = %q, want %q", p.Slug, "launch-day")
	}
	if p.PublishedAt == nil || !p.PublishedAt.Equal(now) {
		t.Errorf("PublishedAt = %v, want %v", p.PublishedAt, now)
	}
	if len(p.Tags) != 2 || p.Tags[0] != "go" || p.Tags[1] != "web" {
		t.Errorf("Tags = %v, want [go web]", p.Tags)
	}
	if err := p.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestPostNormalize_DraftKeepsNoPublishTime(t *testing.T) {
	p := Post{Title: "Notes"}
	p.Normalize(time.Now())

	if p.Status != PostDraft {
		t.Errorf("Status = %q, want %q", p.Status, PostDraft)
	}
	if p.PublishedAt != nil {
		t.Errorf("PublishedAt = %v, want nil", p.PublishedAt)
	}
}

func TestPostValidate(t *testing.T) {
	tests := []struct {
		name string
		post Post
	}{
		{"missing title", Post{Slug: "x", Status: PostDraft}},
		{"bad slug", Post{Title: "x", Slug: "Bad Slug", Status: PostDraft}},
		{"bad status", Post{Title: "x", Slug: "x", Status: "archived"}},
		{"comma tag", Post{Title: "x", Slug: "x", Status: PostDraft, Tags: []string{"a,b"}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.post.Validate()
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate() = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestPortfolioItemValidate(t *testing.T) {
	ok := PortfolioItem{Title: "Site", URL: "https://example.com", ImageURL: "http://cdn.example.com/a.png"}
	ok.Normalize()
	if err := ok.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}

	bad := ok
	bad.URL = "javascript:alert(1)"
	if err := bad.Validate(); !errors.Is(err, ErrInvalid) {
		t.Errorf("Validate() = %v, want ErrInvalid for non-http url", err)
	}

	rel := ok
	rel.ImageURL = "/img/a.png"
	if err := rel.Validate(); !errors.Is(err, ErrInvalid) {
		t.Errorf("Validate() = %v, want ErrInvalid for relative image url", err)
	}
}
