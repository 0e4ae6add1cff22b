package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/HerbHall/showcase/internal/query"
	"github.com/HerbHall/showcase/internal/services"
	"github.com/HerbHall/showcase/internal/testutil"
	"github.com/HerbHall/showcase/pkg/models"
)

func newPostRepo(t *testing.T) services.PostRepository {
	t.Helper()
	store := testutil.NewStore(t)
	repo, err := services.NewSQLitePostRepository(context.Background(), store,
		query.WithLogger(testutil.Logger(t)))
	if err != nil {
		t.Fatalf("NewSQLitePostRepository: %v", err)
	}
	return repo
}

func day(n int) time.Time {
	return time.Date(2026, 1, n, 0, 0, 0, 0, time.UTC)
}

// seedPosts inserts a fixed set of posts with stable IDs.
func seedPosts(t *testing.T, repo services.PostRepository) []models.Post {
	t.Helper()
	posts := []models.Post{
		testutil.NewPost(testutil.WithTitle("Getting started with Go"), testutil.WithAuthor("Ann"), testutil.WithTags("go", "intro"), testutil.PublishedAt(day(3))),
		testutil.NewPost(testutil.WithTitle("SQLite in production"), testutil.WithAuthor("bob"), testutil.WithTags("sqlite"), testutil.PublishedAt(day(1))),
		testutil.NewPost(testutil.WithTitle("Draft: goroutines"), testutil.WithAuthor("Ann"), testutil.Draft()),
		testutil.NewPost(testutil.WithTitle("50% faster builds"), testutil.WithAuthor("cara"), testutil.PublishedAt(day(2))),
		testutil.NewPost(testutil.WithTitle("500 things"), testutil.WithAuthor("Dan"), testutil.PublishedAt(day(2))),
		testutil.NewPost(testutil.WithTitle("snake_case names"), testutil.WithAuthor("eve"), testutil.PublishedAt(day(5))),
		testutil.NewPost(testutil.WithTitle("snakeXcase names"), testutil.WithAuthor("Eve"), testutil.PublishedAt(day(5))),
	}
	posts[4].Excerpt = ""
	for i := range posts {
		posts[i].ID = fmt.Sprintf("p%02d", i+1)
		if err := repo.Create(context.Background(), &posts[i]); err != nil {
			t.Fatalf("Create %q: %v", posts[i].Title, err)
		}
	}
	return posts
}

func postIDs(records []models.Post) []string {
	out := make([]string, len(records))
	for i, p := range records {
		out[i] = p.ID
	}
	return out
}

func TestSQLitePostRepository_CreateAndGet(t *testing.T) {
	repo := newPostRepo(t)
	ctx := context.Background()

	p := testutil.NewPost(testutil.WithTitle("Hello World"), testutil.WithTags("go", "web"))
	if err := repo.Create(ctx, &p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.ID == "" {
		t.Fatal("Create did not generate an ID")
	}

	got, err := repo.Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Slug != "hello-world" {
		t.Errorf("Slug = %q, want %q", got.Slug, "hello-world")
	}
	if strings.Join(got.Tags, ",") != "go,web" {
		t.Errorf("Tags = %v, want [go web]", got.Tags)
	}
	if got.PublishedAt == nil || !got.PublishedAt.Equal(*p.PublishedAt) {
		t.Errorf("PublishedAt = %v, want %v", got.PublishedAt, p.PublishedAt)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("timestamps not stored")
	}

	bySlug, err := repo.GetBySlug(ctx, "hello-world")
	if err != nil {
		t.Fatalf("GetBySlug: %v", err)
	}
	if bySlug.ID != p.ID {
		t.Errorf("GetBySlug ID = %q, want %q", bySlug.ID, p.ID)
	}
}

func TestSQLitePostRepository_CreateValidation(t *testing.T) {
	repo := newPostRepo(t)

	p := models.Post{Body: "no title"}
	err := repo.Create(context.Background(), &p)
	if !errors.Is(err, models.ErrInvalid) {
		t.Errorf("Create without title = %v, want ErrInvalid", err)
	}
}

func TestSQLitePostRepository_DuplicateSlug(t *testing.T) {
	repo := newPostRepo(t)
	ctx := context.Background()

	a := testutil.NewPost(testutil.WithSlug("same"))
	if err := repo.Create(ctx, &a); err != nil {
		t.Fatalf("Create: %v", err)
	}
	b := testutil.NewPost(testutil.WithSlug("same"))
	if err := repo.Create(ctx, &b); !errors.Is(err, services.ErrAlreadyExists) {
		t.Errorf("Create duplicate slug = %v, want ErrAlreadyExists", err)
	}
}

func TestSQLitePostRepository_UpdateAndDelete(t *testing.T) {
	repo := newPostRepo(t)
	ctx := context.Background()

	p := testutil.NewPost(testutil.Draft())
	if err := repo.Create(ctx, &p); err != nil {
		t.Fatalf("Create: %v", err)
	}

	p.Status = models.PostPublished
	p.Title = "Now Public"
	if err := repo.Update(ctx, &p); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := repo.Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != models.PostPublished || got.PublishedAt == nil {
		t.Errorf("after publish: status %q published_at %v", got.Status, got.PublishedAt)
	}
	if got.Title != "Now Public" {
		t.Errorf("Title = %q, want %q", got.Title, "Now Public")
	}

	if err := repo.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.Get(ctx, p.ID); err != services.ErrNotFound {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, p.ID); err != services.ErrNotFound {
		t.Errorf("Delete twice = %v, want ErrNotFound", err)
	}
	missing := testutil.NewPost()
	missing.ID = "missing"
	if err := repo.Update(ctx, &missing); err != services.ErrNotFound {
		t.Errorf("Update missing = %v, want ErrNotFound", err)
	}
}

func TestSQLitePostRepository_Query(t *testing.T) {
	repo := newPostRepo(t)
	seedPosts(t, repo)

	tests := []struct {
		name      string
		params    query.Params
		wantIDs   []string
		wantTotal int
	}{
		{
			name:      "default order is publish time ascending, nulls first",
			params:    query.Params{Limit: query.Int(3)},
			wantIDs:   []string{"p03", "p02", "p04"},
			wantTotal: 7,
		},
		{
			name:      "contains is case-insensitive",
			params:    query.Params{Filters: []query.Filter{{ID: "title", Value: "GO", Operator: query.OpContains}}, SortBy: "title"},
			wantIDs:   []string{"p03", "p01"},
			wantTotal: 2,
		},
		{
			name:      "percent is literal",
			params:    query.Params{Filters: []query.Filter{{ID: "title", Value: "50%", Operator: query.OpStartsWith}}},
			wantIDs:   []string{"p04"},
			wantTotal: 1,
		},
		{
			name:      "underscore is literal",
			params:    query.Params{Filters: []query.Filter{{ID: "title", Value: "snake_", Operator: query.OpContains}}},
			wantIDs:   []string{"p06"},
			wantTotal: 1,
		},
		{
			name:      "endsWith",
			params:    query.Params{Filters: []query.Filter{{ID: "title", Value: "NAMES", Operator: query.OpEndsWith}}},
			wantIDs:   []string{"p06", "p07"},
			wantTotal: 2,
		},
		{
			name:      "equals on case-insensitive author",
			params:    query.Params{Filters: []query.Filter{{ID: "author", Value: "EVE", Operator: query.OpEquals}}},
			wantIDs:   []string{"p06", "p07"},
			wantTotal: 2,
		},
		{
			name:      "equals on case-sensitive status",
			params:    query.Params{Filters: []query.Filter{{ID: "status", Value: "DRAFT", Operator: query.OpEquals}}},
			wantIDs:   []string{},
			wantTotal: 0,
		},
		{
			name:      "empty matches null publish time",
			params:    query.Params{Filters: []query.Filter{{ID: "publishedAt", Operator: query.OpEmpty}}},
			wantIDs:   []string{"p03"},
			wantTotal: 1,
		},
		{
			name:      "empty matches blank excerpt",
			params:    query.Params{Filters: []query.Filter{{ID: "excerpt", Operator: query.OpEmpty}}},
			wantIDs:   []string{"p05"},
			wantTotal: 1,
		},
		{
			name:      "equals on date",
			params:    query.Params{Filters: []query.Filter{{ID: "publishedAt", Value: "2026-01-02", Operator: query.OpEquals}}},
			wantIDs:   []string{"p04", "p05"},
			wantTotal: 2,
		},
		{
			name:      "desc ties break on id desc",
			params:    query.Params{SortBy: "publishedAt", SortDirection: query.Desc, Limit: query.Int(4)},
			wantIDs:   []string{"p07", "p06", "p01", "p05"},
			wantTotal: 7,
		},
		{
			name:      "tags contains",
			params:    query.Params{Filters: []query.Filter{{ID: "tags", Value: "sqlite", Operator: query.OpContains}}},
			wantIDs:   []string{"p02"},
			wantTotal: 1,
		},
		{
			name: "filters combine with AND",
			params: query.Params{Filters: []query.Filter{
				{ID: "author", Value: "ann", Operator: query.OpEquals},
				{ID: "status", Value: "published", Operator: query.OpEquals},
			}},
			wantIDs:   []string{"p01"},
			wantTotal: 1,
		},
		{
			name:      "offset past a page boundary",
			params:    query.Params{SortBy: "id", Limit: query.Int(3), Offset: query.Int(5)},
			wantIDs:   []string{"p06", "p07"},
			wantTotal: 7,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := repo.Query(context.Background(), tc.params)
			if res.Error != nil {
				t.Fatalf("Query error = %v", res.Error)
			}
			got := postIDs(res.Data.Records)
			if strings.Join(got, ",") != strings.Join(tc.wantIDs, ",") {
				t.Errorf("IDs = %v, want %v", got, tc.wantIDs)
			}
			if res.Data.Total != tc.wantTotal {
				t.Errorf("Total = %d, want %d", res.Data.Total, tc.wantTotal)
			}
		})
	}
}

func TestSQLitePostRepository_QueryPublished(t *testing.T) {
	repo := newPostRepo(t)
	seedPosts(t, repo)

	res := repo.QueryPublished(context.Background(), query.Params{
		Filters: []query.Filter{{ID: "author", Value: "ann", Operator: query.OpEquals}},
	})
	if res.Error != nil {
		t.Fatalf("QueryPublished error = %v", res.Error)
	}
	if got := postIDs(res.Data.Records); len(got) != 1 || got[0] != "p01" {
		t.Errorf("IDs = %v, want [p01]; drafts must be hidden", got)
	}

	all := repo.QueryPublished(context.Background(), query.Params{})
	if all.Data.Total != 6 {
		t.Errorf("published Total = %d, want 6", all.Data.Total)
	}
}

func TestSQLitePostRepository_QueryErrors(t *testing.T) {
	repo := newPostRepo(t)

	res := repo.Query(context.Background(), query.Params{SortBy: "password"})
	if !errors.Is(res.Err(), query.ErrUnknownField) {
		t.Errorf("unknown sort = %v, want ErrUnknownField", res.Err())
	}
	if res.Data != nil {
		t.Error("Data must be nil on failure")
	}
}

func TestSQLitePostRepository_QueryClosedStore(t *testing.T) {
	store := testutil.NewStore(t)
	repo, err := services.NewSQLitePostRepository(context.Background(), store)
	if err != nil {
		t.Fatalf("NewSQLitePostRepository: %v", err)
	}
	store.Close()

	res := repo.Query(context.Background(), query.Params{})
	if !errors.Is(res.Err(), query.ErrBackendUnavailable) {
		t.Errorf("closed store = %v, want ErrBackendUnavailable", res.Err())
	}
	if res.Error != nil && strings.Contains(res.Error.Message, "sql") {
		t.Errorf("message leaks driver detail: %q", res.Error.Message)
	}
}
