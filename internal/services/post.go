package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/HerbHall/showcase/internal/query"
	"github.com/HerbHall/showcase/pkg/models"
	"github.com/HerbHall/showcase/pkg/plugin"
)

// PostSchema lists the post fields callers may sort and filter on.
var PostSchema = query.Schema{
	Collection:  "posts",
	Key:         "id",
	DefaultSort: "publishedAt",
	Fields: []query.Field{
		{Name: "id", Kind: query.KindText},
		{Name: "slug", Kind: query.KindText},
		{Name: "title", Kind: query.KindText, CaseInsensitive: true},
		{Name: "excerpt", Kind: query.KindText},
		{Name: "body", Kind: query.KindText},
		{Name: "author", Kind: query.KindText, CaseInsensitive: true},
		{Name: "tags", Kind: query.KindText},
		{Name: "status", Kind: query.KindText},
		{Name: "publishedAt", Column: "published_at", Kind: query.KindTime},
		{Name: "createdAt", Column: "created_at", Kind: query.KindTime},
		{Name: "updatedAt", Column: "updated_at", Kind: query.KindTime},
	},
}

// PostRepository provides access to blog posts.
type PostRepository interface {
	// Get returns a single post by ID.
	Get(ctx context.Context, id string) (*models.Post, error)

	// GetBySlug returns a post by slug regardless of status.
	GetBySlug(ctx context.Context, slug string) (*models.Post, error)

	// Create inserts a post. If post.ID is empty, a UUID is generated.
	Create(ctx context.Context, post *models.Post) error

	// Update replaces a post's content and status.
	Update(ctx context.Context, post *models.Post) error

	// Delete removes a post by ID.
	Delete(ctx context.Context, id string) error

	// Query resolves a table query over every post.
	Query(ctx context.Context, params query.Params) query.Result[models.Post]

	// QueryPublished resolves a table query over published posts only.
	QueryPublished(ctx context.Context, params query.Params) query.Result[models.Post]
}

// Compile-time interface guard.
var _ PostRepository = (*SQLitePostRepository)(nil)

// SQLitePostRepository implements PostRepository using SQLite.
type SQLitePostRepository struct {
	db        *sql.DB
	all       *query.Resolver[models.Post]
	published *query.Resolver[models.Post]
	now       func() time.Time
}

// NewSQLitePostRepository runs the blog migrations and builds the resolvers.
// opts are applied to both resolvers.
func NewSQLitePostRepository(ctx context.Context, store plugin.Store, opts ...query.Option) (*SQLitePostRepository, error) {
	if err := store.Migrate(ctx, "blog", PostMigrations); err != nil {
		return nil, fmt.Errorf("blog migrations: %w", err)
	}

	coll := NewCollection(store.DB(), "blog_posts", postColumns, scanPost)
	all, err := query.NewResolver[models.Post](PostSchema, coll, opts...)
	if err != nil {
		return nil, err
	}
	pubSchema := PostSchema
	pubSchema.Collection = "posts_published"
	published, err := query.NewResolver[models.Post](pubSchema,
		coll.Where("status = ?", string(models.PostPublished)), opts...)
	if err != nil {
		return nil, err
	}

	return &SQLitePostRepository{
		db:        store.DB(),
		all:       all,
		published: published,
		now:       time.Now,
	}, nil
}

// postColumns is the shared SELECT column list for post queries.
const postColumns = `id, slug, title, excerpt, body, author, tags, status,
	published_at, created_at, updated_at`

func (r *SQLitePostRepository) Get(ctx context.Context, id string) (*models.Post, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM blog_posts WHERE id = ?`, id)
	p, err := scanPost(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get post %q: %w", id, err)
	}
	return &p, nil
}

func (r *SQLitePostRepository) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM blog_posts WHERE slug = ?`, slug)
	p, err := scanPost(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get post by slug %q: %w", slug, err)
	}
	return &p, nil
}

func (r *SQLitePostRepository) Create(ctx context.Context, post *models.Post) error {
	now := r.now().UTC()
	post.Normalize(now)
	if err := post.Validate(); err != nil {
		return err
	}
	if post.ID == "" {
		post.ID = uuid.New().String()
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	post.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO blog_posts (id, slug, title, excerpt, body, author, tags, status,
			published_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		post.ID, post.Slug, post.Title, post.Excerpt, post.Body, post.Author,
		joinTags(post.Tags), string(post.Status), nullTime(post.PublishedAt),
		formatTime(post.CreatedAt), formatTime(post.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("post %q: %w", post.Slug, ErrAlreadyExists)
		}
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

func (r *SQLitePostRepository) Update(ctx context.Context, post *models.Post) error {
	now := r.now().UTC()
	post.Normalize(now)
	if err := post.Validate(); err != nil {
		return err
	}
	post.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, `
		UPDATE blog_posts SET slug = ?, title = ?, excerpt = ?, body = ?, author = ?,
			tags = ?, status = ?, published_at = ?, updated_at = ?
		WHERE id = ?`,
		post.Slug, post.Title, post.Excerpt, post.Body, post.Author,
		joinTags(post.Tags), string(post.Status), nullTime(post.PublishedAt),
		formatTime(post.UpdatedAt), post.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("post %q: %w", post.Slug, ErrAlreadyExists)
		}
		return fmt.Errorf("update post: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLitePostRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM blog_posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLitePostRepository) Query(ctx context.Context, params query.Params) query.Result[models.Post] {
	return r.all.Resolve(ctx, params)
}

func (r *SQLitePostRepository) QueryPublished(ctx context.Context, params query.Params) query.Result[models.Post] {
	return r.published.Resolve(ctx, params)
}

func scanPost(row RowScanner) (models.Post, error) {
	var p models.Post
	var tags, status, createdAt, updatedAt string
	var publishedAt sql.NullString

	err := row.Scan(&p.ID, &p.Slug, &p.Title, &p.Excerpt, &p.Body, &p.Author,
		&tags, &status, &publishedAt, &createdAt, &updatedAt)
	if err != nil {
		return models.Post{}, err
	}
	p.Tags = splitTags(tags)
	p.Status = models.PostStatus(status)
	if publishedAt.Valid {
		t, err := parseTime(publishedAt.String)
		if err != nil {
			return models.Post{}, err
		}
		p.PublishedAt = &t
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return models.Post{}, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return models.Post{}, err
	}
	return p, nil
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

// PostMigrations defines the database schema for blog_posts.
var PostMigrations = []plugin.Migration{
	{
		Version:     1,
		Description: "create blog_posts table",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE blog_posts (
					id           TEXT PRIMARY KEY,
					slug         TEXT NOT NULL UNIQUE,
					title        TEXT NOT NULL,
					excerpt      TEXT NOT NULL DEFAULT '',
					body         TEXT NOT NULL DEFAULT '',
					author       TEXT NOT NULL DEFAULT '',
					tags         TEXT NOT NULL DEFAULT '',
					status       TEXT NOT NULL DEFAULT 'draft',
					published_at TEXT,
					created_at   TEXT NOT NULL,
					updated_at   TEXT NOT NULL
				)`)
			return err
		},
	},
	{
		Version:     2,
		Description: "index blog_posts by status and publish time",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`CREATE INDEX idx_blog_posts_status_published ON blog_posts(status, published_at)`)
			return err
		},
	},
}
