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

// PortfolioSchema lists the portfolio fields callers may sort and filter on.
var PortfolioSchema = query.Schema{
	Collection:  "portfolio",
	Key:         "id",
	DefaultSort: "sortOrder",
	Fields: []query.Field{
		{Name: "id", Kind: query.KindText},
		{Name: "slug", Kind: query.KindText},
		{Name: "title", Kind: query.KindText, CaseInsensitive: true},
		{Name: "client", Kind: query.KindText, CaseInsensitive: true},
		{Name: "summary", Kind: query.KindText},
		{Name: "url", Kind: query.KindText},
		{Name: "imageUrl", Column: "image_url", Kind: query.KindText},
		{Name: "featured", Kind: query.KindBool},
		{Name: "sortOrder", Column: "sort_order", Kind: query.KindInt},
		{Name: "createdAt", Column: "created_at", Kind: query.KindTime},
		{Name: "updatedAt", Column: "updated_at", Kind: query.KindTime},
	},
}

// PortfolioRepository provides access to portfolio items.
type PortfolioRepository interface {
	// Get returns a single item by ID.
	Get(ctx context.Context, id string) (*models.PortfolioItem, error)

	// GetBySlug returns an item by slug.
	GetBySlug(ctx context.Context, slug string) (*models.PortfolioItem, error)

	// Create inserts an item. If item.ID is empty, a UUID is generated.
	Create(ctx context.Context, item *models.PortfolioItem) error

	// Update replaces an item's content.
	Update(ctx context.Context, item *models.PortfolioItem) error

	// Delete removes an item by ID.
	Delete(ctx context.Context, id string) error

	// Query resolves a table query over every item.
	Query(ctx context.Context, params query.Params) query.Result[models.PortfolioItem]
}

// Compile-time interface guard.
var _ PortfolioRepository = (*SQLitePortfolioRepository)(nil)

// SQLitePortfolioRepository implements PortfolioRepository using SQLite.
type SQLitePortfolioRepository struct {
	db       *sql.DB
	resolver *query.Resolver[models.PortfolioItem]
	now      func() time.Time
}

// NewSQLitePortfolioRepository runs the portfolio migrations and builds
// the resolver.
func NewSQLitePortfolioRepository(ctx context.Context, store plugin.Store, opts ...query.Option) (*SQLitePortfolioRepository, error) {
	if err := store.Migrate(ctx, "portfolio", PortfolioMigrations); err != nil {
		return nil, fmt.Errorf("portfolio migrations: %w", err)
	}

	coll := NewCollection(store.DB(), "portfolio_items", portfolioColumns, scanPortfolioItem)
	res, err := query.NewResolver[models.PortfolioItem](PortfolioSchema, coll, opts...)
	if err != nil {
		return nil, err
	}
	return &SQLitePortfolioRepository{db: store.DB(), resolver: res, now: time.Now}, nil
}

// portfolioColumns is the shared SELECT column list for portfolio queries.
const portfolioColumns = `id, slug, title, client, summary, url, image_url,
	featured, sort_order, created_at, updated_at`

func (r *SQLitePortfolioRepository) Get(ctx context.Context, id string) (*models.PortfolioItem, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+portfolioColumns+` FROM portfolio_items WHERE id = ?`, id)
	item, err := scanPortfolioItem(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get portfolio item %q: %w", id, err)
	}
	return &item, nil
}

func (r *SQLitePortfolioRepository) GetBySlug(ctx context.Context, slug string) (*models.PortfolioItem, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+portfolioColumns+` FROM portfolio_items WHERE slug = ?`, slug)
	item, err := scanPortfolioItem(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get portfolio item by slug %q: %w", slug, err)
	}
	return &item, nil
}

func (r *SQLitePortfolioRepository) Create(ctx context.Context, item *models.PortfolioItem) error {
	item.Normalize()
	if err := item.Validate(); err != nil {
		return err
	}
	now := r.now().UTC()
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO portfolio_items (id, slug, title, client, summary, url, image_url,
			featured, sort_order, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.Slug, item.Title, item.Client, item.Summary, item.URL,
		item.ImageURL, item.Featured, item.SortOrder,
		formatTime(item.CreatedAt), formatTime(item.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("portfolio item %q: %w", item.Slug, ErrAlreadyExists)
		}
		return fmt.Errorf("create portfolio item: %w", err)
	}
	return nil
}

func (r *SQLitePortfolioRepository) Update(ctx context.Context, item *models.PortfolioItem) error {
	item.Normalize()
	if err := item.Validate(); err != nil {
		return err
	}
	item.UpdatedAt = r.now().UTC()

	res, err := r.db.ExecContext(ctx, `
		UPDATE portfolio_items SET slug = ?, title = ?, client = ?, summary = ?, url = ?,
			image_url = ?, featured = ?, sort_order = ?, updated_at = ?
		WHERE id = ?`,
		item.Slug, item.Title, item.Client, item.Summary, item.URL,
		item.ImageURL, item.Featured, item.SortOrder, formatTime(item.UpdatedAt), item.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("portfolio item %q: %w", item.Slug, ErrAlreadyExists)
		}
		return fmt.Errorf("update portfolio item: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLitePortfolioRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM portfolio_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete portfolio item: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLitePortfolioRepository) Query(ctx context.Context, params query.Params) query.Result[models.PortfolioItem] {
	return r.resolver.Resolve(ctx, params)
}

func scanPortfolioItem(row RowScanner) (models.PortfolioItem, error) {
	var item models.PortfolioItem
	var createdAt, updatedAt string

	err := row.Scan(&item.ID, &item.Slug, &item.Title, &item.Client, &item.Summary,
		&item.URL, &item.ImageURL, &item.Featured, &item.SortOrder, &createdAt, &updatedAt)
	if err != nil {
		return models.PortfolioItem{}, err
	}
	if item.CreatedAt, err = parseTime(createdAt); err != nil {
		return models.PortfolioItem{}, err
	}
	if item.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return models.PortfolioItem{}, err
	}
	return item, nil
}

// PortfolioMigrations defines the database schema for portfolio_items.
var PortfolioMigrations = []plugin.Migration{
	{
		Version:     1,
		Description: "create portfolio_items table",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE portfolio_items (
					id         TEXT PRIMARY KEY,
					slug       TEXT NOT NULL UNIQUE,
					title      TEXT NOT NULL,
					client     TEXT NOT NULL DEFAULT '',
					summary    TEXT NOT NULL DEFAULT '',
					url        TEXT NOT NULL DEFAULT '',
					image_url  TEXT NOT NULL DEFAULT '',
					featured   INTEGER NOT NULL DEFAULT 0,
					sort_order INTEGER NOT NULL DEFAULT 0,
					created_at TEXT NOT NULL,
					updated_at TEXT NOT NULL
				)`)
			return err
		},
	},
}
