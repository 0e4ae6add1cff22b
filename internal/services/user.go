package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/HerbHall/showcase/pkg/plugin"
)

// Account roles. Only admins may use the write endpoints.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
)

// User is an account that can sign in to the admin side of the site.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialized to JSON.
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	LastLogin    time.Time `json:"last_login,omitempty"`
	Disabled     bool      `json:"disabled"`
}

// userSortColumns allow-lists List sort keys.
var userSortColumns = map[string]string{
	"username":   "username",
	"created_at": "created_at",
	"last_login": "last_login",
}

// UserRepository provides access to user accounts.
type UserRepository interface {
	// Get returns a single user by ID.
	Get(ctx context.Context, id string) (*User, error)

	// GetByUsername returns a user by username.
	GetByUsername(ctx context.Context, username string) (*User, error)

	// List returns a page of users, newest first unless opts say otherwise.
	List(ctx context.Context, opts ListOptions) (*ListResult[User], error)

	// Create inserts a new user. If user.ID is empty, a UUID is generated.
	Create(ctx context.Context, user *User) error

	// Update modifies a user's email, role, and disabled status.
	Update(ctx context.Context, user *User) error

	// UpdatePassword updates a user's password hash.
	UpdatePassword(ctx context.Context, id, passwordHash string) error

	// RecordLogin stamps the user's last successful sign-in.
	RecordLogin(ctx context.Context, id string, at time.Time) error

	// Delete removes a user by ID.
	Delete(ctx context.Context, id string) error

	// Count returns the total number of users.
	Count(ctx context.Context) (int, error)
}

// Compile-time interface guard.
var _ UserRepository = (*SQLiteUserRepository)(nil)

// SQLiteUserRepository implements UserRepository using SQLite.
type SQLiteUserRepository struct {
	db *sql.DB
}

// NewSQLiteUserRepository runs the auth migrations and returns a
// UserRepository over the auth_users table.
func NewSQLiteUserRepository(ctx context.Context, store plugin.Store) (*SQLiteUserRepository, error) {
	if err := store.Migrate(ctx, "auth", UserMigrations); err != nil {
		return nil, fmt.Errorf("auth migrations: %w", err)
	}
	return &SQLiteUserRepository{db: store.DB()}, nil
}

// userColumns is the shared SELECT column list for user queries.
const userColumns = `id, username, email, password_hash, role,
	created_at, last_login, disabled`

func (r *SQLiteUserRepository) Get(ctx context.Context, id string) (*User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM auth_users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user %q: %w", id, err)
	}
	return u, nil
}

func (r *SQLiteUserRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM auth_users WHERE username = ?`, username)
	u, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user by username %q: %w", username, err)
	}
	return u, nil
}

func (r *SQLiteUserRepository) List(ctx context.Context, opts ListOptions) (*ListResult[User], error) {
	opts = normalizeListOptions(opts)

	col, ok := userSortColumns[opts.SortBy]
	if !ok {
		col = "created_at"
	}
	orderDir := "DESC"
	if opts.SortOrder == "asc" {
		orderDir = "ASC"
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM auth_users`).Scan(&total); err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	//nolint:gosec // col and orderDir are allow-listed above
	q := fmt.Sprintf(`SELECT %s FROM auth_users ORDER BY %s %s, id %s LIMIT ? OFFSET ?`,
		userColumns, col, orderDir, orderDir)
	rows, err := r.db.QueryContext(ctx, q, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return &ListResult[User]{Items: users, Total: total}, nil
}

func (r *SQLiteUserRepository) Create(ctx context.Context, user *User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	if user.Role == "" {
		user.Role = RoleEditor
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO auth_users (id, username, email, password_hash, role, created_at, disabled)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Username, user.Email, user.PasswordHash,
		user.Role, user.CreatedAt, user.Disabled,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user %q: %w", user.Username, ErrAlreadyExists)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *SQLiteUserRepository) Update(ctx context.Context, user *User) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE auth_users SET email = ?, role = ?, disabled = ? WHERE id = ?`,
		user.Email, user.Role, user.Disabled, user.ID,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE auth_users SET password_hash = ? WHERE id = ?`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteUserRepository) RecordLogin(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE auth_users SET last_login = ? WHERE id = ?`,
		at.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("record login: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteUserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM auth_users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteUserRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM auth_users`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

// scanUser scans a *sql.Row or *sql.Rows into a User.
func scanUser(row RowScanner) (*User, error) {
	var u User
	var passwordHash sql.NullString
	var lastLogin sql.NullTime

	err := row.Scan(&u.ID, &u.Username, &u.Email, &passwordHash, &u.Role,
		&u.CreatedAt, &lastLogin, &u.Disabled)
	if err != nil {
		return nil, err
	}
	if passwordHash.Valid {
		u.PasswordHash = passwordHash.String
	}
	if lastLogin.Valid {
		u.LastLogin = lastLogin.Time
	}
	return &u, nil
}

// UserMigrations defines the database schema for auth_users.
var UserMigrations = []plugin.Migration{
	{
		Version:     1,
		Description: "create auth_users table",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE auth_users (
					id            TEXT PRIMARY KEY,
					username      TEXT NOT NULL UNIQUE,
					email         TEXT NOT NULL UNIQUE,
					password_hash TEXT,
					role          TEXT NOT NULL DEFAULT 'editor',
					created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
					last_login    DATETIME,
					disabled      INTEGER NOT NULL DEFAULT 0
				)`)
			return err
		},
	},
}
