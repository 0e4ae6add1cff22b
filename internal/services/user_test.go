package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/HerbHall/showcase/internal/services"
	"github.com/HerbHall/showcase/internal/testutil"
)

func newUserRepo(t *testing.T) services.UserRepository {
	t.Helper()
	store := testutil.NewStore(t)
	repo, err := services.NewSQLiteUserRepository(context.Background(), store)
	if err != nil {
		t.Fatalf("NewSQLiteUserRepository: %v", err)
	}
	return repo
}

func makeUser(username, email, role string) *services.User {
	return &services.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: "$2a$10$fakehash",
		Role:         role,
	}
}

func TestSQLiteUserRepository_CreateAndGet(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()

	u := makeUser("admin", "admin@example.com", "admin")
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.Get(ctx, u.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Username != "admin" {
		t.Errorf("Username = %q, want %q", got.Username, "admin")
	}
	if got.Email != "admin@example.com" {
		t.Errorf("Email = %q, want %q", got.Email, "admin@example.com")
	}
	if got.Role != "admin" {
		t.Errorf("Role = %q, want %q", got.Role, "admin")
	}
	if got.PasswordHash != "$2a$10$fakehash" {
		t.Errorf("PasswordHash not stored correctly")
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt is zero")
	}
}

func TestSQLiteUserRepository_CreateGeneratesID(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()

	u := &services.User{
		Username: "newuser",
		Email:    "new@example.com",
		Role:     "editor",
	}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.ID == "" {
		t.Error("Create did not generate an ID")
	}
}

func TestSQLiteUserRepository_GetNotFound(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()

	_, err := repo.Get(ctx, "nonexistent-id")
	if err != services.ErrNotFound {
		t.Errorf("Get nonexistent = %v, want ErrNotFound", err)
	}
}

func TestSQLiteUserRepository_GetByUsername(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()

	u := makeUser("findme", "findme@example.com", "editor")
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByUsername(ctx, "findme")
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("ID = %q, want %q", got.ID, u.ID)
	}
}

func TestSQLiteUserRepository_GetByUsernameNotFound(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()

	_, err := repo.GetByUsername(ctx, "nonexistent")
	if err != services.ErrNotFound {
		t.Errorf("GetByUsername nonexistent = %v, want ErrNotFound", err)
	}
}

func TestSQLiteUserRepository_List(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()

	// Empty initially.
	res, err := repo.List(ctx, services.ListOptions{})
	if err != nil {
		t.Fatalf("List empty: %v", err)
	}
	if len(res.Items) != 0 || res.Total != 0 {
		t.Errorf("List empty = %d items (total %d), want 0", len(res.Items), res.Total)
	}

	// Create users.
	for _, name := range []string{"charlie", "alice", "bob"} {
		u := makeUser(name, name+"@example.com", "editor")
		if err := repo.Create(ctx, u); err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
	}

	res, err = repo.List(ctx, services.ListOptions{SortBy: "username", SortOrder: "asc", Limit: 2})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if res.Total != 3 {
		t.Errorf("Total = %d, want 3", res.Total)
	}
	if len(res.Items) != 2 || res.Items[0].Username != "alice" || res.Items[1].Username != "bob" {
		t.Errorf("List page = %+v, want [alice bob]", res.Items)
	}

	res, err = repo.List(ctx, services.ListOptions{SortBy: "username", SortOrder: "asc", Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("List offset: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].Username != "charlie" {
		t.Errorf("List second page = %+v, want [charlie]", res.Items)
	}
}

func TestSQLiteUserRepository_ListUnknownSortFallsBack(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()

	if err := repo.Create(ctx, makeUser("solo", "solo@example.com", "editor")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	res, err := repo.List(ctx, services.ListOptions{SortBy: "password_hash; DROP TABLE auth_users"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(res.Items) != 1 {
		t.Errorf("List = %d items, want 1", len(res.Items))
	}
}

func TestSQLiteUserRepository_CreateDuplicate(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()

	if err := repo.Create(ctx, makeUser("dup", "dup@example.com", "admin")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err := repo.Create(ctx, makeUser("dup", "other@example.com", "admin"))
	if !errors.Is(err, services.ErrAlreadyExists) {
		t.Errorf("Create duplicate = %v, want ErrAlreadyExists", err)
	}
}

func TestSQLiteUserRepository_CreateDefaultsRole(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()

	u := &services.User{Username: "norole", Email: "norole@example.com"}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.Role != services.RoleEditor {
		t.Errorf("Role = %q, want %q", u.Role, services.RoleEditor)
	}
}

func TestSQLiteUserRepository_RecordLogin(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()

	u := makeUser("login", "login@example.com", "admin")
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create: %v", err)
	}
	at := time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)
	if err := repo.RecordLogin(ctx, u.ID, at); err != nil {
		t.Fatalf("RecordLogin: %v", err)
	}

	got, err := repo.Get(ctx, u.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.LastLogin.Equal(at) {
		t.Errorf("LastLogin = %v, want %v", got.LastLogin, at)
	}

	if err := repo.RecordLogin(ctx, "missing", at); err != services.ErrNotFound {
		t.Errorf("RecordLogin missing = %v, want ErrNotFound", err)
	}
}

func TestSQLiteUserRepository_Update(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()

	u := makeUser("updatable", "old@example.com", "editor")
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create: %v", err)
	}

	u.Email = "new@example.com"
	u.Role = "admin"
	u.Disabled = true

	if err := repo.Update(ctx, u); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := repo.Get(ctx, u.ID)
	if err != nil {
		t.Fatalf("Get after update: %v", err)
	}
	if got.Email != "new@example.com" {
		t.Errorf("Email = %q, want %q", got.Email, "new@example.com")
	}
	if got.Role != "admin" {
		t.Errorf("Role = %q, want %q", got.Role, "admin")
	}
	if !got.Disabled {
		t.Error("Disabled = false, want true")
	}
}

func TestSQLiteUserRepository_UpdateNotFound(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()

	u := &services.User{ID: "nonexistent-id", Email: "x@y.com", Role: "editor"}
	err := repo.Update(ctx, u)
	if err != services.ErrNotFound {
		t.Errorf("Update nonexistent = %v, want ErrNotFound", err)
	}
}

func TestSQLiteUserRepository_UpdatePassword(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()

	u := makeUser("pwduser", "pwd@example.com", "editor")
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create: %v", err)
	}

	newHash := "$2a$10$newhash"
	if err := repo.UpdatePassword(ctx, u.ID, newHash); err != nil {
		t.Fatalf("UpdatePassword: %v", err)
	}

	got, err := repo.Get(ctx, u.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.PasswordHash != newHash {
		t.Errorf("PasswordHash = %q, want %q", got.PasswordHash, newHash)
	}
}

func TestSQLiteUserRepository_UpdatePasswordNotFound(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()

	err := repo.UpdatePassword(ctx, "nonexistent-id", "hash")
	if err != services.ErrNotFound {
		t.Errorf("UpdatePassword nonexistent = %v, want ErrNotFound", err)
	}
}

func TestSQLiteUserRepository_Delete(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()

	u := makeUser("deleteme", "del@example.com", "editor")
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Delete(ctx, u.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	_, err := repo.Get(ctx, u.ID)
	if err != services.ErrNotFound {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}
}

func TestSQLiteUserRepository_DeleteNotFound(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()

	err := repo.Delete(ctx, "nonexistent-id")
	if err != services.ErrNotFound {
		t.Errorf("Delete nonexistent = %v, want ErrNotFound", err)
	}
}

func TestSQLiteUserRepository_Count(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count empty: %v", err)
	}
	if count != 0 {
		t.Errorf("Count empty = %d, want 0", count)
	}

	for _, name := range []string{"a", "b", "c"} {
		u := makeUser(name, name+"@example.com", "editor")
		if err := repo.Create(ctx, u); err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
	}

	count, err = repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 3 {
		t.Errorf("Count = %d, want 3", count)
	}
}
