package services_test

import (
	"context"
	"errors"
	"maps"
	"testing"
	"time"

	"github.com/HerbHall/showcase/internal/services"
	"github.com/HerbHall/showcase/internal/testutil"
	"github.com/HerbHall/showcase/pkg/models"
)

func newSettingsRepo(t *testing.T) (*services.SQLiteSettingsRepository, *testutil.Clock) {
	t.Helper()
	clock := testutil.NewClock()
	repo, err := services.NewSQLiteSettingsRepository(context.Background(), testutil.NewStore(t),
		services.WithSettingsClock(clock.Now))
	if err != nil {
		t.Fatalf("NewSQLiteSettingsRepository: %v", err)
	}
	return repo, clock
}

func TestSettings_SetTrimsAndStamps(t *testing.T) {
	repo, clock := newSettingsRepo(t)
	ctx := context.Background()

	s, err := repo.Set(ctx, models.SettingSiteTitle, "  Field Notes \n")
	if err != nil {
		t.Fatalf("Set: %v", err)
	}
	if s.Value != "Field Notes" || !s.UpdatedAt.Equal(clock.Now()) {
		t.Errorf("Set() = %+v", s)
	}

	clock.Advance(time.Hour)
	if _, err := repo.Set(ctx, models.SettingSiteTitle, "Field Notes, Vol. 2"); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	got, err := repo.Get(ctx, models.SettingSiteTitle)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Value != "Field Notes, Vol. 2" {
		t.Errorf("Value = %q", got.Value)
	}
	if !got.UpdatedAt.Equal(clock.Now()) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, clock.Now())
	}
}

func TestSettings_SetRejectsInvalid(t *testing.T) {
	tests := []struct {
		name       string
		key, value string
	}{
		{"unknown key", "favourite_colour", "teal"},
		{"empty title", models.SettingSiteTitle, "   "},
		{"display-name address", models.SettingContactEmail, "Jane <jane@example.com>"},
		{"not an address", models.SettingContactEmail, "jane at example"},
		{"relative link", models.SettingGitHubURL, "/jane"},
		{"ftp link", models.SettingSiteURL, "ftp://example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, _ := newSettingsRepo(t)
			ctx := context.Background()
			if _, err := repo.Set(ctx, tt.key, tt.value); !errors.Is(err, models.ErrInvalid) {
				t.Fatalf("Set(%q, %q) = %v, want ErrInvalid", tt.key, tt.value, err)
			}
			if _, err := repo.Get(ctx, tt.key); !errors.Is(err, services.ErrNotFound) {
				t.Errorf("Get after rejected Set = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestSettings_GetNotFound(t *testing.T) {
	repo, _ := newSettingsRepo(t)
	if _, err := repo.Get(context.Background(), models.SettingTagline); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("Get() = %v, want ErrNotFound", err)
	}
}

func TestSettings_SetManyAndAll(t *testing.T) {
	repo, _ := newSettingsRepo(t)
	ctx := context.Background()

	all, err := repo.All(ctx)
	if err != nil {
		t.Fatalf("All empty: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("All() on empty store = %v", all)
	}

	in := map[string]string{
		models.SettingSiteTitle:    "Jane Doe",
		models.SettingContactEmail: "jane@example.com",
		models.SettingGitHubURL:    "https://github.com/janedoe",
	}
	if err := repo.SetMany(ctx, in); err != nil {
		t.Fatalf("SetMany: %v", err)
	}
	all, err = repo.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if !maps.Equal(all, in) {
		t.Errorf("All() = %v, want %v", all, in)
	}
}

func TestSettings_SetManyIsAllOrNothing(t *testing.T) {
	repo, _ := newSettingsRepo(t)
	ctx := context.Background()

	err := repo.SetMany(ctx, map[string]string{
		models.SettingSiteTitle:    "Jane Doe",
		models.SettingLinkedInURL:  "linkedin.com/in/jane",
		models.SettingContactEmail: "jane@example.com",
	})
	if !errors.Is(err, models.ErrInvalid) {
		t.Fatalf("SetMany() = %v, want ErrInvalid", err)
	}
	all, err := repo.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("All() after failed SetMany = %v, want empty", all)
	}
}

func TestSettings_Delete(t *testing.T) {
	repo, _ := newSettingsRepo(t)
	ctx := context.Background()

	if _, err := repo.Set(ctx, models.SettingTagline, "Builder of things"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := repo.Delete(ctx, models.SettingTagline); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.Get(ctx, models.SettingTagline); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("Get after Delete = %v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, models.SettingTagline); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("second Delete = %v, want ErrNotFound", err)
	}
}
