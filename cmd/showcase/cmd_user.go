package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/HerbHall/showcase/internal/auth"
	"github.com/HerbHall/showcase/internal/services"
	"github.com/HerbHall/showcase/internal/store"
)

func runUser(args []string) {
	fs := flag.NewFlagSet("user", flag.ExitOnError)
	configPath := fs.String("config", "", "path to configuration file")
	username := fs.String("username", "", "account name (required)")
	password := fs.String("password", os.Getenv("SHOWCASE_USER_PASSWORD"), "password (default: $SHOWCASE_USER_PASSWORD)")
	email := fs.String("email", "", "contact address")
	role := fs.String("role", services.RoleAdmin, "admin or editor")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if *username == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "error: -username and -password are required")
		fs.Usage()
		os.Exit(1)
	}

	_, settings, err := loadConfig(*configPath)
	if err != nil {
		fatalf("user failed: %v", err)
	}
	ctx := context.Background()
	st, err := store.New(settings.Database.Path)
	if err != nil {
		fatalf("user failed: %v", err)
	}
	defer st.Close()

	users, err := services.NewSQLiteUserRepository(ctx, st)
	if err != nil {
		fatalf("user failed: %v", err)
	}
	created, err := upsertUser(ctx, users, *username, *password, *email, *role)
	if err != nil {
		fatalf("user failed: %v", err)
	}
	if created {
		fmt.Printf("Created %s user %q\n", *role, *username)
	} else {
		fmt.Printf("Updated %s user %q\n", *role, *username)
	}
}

// upsertUser creates the account or, when the username exists, resets its
// password, role and email and re-enables it.
func upsertUser(ctx context.Context, users services.UserRepository, username, password, email, role string) (bool, error) {
	if role != services.RoleAdmin && role != services.RoleEditor {
		return false, fmt.Errorf("unknown role %q", role)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return false, err
	}

	existing, err := users.GetByUsername(ctx, username)
	switch {
	case errors.Is(err, services.ErrNotFound):
		u := &services.User{Username: username, Email: email, Role: role, PasswordHash: hash}
		return true, users.Create(ctx, u)
	case err != nil:
		return false, err
	}

	existing.Role = role
	existing.Disabled = false
	if email != "" {
		existing.Email = email
	}
	if err := users.Update(ctx, existing); err != nil {
		return false, err
	}
	return false, users.UpdatePassword(ctx, existing.ID, hash)
}
