// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// SeedAdmin is the account created on an empty database.
type SeedAdmin struct {
	Email    string
	Password string
	Name     string
}

// Seed populates the database with initial data. It creates the admin user
// if no user exists yet and a starter set of categories if none exist. The
// admin may enrol 2FA after first login (totp_enabled = false).
func Seed(ctx context.Context, db *sql.DB, admin SeedAdmin) error {
	if err := seedAdmin(ctx, db, admin); err != nil {
		return err
	}
	return seedCategories(ctx, db)
}

func seedAdmin(ctx context.Context, db *sql.DB, admin SeedAdmin) error {
	// Check if any users exist already.
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("users already seeded, skipping")
		return nil
	}
	if admin.Email == "" || admin.Password == "" {
		slog.Warn("no users and no ADMIN_EMAIL/ADMIN_PASSWORD set, admin not seeded")
		return nil
	}

	if admin.Name == "" {
		admin.Name = "Admin"
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO users (email, name, password_hash, role, totp_enabled)
		VALUES ($1, $2, $3, 'admin', FALSE)
	`, admin.Email, admin.Name, string(hash))
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	slog.Info("database seeded with admin user", "email", admin.Email)
	return nil
}

var starterCategories = []struct {
	name, slug string
}{
	{"News", "news"},
	{"Case Studies", "case-studies"},
	{"Insights", "insights"},
}

func seedCategories(ctx context.Context, db *sql.DB) error {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM categories").Scan(&count); err != nil {
		return fmt.Errorf("seed check categories: %w", err)
	}
	if count > 0 {
		return nil
	}

	for i, c := range starterCategories {
		_, err := db.ExecContext(ctx, `
			INSERT INTO categories (name, slug, sort_order) VALUES ($1, $2, $3)
			ON CONFLICT (slug) DO NOTHING
		`, c.name, c.slug, i)
		if err != nil {
			return fmt.Errorf("seed category %s: %w", c.slug, err)
		}
	}

	slog.Info("database seeded with starter categories", "count", len(starterCategories))
	return nil
}
