package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adminboard/go-admin-backend/internal/auth"
	"github.com/adminboard/go-admin-backend/internal/projects"
)

type seedUser struct {
	email    string
	password string
	role     string
}

var seedUsers = []seedUser{
	{email: "admin@example.com", password: "admin123", role: auth.RoleAdmin},
	{email: "viewer@example.com", password: "viewer123", role: auth.RoleViewer},
}

// Seed upserts the two bootstrap accounts and, when the projects table is
// empty, inserts the sample rows. Safe to run on every startup.
func Seed(ctx context.Context, db *pgxpool.Pool) error {
	for _, u := range seedUsers {
		hash, err := auth.HashPassword(u.password)
		if err != nil {
			return fmt.Errorf("seed hash %s: %w", u.email, err)
		}

		const q = `
insert into users (email, password_hash, role, status)
values ($1, $2, $3, 'active')
on conflict (email) do update
set role = excluded.role, status = 'active', password_hash = excluded.password_hash;
`
		if _, err := db.Exec(ctx, q, u.email, hash, u.role); err != nil {
			return fmt.Errorf("seed user %s: %w", u.email, err)
		}
	}

	projectRepo := projects.NewRepo(db)
	existing, err := projectRepo.Count(ctx)
	if err != nil {
		return fmt.Errorf("seed project count: %w", err)
	}
	if existing > 0 {
		return nil
	}

	const q = `
insert into projects (name, key, status) values
('Alpha', 'ALPHA', 'active'),
('Beta', 'BETA', 'active'),
('Legacy', 'LEGACY', 'archived');
`
	if _, err := db.Exec(ctx, q); err != nil {
		return fmt.Errorf("seed projects: %w", err)
	}
	return nil
}
