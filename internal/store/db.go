package store

import (
	"context"
	"embed"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/Zachkp/portfolio/internal/content"
	"github.com/Zachkp/portfolio/internal/domain"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Repository implements every repository interface of the domain package on
// top of a single sqlite connection pool.
type Repository struct {
	db *sqlx.DB
}

var (
	_ domain.ProjectRepository = (*Repository)(nil)
	_ domain.ServiceRepository = (*Repository)(nil)
	_ domain.InquiryRepository = (*Repository)(nil)
	_ domain.VisitorRepository = (*Repository)(nil)
	_ domain.BountyRepository  = (*Repository)(nil)
)

// NewRepository wraps an open connection.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// DB exposes the underlying connection, for health checks.
func (repo *Repository) DB() *sqlx.DB { return repo.db }

// Ping checks that the database is reachable.
func (repo *Repository) Ping(ctx context.Context) error {
	return repo.db.PingContext(ctx)
}

// Close terminates the database connection.
func (repo *Repository) Close() error {
	if err := repo.db.Close(); err != nil {
		return fmt.Errorf("closing repo: %w", err)
	}
	return nil
}

// Open connects to the sqlite database at path and applies all pending migrations.
//
// sqlite allows a single writer, so the pool is limited to one connection and
// write transactions never contend with each other.
func Open(path string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("connecting to db: %w", err)
	}

	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON;",
		"PRAGMA busy_timeout = 5000;",
		"PRAGMA journal_mode = WAL;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %q: %w", pragma, err)
		}
	}

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate applies the embedded goose migrations.
func Migrate(db *sqlx.DB) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(string(goose.DialectSQLite3)); err != nil {
		return fmt.Errorf("setting dialect for migrations: %w", err)
	}
	if err := goose.Up(db.DB, "migrations"); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

// Seed fills empty tables with the default content. Tables that already hold
// rows are left alone.
func (repo *Repository) Seed(ctx context.Context, log zerolog.Logger) error {
	var projects, services, profiles int
	if err := repo.db.GetContext(ctx, &projects, `SELECT COUNT(*) FROM projects`); err != nil {
		return fmt.Errorf("counting projects: %w", err)
	}
	if err := repo.db.GetContext(ctx, &services, `SELECT COUNT(*) FROM services`); err != nil {
		return fmt.Errorf("counting services: %w", err)
	}
	if err := repo.db.GetContext(ctx, &profiles, `SELECT COUNT(*) FROM bounty_profiles`); err != nil {
		return fmt.Errorf("counting bounty profiles: %w", err)
	}

	if projects == 0 {
		for _, p := range content.Projects() {
			if err := repo.CreateProject(ctx, p); err != nil {
				return fmt.Errorf("seeding project %q: %w", p.Title, err)
			}
		}
		log.Info().Int("count", len(content.Projects())).Msg("Seeded projects")
	}
	if services == 0 {
		for _, s := range content.Services() {
			if err := repo.CreateService(ctx, s); err != nil {
				return fmt.Errorf("seeding service %q: %w", s.Title, err)
			}
		}
		log.Info().Int("count", len(content.Services())).Msg("Seeded services")
	}
	if profiles == 0 {
		for _, p := range content.BountyProfiles() {
			if err := repo.CreateProfile(ctx, p); err != nil {
				return fmt.Errorf("seeding bounty profile %s/%s: %w", p.Platform, p.Username, err)
			}
		}
		log.Info().Int("count", len(content.BountyProfiles())).Msg("Seeded bounty profiles")
	}
	return nil
}
