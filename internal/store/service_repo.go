package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Zachkp/portfolio/internal/domain"
)

// dbService represents a service as stored in the database.
type dbService struct {
	ID          string     `db:"id"`
	Slug        string     `db:"slug"`
	Title       string     `db:"title"`
	Description string     `db:"description"`
	Features    StringList `db:"features"`
	PriceFrom   int64      `db:"price_from"`
	Active      bool       `db:"active"`
	SortOrder   int        `db:"sort_order"`
	CreatedAt   int64      `db:"created_at"`
	UpdatedAt   int64      `db:"updated_at"`
}

func toDomainService(s *dbService) *domain.Service {
	return &domain.Service{
		ID:          s.ID,
		Slug:        s.Slug,
		Title:       s.Title,
		Description: s.Description,
		Features:    []string(s.Features),
		PriceFrom:   s.PriceFrom,
		Active:      s.Active,
		SortOrder:   s.SortOrder,
		CreatedAt:   fromMillis(s.CreatedAt),
		UpdatedAt:   fromMillis(s.UpdatedAt),
	}
}

const serviceColumns = `id, slug, title, description, features, price_from, active, sort_order, created_at, updated_at`

// ListServices retrieves services ordered for display.
func (repo *Repository) ListServices(ctx context.Context, activeOnly bool) ([]*domain.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY sort_order, created_at`

	var rows []*dbService
	if err := repo.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("listing services: %w", err)
	}
	services := make([]*domain.Service, len(rows))
	for i, row := range rows {
		services[i] = toDomainService(row)
	}
	return services, nil
}

// GetService retrieves a service by ID.
func (repo *Repository) GetService(ctx context.Context, id string) (*domain.Service, error) {
	var row dbService
	err := repo.db.GetContext(ctx, &row, `SELECT `+serviceColumns+` FROM services WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("service %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting service %s: %w", id, err)
	}
	return toDomainService(&row), nil
}

// CreateService inserts s with a slug derived from its title.
func (repo *Repository) CreateService(ctx context.Context, s *domain.Service) error {
	id, err := newID()
	if err != nil {
		return err
	}
	slug, err := repo.uniqueSlug(ctx, "services", s.Slug, s.Title, "")
	if err != nil {
		return err
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	_, err = repo.db.ExecContext(ctx, `
		INSERT INTO services (id, slug, title, description, features, price_from, active, sort_order, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, slug, s.Title, s.Description, StringList(s.Features), s.PriceFrom, s.Active, s.SortOrder,
		toMillis(now), toMillis(now))
	if isUniqueViolation(err) {
		return fmt.Errorf("service slug %q: %w", slug, domain.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("creating service %s: %w", s.Title, err)
	}

	s.ID, s.Slug, s.CreatedAt, s.UpdatedAt = id, slug, now, now
	if s.Features == nil {
		s.Features = []string{}
	}
	return nil
}

// UpdateService overwrites the editable fields of an existing service.
func (repo *Repository) UpdateService(ctx context.Context, s *domain.Service) error {
	slug, err := repo.uniqueSlug(ctx, "services", s.Slug, s.Title, s.ID)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	res, err := repo.db.ExecContext(ctx, `
		UPDATE services SET slug = ?, title = ?, description = ?, features = ?, price_from = ?,
			active = ?, sort_order = ?, updated_at = ?
		WHERE id = ?`,
		slug, s.Title, s.Description, StringList(s.Features), s.PriceFrom, s.Active, s.SortOrder,
		toMillis(now), s.ID)
	if isUniqueViolation(err) {
		return fmt.Errorf("service slug %q: %w", slug, domain.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("updating service %s: %w", s.ID, err)
	}
	if err := checkAffected(res, "service", s.ID); err != nil {
		return err
	}
	s.Slug, s.UpdatedAt = slug, now
	return nil
}

// DeleteService removes a service. Inquiries referring to it keep their
// content and lose the reference.
func (repo *Repository) DeleteService(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM services WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting service %s: %w", id, err)
	}
	return checkAffected(res, "service", id)
}
